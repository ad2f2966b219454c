package usecase

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/cache"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/database"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

func (p *pipeline) kpis() *KPIUseCase {
	audit := database.NewAuditRepository(p.conn)
	mem := cache.NewMemory()
	configs := NewKPIConfigUseCase(database.NewKPIConfigRepository(p.conn), audit, mem, logger.Nop())
	uc := NewKPIUseCase(
		database.NewUserRepository(p.conn),
		database.NewTeamRepository(p.conn),
		database.NewLeadRepository(p.conn),
		database.NewStatusHistoryRepository(p.conn),
		database.NewEventRepository(p.conn),
		configs, audit, mem, time.Minute, logger.Nop(),
	)
	uc.Now = fixedNow
	return uc
}

func (p *pipeline) logCalls(t *testing.T, u *entity.User, outcomes ...entity.CallOutcome) {
	t.Helper()
	for _, o := range outcomes {
		_, err := p.events.CreateCall(context.Background(), u, activity.CallInput{Outcome: o, Datetime: at(-time.Hour)})
		require.NoError(t, err)
	}
}

var week = KPIQuery{Period: kpi.PeriodWeek}

func TestKPIsMeAndTeam(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	uc := p.kpis()

	p.logCalls(t, p.starter, entity.CallAnswered, entity.CallBusy, entity.CallAnswered, entity.CallNoAnswer)
	p.logCalls(t, p.colleague, entity.CallVoicemail)

	me, err := uc.Me(ctx, p.starter, week)
	require.NoError(t, err)
	assert.Equal(t, 4, me.CallsMade)
	assert.Equal(t, 2, me.CallsAnswered)
	assert.InDelta(t, 0.5, me.PickupRate, 1e-9)

	team, err := uc.Team(ctx, p.teamleiter, week)
	require.NoError(t, err)
	assert.Equal(t, "Nord", team.TeamName)
	assert.Equal(t, 5, team.Aggregated.CallsMade)

	_, err = uc.Team(ctx, p.starter, week)
	assertDomainError(t, err, CodeForbidden, msgNoPermission)

	overview, err := uc.Overview(ctx, p.admin, week)
	require.NoError(t, err)
	assert.Equal(t, 5, overview.CallsMade)

	cards, err := uc.MeCards(ctx, p.starter, week)
	require.NoError(t, err)
	var callsCard *kpi.Card
	for i := range cards {
		if cards[i].Name == "calls_made" {
			callsCard = &cards[i]
		}
	}
	require.NotNil(t, callsCard)
	assert.Equal(t, "Anrufe getätigt", callsCard.Label)
	assert.Equal(t, 4.0, callsCard.Value)
}

func TestKPIsUserScope(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	uc := p.kpis()
	p.logCalls(t, p.colleague, entity.CallAnswered)

	k, err := uc.User(ctx, p.teamleiter, p.colleague.ID, week)
	require.NoError(t, err)
	assert.Equal(t, 1, k.CallsMade)

	_, err = uc.User(ctx, p.outsider, p.colleague.ID, week)
	assertDomainError(t, err, CodeForbidden, msgForeignMember)

	_, err = uc.User(ctx, p.starter, p.colleague.ID, week)
	assertDomainError(t, err, CodeForbidden, msgNoPermission)

	_, err = uc.User(ctx, p.admin, 9999, week)
	assertDomainError(t, err, CodeNotFound, msgUserNotFound)
}

func TestKPIsPeriodErrors(t *testing.T) {
	p := newPipeline(t)
	uc := p.kpis()

	_, err := uc.Me(context.Background(), p.starter, KPIQuery{Period: kpi.PeriodCustom})
	assertDomainError(t, err, CodeValidation, kpi.ErrCustomNeedsBounds.Error())

	_, err = uc.Me(context.Background(), p.starter, KPIQuery{Period: "quarter"})
	assertDomainError(t, err, CodeValidation, "Ungültiger Zeitraum")
}

func TestKPIsJourney(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	uc := p.kpis()

	lead := p.newLead(t)
	_, err := p.events.CreateCall(ctx, p.starter, activity.CallInput{LeadID: &lead.ID, Outcome: entity.CallAnswered})
	require.NoError(t, err)
	p.newLead(t)

	f, err := uc.Journey(ctx, p.teamleiter, week)
	require.NoError(t, err)
	assert.Equal(t, 2, f.LeadsCreated)

	lonely := &entity.User{ID: 99, Role: entity.RoleTeamleiter}
	_, err = uc.Journey(ctx, lonely, week)
	assertDomainError(t, err, CodeNotFound, msgNoTeam)
}

func TestKPIsExportTeam(t *testing.T) {
	p := newPipeline(t)
	uc := p.kpis()
	p.logCalls(t, p.starter, entity.CallAnswered)

	var buf bytes.Buffer
	require.NoError(t, uc.ExportTeam(context.Background(), p.teamleiter, week, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())

	logs, err := uc.Audit.List(context.Background(), entity.AuditFilter{Limit: 10})
	require.NoError(t, err)
	var exported bool
	for _, l := range logs {
		exported = exported || (l.Action == entity.AuditExport && l.ObjectType == "TeamKPIs")
	}
	assert.True(t, exported)
}

func TestKPIConfig(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	uc := p.kpis().Configs

	all, err := uc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(kpi.Defaults()))

	again, err := uc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(all))

	before, err := uc.Visible(ctx, p.starter)
	require.NoError(t, err)

	label := "Telefonate"
	_, err = uc.Update(ctx, p.teamleiter, "calls_made", KPIConfigUpdate{Label: &label})
	assertDomainError(t, err, CodeForbidden, msgNoPermission)

	_, err = uc.Update(ctx, p.admin, "gibt_es_nicht", KPIConfigUpdate{Label: &label})
	assertDomainError(t, err, CodeNotFound, msgKPINotFound)

	_, err = uc.Update(ctx, p.admin, "calls_made", KPIConfigUpdate{Visibility: []entity.UserRole{"chef"}})
	assertDomainError(t, err, CodeValidation, "visibility enthält eine ungültige Rolle")

	updated, err := uc.Update(ctx, p.admin, "calls_made", KPIConfigUpdate{
		Label:      &label,
		Visibility: []entity.UserRole{entity.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "Telefonate", updated.Label)

	visible, err := uc.Visible(ctx, p.starter)
	require.NoError(t, err)
	for _, c := range visible {
		assert.NotEqual(t, "calls_made", c.Name)
	}
	assert.Len(t, visible, len(before)-1)
}
