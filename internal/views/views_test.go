package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
)

func lead(id int64, name string, status entity.LeadStatus) *entity.Lead {
	return &entity.Lead{
		ID:            id,
		FullName:      name,
		Phone:         "+43 1 234",
		CurrentStatus: status,
		CreatedAt:     time.Date(2026, 1, int(id), 0, 0, 0, 0, time.UTC),
	}
}

func ids(leads []*entity.Lead) []int64 {
	out := make([]int64, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func TestStatusSortUsesGermanLabels(t *testing.T) {
	leads := []*entity.Lead{
		lead(1, "A", entity.StatusCallScheduled),
		lead(2, "B", entity.StatusClosedWon),
		lead(3, "C", entity.StatusNewCold),
	}

	got := Leads(leads, LeadQuery{SortKey: SortByStatus})

	// "Abschluss (Won)" < "Anruf geplant" < "Neu (kalt)"
	assert.Equal(t, []int64{2, 1, 3}, ids(got))

	got = Leads(leads, LeadQuery{SortKey: SortByStatus, Desc: true})
	assert.Equal(t, []int64{3, 1, 2}, ids(got))
}

func TestLeadsDoesNotMutateInput(t *testing.T) {
	leads := []*entity.Lead{
		lead(1, "Zoe", entity.StatusNewCold),
		lead(2, "Anna", entity.StatusNewCold),
	}

	got := Leads(leads, LeadQuery{SortKey: SortByName})

	assert.Equal(t, []int64{2, 1}, ids(got))
	assert.Equal(t, []int64{1, 2}, ids(leads))
}

func TestLeadsArchiveToggle(t *testing.T) {
	leads := []*entity.Lead{
		lead(1, "A", entity.StatusClosedLost),
		lead(2, "B", entity.StatusFirstApptScheduled),
		lead(3, "C", entity.StatusClosedWon),
	}

	assert.Equal(t, []int64{2}, ids(Leads(leads, LeadQuery{View: ViewActive})))
	assert.Equal(t, []int64{1, 3}, ids(Leads(leads, LeadQuery{View: ViewArchive})))
	assert.Len(t, Leads(leads, LeadQuery{}), 3)
	assert.Equal(t, []int64{3}, ids(Leads(leads, LeadQuery{Status: entity.StatusClosedWon})))
}

func TestLeadsSearchIgnoresAccentsAndCase(t *testing.T) {
	l := lead(1, "Jürgen Müller", entity.StatusNewCold)
	l.Note = "Rückruf am Montag"
	leads := []*entity.Lead{l, lead(2, "Maria Huber", entity.StatusNewCold)}

	assert.Equal(t, []int64{1}, ids(Leads(leads, LeadQuery{Search: "muller"})))
	assert.Equal(t, []int64{1}, ids(Leads(leads, LeadQuery{Search: "RUCKRUF"})))
	assert.Equal(t, []int64{2}, ids(Leads(leads, LeadQuery{Search: " huber "})))
	assert.Empty(t, Leads(leads, LeadQuery{Search: "schmidt"}))
}

func TestNextActionSortIsStable(t *testing.T) {
	leads := []*entity.Lead{
		lead(1, "A", entity.StatusClosedWon),
		lead(2, "B", entity.StatusSecondApptCompleted),
		lead(3, "C", entity.StatusNewCold),
		lead(4, "D", entity.StatusFirstApptScheduled),
		lead(5, "E", entity.StatusCallScheduled),
	}

	got := Leads(leads, LeadQuery{SortKey: SortByNextAction})
	assert.Equal(t, []int64{3, 5, 4, 2, 1}, ids(got))
}

func TestLastActivitySortPutsMissingFirstAscending(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	a := lead(1, "A", entity.StatusNewCold)
	a.LastActivityAt = &now
	b := lead(2, "B", entity.StatusNewCold)
	c := lead(3, "C", entity.StatusNewCold)
	c.LastActivityAt = &earlier

	got := Leads([]*entity.Lead{a, b, c}, LeadQuery{SortKey: SortByLastActivityAt, Desc: true})
	assert.Equal(t, []int64{1, 3, 2}, ids(got))
}

func TestMembers(t *testing.T) {
	users := []*entity.User{
		{ID: 1, FirstName: "Ömer", LastName: "Zeller", Email: "z@x.at", Role: entity.RoleStarter, Status: entity.UserActive},
		{ID: 2, FirstName: "Anna", LastName: "Öztürk", Email: "a@x.at", Role: entity.RoleTeamleiter, Status: entity.UserActive},
		{ID: 3, FirstName: "Ben", LastName: "Adler", Email: "b@x.at", Role: entity.RoleStarter, Status: entity.UserPending},
	}

	got := Members(users, MemberQuery{SortKey: MemberSortByName})
	require.Len(t, got, 3)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	got = Members(users, MemberQuery{Role: entity.RoleStarter, Status: entity.UserActive})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got = Members(users, MemberQuery{Search: "omer"})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got = Members(users, MemberQuery{SortKey: MemberSortByRole})
	assert.Equal(t, entity.RoleStarter, got[0].Role)
	assert.Equal(t, entity.RoleTeamleiter, got[2].Role)
}
