// Command seed fills an empty database with demo teams, users and a lead
// pipeline with recorded activities.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/auth"
	"github.com/xavierca1/pipeline-dashboard/internal/config"
	"github.com/xavierca1/pipeline-dashboard/internal/entity"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/cache"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/database"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

var teamNames = []string{"Nord", "Süd", "West"}

var productCategories = []string{"Altersvorsorge", "Berufsunfähigkeit", "Krankenversicherung", "Sachversicherung"}

type seeder struct {
	fake     *gofakeit.Faker
	log      logger.Logger
	password string

	users      entity.UserRepositoryInterface
	admin      *usecase.AdminUseCase
	leads      *usecase.LeadUseCase
	activities *usecase.ActivityUseCase
}

func main() {
	var (
		starters = flag.Int("starters", 4, "starters per team")
		leads    = flag.Int("leads", 12, "leads per starter")
		password = flag.String("password", "geheim123", "password for every seeded account")
		seed     = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel).With("cmd", "seed")
	ctx := context.Background()

	conn, err := database.NewDBConnection(ctx, database.Dialect(cfg.Dialect()), cfg.DatabaseURL, database.PoolConfig{
		MaxOpen: cfg.DBMaxOpen, MaxIdle: cfg.DBMaxIdle, MaxIdleTime: cfg.DBMaxIdleFor,
	})
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	if err := database.Migrate(ctx, conn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	users := database.NewUserRepository(conn)
	teams := database.NewTeamRepository(conn)
	leadRepo := database.NewLeadRepository(conn)
	history := database.NewStatusHistoryRepository(conn)
	events := database.NewEventRepository(conn)
	audit := database.NewAuditRepository(conn)

	quiet := logger.Nop()
	kv := cache.NewMemory()
	pub := &queue.LogProducer{Log: quiet}
	leadUC := usecase.NewLeadUseCase(leadRepo, history, events, audit, kv, cfg.KPICacheTTL, quiet)
	eventUC := usecase.NewEventUseCase(leadRepo, history, events, audit, kv, pub, quiet)

	s := &seeder{
		fake:       gofakeit.New(*seed),
		log:        log,
		password:   *password,
		users:      users,
		admin:      usecase.NewAdminUseCase(users, teams, audit, pub, kv, cfg.BcryptCost, quiet),
		leads:      leadUC,
		activities: usecase.NewActivityUseCase(leadUC, eventUC, quiet),
	}
	if err := s.run(ctx, *starters, *leads); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func (s *seeder) run(ctx context.Context, startersPerTeam, leadsPerStarter int) error {
	admin, err := s.ensureAdmin(ctx)
	if err != nil {
		return err
	}

	var recorded int
	for i, name := range teamNames {
		team, err := s.admin.CreateTeam(ctx, admin, usecase.TeamInput{Name: &name})
		if err != nil {
			return fmt.Errorf("create team %s: %w", name, err)
		}

		lead, err := s.createUser(ctx, admin, entity.RoleTeamleiter, team.ID, fmt.Sprintf("teamleiter%d@example.com", i+1))
		if err != nil {
			return err
		}
		if _, err := s.admin.UpdateTeam(ctx, admin, team.ID, usecase.TeamInput{LeadUserID: &lead.ID}); err != nil {
			return fmt.Errorf("assign team lead: %w", err)
		}

		for j := 0; j < startersPerTeam; j++ {
			email := fmt.Sprintf("starter%d.%d@example.com", i+1, j+1)
			starter, err := s.createUser(ctx, admin, entity.RoleStarter, team.ID, email)
			if err != nil {
				return err
			}
			for k := 0; k < leadsPerStarter; k++ {
				n, err := s.workLead(ctx, starter)
				if err != nil {
					return fmt.Errorf("work lead for %s: %w", email, err)
				}
				recorded += n
			}
		}
		s.log.Info("team seeded", "team", name, "starters", startersPerTeam)
	}

	s.log.Info("seed complete", "teams", len(teamNames), "activities", recorded, "admin", admin.Email)
	return nil
}

// ensureAdmin creates the first admin directly, since every admin
// operation needs an acting admin.
func (s *seeder) ensureAdmin(ctx context.Context) (*entity.User, error) {
	const email = "admin@example.com"
	u, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("database already seeded (%s exists)", email)
	}
	if !errors.Is(err, entity.ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(s.password, s.admin.BcryptCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u = &entity.User{
		Email: email, PasswordHash: hash, FirstName: "System", LastName: "Admin",
		Role: entity.RoleAdmin, Status: entity.UserActive,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return u, nil
}

func (s *seeder) createUser(ctx context.Context, admin *entity.User, role entity.UserRole, teamID int64, email string) (*entity.User, error) {
	u, err := s.admin.CreateUser(ctx, admin, usecase.UserCreateInput{
		Email:     email,
		Password:  s.password,
		FirstName: s.fake.FirstName(),
		LastName:  s.fake.LastName(),
		Role:      role,
		TeamID:    &teamID,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s %s: %w", role, email, err)
	}
	return u, nil
}

// workLead creates a lead with a first call and pushes it a random number
// of steps down the pipeline. It returns the number of recorded activities.
func (s *seeder) workLead(ctx context.Context, starter *entity.User) (int, error) {
	d := activity.NewDraft(lifecycle.ActionCall)
	d.NewLead = activity.NewLeadForm{
		FullName: s.leadName(),
		Phone:    s.fake.Numerify("+49 15# ########"),
		Email:    strings.ToLower(s.fake.Email()),
	}
	d = s.fillCall(d, entity.StatusNewCold)

	res, err := s.activities.Record(ctx, starter, d)
	if err != nil {
		return 0, err
	}
	recorded := 1

	steps := s.fake.Number(0, 4)
	for i := 0; i < steps; i++ {
		lead, err := s.leads.Get(ctx, starter, res.LeadID)
		if err != nil {
			return recorded, err
		}
		action := lifecycle.NextAction(lead.CurrentStatus)
		if action == lifecycle.ActionNone {
			break
		}

		next := activity.NewDraft(action)
		next.Lead = &activity.LeadRef{ID: lead.ID, FullName: lead.FullName, Status: lead.CurrentStatus}
		switch action {
		case lifecycle.ActionCall:
			next = s.fillCall(next, lead.CurrentStatus)
		case lifecycle.ActionAppointment:
			next = s.fillAppointment(next, lead.CurrentStatus)
		case lifecycle.ActionClosing:
			next.Closing = activity.ClosingForm{
				Result:          entity.ClosingWon,
				Units:           float64(s.fake.Number(1, 12)) / 2,
				ProductCategory: s.fake.RandomString(productCategories),
			}
		}
		if _, err := s.activities.Record(ctx, starter, next); err != nil {
			return recorded, err
		}
		recorded++
	}
	return recorded, nil
}

func (s *seeder) fillCall(d activity.Draft, status entity.LeadStatus) activity.Draft {
	outcomes := []activity.CallOutcome{
		activity.OutcomeAnsweredAppt,
		activity.OutcomeAnsweredAppt,
		activity.CallOutcome(entity.CallBusy),
		activity.CallOutcome(entity.CallVoicemail),
		activity.CallOutcome(entity.CallAnswered),
	}
	if status != entity.StatusNewCold {
		outcomes = append(outcomes, activity.CallOutcome(entity.CallDeclined))
	}
	d.Call.Outcome = outcomes[s.fake.Number(0, len(outcomes)-1)]
	d.Call.Notes = s.fake.Sentence(6)

	switch d.Call.Outcome {
	case activity.OutcomeAnsweredAppt:
		at := s.futureSlot()
		d.Call.AppointmentAt = &at
		d.Call.AppointmentLocation = s.fake.City()
	case activity.CallOutcome(entity.CallBusy), activity.CallOutcome(entity.CallVoicemail):
		at := s.futureSlot()
		d.Call.NextCallAt = &at
	}
	return d
}

func (s *seeder) fillAppointment(d activity.Draft, status entity.LeadStatus) activity.Draft {
	switch status {
	case entity.StatusFirstApptCompleted:
		at := s.futureSlot()
		d.Appointment.Type = entity.AppointmentSecond
		d.Appointment.Result = entity.AppointmentSet
		d.Appointment.Datetime = &at
	case entity.StatusSecondApptScheduled:
		d.Appointment.Type = entity.AppointmentSecond
		d.Appointment.Result = entity.AppointmentCompleted
	case entity.StatusFirstApptPending:
		at := s.futureSlot()
		d.Appointment.Type = entity.AppointmentFirst
		d.Appointment.Result = entity.AppointmentSet
		d.Appointment.Datetime = &at
	default:
		d.Appointment.Type = entity.AppointmentFirst
		d.Appointment.Result = entity.AppointmentCompleted
	}
	d.Appointment.Location = s.fake.City()
	return d
}

func (s *seeder) leadName() string {
	if s.fake.Bool() {
		return s.fake.Company()
	}
	return s.fake.FirstName() + " " + s.fake.LastName()
}

// futureSlot returns a full hour on one of the next working days.
func (s *seeder) futureSlot() time.Time {
	day := time.Now().AddDate(0, 0, s.fake.Number(1, 10))
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), s.fake.Number(9, 17), 0, 0, 0, time.Local)
}
