// Sample that logs in against a running dashboard, records a call for a new
// lead through the activity flow and prints the caller's weekly KPIs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/xavierca1/pipeline-dashboard/internal/activity"
	"github.com/xavierca1/pipeline-dashboard/internal/client"
	"github.com/xavierca1/pipeline-dashboard/internal/kpi"
	"github.com/xavierca1/pipeline-dashboard/internal/lifecycle"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using the process environment")
	}

	baseURL := envOr("DASHBOARD_URL", "http://localhost:8080")
	email := os.Getenv("DASHBOARD_EMAIL")
	password := os.Getenv("DASHBOARD_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("DASHBOARD_EMAIL and DASHBOARD_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(baseURL)
	me, err := c.Login(ctx, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	defer c.Logout(context.Background())
	fmt.Printf("Angemeldet als %s (%s)\n", me.FullName(), me.Role)

	callback := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	d := activity.NewDraft(lifecycle.ActionCall)
	d.NewLead = activity.NewLeadForm{FullName: "Max Mustermann", Phone: "+49 151 23456789"}
	d.Call.Outcome = "voicemail"
	d.Call.NextCallAt = &callback

	res, err := activity.NewRecorder(c, logger.New("info")).Submit(ctx, d)
	if err != nil {
		log.Fatalf("recording the call failed: %v", err)
	}
	fmt.Printf("Lead %d angelegt, Anruf %d gespeichert\n", res.LeadID, res.Call.ID)
	if res.Partial {
		fmt.Println("Hinweis:", res.FollowUpNote)
	}

	kpis, err := c.MyKPIs(ctx, kpi.PeriodWeek)
	if err != nil {
		log.Fatalf("loading kpis failed: %v", err)
	}
	fmt.Printf("Diese Woche: %d Anrufe, %s Units\n", kpis.CallsMade, kpi.German.Units(kpis.UnitsTotal))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
