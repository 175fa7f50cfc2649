package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
)

func TestSweep_ClearsLapsedMainPlans(t *testing.T) {
	conn := openTestDB(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(conn).WithClock(fixedClock(start))

	lapsed := seedUser(t, conn, "u-sweep-1")
	active := seedUser(t, conn, "u-sweep-2")
	forever := seedUser(t, conn, "u-sweep-3")

	// Subscribed two years before the sweep, well past the 365 day validity.
	svc.WithClock(fixedClock(start.AddDate(-2, 0, 0)))
	if _, errAssign := svc.AssignMain(context.Background(), lapsed.ID, catalog.PlanEssentials, nil); errAssign != nil {
		t.Fatalf("assign lapsed: %v", errAssign)
	}
	svc.WithClock(fixedClock(start))
	if _, errAssign := svc.AssignMain(context.Background(), active.ID, catalog.PlanGrowth, nil); errAssign != nil {
		t.Fatalf("assign active: %v", errAssign)
	}
	if _, errAssign := svc.AssignMain(context.Background(), forever.ID, catalog.PlanEnterprise, nil); errAssign != nil {
		t.Fatalf("assign forever: %v", errAssign)
	}

	sweepTime := start.AddDate(0, 0, 120)
	sweeper := NewSweeper(conn).WithClock(fixedClock(sweepTime))

	result, errSweep := sweeper.Sweep(context.Background(), models.TrackMain)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if result.Scanned != 3 {
		t.Fatalf("expected 3 scanned, got %d", result.Scanned)
	}
	if result.ExpiredCount != 1 {
		t.Fatalf("expected 1 expired, got %d", result.ExpiredCount)
	}

	assertFlag := func(id uint64, want bool) {
		t.Helper()
		var user models.User
		if errFind := conn.First(&user, id).Error; errFind != nil {
			t.Fatalf("reload: %v", errFind)
		}
		if user.IsSubscribed != want {
			t.Fatalf("user %d: expected is_subscribed=%v", id, want)
		}
	}
	assertFlag(lapsed.ID, false)
	assertFlag(active.ID, true)
	assertFlag(forever.ID, true)

	var lapsedUser models.User
	if errFind := conn.First(&lapsedUser, lapsed.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if lapsedUser.PlanInfo.Data().PlanName != catalog.PlanEssentials {
		t.Fatalf("expected lapsed plan document kept for inspection")
	}
}

func TestSweep_FlaggedRowWithoutPlanDocumentSelfHeals(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "u-sweep-4")
	if errFlag := conn.Model(&models.User{}).Where("id = ?", user.ID).
		Update("is_crm_subscribed", true).Error; errFlag != nil {
		t.Fatalf("flag user: %v", errFlag)
	}

	sweeper := NewSweeper(conn)
	result, errSweep := sweeper.Sweep(context.Background(), models.TrackCRM)
	if errSweep != nil {
		t.Fatalf("sweep: %v", errSweep)
	}
	if result.ExpiredCount != 1 {
		t.Fatalf("expected inconsistent row cleared, got %d", result.ExpiredCount)
	}
}

func TestSweepAll_CoversBothTracks(t *testing.T) {
	conn := openTestDB(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(conn).WithClock(fixedClock(start))

	user := seedUser(t, conn, "u-sweep-5")
	if _, errAssign := svc.AssignMain(context.Background(), user.ID, catalog.PlanEssentials, nil); errAssign != nil {
		t.Fatalf("assign main: %v", errAssign)
	}
	if _, errAssign := svc.AssignCRM(context.Background(), user.UserID, catalog.CRMPlanFree); errAssign != nil {
		t.Fatalf("assign crm: %v", errAssign)
	}

	sweeper := NewSweeper(conn).WithClock(fixedClock(start.AddDate(1, 0, 1)))
	results, errSweep := sweeper.SweepAll(context.Background())
	if errSweep != nil {
		t.Fatalf("sweep all: %v", errSweep)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both tracks, got %d", len(results))
	}
	total := 0
	for _, r := range results {
		total += r.ExpiredCount
	}
	if total != 2 {
		t.Fatalf("expected both entitlements expired, got %d", total)
	}
}

func TestSchedulerStatus(t *testing.T) {
	conn := openTestDB(t)
	scheduler := NewScheduler(NewSweeper(conn), 2)

	status := scheduler.Status()
	if status.Running {
		t.Fatalf("expected stopped scheduler")
	}
	if status.Hour != 2 {
		t.Fatalf("expected hour 2, got %d", status.Hour)
	}

	scheduler.Start()
	defer scheduler.Stop()
	status = scheduler.Status()
	if !status.Running {
		t.Fatalf("expected running scheduler")
	}
	if status.NextRun.Hour() != 2 {
		t.Fatalf("expected next run at hour 2, got %v", status.NextRun)
	}
	if !status.NextRun.After(time.Now().UTC()) {
		t.Fatalf("expected next run in the future")
	}

	// Start is idempotent.
	scheduler.Start()
	scheduler.Stop()
	if scheduler.Status().Running {
		t.Fatalf("expected stopped after Stop")
	}
	scheduler.Stop()
}
