package entitlement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
)

func TestAutoAssignFreePlans(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(conn).WithClock(fixedClock(now))

	eligible := seedUser(t, conn, "u-bulk-1")
	tooFew := seedUser(t, conn, "u-bulk-2")
	subscribed := seedUser(t, conn, "u-bulk-3")
	if _, errAssign := svc.AssignCRM(context.Background(), subscribed.UserID, catalog.CRMPlanAchipreneur); errAssign != nil {
		t.Fatalf("assign subscribed: %v", errAssign)
	}

	addLeads := func(publicID string, n int) {
		for i := 0; i < n; i++ {
			lead := &models.Lead{
				UserID:    publicID,
				Name:      fmt.Sprintf("Lead %d", i),
				Email:     fmt.Sprintf("%s-%d@example.com", publicID, i),
				Status:    models.LeadStatusFresh,
				FetchedAt: now,
				CreatedAt: now,
			}
			if errCreate := conn.Create(lead).Error; errCreate != nil {
				t.Fatalf("seed lead: %v", errCreate)
			}
		}
	}
	addLeads(eligible.UserID, 6)
	addLeads(tooFew.UserID, 2)

	result, errRun := svc.AutoAssignFreePlans(context.Background())
	if errRun != nil {
		t.Fatalf("auto assign: %v", errRun)
	}
	if result.Assigned != 1 {
		t.Fatalf("expected 1 assignment, got %d", result.Assigned)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, eligible.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if !reloaded.IsCrmSubscribed || reloaded.CRMPlanInfo.Data().PlanName != catalog.CRMPlanFree {
		t.Fatalf("expected free plan on eligible account")
	}

	var untouched models.User
	if errFind := conn.First(&untouched, tooFew.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if untouched.IsCrmSubscribed {
		t.Fatalf("expected account below threshold untouched")
	}

	var kept models.User
	if errFind := conn.First(&kept, subscribed.ID).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	if kept.CRMPlanInfo.Data().PlanName != catalog.CRMPlanAchipreneur {
		t.Fatalf("expected existing subscription untouched")
	}
}
