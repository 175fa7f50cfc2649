package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.User{}, &models.Project{}, &models.Lead{}, &models.SubscriptionRecord{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, publicID string) *models.User {
	t.Helper()
	user := &models.User{
		UserID:        publicID,
		OrgName:       "Studio North",
		ContactPerson: "R. Mehta",
		Email:         publicID + "@example.com",
		Password:      "x",
	}
	if errCreate := conn.Create(user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	return user
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAssignMain_SetsPlanAndAudit(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(conn).WithClock(fixedClock(now))
	user := seedUser(t, conn, "u-main-1")

	result, errAssign := svc.AssignMain(context.Background(), user.ID, catalog.PlanEssentials, nil)
	if errAssign != nil {
		t.Fatalf("assign: %v", errAssign)
	}
	if result.Plan != catalog.PlanEssentials {
		t.Fatalf("expected plan %q, got %q", catalog.PlanEssentials, result.Plan)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if !reloaded.IsSubscribed {
		t.Fatalf("expected is_subscribed set")
	}
	doc := reloaded.PlanInfo.Data()
	if doc.PlanName != catalog.PlanEssentials {
		t.Fatalf("expected plan document for essentials, got %q", doc.PlanName)
	}
	if doc.Features.UsedProjects != 0 || doc.Features.UsedArea != 0 {
		t.Fatalf("expected zeroed usage counters")
	}
	if doc.Features.RemainingArea != 6000 {
		t.Fatalf("expected remaining area 6000, got %v", doc.Features.RemainingArea)
	}
	wantExpiry, ok := doc.ExpiresAt.Timestamp()
	if !ok {
		t.Fatalf("expected concrete expiry")
	}
	days, _ := doc.Features.ValidityDays.Value()
	if !wantExpiry.Equal(now.AddDate(0, 0, days)) {
		t.Fatalf("expected expiry %d days out, got %v", days, wantExpiry)
	}

	var record models.SubscriptionRecord
	if errFind := conn.Where("user_id = ?", user.UserID).First(&record).Error; errFind != nil {
		t.Fatalf("find audit record: %v", errFind)
	}
	if record.Track != models.TrackMain || record.Plan != catalog.PlanEssentials {
		t.Fatalf("unexpected audit record: %+v", record)
	}
}

func TestAssignMain_EnterpriseOverride(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(conn).WithClock(fixedClock(now))
	user := seedUser(t, conn, "u-main-2")

	override := &EnterpriseOverride{ProjectCount: 12, ValidityDays: 365}
	if _, errAssign := svc.AssignMain(context.Background(), user.ID, catalog.PlanEnterprise, override); errAssign != nil {
		t.Fatalf("assign: %v", errAssign)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	doc := reloaded.PlanInfo.Data()
	if n, ok := doc.Features.Projects.Value(); !ok || n != 12 {
		t.Fatalf("expected overridden project cap 12, got %v", doc.Features.Projects)
	}
	if doc.Features.RemainingProjects != 12 {
		t.Fatalf("expected remaining projects 12, got %d", doc.Features.RemainingProjects)
	}
	expiry, ok := doc.ExpiresAt.Timestamp()
	if !ok || !expiry.Equal(now.AddDate(0, 0, 365)) {
		t.Fatalf("expected 365 day expiry, got %v", doc.ExpiresAt)
	}
}

func TestAssignMain_UnknownPlan(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, "u-main-3")

	if _, errAssign := svc.AssignMain(context.Background(), user.ID, "platinum", nil); !errors.Is(errAssign, ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", errAssign)
	}
}

func TestAssignMain_MissingAccount(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)

	if _, errAssign := svc.AssignMain(context.Background(), 9999, catalog.PlanGrowth, nil); !errors.Is(errAssign, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", errAssign)
	}
}

func TestAssignCRM_InitializesCountersAndUnlocksLeads(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(conn).WithClock(fixedClock(now))
	user := seedUser(t, conn, "u-crm-1")

	locked := now.Add(-time.Hour)
	lead := &models.Lead{
		UserID:    user.UserID,
		Name:      "A. Rao",
		Email:     "rao@example.com",
		Status:    models.LeadStatusFresh,
		ViewUpto:  &locked,
		FetchedAt: now.AddDate(0, -1, 0),
		CreatedAt: now.AddDate(0, -1, 0),
	}
	if errCreate := conn.Create(lead).Error; errCreate != nil {
		t.Fatalf("seed lead: %v", errCreate)
	}

	if _, errAssign := svc.AssignCRM(context.Background(), user.UserID, catalog.CRMPlanAchipreneur); errAssign != nil {
		t.Fatalf("assign: %v", errAssign)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if !reloaded.IsCrmSubscribed {
		t.Fatalf("expected is_crm_subscribed set")
	}
	doc := reloaded.CRMPlanInfo.Data()
	want := doc.Features.FreshLeadsPerMonth + doc.Features.WelcomeBonusLeads
	if doc.Features.RemainingLeadsThisMonth != want {
		t.Fatalf("expected remaining %d, got %d", want, doc.Features.RemainingLeadsThisMonth)
	}
	if doc.Features.UsedLeadsThisMonth != 0 {
		t.Fatalf("expected zero used leads")
	}

	var reloadedLead models.Lead
	if errFind := conn.First(&reloadedLead, lead.ID).Error; errFind != nil {
		t.Fatalf("reload lead: %v", errFind)
	}
	if reloadedLead.ViewUpto != nil {
		t.Fatalf("expected view restriction cleared")
	}
}

func TestAssignCRM_CustomPlanNeverExpires(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	user := seedUser(t, conn, "u-crm-2")

	if _, errAssign := svc.AssignCRM(context.Background(), user.UserID, catalog.CRMPlanCustom); errAssign != nil {
		t.Fatalf("assign: %v", errAssign)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	doc := reloaded.CRMPlanInfo.Data()
	if !doc.ExpiresAt.Custom {
		t.Fatalf("expected never-expiring plan, got %v", doc.ExpiresAt)
	}
	var record models.SubscriptionRecord
	if errFind := conn.Where("user_id = ?", user.UserID).First(&record).Error; errFind != nil {
		t.Fatalf("find audit record: %v", errFind)
	}
	if record.ExpiresAt != nil {
		t.Fatalf("expected nil audit expiry for never-expiring plan")
	}
	if !record.PriceCustom {
		t.Fatalf("expected custom price flag")
	}
}
