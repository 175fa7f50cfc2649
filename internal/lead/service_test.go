package lead

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/architex"
	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/Vrisan-Services/B2b-Server/internal/timeutil"
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
	if errMigrate := conn.AutoMigrate(&models.User{}, &models.Lead{}, &models.SubscriptionRecord{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedCRMUser(t *testing.T, conn *gorm.DB, planID string, at time.Time) *models.User {
	t.Helper()
	user := &models.User{
		UserID:   "crm-" + t.Name(),
		OrgName:  "Forma Studio",
		Email:    "crm-" + t.Name() + "@example.com",
		Password: "x",
	}
	if errCreate := conn.Create(user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	svc := entitlement.NewService(conn).WithClock(func() time.Time { return at })
	if _, errAssign := svc.AssignCRM(context.Background(), user.UserID, planID); errAssign != nil {
		t.Fatalf("assign crm plan: %v", errAssign)
	}
	return user
}

func makeLeads(prefix string, n int) []architex.Lead {
	leads := make([]architex.Lead, 0, n)
	for i := 0; i < n; i++ {
		leads = append(leads, architex.Lead{
			Name:  fmt.Sprintf("%s %d", prefix, i),
			Email: fmt.Sprintf("%s-%d@example.com", prefix, i),
			Phone: "9800000000",
			City:  "Pune",
		})
	}
	return leads
}

func TestIngest_DedupAndMetering(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	user := seedCRMUser(t, conn, catalog.CRMPlanAchipreneur, now)
	svc := NewService(conn, nil).WithClock(func() time.Time { return now })

	first, errFirst := svc.Ingest(context.Background(), user.UserID, makeLeads("alpha", 5))
	if errFirst != nil {
		t.Fatalf("first ingest: %v", errFirst)
	}
	if first.Stored != 5 || first.Duplicates != 0 {
		t.Fatalf("expected 5 stored, got %+v", first)
	}
	if first.Used != 5 || first.Remaining != 15 {
		t.Fatalf("expected used 5 remaining 15, got %+v", first)
	}

	// Same batch again is all duplicates and charges nothing.
	second, errSecond := svc.Ingest(context.Background(), user.UserID, makeLeads("alpha", 5))
	if errSecond != nil {
		t.Fatalf("second ingest: %v", errSecond)
	}
	if second.Stored != 0 || second.Duplicates != 5 {
		t.Fatalf("expected all duplicates, got %+v", second)
	}
	if second.Used != 5 || second.Remaining != 15 {
		t.Fatalf("expected unchanged usage, got %+v", second)
	}

	var reloaded models.User
	if errFind := conn.Where("user_id = ?", user.UserID).First(&reloaded).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	doc := reloaded.CRMPlanInfo.Data()
	if doc.Features.UsedLeadsThisMonth != 5 || doc.Features.RemainingLeadsThisMonth != 15 {
		t.Fatalf("expected plan counters 5/15, got %d/%d",
			doc.Features.UsedLeadsThisMonth, doc.Features.RemainingLeadsThisMonth)
	}
	monthKey := timeutil.MonthKey(now)
	if len(doc.LeadsUsageHistory) != 1 || doc.LeadsUsageHistory[0].Month != monthKey {
		t.Fatalf("expected one history entry for %s, got %+v", monthKey, doc.LeadsUsageHistory)
	}
}

func TestIngest_AllowanceExceeded(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	user := seedCRMUser(t, conn, catalog.CRMPlanFree, now)
	svc := NewService(conn, nil).WithClock(func() time.Time { return now })

	// Free plan allows 5 leads a month, no bonus.
	_, errIngest := svc.Ingest(context.Background(), user.UserID, makeLeads("beta", 6))
	var quotaErr *entitlement.QuotaError
	if !errors.As(errIngest, &quotaErr) || quotaErr.Reason != entitlement.QuotaLeads {
		t.Fatalf("expected lead quota error, got %v", errIngest)
	}

	// Nothing was stored: the pass is atomic.
	var count int64
	if errCount := conn.Model(&models.Lead{}).Where("user_id = ?", user.UserID).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no leads stored, got %d", count)
	}

	result, errSecond := svc.Ingest(context.Background(), user.UserID, makeLeads("beta", 5))
	if errSecond != nil {
		t.Fatalf("within allowance: %v", errSecond)
	}
	if result.Stored != 5 || result.Remaining != 0 {
		t.Fatalf("expected allowance exhausted, got %+v", result)
	}
}

func TestIngest_MonthRollover(t *testing.T) {
	conn := openTestDB(t)
	june := time.Date(2026, 6, 20, 10, 0, 0, 0, time.UTC)
	user := seedCRMUser(t, conn, catalog.CRMPlanAchipreneur, june)

	svc := NewService(conn, nil).WithClock(func() time.Time { return june })
	if _, errIngest := svc.Ingest(context.Background(), user.UserID, makeLeads("june", 10)); errIngest != nil {
		t.Fatalf("june ingest: %v", errIngest)
	}

	// A new calendar month starts a fresh allowance window.
	july := time.Date(2026, 7, 2, 10, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return july })
	result, errIngest := svc.Ingest(context.Background(), user.UserID, makeLeads("july", 15))
	if errIngest != nil {
		t.Fatalf("july ingest: %v", errIngest)
	}
	if result.Used != 15 || result.Remaining != 5 {
		t.Fatalf("expected fresh window 15/5, got %+v", result)
	}

	var reloaded models.User
	if errFind := conn.Where("user_id = ?", user.UserID).First(&reloaded).Error; errFind != nil {
		t.Fatalf("reload: %v", errFind)
	}
	history := reloaded.CRMPlanInfo.Data().LeadsUsageHistory
	if len(history) != 2 {
		t.Fatalf("expected history for both months, got %+v", history)
	}
}

func TestIngest_FreePlanGatesViewWindow(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	user := seedCRMUser(t, conn, catalog.CRMPlanFree, now)
	svc := NewService(conn, nil).WithClock(func() time.Time { return now })

	if _, errIngest := svc.Ingest(context.Background(), user.UserID, makeLeads("gamma", 3)); errIngest != nil {
		t.Fatalf("ingest: %v", errIngest)
	}

	var stored []models.Lead
	if errFind := conn.Where("user_id = ?", user.UserID).Find(&stored).Error; errFind != nil {
		t.Fatalf("load: %v", errFind)
	}
	for _, l := range stored {
		if l.ViewUpto == nil {
			t.Fatalf("expected view window set on free plan leads")
		}
		if !l.ViewUpto.Equal(now.AddDate(0, 0, 7)) {
			t.Fatalf("expected 7 day window, got %v", l.ViewUpto)
		}
	}

	// Visible inside the window, hidden after it lapses.
	visible, errList := svc.List(context.Background(), user.UserID, ListOptions{})
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(visible) != 3 {
		t.Fatalf("expected 3 visible leads, got %d", len(visible))
	}

	svc.WithClock(func() time.Time { return now.AddDate(0, 0, 8) })
	hidden, errList := svc.List(context.Background(), user.UserID, ListOptions{})
	if errList != nil {
		t.Fatalf("list after lapse: %v", errList)
	}
	if len(hidden) != 0 {
		t.Fatalf("expected gated leads hidden, got %d", len(hidden))
	}
}

func TestIngest_RequiresActiveSubscription(t *testing.T) {
	conn := openTestDB(t)
	user := &models.User{
		UserID:   "crm-none",
		OrgName:  "No Plan LLP",
		Email:    "noplan@example.com",
		Password: "x",
	}
	if errCreate := conn.Create(user).Error; errCreate != nil {
		t.Fatalf("seed: %v", errCreate)
	}

	svc := NewService(conn, nil)
	if _, errIngest := svc.Ingest(context.Background(), user.UserID, makeLeads("delta", 1)); !errors.Is(errIngest, entitlement.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", errIngest)
	}
}

func TestPipelineAndDashboards(t *testing.T) {
	conn := openTestDB(t)
	now := time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)
	user := seedCRMUser(t, conn, catalog.CRMPlanAchipreneur, now)
	svc := NewService(conn, nil).WithClock(func() time.Time { return now })

	leads := makeLeads("epsilon", 4)
	leads[0].Value = "₹18,50,000"
	leads[1].Value = "₹2,00,000"
	leads[2].City = "Mumbai"
	if _, errIngest := svc.Ingest(context.Background(), user.UserID, leads); errIngest != nil {
		t.Fatalf("ingest: %v", errIngest)
	}

	var first models.Lead
	if errFind := conn.Where("user_id = ? AND email = ?", user.UserID, "epsilon-0@example.com").First(&first).Error; errFind != nil {
		t.Fatalf("find lead: %v", errFind)
	}

	if _, errStatus := svc.UpdateStatus(context.Background(), user.UserID, first.ID, "Archived"); errStatus == nil {
		t.Fatalf("expected unknown status rejected")
	}
	if _, errStatus := svc.UpdateStatus(context.Background(), user.UserID, first.ID, models.LeadStatusConverted); errStatus != nil {
		t.Fatalf("update status: %v", errStatus)
	}
	updated, errRemark := svc.AddRemark(context.Background(), user.UserID, first.ID, "site visit booked")
	if errRemark != nil {
		t.Fatalf("add remark: %v", errRemark)
	}
	if len(updated.Remarks) != 1 || updated.Remarks[0].Text != "site visit booked" {
		t.Fatalf("expected remark stored, got %+v", updated.Remarks)
	}

	stats, errStats := svc.Stats(context.Background(), user.UserID)
	if errStats != nil {
		t.Fatalf("stats: %v", errStats)
	}
	if stats.Total != 4 || stats.Converted != 1 || stats.Fresh != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.PipelineValue != 2050000 {
		t.Fatalf("expected pipeline value 2050000, got %v", stats.PipelineValue)
	}

	growth, errGrowth := svc.CustomerGrowth(context.Background(), user.UserID, 3)
	if errGrowth != nil {
		t.Fatalf("growth: %v", errGrowth)
	}
	if len(growth) != 3 || growth[2].Value != 4 {
		t.Fatalf("expected current month count 4, got %+v", growth)
	}

	cities, errCity := svc.Citywise(context.Background(), user.UserID)
	if errCity != nil {
		t.Fatalf("citywise: %v", errCity)
	}
	if len(cities) != 2 || cities[0].City != "Pune" || cities[0].Count != 3 {
		t.Fatalf("unexpected city counts: %+v", cities)
	}

	// Cross-account access is rejected.
	if _, errGet := svc.Get(context.Background(), "someone-else", first.ID); !errors.Is(errGet, entitlement.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", errGet)
	}
}
