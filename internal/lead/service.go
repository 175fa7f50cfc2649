// Package lead implements CRM lead ingestion, the monthly lead allowance,
// and the lead pipeline operations built on top of the stored leads.
package lead

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/architex"
	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/db"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/Vrisan-Services/B2b-Server/internal/timeutil"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Provider fetches fresh leads for an account from the upstream source.
type Provider interface {
	FetchLeads(ctx context.Context, accountID string, count int) ([]architex.Lead, error)
}

// IngestResult reports one ingestion pass.
type IngestResult struct {
	Requested  int `json:"requested"`  // Leads handed to the ingester.
	Duplicates int `json:"duplicates"` // Dropped as already present for the account.
	Stored     int `json:"stored"`     // Newly inserted.
	Used       int `json:"used"`       // Allowance consumed this month after the pass.
	Remaining  int `json:"remaining"`  // Allowance left this month after the pass.
}

// Service implements lead operations.
type Service struct {
	db       *gorm.DB
	provider Provider
	now      func() time.Time
}

// NewService constructs a lead Service. The provider may be nil when only
// stored-lead operations are needed.
func NewService(conn *gorm.DB, provider Provider) *Service {
	return &Service{db: conn, provider: provider, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// FetchFresh pulls up to count fresh leads from the provider and ingests
// them for the account.
func (s *Service) FetchFresh(ctx context.Context, publicID string, count int) (IngestResult, error) {
	if s.provider == nil {
		return IngestResult{}, entitlement.Upstreamf("fetch leads", errors.New("no lead provider configured"))
	}
	leads, errFetch := s.provider.FetchLeads(ctx, publicID, count)
	if errFetch != nil {
		return IngestResult{}, errFetch
	}
	return s.Ingest(ctx, publicID, leads)
}

// Ingest stores the given leads for the account, deduplicating by email,
// charging the monthly allowance, and recording the month's usage on the
// plan document. The whole pass is one transaction holding a row lock on
// the user so concurrent ingests cannot both pass the allowance.
func (s *Service) Ingest(ctx context.Context, publicID string, leads []architex.Lead) (IngestResult, error) {
	now := s.now().UTC()
	result := IngestResult{Requested: len(leads)}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.User{})
		if !db.IsSQLite(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var user models.User
		if errFind := query.Where("user_id = ?", publicID).First(&user).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return entitlement.ErrAccountNotFound
			}
			return entitlement.Upstreamf("find user", errFind)
		}
		if !user.IsCrmSubscribed {
			return entitlement.ErrExpired
		}
		plan := user.CRMPlanInfo.Data()
		if !plan.Valid() {
			return entitlement.ErrInvalidPlan
		}
		if plan.ExpiresAt.Expired(now) {
			return entitlement.ErrExpired
		}

		fresh := dedupByEmail(leads)
		existing, errExisting := existingEmails(tx, publicID, emailsOf(fresh))
		if errExisting != nil {
			return errExisting
		}
		var toStore []architex.Lead
		for _, l := range fresh {
			if l.Email == "" || existing[l.Email] {
				result.Duplicates++
				continue
			}
			toStore = append(toStore, l)
		}
		result.Duplicates += len(leads) - len(fresh)

		used, errUsed := monthUsage(tx, publicID, now)
		if errUsed != nil {
			return errUsed
		}
		allowance := plan.Features.FreshLeadsPerMonth + plan.Features.WelcomeBonusLeads
		if used+len(toStore) > allowance {
			return &entitlement.QuotaError{
				Reason:    entitlement.QuotaLeads,
				Plan:      plan.PlanName,
				Limit:     float64(allowance),
				Used:      float64(used),
				Requested: float64(len(toStore)),
			}
		}

		var viewUpto *time.Time
		if plan.PlanName == catalog.CRMPlanFree {
			if days, ok := catalog.CRM(catalog.CRMPlanFree).ValidityDays.Value(); ok {
				until := now.AddDate(0, 0, days)
				viewUpto = &until
			}
		}
		for i := range toStore {
			row := storedLead(publicID, &toStore[i], now, viewUpto)
			if errCreate := tx.Create(row).Error; errCreate != nil {
				if isUniqueViolation(errCreate) {
					result.Duplicates++
					continue
				}
				return entitlement.Upstreamf("store lead", errCreate)
			}
			result.Stored++
		}

		result.Used = used + result.Stored
		result.Remaining = allowance - result.Used
		if result.Remaining < 0 {
			result.Remaining = 0
		}
		plan.Features.UsedLeadsThisMonth = result.Used
		plan.Features.RemainingLeadsThisMonth = result.Remaining
		plan.UpsertMonthUsage(timeutil.MonthKey(now), result.Used, result.Remaining)

		if errUpdate := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"crm_plan_info": datatypes.NewJSONType(plan),
			"updated_at":    now,
		}).Error; errUpdate != nil {
			return entitlement.Upstreamf("update lead usage", errUpdate)
		}
		return nil
	})
	if errTx != nil {
		return IngestResult{}, errTx
	}

	log.WithFields(log.Fields{
		"user_id":    publicID,
		"stored":     result.Stored,
		"duplicates": result.Duplicates,
		"remaining":  result.Remaining,
	}).Info("lead: ingest complete")
	return result, nil
}

// storedLead maps a provider lead onto the stored model.
func storedLead(publicID string, src *architex.Lead, fetchedAt time.Time, viewUpto *time.Time) *models.Lead {
	createdAt := src.CreatedAt
	if createdAt.IsZero() {
		createdAt = fetchedAt
	}
	return &models.Lead{
		UserID:    publicID,
		Name:      src.Name,
		Email:     src.Email,
		Phone:     src.Phone,
		Company:   src.Company,
		Type:      src.Type,
		Value:     src.Value,
		Source:    src.Source,
		Status:    models.LeadStatusFresh,
		City:      src.City,
		State:     src.State,
		ViewUpto:  viewUpto,
		FetchedAt: fetchedAt,
		CreatedAt: createdAt,
	}
}

// dedupByEmail drops intra-batch duplicates, keeping first occurrence.
// Leads without an email pass through; the store loop drops them.
func dedupByEmail(leads []architex.Lead) []architex.Lead {
	seen := make(map[string]bool, len(leads))
	out := make([]architex.Lead, 0, len(leads))
	for _, l := range leads {
		email := strings.ToLower(strings.TrimSpace(l.Email))
		if email != "" && seen[email] {
			continue
		}
		seen[email] = true
		l.Email = email
		out = append(out, l)
	}
	return out
}

func emailsOf(leads []architex.Lead) []string {
	emails := make([]string, 0, len(leads))
	for _, l := range leads {
		if l.Email != "" {
			emails = append(emails, l.Email)
		}
	}
	return emails
}

// existingEmails returns the subset of emails already stored for the account.
func existingEmails(tx *gorm.DB, publicID string, emails []string) (map[string]bool, error) {
	out := make(map[string]bool, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	var found []string
	if errFind := tx.Model(&models.Lead{}).
		Where("user_id = ? AND email IN ?", publicID, emails).
		Pluck("email", &found).Error; errFind != nil {
		return nil, entitlement.Upstreamf("check duplicate leads", errFind)
	}
	for _, e := range found {
		out[strings.ToLower(e)] = true
	}
	return out, nil
}

// monthUsage counts leads ingested for the account in the calendar month
// containing now. FetchedAt, not the provider timestamp, drives metering.
func monthUsage(tx *gorm.DB, publicID string, now time.Time) (int, error) {
	var used int64
	if errCount := tx.Model(&models.Lead{}).
		Where("user_id = ? AND fetched_at >= ? AND fetched_at <= ?", publicID, timeutil.StartOfMonth(now), now).
		Count(&used).Error; errCount != nil {
		return 0, entitlement.Upstreamf("count month usage", errCount)
	}
	return int(used), nil
}

// isUniqueViolation reports whether the error is the (user_id, email)
// unique index firing. Backstop behind the in-transaction email check.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
