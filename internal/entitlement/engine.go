// Package entitlement implements the subscription core shared by both
// entitlement tracks: plan assignment, expiration sweeping, and the daily
// sweep scheduler. Quota accounting for the actions the plans gate lives
// with those actions (internal/project, internal/lead) because the check
// and the action are not separable.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service assigns plans and maintains entitlement state for both tracks.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs an entitlement Service.
func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// EnterpriseOverride carries the negotiated quotas that supersede catalog
// defaults when assigning the enterprise plan.
type EnterpriseOverride struct {
	ProjectCount int
	ValidityDays int
}

// AssignResult reports a completed plan assignment.
type AssignResult struct {
	Plan string `json:"plan"`
}

// planDocument is the track-generic shape persisted by writePlan.
type planDocument interface {
	models.PlanInfo | models.CRMPlanInfo
}

// trackSpec captures the column-level differences between the two tracks so
// assignment and sweeping share one engine.
type trackSpec struct {
	name       models.Track
	flagColumn string
	infoColumn string
}

var (
	mainTrack = trackSpec{name: models.TrackMain, flagColumn: "is_subscribed", infoColumn: "plan_info"}
	crmTrack  = trackSpec{name: models.TrackCRM, flagColumn: "is_crm_subscribed", infoColumn: "crm_plan_info"}
)

// expiryFrom derives the plan expiry from validity days: the custom
// sentinel never expires, anything else is subscribedAt + validityDays.
func expiryFrom(subscribedAt time.Time, validity models.Count) models.Expiry {
	days, ok := validity.Value()
	if !ok {
		return models.ExpiryNever()
	}
	return models.ExpiryAt(subscribedAt.AddDate(0, 0, days))
}

// writePlan persists a new plan document onto the user row, flips the
// track's entitlement flag, and appends the audit record, in the caller's
// transaction.
func writePlan[F planDocument](tx *gorm.DB, user *models.User, spec trackSpec, doc F, plan string, price catalog.Price, subscribedAt time.Time, expiresAt models.Expiry, features any) error {
	updates := map[string]any{
		spec.flagColumn: true,
		spec.infoColumn: datatypes.NewJSONType(doc),
		"updated_at":    subscribedAt,
	}
	if errUpdate := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; errUpdate != nil {
		return Upstreamf("update user plan", errUpdate)
	}

	snapshot, errMarshal := json.Marshal(features)
	if errMarshal != nil {
		return fmt.Errorf("marshal feature snapshot: %w", errMarshal)
	}
	record := models.SubscriptionRecord{
		UserID:       user.UserID,
		Track:        spec.name,
		Plan:         plan,
		SubscribedAt: subscribedAt,
		Price:        price.Amount,
		PriceCustom:  price.Custom,
		Features:     datatypes.JSON(snapshot),
	}
	if ts, ok := expiresAt.Timestamp(); ok {
		record.ExpiresAt = &ts
	}
	if errCreate := tx.Create(&record).Error; errCreate != nil {
		return Upstreamf("append subscription record", errCreate)
	}
	return nil
}

// AssignMain assigns a main-track plan to the account with the given
// primary key. The override applies only to the enterprise plan and is
// applied after catalog defaults.
func (s *Service) AssignMain(ctx context.Context, userID uint64, planID string, override *EnterpriseOverride) (AssignResult, error) {
	if !catalog.IsMain(planID) {
		return AssignResult{}, fmt.Errorf("%w: %q", ErrInvalidPlan, planID)
	}
	plan := catalog.Main(planID)
	subscribedAt := s.now().UTC()

	features := plan.Features
	features.UsedArea = 0
	features.UsedProjects = 0
	features.RemainingArea = catalog.ParseAreaLimit(features.AreaLimit)
	if n, ok := features.Projects.Value(); ok {
		features.RemainingProjects = n
	}
	if planID == catalog.PlanEnterprise && override != nil {
		features.Projects = models.CountOf(override.ProjectCount)
		features.ValidityDays = models.CountOf(override.ValidityDays)
		features.RemainingProjects = override.ProjectCount
	}

	expiresAt := expiryFrom(subscribedAt, features.ValidityDays)
	doc := models.PlanInfo{
		PlanName:     planID,
		SubscribedAt: subscribedAt,
		ExpiresAt:    expiresAt,
		Features:     features,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if errFind := tx.First(&user, userID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return Upstreamf("find user", errFind)
		}
		return writePlan(tx, &user, mainTrack, doc, planID, plan.Price, subscribedAt, expiresAt, features)
	})
	if errTx != nil {
		return AssignResult{}, errTx
	}
	return AssignResult{Plan: planID}, nil
}

// AssignCRM assigns a CRM-track plan to the account with the given public
// identifier. As a side effect of unlocking previously-gated content, any
// view restrictions on the account's existing leads are cleared; that
// cleanup is fire-and-forget relative to the assignment.
func (s *Service) AssignCRM(ctx context.Context, publicID string, planID string) (AssignResult, error) {
	if !catalog.IsCRM(planID) {
		return AssignResult{}, fmt.Errorf("%w: %q", ErrInvalidPlan, planID)
	}
	plan := catalog.CRM(planID)
	subscribedAt := s.now().UTC()

	features := plan.Features
	features.UsedLeadsThisMonth = 0
	features.RemainingLeadsThisMonth = features.FreshLeadsPerMonth + features.WelcomeBonusLeads

	expiresAt := expiryFrom(subscribedAt, plan.ValidityDays)
	doc := models.CRMPlanInfo{
		PlanName:     planID,
		SubscribedAt: subscribedAt,
		ExpiresAt:    expiresAt,
		Features:     features,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, errFind := findUserByPublicID(tx, publicID)
		if errFind != nil {
			return errFind
		}
		return writePlan(tx, user, crmTrack, doc, planID, plan.Price, subscribedAt, expiresAt, features)
	})
	if errTx != nil {
		return AssignResult{}, errTx
	}

	if errUnlock := s.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("user_id = ? AND view_upto IS NOT NULL", publicID).
		Update("view_upto", nil).Error; errUnlock != nil {
		log.WithError(errUnlock).WithField("user_id", publicID).Warn("entitlement: failed to unlock gated leads")
	}

	return AssignResult{Plan: planID}, nil
}

// findUserByPublicID resolves an account via the public identifier field.
// The CRM track resolves accounts this way; the main track uses the
// primary key. The asymmetry is inherited and kept.
func findUserByPublicID(tx *gorm.DB, publicID string) (*models.User, error) {
	var user models.User
	if errFind := tx.Where("user_id = ?", publicID).First(&user).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, Upstreamf("find user", errFind)
	}
	return &user, nil
}
