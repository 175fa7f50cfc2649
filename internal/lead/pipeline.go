package lead

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vrisan-Services/B2b-Server/internal/db"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"gorm.io/gorm"
)

// ListOptions narrows a lead listing.
type ListOptions struct {
	Status string // Exact pipeline status; empty for all.
	Search string // Substring match on name, email, company, or city.
}

// validStatuses is the closed pipeline status set.
var validStatuses = map[string]bool{
	models.LeadStatusFresh:     true,
	models.LeadStatusInitial:   true,
	models.LeadStatusConverted: true,
}

// List returns the account's currently viewable leads, newest first. Leads
// whose view window has lapsed stay stored but are filtered out until a
// subscription clears the restriction.
func (s *Service) List(ctx context.Context, publicID string, opts ListOptions) ([]models.Lead, error) {
	now := s.now().UTC()
	query := s.db.WithContext(ctx).
		Where("user_id = ?", publicID).
		Where("view_upto IS NULL OR view_upto >= ?", now)
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Search != "" {
		pattern := db.NormalizeLikePattern(s.db, "%"+opts.Search+"%")
		like := func(column string) string { return db.CaseInsensitiveLikeExpr(s.db, column) }
		query = query.Where(
			s.db.Where(like("name"), pattern).
				Or(like("email"), pattern).
				Or(like("company"), pattern).
				Or(like("city"), pattern),
		)
	}

	var leads []models.Lead
	if errFind := query.Order("fetched_at DESC").Find(&leads).Error; errFind != nil {
		return nil, entitlement.Upstreamf("list leads", errFind)
	}
	return leads, nil
}

// Get returns one lead owned by the account.
func (s *Service) Get(ctx context.Context, publicID string, leadID uint64) (*models.Lead, error) {
	var lead models.Lead
	if errFind := s.db.WithContext(ctx).First(&lead, leadID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, entitlement.Upstreamf("find lead", errFind)
	}
	if lead.UserID != publicID {
		return nil, entitlement.ErrUnauthorized
	}
	return &lead, nil
}

// UpdateStatus moves a lead to a new pipeline status.
func (s *Service) UpdateStatus(ctx context.Context, publicID string, leadID uint64, status string) (*models.Lead, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("unknown lead status %q", status)
	}
	lead, errGet := s.Get(ctx, publicID, leadID)
	if errGet != nil {
		return nil, errGet
	}
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", lead.ID).
		Updates(map[string]any{"status": status, "updated_at": s.now().UTC()}).Error; errUpdate != nil {
		return nil, entitlement.Upstreamf("update lead status", errUpdate)
	}
	lead.Status = status
	return lead, nil
}

// AddRemark appends a dated note to a lead.
func (s *Service) AddRemark(ctx context.Context, publicID string, leadID uint64, text string) (*models.Lead, error) {
	lead, errGet := s.Get(ctx, publicID, leadID)
	if errGet != nil {
		return nil, errGet
	}
	now := s.now().UTC()
	lead.Remarks = append(lead.Remarks, models.LeadRemark{Text: text, Date: now})
	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", lead.ID).
		Updates(map[string]any{"remarks": lead.Remarks, "updated_at": now}).Error; errUpdate != nil {
		return nil, entitlement.Upstreamf("update lead remarks", errUpdate)
	}
	return lead, nil
}
