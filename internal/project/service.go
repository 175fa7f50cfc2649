// Package project implements project CRUD with the plan quota gate: every
// create consumes plan area and project count, checked and charged in one
// transaction against the owning user row.
package project

import (
	"context"
	"errors"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/db"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lifetimeFreeProjects is how many projects an account may create without
// any active main-track subscription, ever.
const lifetimeFreeProjects = 1

// CreateInput carries the fields for a new project.
type CreateInput struct {
	Title            string
	Description      string
	Size             float64
	ProjectType      string
	BuildingConfig   string
	Address          string
	PurchaseIncharge string
	PurchaseAmount   *float64
}

// UpdateInput carries the mutable fields of an existing project. Nil fields
// are left unchanged. Size is immutable after creation because it was
// charged against the plan quota.
type UpdateInput struct {
	Title            *string
	Description      *string
	ProjectType      *string
	BuildingConfig   *string
	Address          *string
	PurchaseIncharge *string
	PurchaseAmount   *float64
}

// Service implements project operations.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs a project Service.
func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create inserts a project after charging it against the owner's quota.
// The check and the charge run in one transaction holding a row lock on
// the user, so concurrent creates cannot both pass a nearly-exhausted cap.
func (s *Service) Create(ctx context.Context, userID uint64, input CreateInput) (*models.Project, error) {
	now := s.now().UTC()
	project := &models.Project{
		UserID:           userID,
		Title:            input.Title,
		Description:      input.Description,
		Size:             input.Size,
		ProjectType:      input.ProjectType,
		BuildingConfig:   input.BuildingConfig,
		Address:          input.Address,
		PurchaseIncharge: input.PurchaseIncharge,
		PurchaseAmount:   input.PurchaseAmount,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.User{})
		if !db.IsSQLite(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var user models.User
		if errFind := query.Where("id = ?", userID).First(&user).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return entitlement.ErrAccountNotFound
			}
			return entitlement.Upstreamf("find user", errFind)
		}

		var count int64
		var totalArea float64
		if errCount := tx.Model(&models.Project{}).Where("user_id = ?", userID).Count(&count).Error; errCount != nil {
			return entitlement.Upstreamf("count projects", errCount)
		}
		if errSum := tx.Model(&models.Project{}).Where("user_id = ?", userID).
			Select("COALESCE(SUM(size), 0)").Scan(&totalArea).Error; errSum != nil {
			return entitlement.Upstreamf("sum project area", errSum)
		}

		if !user.IsSubscribed {
			if count >= lifetimeFreeProjects {
				return &entitlement.QuotaError{
					Reason: entitlement.QuotaLifetimeFree,
					Limit:  lifetimeFreeProjects,
					Used:   float64(count),
				}
			}
			if errCreate := tx.Create(project).Error; errCreate != nil {
				return entitlement.Upstreamf("create project", errCreate)
			}
			return nil
		}

		plan := user.PlanInfo.Data()
		if !plan.Valid() {
			return entitlement.ErrInvalidPlan
		}
		if plan.ExpiresAt.Expired(now) {
			return entitlement.ErrExpired
		}

		if maxProjects, ok := plan.Features.Projects.Value(); ok && count >= int64(maxProjects) {
			return &entitlement.QuotaError{
				Reason: entitlement.QuotaProjectCount,
				Plan:   plan.PlanName,
				Limit:  float64(maxProjects),
				Used:   float64(count),
			}
		}
		areaCap := catalog.ParseAreaLimit(plan.Features.AreaLimit)
		if areaCap > 0 && totalArea+input.Size > areaCap {
			return &entitlement.QuotaError{
				Reason:    entitlement.QuotaArea,
				Plan:      plan.PlanName,
				Limit:     areaCap,
				Used:      totalArea,
				Requested: input.Size,
			}
		}

		if errCreate := tx.Create(project).Error; errCreate != nil {
			return entitlement.Upstreamf("create project", errCreate)
		}

		plan.Features.UsedArea = totalArea + input.Size
		plan.Features.UsedProjects = int(count) + 1
		plan.Features.RemainingArea = areaCap - plan.Features.UsedArea
		if plan.Features.RemainingArea < 0 {
			plan.Features.RemainingArea = 0
		}
		if maxProjects, ok := plan.Features.Projects.Value(); ok {
			plan.Features.RemainingProjects = maxProjects - plan.Features.UsedProjects
		}
		if errUpdate := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
			"plan_info":  datatypes.NewJSONType(plan),
			"updated_at": now,
		}).Error; errUpdate != nil {
			return entitlement.Upstreamf("update plan usage", errUpdate)
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return project, nil
}

// Get returns a project owned by the given user.
func (s *Service) Get(ctx context.Context, userID, projectID uint64) (*models.Project, error) {
	var project models.Project
	if errFind := s.db.WithContext(ctx).First(&project, projectID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, entitlement.Upstreamf("find project", errFind)
	}
	if project.UserID != userID {
		return nil, entitlement.ErrUnauthorized
	}
	return &project, nil
}

// List returns all projects owned by the given user, newest first.
func (s *Service) List(ctx context.Context, userID uint64) ([]models.Project, error) {
	var projects []models.Project
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&projects).Error; errFind != nil {
		return nil, entitlement.Upstreamf("list projects", errFind)
	}
	return projects, nil
}

// ListAll returns every project, newest first. Administrative use.
func (s *Service) ListAll(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if errFind := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&projects).Error; errFind != nil {
		return nil, entitlement.Upstreamf("list projects", errFind)
	}
	return projects, nil
}

// Update applies the given changes to a project owned by the user.
func (s *Service) Update(ctx context.Context, userID, projectID uint64, input UpdateInput) (*models.Project, error) {
	project, errGet := s.Get(ctx, userID, projectID)
	if errGet != nil {
		return nil, errGet
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ProjectType != nil {
		updates["project_type"] = *input.ProjectType
	}
	if input.BuildingConfig != nil {
		updates["building_config"] = *input.BuildingConfig
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.PurchaseIncharge != nil {
		updates["purchase_incharge"] = *input.PurchaseIncharge
	}
	if input.PurchaseAmount != nil {
		updates["purchase_amount"] = *input.PurchaseAmount
	}
	if len(updates) == 0 {
		return project, nil
	}
	updates["updated_at"] = s.now().UTC()

	if errUpdate := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", projectID).
		Updates(updates).Error; errUpdate != nil {
		return nil, entitlement.Upstreamf("update project", errUpdate)
	}
	return s.Get(ctx, userID, projectID)
}

// Delete removes a project owned by the user. Quota already charged for
// the project is not refunded.
func (s *Service) Delete(ctx context.Context, userID, projectID uint64) error {
	if _, errGet := s.Get(ctx, userID, projectID); errGet != nil {
		return errGet
	}
	if errDelete := s.db.WithContext(ctx).
		Delete(&models.Project{}, projectID).Error; errDelete != nil {
		return entitlement.Upstreamf("delete project", errDelete)
	}
	return nil
}
