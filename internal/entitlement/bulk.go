package entitlement

import (
	"context"

	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	log "github.com/sirupsen/logrus"
)

// freeAssignLeadThreshold is the minimum number of stored leads an
// unsubscribed account must have accumulated before the free CRM plan is
// granted automatically.
const freeAssignLeadThreshold = 5

// BulkAssignResult reports one automatic free-plan pass.
type BulkAssignResult struct {
	Scanned  int `json:"scanned"`
	Assigned int `json:"assigned"`
	Failed   int `json:"failed"`
}

// AutoAssignFreePlans grants the free CRM plan to every account that has no
// CRM entitlement but already holds enough leads to be worth activating.
// Per-account failures are logged and do not stop the pass.
func (s *Service) AutoAssignFreePlans(ctx context.Context) (BulkAssignResult, error) {
	var result BulkAssignResult

	var users []models.User
	if errFind := s.db.WithContext(ctx).
		Select("id", "user_id").
		Where("is_crm_subscribed = ?", false).
		Find(&users).Error; errFind != nil {
		return result, Upstreamf("load unsubscribed users", errFind)
	}
	result.Scanned = len(users)

	for i := range users {
		publicID := users[i].UserID
		if publicID == "" {
			continue
		}
		var leadCount int64
		if errCount := s.db.WithContext(ctx).
			Model(&models.Lead{}).
			Where("user_id = ?", publicID).
			Count(&leadCount).Error; errCount != nil {
			log.WithError(errCount).WithField("user_id", publicID).Warn("entitlement: lead count failed, skipping account")
			result.Failed++
			continue
		}
		if leadCount < freeAssignLeadThreshold {
			continue
		}
		if _, errAssign := s.AssignCRM(ctx, publicID, catalog.CRMPlanFree); errAssign != nil {
			log.WithError(errAssign).WithField("user_id", publicID).Warn("entitlement: free plan assignment failed")
			result.Failed++
			continue
		}
		result.Assigned++
	}

	log.WithFields(log.Fields{"scanned": result.Scanned, "assigned": result.Assigned, "failed": result.Failed}).
		Info("entitlement: automatic free plan pass complete")
	return result, nil
}
