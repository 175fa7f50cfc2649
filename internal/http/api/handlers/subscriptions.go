package handlers

import (
	"net/http"

	"github.com/Vrisan-Services/B2b-Server/internal/catalog"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubscriptionHandler serves plan catalog and subscription endpoints.
type SubscriptionHandler struct {
	db           *gorm.DB
	entitlements *entitlement.Service
	sweeper      *entitlement.Sweeper
	scheduler    *entitlement.Scheduler
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(db *gorm.DB, entitlements *entitlement.Service, sweeper *entitlement.Sweeper, scheduler *entitlement.Scheduler) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, entitlements: entitlements, sweeper: sweeper, scheduler: scheduler}
}

// Plans returns the full plan catalog for both tracks.
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"main": catalog.MainPlans(),
		"crm":  catalog.CRMPlans(),
	})
}

// SubscribeMain assigns a main-track plan to the caller. Enterprise
// assignments may carry negotiated quota overrides.
func (h *SubscriptionHandler) SubscribeMain(c *gin.Context) {
	var req struct {
		Plan     string `json:"plan" binding:"required"`
		Override *struct {
			ProjectCount int `json:"projectCount" binding:"required,gt=0"`
			ValidityDays int `json:"validityDays" binding:"required,gt=0"`
		} `json:"override"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	var override *entitlement.EnterpriseOverride
	if req.Override != nil {
		override = &entitlement.EnterpriseOverride{
			ProjectCount: req.Override.ProjectCount,
			ValidityDays: req.Override.ValidityDays,
		}
	}

	result, errAssign := h.entitlements.AssignMain(c.Request.Context(), callerID(c), req.Plan, override)
	if errAssign != nil {
		respondError(c, errAssign)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": result})
}

// SubscribeCRM assigns a CRM-track plan to the caller.
func (h *SubscriptionHandler) SubscribeCRM(c *gin.Context) {
	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	result, errAssign := h.entitlements.AssignCRM(c.Request.Context(), callerPublicID(c), req.Plan)
	if errAssign != nil {
		respondError(c, errAssign)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": result})
}

// History returns the caller's subscription audit trail, newest first.
func (h *SubscriptionHandler) History(c *gin.Context) {
	var records []models.SubscriptionRecord
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", callerPublicID(c)).
		Order("created_at DESC").
		Find(&records).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list subscriptions failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": records})
}

// BulkFreeAssign grants the free CRM plan to eligible unsubscribed accounts.
func (h *SubscriptionHandler) BulkFreeAssign(c *gin.Context) {
	result, errAssign := h.entitlements.AutoAssignFreePlans(c.Request.Context())
	if errAssign != nil {
		respondError(c, errAssign)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Sweep runs one expiration pass over both tracks immediately.
func (h *SubscriptionHandler) Sweep(c *gin.Context) {
	results, errSweep := h.sweeper.SweepAll(c.Request.Context())
	if errSweep != nil {
		respondError(c, errSweep)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SchedulerStatus reports the daily sweep schedule.
func (h *SubscriptionHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scheduler": h.scheduler.Status()})
}
