package handlers

import (
	"net/http"
	"strconv"

	"github.com/Vrisan-Services/B2b-Server/internal/lead"
	"github.com/gin-gonic/gin"
)

const defaultDashboardMonths = 6

// LeadHandler serves lead endpoints for the authenticated account.
type LeadHandler struct {
	leads *lead.Service
}

// NewLeadHandler constructs a LeadHandler.
func NewLeadHandler(leads *lead.Service) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// Fetch pulls fresh leads from the provider into the caller's account.
func (h *LeadHandler) Fetch(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"required,gt=0,lte=50"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	result, errFetch := h.leads.FetchFresh(c.Request.Context(), callerPublicID(c), req.Count)
	if errFetch != nil {
		respondError(c, errFetch)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// List returns the caller's viewable leads.
func (h *LeadHandler) List(c *gin.Context) {
	leads, errList := h.leads.List(c.Request.Context(), callerPublicID(c), lead.ListOptions{
		Status: c.Query("status"),
		Search: c.Query("search"),
	})
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads})
}

// Get returns one of the caller's leads.
func (h *LeadHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	found, errGet := h.leads.Get(c.Request.Context(), callerPublicID(c), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": found})
}

// UpdateStatus moves a lead through the pipeline.
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	updated, errUpdate := h.leads.UpdateStatus(c.Request.Context(), callerPublicID(c), id, req.Status)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": updated})
}

// AddRemark appends a note to a lead.
func (h *LeadHandler) AddRemark(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	updated, errRemark := h.leads.AddRemark(c.Request.Context(), callerPublicID(c), id, req.Text)
	if errRemark != nil {
		respondError(c, errRemark)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lead": updated})
}

// Stats returns pipeline totals for the caller.
func (h *LeadHandler) Stats(c *gin.Context) {
	stats, errStats := h.leads.Stats(c.Request.Context(), callerPublicID(c))
	if errStats != nil {
		respondError(c, errStats)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func monthsParam(c *gin.Context) int {
	months, errParse := strconv.Atoi(c.DefaultQuery("months", strconv.Itoa(defaultDashboardMonths)))
	if errParse != nil || months <= 0 || months > 24 {
		return defaultDashboardMonths
	}
	return months
}

// Growth returns the monthly lead intake series.
func (h *LeadHandler) Growth(c *gin.Context) {
	points, errGrowth := h.leads.CustomerGrowth(c.Request.Context(), callerPublicID(c), monthsParam(c))
	if errGrowth != nil {
		respondError(c, errGrowth)
		return
	}
	c.JSON(http.StatusOK, gin.H{"growth": points})
}

// Budget returns the monthly converted deal value series.
func (h *LeadHandler) Budget(c *gin.Context) {
	points, errBudget := h.leads.MonthlyBudget(c.Request.Context(), callerPublicID(c), monthsParam(c))
	if errBudget != nil {
		respondError(c, errBudget)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": points})
}

// Citywise returns lead counts grouped by city.
func (h *LeadHandler) Citywise(c *gin.Context) {
	counts, errCity := h.leads.Citywise(c.Request.Context(), callerPublicID(c))
	if errCity != nil {
		respondError(c, errCity)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": counts})
}
