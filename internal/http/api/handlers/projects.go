package handlers

import (
	"net/http"
	"strconv"

	"github.com/Vrisan-Services/B2b-Server/internal/project"
	"github.com/gin-gonic/gin"
)

// ProjectHandler serves project CRUD for the authenticated account.
type ProjectHandler struct {
	projects *project.Service
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(projects *project.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

func pathID(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// Create inserts a project, charging it against the caller's plan quota.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Title            string   `json:"title" binding:"required"`
		Description      string   `json:"description"`
		Size             float64  `json:"size" binding:"required,gt=0"`
		ProjectType      string   `json:"projectType" binding:"required"`
		BuildingConfig   string   `json:"buildingConfig"`
		Address          string   `json:"address"`
		PurchaseIncharge string   `json:"purchaseIncharge"`
		PurchaseAmount   *float64 `json:"purchaseAmount"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	created, errCreate := h.projects.Create(c.Request.Context(), callerID(c), project.CreateInput{
		Title:            req.Title,
		Description:      req.Description,
		Size:             req.Size,
		ProjectType:      req.ProjectType,
		BuildingConfig:   req.BuildingConfig,
		Address:          req.Address,
		PurchaseIncharge: req.PurchaseIncharge,
		PurchaseAmount:   req.PurchaseAmount,
	})
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": created})
}

// List returns the caller's projects.
func (h *ProjectHandler) List(c *gin.Context) {
	projects, errList := h.projects.List(c.Request.Context(), callerID(c))
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Get returns one of the caller's projects.
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	found, errGet := h.projects.Get(c.Request.Context(), callerID(c), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": found})
}

// Update applies changes to one of the caller's projects.
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Title            *string  `json:"title"`
		Description      *string  `json:"description"`
		ProjectType      *string  `json:"projectType"`
		BuildingConfig   *string  `json:"buildingConfig"`
		Address          *string  `json:"address"`
		PurchaseIncharge *string  `json:"purchaseIncharge"`
		PurchaseAmount   *float64 `json:"purchaseAmount"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	updated, errUpdate := h.projects.Update(c.Request.Context(), callerID(c), id, project.UpdateInput{
		Title:            req.Title,
		Description:      req.Description,
		ProjectType:      req.ProjectType,
		BuildingConfig:   req.BuildingConfig,
		Address:          req.Address,
		PurchaseIncharge: req.PurchaseIncharge,
		PurchaseAmount:   req.PurchaseAmount,
	})
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": updated})
}

// Delete removes one of the caller's projects.
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if errDelete := h.projects.Delete(c.Request.Context(), callerID(c), id); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
