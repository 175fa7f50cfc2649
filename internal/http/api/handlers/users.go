package handlers

import (
	"net/http"
	"strconv"

	"github.com/Vrisan-Services/B2b-Server/internal/account"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/gin-gonic/gin"
)

// UserHandler serves profile endpoints for the authenticated account.
type UserHandler struct {
	accounts *account.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(accounts *account.Service) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// sanitizeUser strips credentials and secrets from an account for responses.
func sanitizeUser(user *models.User) gin.H {
	if user == nil {
		return nil
	}
	return gin.H{
		"id":              user.ID,
		"userId":          user.UserID,
		"orgName":         user.OrgName,
		"contactPerson":   user.ContactPerson,
		"designation":     user.Designation,
		"email":           user.Email,
		"phone":           user.Phone,
		"gstNumber":       user.GSTNumber,
		"gstVerified":     user.GSTVerified,
		"emailVerified":   user.EmailVerified,
		"logo":            user.Logo,
		"addresses":       user.Addresses,
		"isSubscribed":    user.IsSubscribed,
		"isCrmSubscribed": user.IsCrmSubscribed,
		"planInfo":        user.PlanInfo.Data(),
		"crmPlanInfo":     user.CRMPlanInfo.Data(),
		"createdAt":       user.CreatedAt,
	}
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c *gin.Context) {
	user, errGet := h.accounts.Get(c.Request.Context(), callerID(c))
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}

// UpdateProfile applies profile changes.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		OrgName       *string `json:"orgName"`
		ContactPerson *string `json:"contactPerson"`
		Designation   *string `json:"designation"`
		Phone         *string `json:"phone"`
		Logo          *string `json:"logo"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	user, errUpdate := h.accounts.UpdateProfile(c.Request.Context(), callerID(c), account.ProfileUpdate{
		OrgName:       req.OrgName,
		ContactPerson: req.ContactPerson,
		Designation:   req.Designation,
		Phone:         req.Phone,
		Logo:          req.Logo,
	})
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}

// AddAddress appends an address to the caller's profile.
func (h *UserHandler) AddAddress(c *gin.Context) {
	var req models.Address
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	user, errAdd := h.accounts.AddAddress(c.Request.Context(), callerID(c), req)
	if errAdd != nil {
		respondError(c, errAdd)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
}

// RemoveAddress drops the address at the path index.
func (h *UserHandler) RemoveAddress(c *gin.Context) {
	index, errParse := strconv.Atoi(c.Param("index"))
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address index"})
		return
	}

	user, errRemove := h.accounts.RemoveAddress(c.Request.Context(), callerID(c), index)
	if errRemove != nil {
		respondError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": user.Addresses})
}

// SetBankDetails replaces the caller's bank details.
func (h *UserHandler) SetBankDetails(c *gin.Context) {
	var req models.BankDetails
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	if _, errSet := h.accounts.SetBankDetails(c.Request.Context(), callerID(c), req); errSet != nil {
		respondError(c, errSet)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}
