// Package handlers contains the HTTP handlers for the public API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/Vrisan-Services/B2b-Server/internal/account"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/gst"
	"github.com/Vrisan-Services/B2b-Server/internal/otpauth"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the auth middleware.
const (
	CtxUserID   = "userID"
	CtxPublicID = "publicID"
	CtxEmail    = "email"
)

// callerID returns the authenticated user's primary key.
func callerID(c *gin.Context) uint64 {
	id, _ := c.Get(CtxUserID)
	v, _ := id.(uint64)
	return v
}

// callerPublicID returns the authenticated user's public identifier.
func callerPublicID(c *gin.Context) string {
	id, _ := c.Get(CtxPublicID)
	v, _ := id.(string)
	return v
}

// respondError maps a service error onto an HTTP status and body.
func respondError(c *gin.Context, err error) {
	var quotaErr *entitlement.QuotaError
	switch {
	case errors.Is(err, entitlement.ErrAccountNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, entitlement.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.As(err, &quotaErr):
		c.JSON(http.StatusForbidden, gin.H{"error": quotaErr.Error(), "reason": string(quotaErr.Reason)})
	case errors.Is(err, entitlement.ErrExpired):
		c.JSON(http.StatusForbidden, gin.H{"error": "subscription expired or missing"})
	case errors.Is(err, entitlement.ErrInvalidPlan):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid plan"})
	case errors.Is(err, account.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, account.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, otpauth.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid verification code"})
	case errors.Is(err, otpauth.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many verification attempts"})
	case errors.Is(err, gst.ErrInvalidGSTIN):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gstin format"})
	case errors.Is(err, entitlement.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream failure"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
