package handlers

import (
	"net/http"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/gst"
	"github.com/Vrisan-Services/B2b-Server/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// gstVerifyLimit caps registry lookups per client address per day.
var gstVerifyLimit = ratelimit.Limit{Count: 5, Window: 24 * time.Hour}

// GSTHandler serves GST verification.
type GSTHandler struct {
	gst     *gst.Service
	limiter *ratelimit.Manager
}

// NewGSTHandler constructs a GSTHandler.
func NewGSTHandler(service *gst.Service, limiter *ratelimit.Manager) *GSTHandler {
	return &GSTHandler{gst: service, limiter: limiter}
}

// Verify checks the caller's GSTIN against the registry and caches a valid
// verdict on the account.
func (h *GSTHandler) Verify(c *gin.Context) {
	var req struct {
		GSTIN string `json:"gstin" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	result, errAllow := h.limiter.Allow(c.Request.Context(), ratelimit.GSTKey(c.ClientIP()), gstVerifyLimit)
	if errAllow == nil && !result.Allowed {
		c.Header("Retry-After", result.Reset.UTC().Format(http.TimeFormat))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "verification limit reached, try again tomorrow"})
		return
	}

	verification, errVerify := h.gst.VerifyForUser(c.Request.Context(), callerID(c), req.GSTIN)
	if errVerify != nil {
		respondError(c, errVerify)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verification": verification})
}
