package handlers

import (
	"net/http"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/account"
	"github.com/Vrisan-Services/B2b-Server/internal/otpauth"
	"github.com/Vrisan-Services/B2b-Server/internal/ratelimit"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// otpResendLimit allows one code send per minute per email.
var otpResendLimit = ratelimit.Limit{Count: 1, Window: time.Minute}

// AuthHandler serves registration, login, and email verification.
type AuthHandler struct {
	accounts *account.Service
	otp      *otpauth.Service
	limiter  *ratelimit.Manager
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *account.Service, otp *otpauth.Service, limiter *ratelimit.Manager) *AuthHandler {
	return &AuthHandler{accounts: accounts, otp: otp, limiter: limiter}
}

// Register creates an account and sends the first verification code.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		OrgName       string `json:"orgName" binding:"required"`
		ContactPerson string `json:"contactPerson" binding:"required"`
		Designation   string `json:"designation"`
		Email         string `json:"email" binding:"required,email"`
		Phone         string `json:"phone"`
		Password      string `json:"password" binding:"required,min=8"`
		GSTNumber     string `json:"gstNumber"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	user, errRegister := h.accounts.Register(c.Request.Context(), account.RegisterInput{
		OrgName:       req.OrgName,
		ContactPerson: req.ContactPerson,
		Designation:   req.Designation,
		Email:         req.Email,
		Phone:         req.Phone,
		Password:      req.Password,
		GSTNumber:     req.GSTNumber,
	})
	if errRegister != nil {
		respondError(c, errRegister)
		return
	}

	if errSend := h.otp.Send(c.Request.Context(), user.Email); errSend != nil {
		log.WithError(errSend).WithField("email", user.Email).Warn("auth: initial otp send failed")
	}
	c.JSON(http.StatusCreated, gin.H{"user": sanitizeUser(user)})
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	session, errLogin := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if errLogin != nil {
		respondError(c, errLogin)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":    session.Token,
		"expireAt": session.ExpireAt,
		"user":     sanitizeUser(session.User),
	})
}

// SendOTP issues a fresh verification code, throttled per email.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	result, errAllow := h.limiter.Allow(c.Request.Context(), ratelimit.OTPResendKey(req.Email), otpResendLimit)
	if errAllow == nil && !result.Allowed {
		c.Header("Retry-After", result.Reset.UTC().Format(http.TimeFormat))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "resend too soon"})
		return
	}

	if errSend := h.otp.Send(c.Request.Context(), req.Email); errSend != nil {
		respondError(c, errSend)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// VerifyOTP checks a submitted code and marks the email verified.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBind.Error()})
		return
	}

	if errVerify := h.otp.Verify(c.Request.Context(), req.Email, req.Code); errVerify != nil {
		respondError(c, errVerify)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true})
}
