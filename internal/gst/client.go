// Package gst verifies GST registration numbers against the external
// registry and caches the verdict on the account.
package gst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/config"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultRequestTimeout = 15 * time.Second

// ErrInvalidGSTIN indicates a malformed GST number, rejected before any
// registry call.
var ErrInvalidGSTIN = errors.New("invalid gstin format")

// gstinPattern is the standard 15-character GSTIN shape.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// Verification is the registry verdict for one GSTIN.
type Verification struct {
	GSTIN     string `json:"gstin"`
	Valid     bool   `json:"valid"`
	LegalName string `json:"legalName,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Verifier checks GST numbers.
type Verifier interface {
	Verify(ctx context.Context, gstin string) (Verification, error)
}

// Client calls the GST registry API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient constructs a registry client.
func NewClient(cfg config.GSTConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Verify checks the GSTIN against the registry.
func (c *Client) Verify(ctx context.Context, gstin string) (Verification, error) {
	gstin = strings.ToUpper(strings.TrimSpace(gstin))
	if !gstinPattern.MatchString(gstin) {
		return Verification{GSTIN: gstin}, ErrInvalidGSTIN
	}
	if c.baseURL == "" {
		return Verification{}, fmt.Errorf("gst: empty base url")
	}

	requestCtx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	req, errReq := http.NewRequestWithContext(requestCtx, http.MethodGet, c.baseURL+"/v1/gstin/"+gstin, nil)
	if errReq != nil {
		return Verification{}, fmt.Errorf("gst: build request: %w", errReq)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return Verification{}, entitlement.Upstreamf("gst request", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("gst: close response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return Verification{}, entitlement.Upstreamf("gst request", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return Verification{}, entitlement.Upstreamf("gst response", errRead)
	}

	var payload struct {
		Valid     bool   `json:"valid"`
		LegalName string `json:"legalName"`
		TradeName string `json:"tradeName"`
		Status    string `json:"status"`
	}
	if errDecode := json.Unmarshal(body, &payload); errDecode != nil {
		return Verification{}, entitlement.Upstreamf("gst response", errDecode)
	}
	name := payload.LegalName
	if name == "" {
		name = payload.TradeName
	}
	return Verification{GSTIN: gstin, Valid: payload.Valid, LegalName: name, Status: payload.Status}, nil
}

// Service verifies a GSTIN and records the verdict on the account.
type Service struct {
	db       *gorm.DB
	verifier Verifier
}

// NewService constructs a gst Service.
func NewService(conn *gorm.DB, verifier Verifier) *Service {
	return &Service{db: conn, verifier: verifier}
}

// VerifyForUser checks the GSTIN and, when valid, caches it on the user row.
func (s *Service) VerifyForUser(ctx context.Context, userID uint64, gstin string) (Verification, error) {
	result, errVerify := s.verifier.Verify(ctx, gstin)
	if errVerify != nil {
		return result, errVerify
	}
	if !result.Valid {
		return result, nil
	}
	if errSave := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"gst_number": result.GSTIN, "gst_verified": true}).Error; errSave != nil {
		return result, entitlement.Upstreamf("cache gst verdict", errSave)
	}
	return result, nil
}
