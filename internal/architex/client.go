// Package architex is the client for the upstream lead provider. It fetches
// batches of fresh leads for an account and normalizes the provider's loose
// payload shapes into the stored lead model.
package architex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/config"
	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/timeutil"
	log "github.com/sirupsen/logrus"
)

const defaultRequestTimeout = 30 * time.Second

// Lead is one normalized lead as returned by the provider.
type Lead struct {
	Name      string
	Email     string
	Phone     string
	Company   string
	Type      string
	Value     string
	Source    string
	City      string
	State     string
	CreatedAt time.Time
}

// Client talks to the lead provider API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient constructs a provider client from configuration.
func NewClient(cfg config.ArchitexConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

// FetchLeads requests up to count fresh leads for the given account.
func (c *Client) FetchLeads(ctx context.Context, accountID string, count int) ([]Lead, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("architex: empty base url")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	payload, errMarshal := json.Marshal(map[string]any{"accountId": accountID, "count": count})
	if errMarshal != nil {
		return nil, fmt.Errorf("architex: marshal request: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(requestCtx, http.MethodPost, c.baseURL+"/leads/fetch", bytes.NewReader(payload))
	if errReq != nil {
		return nil, fmt.Errorf("architex: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return nil, entitlement.Upstreamf("architex request", errDo)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.WithError(errClose).Warn("architex: close response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, entitlement.Upstreamf("architex request", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return nil, entitlement.Upstreamf("architex response", errRead)
	}

	leads, errParse := ParseLeadsPayload(body)
	if errParse != nil {
		return nil, errParse
	}
	return leads, nil
}

// rawLead covers the alias field names the provider has used across
// versions. Unknown fields are ignored.
type rawLead struct {
	LeadName        string          `json:"LeadName"`
	Name            string          `json:"Name"`
	Email           string          `json:"Email"`
	EmailLower      string          `json:"email"`
	Phone           string          `json:"Phone"`
	Mobile          string          `json:"Mobile"`
	Company         string          `json:"Company"`
	Type            string          `json:"Type"`
	Value           string          `json:"Value"`
	Size            string          `json:"Size"`
	Source          string          `json:"Source"`
	City            string          `json:"City"`
	State           string          `json:"State"`
	CreatedDateTime json.RawMessage `json:"CreatedDateTime"`
	LastNoteAdded   json.RawMessage `json:"LastNoteAdded"`
}

// ParseLeadsPayload decodes a provider response. The provider returns either
// a bare array or an object wrapping it under "leads".
func ParseLeadsPayload(body []byte) ([]Lead, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var raws []rawLead
	if trimmed[0] == '[' {
		if errDecode := json.Unmarshal(trimmed, &raws); errDecode != nil {
			return nil, fmt.Errorf("architex: decode leads array: %w", errDecode)
		}
	} else {
		var wrapper struct {
			Leads []rawLead `json:"leads"`
		}
		if errDecode := json.Unmarshal(trimmed, &wrapper); errDecode != nil {
			return nil, fmt.Errorf("architex: decode leads object: %w", errDecode)
		}
		raws = wrapper.Leads
	}

	leads := make([]Lead, 0, len(raws))
	for i := range raws {
		leads = append(leads, normalizeLead(&raws[i]))
	}
	return leads, nil
}

func normalizeLead(raw *rawLead) Lead {
	lead := Lead{
		Name:    firstNonEmpty(raw.LeadName, raw.Name),
		Email:   strings.ToLower(strings.TrimSpace(firstNonEmpty(raw.Email, raw.EmailLower))),
		Phone:   firstNonEmpty(raw.Phone, raw.Mobile),
		Company: raw.Company,
		Type:    raw.Type,
		Value:   firstNonEmpty(raw.Value, raw.Size),
		Source:  raw.Source,
		City:    raw.City,
		State:   raw.State,
	}
	for _, stamp := range []json.RawMessage{raw.CreatedDateTime, raw.LastNoteAdded} {
		if len(stamp) == 0 {
			continue
		}
		if t, errParse := timeutil.ParseFlexible(stamp); errParse == nil {
			lead.CreatedAt = t
			break
		}
	}
	return lead
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
