package entitlement

import (
	"errors"
	"fmt"
)

// Sentinel errors for entitlement and quota failures. All are terminal for
// the triggering request; none are retried internally.
var (
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrExpired indicates the plan has lapsed.
	ErrExpired = errors.New("subscription expired")
	// ErrInvalidPlan indicates a malformed or missing feature bundle.
	ErrInvalidPlan = errors.New("invalid plan configuration")
	// ErrUnauthorized indicates a cross-account access attempt.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrQuotaExceeded is the errors.Is target for all quota failures.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrUpstream is the errors.Is target for external API and storage failures.
	ErrUpstream = errors.New("upstream failure")
)

// QuotaReason distinguishes the quota sub-cases.
type QuotaReason string

const (
	// QuotaLifetimeFree caps unsubscribed accounts at one lifetime project.
	QuotaLifetimeFree QuotaReason = "lifetime_free"
	// QuotaProjectCount is the plan's project-count cap.
	QuotaProjectCount QuotaReason = "project_count"
	// QuotaArea is the plan's total area cap.
	QuotaArea QuotaReason = "area"
	// QuotaLeads is the monthly lead allowance.
	QuotaLeads QuotaReason = "leads"
)

// QuotaError reports a quota failure with the limit and plan named in the
// message.
type QuotaError struct {
	Reason    QuotaReason
	Plan      string  // Plan name; empty for the unsubscribed lifetime cap.
	Limit     float64 // The enforced limit.
	Used      float64 // Usage counted before the request.
	Requested float64 // Additional amount the request asked for.
}

// Error formats a message naming the exceeded limit and the plan.
func (e *QuotaError) Error() string {
	switch e.Reason {
	case QuotaLifetimeFree:
		return fmt.Sprintf("free tier limit exceeded: only %d project allowed without an active subscription", int(e.Limit))
	case QuotaProjectCount:
		return fmt.Sprintf("project limit exceeded: plan %s allows %d projects, %d already created", e.Plan, int(e.Limit), int(e.Used))
	case QuotaArea:
		return fmt.Sprintf("area limit exceeded: plan %s allows %.0f sq. ft., %.0f used and %.0f requested", e.Plan, e.Limit, e.Used, e.Requested)
	case QuotaLeads:
		return fmt.Sprintf("lead limit exceeded: plan %s allows %d leads this month, %d already used", e.Plan, int(e.Limit), int(e.Used))
	default:
		return fmt.Sprintf("quota exceeded on plan %s", e.Plan)
	}
}

// Is matches QuotaError against the ErrQuotaExceeded sentinel.
func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// Upstreamf wraps an external API or storage failure so callers can match
// it with errors.Is(err, ErrUpstream) while keeping the upstream detail.
func Upstreamf(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
