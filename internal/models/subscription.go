package models

import (
	"time"

	"gorm.io/datatypes"
)

// Track identifies one of the two independent entitlement domains.
type Track string

const (
	// TrackMain is the project-creation entitlement track.
	TrackMain Track = "main"
	// TrackCRM is the lead-access entitlement track.
	TrackCRM Track = "crm"
)

// PlanFeatures is the main-track feature bundle: immutable catalog values
// plus the mutable usage counters maintained on every consuming action.
type PlanFeatures struct {
	Projects            Count   `json:"projects"`            // Project cap, numeric or custom.
	AreaLimit           string  `json:"areaLimit"`           // Free-text area cap, e.g. "Up to 6,000 sq. ft.".
	ExtraCharge         string  `json:"extraCharge"`         // Over-limit surcharge description.
	ValidityDays        Count   `json:"validityDays"`        // Plan validity, numeric days or custom.
	LayoutAccess        bool    `json:"layoutAccess"`
	StructuralDrawings  bool    `json:"structuralDrawings"`
	MEPDesign           bool    `json:"mepDesign"`
	RelationshipManager bool    `json:"relationshipManager"`
	UnifiedTeam         bool    `json:"unifiedTeam"`
	TechStackAccess     bool    `json:"techStackAccess"`
	ExcessSqFtCarry     bool    `json:"excessSqFtCarry"`
	PMCToolAccessMonths int     `json:"pmcToolAccessMonths"` // PMC tool access duration.
	FinanceSupport      string  `json:"financeSupport"`      // Finance support description.
	ProcurementAccess   string  `json:"procurementAccess"`   // Procurement access description.
	UsedArea            float64 `json:"usedArea"`            // Sq. ft. consumed across projects.
	UsedProjects        int     `json:"usedProjects"`        // Projects created under the plan.
	RemainingArea       float64 `json:"remainingArea"`       // Sq. ft. left under the cap.
	RemainingProjects   int     `json:"remainingProjects"`   // Projects left, when cap is numeric.
}

// PlanInfo is the main-track entitlement document owned by the user row.
// It is replaced wholesale on re-subscription and mutated in place (feature
// counters only) on usage events.
type PlanInfo struct {
	PlanName     string       `json:"planName"`
	SubscribedAt time.Time    `json:"subscribedAt"`
	ExpiresAt    Expiry       `json:"expiresAt"`
	Features     PlanFeatures `json:"features"`
}

// Valid reports whether the document carries a usable feature bundle.
func (p PlanInfo) Valid() bool {
	return p.PlanName != "" && p.Features.AreaLimit != ""
}

// CRMPlanFeatures is the CRM-track feature bundle with monthly lead counters.
type CRMPlanFeatures struct {
	FreshLeadsPerMonth      int  `json:"freshLeadsPerMonth"`      // Monthly lead allowance.
	WelcomeBonusLeads       int  `json:"welcomeBonusLeads"`       // One-time bonus leads at signup.
	CRMAccess               bool `json:"crmAccess"`
	ProposalsAndInvoicing   bool `json:"proposalsAndInvoicing"`
	LoanAssistance          bool `json:"loanAssistance"`
	PerformanceReports      bool `json:"performanceReports"`
	UsedLeadsThisMonth      int  `json:"usedLeadsThisMonth"`      // Leads consumed in the current calendar month.
	RemainingLeadsThisMonth int  `json:"remainingLeadsThisMonth"` // Allowance left this month.
}

// MonthlyLeadUsage is one calendar month's entry in the usage history.
type MonthlyLeadUsage struct {
	Month     string `json:"month"` // YYYY-MM.
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}

// CRMPlanInfo is the CRM-track entitlement document owned by the user row.
type CRMPlanInfo struct {
	PlanName          string             `json:"planName"`
	SubscribedAt      time.Time          `json:"subscribedAt"`
	ExpiresAt         Expiry             `json:"expiresAt"`
	Features          CRMPlanFeatures    `json:"features"`
	LeadsUsageHistory []MonthlyLeadUsage `json:"leadsUsageHistory,omitempty"`
}

// Valid reports whether the document carries a usable feature bundle.
func (p CRMPlanInfo) Valid() bool {
	return p.PlanName != ""
}

// UpsertMonthUsage updates, or inserts keyed by month, the usage history
// entry for the given YYYY-MM key.
func (p *CRMPlanInfo) UpsertMonthUsage(month string, used, remaining int) {
	for i := range p.LeadsUsageHistory {
		if p.LeadsUsageHistory[i].Month == month {
			p.LeadsUsageHistory[i].Used = used
			p.LeadsUsageHistory[i].Remaining = remaining
			return
		}
	}
	p.LeadsUsageHistory = append(p.LeadsUsageHistory, MonthlyLeadUsage{
		Month:     month,
		Used:      used,
		Remaining: remaining,
	})
}

// SubscriptionRecord is the append-only audit row written once per plan
// assignment. Never mutated after creation.
type SubscriptionRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string `gorm:"type:varchar(64);not null;index"` // Public account identifier.
	Track  Track  `gorm:"type:varchar(16);not null;index"` // Entitlement track.
	Plan   string `gorm:"type:varchar(32);not null"`       // Assigned plan identifier.

	SubscribedAt time.Time  `gorm:"not null"` // Assignment instant.
	ExpiresAt    *time.Time // Concrete expiry; nil for never-expiring plans.
	Price        float64    `gorm:"type:decimal(12,2);not null;default:0"` // Catalog price; 0 when custom.
	PriceCustom  bool       `gorm:"not null;default:false"`                // Whether the price is negotiated out-of-band.

	Features datatypes.JSON `gorm:"type:jsonb"` // Feature bundle snapshot at assignment.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Row creation timestamp.
}
