// Package catalog holds the static plan tables for both entitlement tracks.
// The identifier sets are closed; handlers validate identifiers before
// resolving, so an unknown identifier here is a programming error and
// fails fast.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Vrisan-Services/B2b-Server/internal/models"
)

// Main-track plan identifiers.
const (
	PlanEssentials = "essentials"
	PlanGrowth     = "growth"
	PlanEnterprise = "enterprise"
)

// CRM-track plan identifiers.
const (
	CRMPlanAchipreneur = "achipreneur"
	CRMPlanCustom      = "custom"
	CRMPlanFree        = "free"
)

// Price is a catalog price that may be negotiated out-of-band.
type Price struct {
	Custom bool    // Negotiated pricing, no fixed amount.
	Amount float64 // Price in INR. Meaningless when Custom.
}

// Plan is a main-track catalog entry.
type Plan struct {
	ID          string
	DisplayName string
	Price       Price
	Features    models.PlanFeatures
}

// CRMPlan is a CRM-track catalog entry. Validity lives on the plan rather
// than the feature bundle for this track.
type CRMPlan struct {
	ID           string
	DisplayName  string
	Price        Price
	ValidityDays models.Count
	Features     models.CRMPlanFeatures
}

var mainPlans = map[string]Plan{
	PlanEssentials: {
		ID:          PlanEssentials,
		DisplayName: "Essentials",
		Price:       Price{Amount: 25000},
		Features: models.PlanFeatures{
			Projects:            models.CountOf(3),
			AreaLimit:           "Up to 6,000 sq. ft.",
			ExtraCharge:         "₹3/sq. ft. above limit",
			ValidityDays:        models.CountOf(365),
			LayoutAccess:        true,
			StructuralDrawings:  true,
			MEPDesign:           true,
			RelationshipManager: true,
			UnifiedTeam:         true,
			TechStackAccess:     true,
			ExcessSqFtCarry:     true,
			PMCToolAccessMonths: 1,
			FinanceSupport:      "Construction Project Financing, Home loan, Loan against property",
			ProcurementAccess:   "Selective Products & cities",
		},
	},
	PlanGrowth: {
		ID:          PlanGrowth,
		DisplayName: "Growth",
		Price:       Price{Amount: 50000},
		Features: models.PlanFeatures{
			Projects:            models.CountOf(6),
			AreaLimit:           "Up to 15,000 sq. ft.",
			ExtraCharge:         "₹2/sq. ft. above limit",
			ValidityDays:        models.CountOf(365),
			LayoutAccess:        true,
			StructuralDrawings:  true,
			MEPDesign:           true,
			RelationshipManager: true,
			UnifiedTeam:         true,
			TechStackAccess:     true,
			ExcessSqFtCarry:     true,
			PMCToolAccessMonths: 2,
			FinanceSupport:      "Construction Project Financing, Home loan, Loan against property + Invoice discounting",
			ProcurementAccess:   "Access to mutiple products & Brands",
		},
	},
	PlanEnterprise: {
		ID:          PlanEnterprise,
		DisplayName: "Enterprise",
		Price:       Price{Custom: true},
		Features: models.PlanFeatures{
			Projects:            models.CountCustom(),
			AreaLimit:           "15,000+ sq. ft.",
			ExtraCharge:         "As applicable",
			ValidityDays:        models.CountCustom(),
			LayoutAccess:        true,
			StructuralDrawings:  true,
			MEPDesign:           true,
			RelationshipManager: true,
			UnifiedTeam:         true,
			TechStackAccess:     true,
			ExcessSqFtCarry:     true,
			PMCToolAccessMonths: 3,
			FinanceSupport:      "Construction Project Financing, Home loan, Loan against property + Invoice discounting",
			ProcurementAccess:   "Access to mutiple products & Brands",
		},
	},
}

var crmPlans = map[string]CRMPlan{
	CRMPlanAchipreneur: {
		ID:           CRMPlanAchipreneur,
		DisplayName:  "Achipreneur",
		Price:        Price{Amount: 4999},
		ValidityDays: models.CountOf(30),
		Features: models.CRMPlanFeatures{
			FreshLeadsPerMonth:    15,
			WelcomeBonusLeads:     5,
			CRMAccess:             true,
			ProposalsAndInvoicing: true,
			LoanAssistance:        true,
			PerformanceReports:    true,
		},
	},
	CRMPlanCustom: {
		ID:           CRMPlanCustom,
		DisplayName:  "custom",
		Price:        Price{Custom: true},
		ValidityDays: models.CountCustom(),
		Features: models.CRMPlanFeatures{
			FreshLeadsPerMonth:    40,
			WelcomeBonusLeads:     10,
			CRMAccess:             true,
			ProposalsAndInvoicing: true,
			LoanAssistance:        true,
			PerformanceReports:    true,
		},
	},
	CRMPlanFree: {
		ID:           CRMPlanFree,
		DisplayName:  "Free",
		Price:        Price{Amount: 0},
		ValidityDays: models.CountOf(7),
		Features: models.CRMPlanFeatures{
			FreshLeadsPerMonth: 5,
			CRMAccess:          true,
		},
	},
}

// mainOrder and crmOrder fix the catalog listing order, cheapest first.
var (
	mainOrder = []string{PlanEssentials, PlanGrowth, PlanEnterprise}
	crmOrder  = []string{CRMPlanFree, CRMPlanAchipreneur, CRMPlanCustom}
)

// MainPlans returns every main-track catalog entry, cheapest first.
func MainPlans() []Plan {
	out := make([]Plan, 0, len(mainOrder))
	for _, id := range mainOrder {
		out = append(out, mainPlans[id])
	}
	return out
}

// CRMPlans returns every CRM-track catalog entry, cheapest first.
func CRMPlans() []CRMPlan {
	out := make([]CRMPlan, 0, len(crmOrder))
	for _, id := range crmOrder {
		out = append(out, crmPlans[id])
	}
	return out
}

// IsMain reports whether id names a main-track plan.
func IsMain(id string) bool {
	_, ok := mainPlans[id]
	return ok
}

// IsCRM reports whether id names a CRM-track plan.
func IsCRM(id string) bool {
	_, ok := crmPlans[id]
	return ok
}

// Main returns the main-track catalog entry. Panics on an unknown
// identifier: the set is closed and callers validate with IsMain first.
func Main(id string) Plan {
	plan, ok := mainPlans[id]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown main plan %q", id))
	}
	return plan
}

// CRM returns the CRM-track catalog entry. Panics on an unknown
// identifier: the set is closed and callers validate with IsCRM first.
func CRM(id string) CRMPlan {
	plan, ok := crmPlans[id]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown crm plan %q", id))
	}
	return plan
}

// ParseAreaLimit extracts the numeric sq. ft. cap from an areaLimit string
// by digit extraction, e.g. "Up to 6,000 sq. ft." yields 6000. Returns 0
// when the string carries no digits.
func ParseAreaLimit(s string) float64 {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, errParse := strconv.ParseFloat(digits.String(), 64)
	if errParse != nil {
		return 0
	}
	return n
}
