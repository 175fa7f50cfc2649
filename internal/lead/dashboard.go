package lead

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/entitlement"
	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"github.com/Vrisan-Services/B2b-Server/internal/timeutil"
)

// Stats summarizes an account's lead pipeline.
type Stats struct {
	Total          int     `json:"total"`
	Fresh          int     `json:"fresh"`
	Initial        int     `json:"initial"`
	Converted      int     `json:"converted"`
	ConversionRate float64 `json:"conversionRate"` // Converted / Total, 0 when empty.
	PipelineValue  float64 `json:"pipelineValue"`  // Sum of parsed deal values, INR.
}

// MonthPoint is one month's value in a time series.
type MonthPoint struct {
	Month string  `json:"month"` // YYYY-MM.
	Value float64 `json:"value"`
}

// CityCount is one city's lead count.
type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// Stats aggregates the account's stored leads. View restrictions do not
// apply here; the numbers cover everything the account ever ingested.
func (s *Service) Stats(ctx context.Context, publicID string) (Stats, error) {
	leads, errLoad := s.allLeads(ctx, publicID)
	if errLoad != nil {
		return Stats{}, errLoad
	}
	var stats Stats
	stats.Total = len(leads)
	for i := range leads {
		switch leads[i].Status {
		case models.LeadStatusFresh:
			stats.Fresh++
		case models.LeadStatusInitial:
			stats.Initial++
		case models.LeadStatusConverted:
			stats.Converted++
		}
		stats.PipelineValue += parseDealValue(leads[i].Value)
	}
	if stats.Total > 0 {
		stats.ConversionRate = float64(stats.Converted) / float64(stats.Total)
	}
	return stats, nil
}

// CustomerGrowth returns leads ingested per calendar month over the last
// months months, oldest first. Months with no leads appear with zero.
func (s *Service) CustomerGrowth(ctx context.Context, publicID string, months int) ([]MonthPoint, error) {
	leads, errLoad := s.allLeads(ctx, publicID)
	if errLoad != nil {
		return nil, errLoad
	}
	counts := make(map[string]float64, months)
	for i := range leads {
		counts[timeutil.MonthKey(leads[i].FetchedAt)]++
	}
	return lastMonths(s.now().UTC(), months, counts), nil
}

// MonthlyBudget returns the summed deal value of leads converted per
// calendar month over the last months months, oldest first.
func (s *Service) MonthlyBudget(ctx context.Context, publicID string, months int) ([]MonthPoint, error) {
	leads, errLoad := s.allLeads(ctx, publicID)
	if errLoad != nil {
		return nil, errLoad
	}
	sums := make(map[string]float64, months)
	for i := range leads {
		if leads[i].Status != models.LeadStatusConverted {
			continue
		}
		sums[timeutil.MonthKey(leads[i].UpdatedAt)] += parseDealValue(leads[i].Value)
	}
	return lastMonths(s.now().UTC(), months, sums), nil
}

// Citywise returns lead counts per city, largest first. Leads without a
// city are grouped under "Unknown".
func (s *Service) Citywise(ctx context.Context, publicID string) ([]CityCount, error) {
	leads, errLoad := s.allLeads(ctx, publicID)
	if errLoad != nil {
		return nil, errLoad
	}
	counts := map[string]int{}
	for i := range leads {
		city := strings.TrimSpace(leads[i].City)
		if city == "" {
			city = "Unknown"
		}
		counts[city]++
	}
	out := make([]CityCount, 0, len(counts))
	for city, count := range counts {
		out = append(out, CityCount{City: city, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	return out, nil
}

func (s *Service) allLeads(ctx context.Context, publicID string) ([]models.Lead, error) {
	var leads []models.Lead
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", publicID).
		Find(&leads).Error; errFind != nil {
		return nil, entitlement.Upstreamf("load leads", errFind)
	}
	return leads, nil
}

// lastMonths renders the trailing months window from a YYYY-MM keyed map,
// oldest first, filling gaps with zero.
func lastMonths(now time.Time, months int, values map[string]float64) []MonthPoint {
	if months <= 0 {
		months = 6
	}
	out := make([]MonthPoint, 0, months)
	start := timeutil.StartOfMonth(now).AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		key := timeutil.MonthKey(start.AddDate(0, i, 0))
		out = append(out, MonthPoint{Month: key, Value: values[key]})
	}
	return out
}

// parseDealValue extracts the numeric amount from a display value such as
// "₹18,50,000". Non-digits are dropped; anything without digits is zero.
func parseDealValue(display string) float64 {
	var digits strings.Builder
	for _, r := range display {
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
