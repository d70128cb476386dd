package content

import (
	"strings"
	"unicode/utf8"
)

// Eligibility is the completeness/eligibility rule set the content owner
// supplies for funds.
type Eligibility interface {
	// FundEligible reports whether a fund may be exposed to search engines.
	FundEligible(f Fund) bool
	// FundCompleteness scores how complete a fund's data is, in [0,1].
	FundCompleteness(f Fund) float64
}

// DefaultEligibility is the built-in rule set used when the content owner
// provides none.
type DefaultEligibility struct {
	MinDescriptionRunes int
}

// NewDefaultEligibility returns the default rules (description of at least 40 runes).
func NewDefaultEligibility() DefaultEligibility {
	return DefaultEligibility{MinDescriptionRunes: 40}
}

// FundEligible requires a name, a manager, a description of minimum length,
// and a status other than liquidated. Excluded funds are never eligible.
func (d DefaultEligibility) FundEligible(f Fund) bool {
	if f.Excluded || f.Status == StatusLiquidated {
		return false
	}
	if strings.TrimSpace(f.Name) == "" || f.ManagerID == "" {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(f.Description)) >= d.MinDescriptionRunes
}

// FundCompleteness is the share of optional data points that are populated.
func (d DefaultEligibility) FundCompleteness(f Fund) float64 {
	checks := []bool{
		strings.TrimSpace(f.Description) != "",
		f.Ticker != "",
		f.ManagerID != "",
		len(f.CategoryIDs) > 0,
		len(f.TagIDs) > 0,
		f.InceptionDate != "",
		f.ExpenseRatio > 0,
		f.AUM > 0,
	}
	n := 0
	for _, ok := range checks {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(checks))
}
