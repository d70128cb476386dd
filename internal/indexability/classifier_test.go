package indexability

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

const longDescription = "A long-only global equity fund investing in large companies."

func fixture() *content.Snapshot {
	return content.NewSnapshot(content.Collections{
		Funds: []content.Fund{
			{ID: "good", Name: "Good", ManagerID: "m1", Description: longDescription, CategoryIDs: []string{"c1"}, TagIDs: []string{"t1"}},
			{ID: "other", Name: "Other", ManagerID: "m1", Description: longDescription},
			{ID: "flagged", Name: "Flagged", ManagerID: "m1", Description: longDescription, Excluded: true},
			{ID: "thin", Name: "Thin", ManagerID: "m1", Description: "short"},
		},
		Categories:  []content.Category{{ID: "c1", Name: "Used"}, {ID: "c2", Name: "Empty"}},
		Tags:        []content.Tag{{ID: "t1", Name: "Used"}, {ID: "t2", Name: "Empty"}},
		Managers:    []content.Manager{{ID: "m1", Name: "Acme"}, {ID: "m2", Name: "Idle"}},
		TeamMembers: []content.TeamMember{
			{ID: "ok", Name: "Jane", Role: "Editor", Bio: strings.Repeat("x", 81)},
			{ID: "exact", Name: "Joe", Role: "Editor", Bio: strings.Repeat("x", 80)},
			{ID: "norole", Name: "Ann", Bio: strings.Repeat("x", 200)},
			{ID: "gone", Name: "Max", Role: "Analyst", Bio: strings.Repeat("x", 200)},
		},
	}, time.Now())
}

func TestClassifier_Rules(t *testing.T) {
	c := New(fixture(), WithRemovedTeamMembers([]string{"gone"}))

	tests := []struct {
		name  string
		route routes.Route
		want  bool
	}{
		{"home", routes.Route{Path: "/", Page: routes.HomePage{}}, true},
		{"hub", routes.Route{Path: "/faq", Page: routes.HubPage{Name: "faq"}}, true},
		{"not found", routes.Route{Page: routes.NotFoundPage{}}, false},
		{"eligible fund", routes.Route{Page: routes.FundPage{FundID: "good"}}, true},
		{"alternatives follow fund", routes.Route{Page: routes.FundAlternativesPage{FundID: "good"}}, true},
		{"legacy alias", routes.Route{Page: routes.FundPage{FundID: "good"}, LegacyAlias: true}, false},
		{"excluded fund", routes.Route{Page: routes.FundPage{FundID: "flagged"}}, false},
		{"thin fund", routes.Route{Page: routes.FundPage{FundID: "thin"}}, false},
		{"missing fund", routes.Route{Page: routes.FundPage{FundID: "nope"}}, false},
		{"used category", routes.Route{Page: routes.CategoryPage{CategoryID: "c1"}}, true},
		{"empty category", routes.Route{Page: routes.CategoryPage{CategoryID: "c2"}}, false},
		{"used tag", routes.Route{Page: routes.TagPage{TagID: "t1"}}, true},
		{"empty tag", routes.Route{Page: routes.TagPage{TagID: "t2"}}, false},
		{"active manager", routes.Route{Page: routes.ManagerPage{ManagerID: "m1"}}, true},
		{"idle manager", routes.Route{Page: routes.ManagerPage{ManagerID: "m2"}}, false},
		{"team member", routes.Route{Page: routes.TeamMemberPage{MemberID: "ok"}}, true},
		{"bio at threshold", routes.Route{Page: routes.TeamMemberPage{MemberID: "exact"}}, false},
		{"no role", routes.Route{Page: routes.TeamMemberPage{MemberID: "norole"}}, false},
		{"removed member", routes.Route{Page: routes.TeamMemberPage{MemberID: "gone"}}, false},
		{"comparison", routes.Route{Page: routes.ComparisonPage{FundAID: "good", FundBID: "other"}}, true},
		{"comparison identical", routes.Route{Page: routes.ComparisonPage{FundAID: "good", FundBID: "good"}}, false},
		{"comparison flagged member", routes.Route{Page: routes.ComparisonPage{FundAID: "good", FundBID: "flagged"}}, false},
		{"comparison ineligible member", routes.Route{Page: routes.ComparisonPage{FundAID: "thin", FundBID: "good"}}, false},
		{"comparison missing member", routes.Route{Page: routes.ComparisonPage{FundAID: "good", FundBID: "nope"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Decide(tt.route)
			assert.Equal(t, tt.want, d.Indexable)
			if tt.want {
				assert.Equal(t, RobotsIndex, d.Robots)
				assert.Empty(t, d.Reason)
			} else {
				assert.Equal(t, RobotsNoIndex, d.Robots)
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestClassifier_Idempotent(t *testing.T) {
	c := New(fixture())
	r := routes.Route{Page: routes.ComparisonPage{FundAID: "good", FundBID: "other"}}
	assert.Equal(t, c.Decide(r), c.Decide(r))
}

type allowAll struct{}

func (allowAll) FundEligible(content.Fund) bool       { return true }
func (allowAll) FundCompleteness(content.Fund) float64 { return 1 }

func TestClassifier_CustomEligibility(t *testing.T) {
	c := New(fixture(), WithEligibility(allowAll{}), WithMinBioLength(10))
	assert.True(t, c.Fund("thin").Indexable)
	assert.True(t, c.Excluded("flagged"), "the excluded flag applies regardless of eligibility")
	assert.True(t, c.TeamMember("exact").Indexable)
}
