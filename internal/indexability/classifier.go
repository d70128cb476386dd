// Package indexability decides which pages may be exposed to search engines.
// Decisions are pure functions of the snapshot and configuration.
package indexability

import (
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

// Robots meta directives.
const (
	RobotsIndex   = "index,follow"
	RobotsNoIndex = "noindex,follow"
)

// Decision is the classifier's verdict for one page.
type Decision struct {
	Indexable bool   `json:"indexable"`
	Robots    string `json:"robots"`
	Reason    string `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Indexable: true, Robots: RobotsIndex} }

func deny(reason string) Decision {
	return Decision{Indexable: false, Robots: RobotsNoIndex, Reason: reason}
}

// Classifier applies the indexability rules to routes of one snapshot.
type Classifier struct {
	snap         *content.Snapshot
	eligibility  content.Eligibility
	removed      map[string]struct{}
	minBioLength int
	members      map[string]*content.TeamMember
	categories   map[string]*content.Category
	tags         map[string]*content.Tag
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithEligibility overrides the fund eligibility predicate.
func WithEligibility(e content.Eligibility) Option { return func(c *Classifier) { c.eligibility = e } }

// WithRemovedTeamMembers sets the deny-list of team member ids.
func WithRemovedTeamMembers(ids []string) Option {
	return func(c *Classifier) {
		for _, id := range ids {
			c.removed[id] = struct{}{}
		}
	}
}

// WithMinBioLength sets the minimum team member bio length in runes (exclusive).
func WithMinBioLength(n int) Option { return func(c *Classifier) { c.minBioLength = n } }

// New returns a Classifier over snap.
func New(snap *content.Snapshot, opts ...Option) *Classifier {
	c := &Classifier{
		snap:         snap,
		eligibility:  content.NewDefaultEligibility(),
		removed:      make(map[string]struct{}),
		minBioLength: 80,
		members:      make(map[string]*content.TeamMember, len(snap.TeamMembers)),
		categories:   make(map[string]*content.Category, len(snap.Categories)),
		tags:         make(map[string]*content.Tag, len(snap.Tags)),
	}
	for i := range snap.TeamMembers {
		c.members[snap.TeamMembers[i].ID] = &snap.TeamMembers[i]
	}
	for i := range snap.Categories {
		c.categories[snap.Categories[i].ID] = &snap.Categories[i]
	}
	for i := range snap.Tags {
		c.tags[snap.Tags[i].ID] = &snap.Tags[i]
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Eligibility returns the fund eligibility predicate in use.
func (c *Classifier) Eligibility() content.Eligibility { return c.eligibility }

// Decide classifies a route. Legacy aliases are never indexable.
func (c *Classifier) Decide(r routes.Route) Decision {
	if r.LegacyAlias {
		return deny("legacy alias")
	}
	switch p := r.Page.(type) {
	case routes.HomePage, routes.HubPage:
		return allow()
	case routes.NotFoundPage:
		return deny("not found page")
	case routes.FundPage:
		return c.Fund(p.FundID)
	case routes.FundAlternativesPage:
		return c.Fund(p.FundID)
	case routes.CategoryPage:
		return c.Category(p.CategoryID)
	case routes.TagPage:
		return c.Tag(p.TagID)
	case routes.ManagerPage:
		return c.Manager(p.ManagerID)
	case routes.TeamMemberPage:
		return c.TeamMember(p.MemberID)
	case routes.ComparisonPage:
		return c.Comparison(p.FundAID, p.FundBID)
	default:
		return deny("unknown page type")
	}
}

// Fund is indexable iff the fund exists and passes the eligibility predicate.
func (c *Classifier) Fund(id string) Decision {
	f, ok := c.snap.Fund(id)
	if !ok {
		return deny("fund not found")
	}
	if !c.eligibility.FundEligible(*f) {
		return deny("fund not eligible")
	}
	return allow()
}

// Category is indexable iff at least one fund references it.
func (c *Classifier) Category(id string) Decision {
	if _, ok := c.categories[id]; !ok {
		return deny("category not found")
	}
	if len(c.snap.FundsInCategory(id)) == 0 {
		return deny("no funds in category")
	}
	return allow()
}

// Tag is indexable iff at least one fund carries it.
func (c *Classifier) Tag(id string) Decision {
	if _, ok := c.tags[id]; !ok {
		return deny("tag not found")
	}
	if len(c.snap.FundsWithTag(id)) == 0 {
		return deny("no funds with tag")
	}
	return allow()
}

// Manager is indexable iff at least one fund references it.
func (c *Classifier) Manager(id string) Decision {
	if _, ok := c.snap.Manager(id); !ok {
		return deny("manager not found")
	}
	if len(c.snap.FundsByManager(id)) == 0 {
		return deny("manager has no funds")
	}
	return allow()
}

// TeamMember is indexable iff not removed, named, has a role, and the bio is
// strictly longer than the configured minimum.
func (c *Classifier) TeamMember(id string) Decision {
	if _, gone := c.removed[id]; gone {
		return deny("team member removed")
	}
	m, ok := c.members[id]
	if !ok {
		return deny("team member not found")
	}
	if strings.TrimSpace(m.Name) == "" {
		return deny("team member has no name")
	}
	if strings.TrimSpace(m.Role) == "" {
		return deny("team member has no role")
	}
	if utf8.RuneCountInString(strings.TrimSpace(m.Bio)) <= c.minBioLength {
		return deny("team member bio too short")
	}
	return allow()
}

// Comparison is indexable iff the members differ and neither is excluded.
func (c *Classifier) Comparison(fundA, fundB string) Decision {
	if fundA == fundB {
		return deny("comparison members identical")
	}
	if c.Excluded(fundA) || c.Excluded(fundB) {
		return deny("comparison member excluded")
	}
	return allow()
}

// Excluded reports whether a fund is missing, flagged excluded, or ineligible.
func (c *Classifier) Excluded(fundID string) bool {
	f, ok := c.snap.Fund(fundID)
	if !ok || f.Excluded {
		return true
	}
	return !c.eligibility.FundEligible(*f)
}
