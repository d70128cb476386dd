// Package routes enumerates the canonical, deduplicated set of pages a build
// emits, derived from the content snapshot and a fixed list of static pages.
package routes

// PageKind names a page type for reporting, sitemap policy, and validation.
type PageKind string

const (
	KindHome             PageKind = "home"
	KindHub              PageKind = "hub"
	KindFund             PageKind = "fund"
	KindFundAlternatives PageKind = "fund_alternatives"
	KindCategory         PageKind = "category"
	KindTag              PageKind = "tag"
	KindManager          PageKind = "manager"
	KindTeamMember       PageKind = "team_member"
	KindComparison       PageKind = "comparison"
	KindNotFound         PageKind = "not_found"
)

// AllKinds lists every page kind in a stable order.
var AllKinds = []PageKind{
	KindHome, KindHub, KindFund, KindFundAlternatives, KindCategory,
	KindTag, KindManager, KindTeamMember, KindComparison, KindNotFound,
}

// PageType is the closed set of page variants. Only types in this package
// implement it.
type PageType interface {
	Kind() PageKind
	isPageType()
}

type (
	HomePage             struct{}
	HubPage              struct{ Name string }
	FundPage             struct{ FundID string }
	FundAlternativesPage struct{ FundID string }
	CategoryPage         struct{ CategoryID string }
	TagPage              struct{ TagID string }
	ManagerPage          struct{ ManagerID string }
	TeamMemberPage       struct{ MemberID string }
	ComparisonPage       struct{ ComparisonID, FundAID, FundBID string }
	NotFoundPage         struct{}
)

func (HomePage) Kind() PageKind             { return KindHome }
func (HubPage) Kind() PageKind              { return KindHub }
func (FundPage) Kind() PageKind             { return KindFund }
func (FundAlternativesPage) Kind() PageKind { return KindFundAlternatives }
func (CategoryPage) Kind() PageKind         { return KindCategory }
func (TagPage) Kind() PageKind              { return KindTag }
func (ManagerPage) Kind() PageKind          { return KindManager }
func (TeamMemberPage) Kind() PageKind       { return KindTeamMember }
func (ComparisonPage) Kind() PageKind       { return KindComparison }
func (NotFoundPage) Kind() PageKind         { return KindNotFound }

func (HomePage) isPageType()             {}
func (HubPage) isPageType()              {}
func (FundPage) isPageType()             {}
func (FundAlternativesPage) isPageType() {}
func (CategoryPage) isPageType()         {}
func (TagPage) isPageType()              {}
func (ManagerPage) isPageType()          {}
func (TeamMemberPage) isPageType()       {}
func (ComparisonPage) isPageType()       {}
func (NotFoundPage) isPageType()         {}

// Route is one page to emit. Path is the unique key.
type Route struct {
	Path        string
	Page        PageType
	ContentID   string
	Params      map[string]string
	LegacyAlias bool
}

// Kind is shorthand for r.Page.Kind().
func (r Route) Kind() PageKind { return r.Page.Kind() }

// Param returns a route parameter or "".
func (r Route) Param(key string) string { return r.Params[key] }
