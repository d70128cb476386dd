// Package content defines the typed content records the site is built from,
// the Source interface content adapters implement, and the per-build
// snapshot cache.
package content

import "time"

// FundStatus is the lifecycle status of a fund.
type FundStatus string

const (
	StatusActive     FundStatus = "active"
	StatusPending    FundStatus = "pending"
	StatusClosed     FundStatus = "closed"
	StatusLiquidated FundStatus = "liquidated"
)

// Fund is an investment fund profile.
type Fund struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Slug          string     `json:"slug,omitempty" yaml:"slug,omitempty"`
	Ticker        string     `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Status        FundStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"` // markdown
	ManagerID     string     `json:"manager_id,omitempty" yaml:"manager_id,omitempty"`
	CategoryIDs   []string   `json:"category_ids,omitempty" yaml:"category_ids,omitempty"`
	TagIDs        []string   `json:"tag_ids,omitempty" yaml:"tag_ids,omitempty"`
	LegacySlugs   []string   `json:"legacy_slugs,omitempty" yaml:"legacy_slugs,omitempty"`
	Excluded      bool       `json:"excluded,omitempty" yaml:"excluded,omitempty"`
	InceptionDate string     `json:"inception_date,omitempty" yaml:"inception_date,omitempty"`
	ExpenseRatio  float64    `json:"expense_ratio,omitempty" yaml:"expense_ratio,omitempty"`
	AUM           float64    `json:"aum,omitempty" yaml:"aum,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Category groups funds by strategy or asset class.
type Category struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Slug        string    `json:"slug,omitempty" yaml:"slug,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Tag is a descriptive label attached to funds.
type Tag struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Slug      string    `json:"slug,omitempty" yaml:"slug,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Manager is the firm managing one or more funds.
type Manager struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Slug      string    `json:"slug,omitempty" yaml:"slug,omitempty"`
	Bio       string    `json:"bio,omitempty" yaml:"bio,omitempty"`
	Website   string    `json:"website,omitempty" yaml:"website,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// TeamMember is an editorial team member with a profile page.
type TeamMember struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Slug      string    `json:"slug,omitempty" yaml:"slug,omitempty"`
	Role      string    `json:"role,omitempty" yaml:"role,omitempty"`
	Bio       string    `json:"bio,omitempty" yaml:"bio,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Comparison is an ordered pair of funds with a head-to-head page.
type Comparison struct {
	ID        string    `json:"id" yaml:"id"`
	FundAID   string    `json:"fund_a_id" yaml:"fund_a_id"`
	FundBID   string    `json:"fund_b_id" yaml:"fund_b_id"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Collections is the raw set of records a source yields. It is also the
// on-disk shape of a YAML snapshot file.
type Collections struct {
	Funds       []Fund       `json:"funds" yaml:"funds"`
	Categories  []Category   `json:"categories" yaml:"categories"`
	Tags        []Tag        `json:"tags" yaml:"tags"`
	Managers    []Manager    `json:"managers" yaml:"managers"`
	TeamMembers []TeamMember `json:"team_members" yaml:"team_members"`
	Comparisons []Comparison `json:"comparisons" yaml:"comparisons"`
}
