package sqlitesource

import (
	"context"
	"database/sql"

	"git.home.luguber.info/inful/fundsite/internal/content"
)

var _ content.Source = (*Store)(nil)

func (s *Store) Funds(ctx context.Context) ([]content.Fund, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug, ticker, status, description, manager_id, excluded,
		inception_date, expense_ratio, aum, updated_at FROM funds ORDER BY position`)
	if err != nil {
		return nil, queryError(err, "funds")
	}
	defer rows.Close()

	var funds []content.Fund
	for rows.Next() {
		var f content.Fund
		var status, updated string
		if err := rows.Scan(&f.ID, &f.Name, &f.Slug, &f.Ticker, &status, &f.Description, &f.ManagerID, &f.Excluded,
			&f.InceptionDate, &f.ExpenseRatio, &f.AUM, &updated); err != nil {
			return nil, queryError(err, "funds")
		}
		f.Status = content.FundStatus(status)
		f.UpdatedAt = parseTime(updated)
		funds = append(funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, "funds")
	}

	cats, err := s.links(ctx, "fund_categories", "category_id")
	if err != nil {
		return nil, err
	}
	tags, err := s.links(ctx, "fund_tags", "tag_id")
	if err != nil {
		return nil, err
	}
	legacy, err := s.links(ctx, "fund_legacy_slugs", "slug")
	if err != nil {
		return nil, err
	}
	for i := range funds {
		funds[i].CategoryIDs = cats[funds[i].ID]
		funds[i].TagIDs = tags[funds[i].ID]
		funds[i].LegacySlugs = legacy[funds[i].ID]
	}
	return funds, nil
}

// links reads a fund_id -> values join table. table and column are package constants.
func (s *Store) links(ctx context.Context, table, column string) (map[string][]string, error) {
	// #nosec G202 -- identifiers are fixed by callers in this package
	rows, err := s.db.QueryContext(ctx, "SELECT fund_id, "+column+" FROM "+table+" ORDER BY fund_id, position")
	if err != nil {
		return nil, queryError(err, table)
	}
	defer rows.Close()
	out := make(map[string][]string)
	for rows.Next() {
		var id, v string
		if err := rows.Scan(&id, &v); err != nil {
			return nil, queryError(err, table)
		}
		out[id] = append(out[id], v)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, table)
	}
	return out, nil
}

func (s *Store) Categories(ctx context.Context) ([]content.Category, error) {
	var out []content.Category
	err := s.scan(ctx, "categories", `SELECT id, name, slug, description, updated_at FROM categories ORDER BY position`,
		func(rows *sql.Rows) error {
			var c content.Category
			var updated string
			if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &updated); err != nil {
				return err
			}
			c.UpdatedAt = parseTime(updated)
			out = append(out, c)
			return nil
		})
	return out, err
}

func (s *Store) Tags(ctx context.Context) ([]content.Tag, error) {
	var out []content.Tag
	err := s.scan(ctx, "tags", `SELECT id, name, slug, updated_at FROM tags ORDER BY position`,
		func(rows *sql.Rows) error {
			var t content.Tag
			var updated string
			if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &updated); err != nil {
				return err
			}
			t.UpdatedAt = parseTime(updated)
			out = append(out, t)
			return nil
		})
	return out, err
}

func (s *Store) Managers(ctx context.Context) ([]content.Manager, error) {
	var out []content.Manager
	err := s.scan(ctx, "managers", `SELECT id, name, slug, bio, website, updated_at FROM managers ORDER BY position`,
		func(rows *sql.Rows) error {
			var m content.Manager
			var updated string
			if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Bio, &m.Website, &updated); err != nil {
				return err
			}
			m.UpdatedAt = parseTime(updated)
			out = append(out, m)
			return nil
		})
	return out, err
}

func (s *Store) TeamMembers(ctx context.Context) ([]content.TeamMember, error) {
	var out []content.TeamMember
	err := s.scan(ctx, "team_members", `SELECT id, name, slug, role, bio, updated_at FROM team_members ORDER BY position`,
		func(rows *sql.Rows) error {
			var m content.TeamMember
			var updated string
			if err := rows.Scan(&m.ID, &m.Name, &m.Slug, &m.Role, &m.Bio, &updated); err != nil {
				return err
			}
			m.UpdatedAt = parseTime(updated)
			out = append(out, m)
			return nil
		})
	return out, err
}

func (s *Store) Comparisons(ctx context.Context) ([]content.Comparison, error) {
	var out []content.Comparison
	err := s.scan(ctx, "comparisons", `SELECT id, fund_a_id, fund_b_id, updated_at FROM comparisons ORDER BY position`,
		func(rows *sql.Rows) error {
			var c content.Comparison
			var updated string
			if err := rows.Scan(&c.ID, &c.FundAID, &c.FundBID, &updated); err != nil {
				return err
			}
			c.UpdatedAt = parseTime(updated)
			out = append(out, c)
			return nil
		})
	return out, err
}

func (s *Store) scan(ctx context.Context, table, query string, each func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return queryError(err, table)
	}
	defer rows.Close()
	for rows.Next() {
		if err := each(rows); err != nil {
			return queryError(err, table)
		}
	}
	if err := rows.Err(); err != nil {
		return queryError(err, table)
	}
	return nil
}
