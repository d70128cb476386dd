package sqlitesource

import (
	"context"
	"database/sql"
	"fmt"

	"git.home.luguber.info/inful/fundsite/internal/content"
)

// Import replaces the database contents with c in a single transaction.
func (s *Store) Import(ctx context.Context, c content.Collections) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"funds", "fund_categories", "fund_tags", "fund_legacy_slugs", "categories", "tags", "managers", "team_members", "comparisons"} {
		// #nosec G202 -- fixed table names
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, f := range c.Funds {
		if _, err := tx.ExecContext(ctx, `INSERT INTO funds (id, name, slug, ticker, status, description, manager_id, excluded,
			inception_date, expense_ratio, aum, updated_at, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.Slug, f.Ticker, string(f.Status), f.Description, f.ManagerID, f.Excluded,
			f.InceptionDate, f.ExpenseRatio, f.AUM, formatTime(f.UpdatedAt), i); err != nil {
			return fmt.Errorf("insert fund %s: %w", f.ID, err)
		}
		if err := insertLinks(ctx, tx, "fund_categories", "category_id", f.ID, f.CategoryIDs); err != nil {
			return err
		}
		if err := insertLinks(ctx, tx, "fund_tags", "tag_id", f.ID, f.TagIDs); err != nil {
			return err
		}
		if err := insertLinks(ctx, tx, "fund_legacy_slugs", "slug", f.ID, f.LegacySlugs); err != nil {
			return err
		}
	}
	for i, r := range c.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (id, name, slug, description, updated_at, position) VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Slug, r.Description, formatTime(r.UpdatedAt), i); err != nil {
			return fmt.Errorf("insert category %s: %w", r.ID, err)
		}
	}
	for i, r := range c.Tags {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name, slug, updated_at, position) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Slug, formatTime(r.UpdatedAt), i); err != nil {
			return fmt.Errorf("insert tag %s: %w", r.ID, err)
		}
	}
	for i, r := range c.Managers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO managers (id, name, slug, bio, website, updated_at, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Slug, r.Bio, r.Website, formatTime(r.UpdatedAt), i); err != nil {
			return fmt.Errorf("insert manager %s: %w", r.ID, err)
		}
	}
	for i, r := range c.TeamMembers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO team_members (id, name, slug, role, bio, updated_at, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Slug, r.Role, r.Bio, formatTime(r.UpdatedAt), i); err != nil {
			return fmt.Errorf("insert team member %s: %w", r.ID, err)
		}
	}
	for i, r := range c.Comparisons {
		if _, err := tx.ExecContext(ctx, `INSERT INTO comparisons (id, fund_a_id, fund_b_id, updated_at, position) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.FundAID, r.FundBID, formatTime(r.UpdatedAt), i); err != nil {
			return fmt.Errorf("insert comparison %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func insertLinks(ctx context.Context, tx *sql.Tx, table, column, fundID string, values []string) error {
	for i, v := range values {
		// #nosec G202 -- fixed identifiers
		if _, err := tx.ExecContext(ctx, "INSERT INTO "+table+" (fund_id, "+column+", position) VALUES (?, ?, ?)", fundID, v, i); err != nil {
			return fmt.Errorf("insert %s for %s: %w", table, fundID, err)
		}
	}
	return nil
}
