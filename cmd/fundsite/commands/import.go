package commands

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/fundsite/internal/content/sqlitesource"
	"git.home.luguber.info/inful/fundsite/internal/content/yamlsource"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// ImportCmd implements the 'import' command.
type ImportCmd struct {
	From string `required:"" type:"existingfile" help:"YAML content snapshot to import"`
	DB   string `required:"" name:"db" help:"SQLite database to create or replace"`
}

func (i *ImportCmd) Run(_ *Global, _ *CLI) error {
	cols, err := yamlsource.Decode(i.From)
	if err != nil {
		return err
	}
	st, err := sqlitesource.Open(i.DB)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Import(context.Background(), cols); err != nil {
		return err
	}
	slog.Info("Content imported", logfields.File(i.DB), logfields.Count(len(cols.Funds)))
	fmt.Printf("Imported %d funds, %d categories, %d tags, %d managers, %d team members, %d comparisons into %s\n",
		len(cols.Funds), len(cols.Categories), len(cols.Tags), len(cols.Managers), len(cols.TeamMembers), len(cols.Comparisons), i.DB)
	return nil
}
