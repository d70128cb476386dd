package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/fundsite/cmd/fundsite/commands"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("fundsite"),
		kong.Description("Static build and search-indexing pipeline for a fund directory"),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, &cli); err != nil {
		logger := global.Logger
		if logger == nil {
			logger = slog.Default()
		}
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, logger).HandleError(err)
	}
}
