package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/staticrender/cmd/staticrender/commands"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
	"git.home.luguber.info/inful/staticrender/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Logger: slog.Default()}
	ctx := kong.Parse(cli,
		kong.Name("staticrender"),
		kong.Description("Bundle a React application and statically render its routes to HTML."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Get().String()},
		kong.Bind(global),
	)

	if err := ctx.Run(); err != nil {
		foundationerrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
