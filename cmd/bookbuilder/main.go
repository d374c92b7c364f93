package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bookbuilder/cmd/bookbuilder/commands"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("bookbuilder"),
		kong.Description("Expand a tree of markdown documents into one book per language."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := ctx.Run(commands.NewGlobal(), cli)
	errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
