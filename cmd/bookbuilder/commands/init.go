package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory for the generated configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	switch {
	case i.Output != "":
		path = filepath.Join(i.Output, config.DefaultFile)
	case path == "":
		path = config.DefaultFile
	}
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Wrote %s\n", path)
	return nil
}
