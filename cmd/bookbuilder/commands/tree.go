package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/bookbuilder/internal/build"
)

// TreeCmd implements the 'tree' command.
type TreeCmd struct {
	Input  string `arg:"" optional:"" help:"Root document (overrides input)" type:"path"`
	Lang   string `short:"l" help:"Language to expand (default: the first declared language)"`
	Labels bool   `help:"Also list the labels defined by the pass"`
	Print  bool   `short:"p" help:"Print the expanded document instead of the tree"`
}

func (t *TreeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	overrideInput(cfg, t.Input)

	p, err := build.NewService().WithRecorder(g.Recorder).Expand(context.Background(), cfg, t.Lang)
	if err != nil {
		return err
	}
	if t.Print {
		_, _ = fmt.Fprint(g.Stdout, p.Text)
		return nil
	}
	_, _ = fmt.Fprint(g.Stdout, p.Root.Tree(p.Name).Print())
	if t.Labels {
		for _, e := range p.Labels.Entries() {
			_, _ = fmt.Fprintf(g.Stdout, "%-24s %s %d\n", e.Anchor(), p.Labels.Title(e.Kind), e.Number)
		}
	}
	return nil
}
