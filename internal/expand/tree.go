package expand

import (
	"github.com/disiqueira/gotree/v3"
)

// Node is one document of the inclusion tree.
type Node struct {
	Path     string
	Dir      string
	Depth    int
	Children []*Node
}

// Walk visits n and its descendants depth first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Files returns the paths of all documents in inclusion order.
func (n *Node) Files() []string {
	var out []string
	n.Walk(func(c *Node) { out = append(out, c.Path) })
	return out
}

// Tree renders the inclusion tree, naming nodes with name.
func (n *Node) Tree(name func(string) string) gotree.Tree {
	t := gotree.New(name(n.Path))
	n.addChildren(t, name)
	return t
}

func (n *Node) addChildren(t gotree.Tree, name func(string) string) {
	for _, c := range n.Children {
		c.addChildren(t.Add(name(c.Path)), name)
	}
}
