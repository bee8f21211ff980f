// Package sgf models the subset of SGF needed to record one game's
// main line: a root node with game metadata followed by one node per
// ply.
package sgf

// GameTree is one SGF tree: the main-line node sequence plus
// variation subtrees.
type GameTree struct {
	Nodes    []Node
	Children []*GameTree
}

// Node is a single SGF node, a property map such as B[pd], W[dd] or
// C[...]. Property values may repeat (AB[aa][bb]).
type Node struct {
	Properties map[string][]string
}

// SGF is the root element of an SGF document.
type SGF struct {
	Root *GameTree
}
