// Package layout implements the pane layout tree: splits, resize, the
// tmux layout-string codec, and the preset arrangements (spec §4.C). A node
// is either a leaf holding one pane or an internal node holding an
// orientation and two or more children that partition its rectangle along
// that axis with a fixed 1-cell border between adjacent children.
//
// Generalizes the teacher's binary-only LayoutNode (internal/tmux/layout.go
// in the retrieved reference) to the n-ary tree spec §3 requires, and adds
// the tmux layout-string codec and resize algorithm the teacher does not
// have.
package layout

import "fmt"

// Orientation is the split axis of an internal node.
type Orientation int

const (
	Horizontal Orientation = iota // side-by-side (children vary in X)
	Vertical                      // stacked (children vary in Y)
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// MinPaneSize is the hard 2x2 minimum cell size for any pane (spec §3).
const MinPaneSize = 2

// Node is one element of the layout tree. Leaves carry a PaneID; internal
// nodes carry Orientation and Children. Weight is the child's share of its
// parent's content axis (ignored on the root and on leaves with no parent);
// weights among siblings are proportions, not absolute cell counts, so they
// survive window resizes.
type Node struct {
	PaneID      int
	Orientation Orientation
	Children    []*Node
	Weight      float64

	X, Y, W, H int
}

// IsLeaf reports whether n holds a pane directly.
func (n *Node) IsLeaf() bool {
	return n != nil && len(n.Children) == 0
}

// NewLeaf creates a leaf node for paneID.
func NewLeaf(paneID int) *Node {
	return &Node{PaneID: paneID, Weight: 1}
}

// Clone deep-copies a subtree, including computed rectangles.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		PaneID:      n.PaneID,
		Orientation: n.Orientation,
		Weight:      n.Weight,
		X:           n.X, Y: n.Y, W: n.W, H: n.H,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, Clone(c))
	}
	return out
}

// Panes returns every pane id in the tree, in in-order (left-to-right,
// top-to-bottom) traversal order — this is also how pane indices are
// derived (spec §3).
func Panes(root *Node) []int {
	if root == nil {
		return nil
	}
	if root.IsLeaf() {
		return []int{root.PaneID}
	}
	var out []int
	for _, c := range root.Children {
		out = append(out, Panes(c)...)
	}
	return out
}

// Find returns the leaf node holding paneID, or nil.
func Find(root *Node, paneID int) *Node {
	if root == nil {
		return nil
	}
	if root.IsLeaf() {
		if root.PaneID == paneID {
			return root
		}
		return nil
	}
	for _, c := range root.Children {
		if got := Find(c, paneID); got != nil {
			return got
		}
	}
	return nil
}

// parentOf returns the parent of the leaf holding paneID and that leaf's
// index within the parent's Children, or (nil, -1) if paneID is the root
// or not found.
func parentOf(root *Node, paneID int) (*Node, int) {
	if root == nil || root.IsLeaf() {
		return nil, -1
	}
	for i, c := range root.Children {
		if c.IsLeaf() && c.PaneID == paneID {
			return root, i
		}
		if p, idx := parentOf(c, paneID); p != nil {
			return p, idx
		}
	}
	return nil, -1
}

// parentOfNode returns the parent of the given node pointer (matched by
// identity, not pane id) and its index within the parent's Children, or
// (nil, -1) if node is the root or not found. Used to walk up the tree from
// an arbitrary internal node, which has no pane id of its own.
func parentOfNode(root, node *Node) (*Node, int) {
	if root == nil || root.IsLeaf() || root == node {
		return nil, -1
	}
	for i, c := range root.Children {
		if c == node {
			return root, i
		}
		if p, idx := parentOfNode(c, node); p != nil {
			return p, idx
		}
	}
	return nil, -1
}

// Rect reports a node's computed rectangle.
func Rect(n *Node) (x, y, w, h int) {
	return n.X, n.Y, n.W, n.H
}

// Recompute assigns absolute rectangles to root and its entire subtree given
// root's own rectangle, distributing content across children by weight with
// a fixed 1-cell border between adjacent children. Remainder cells (from
// integer division) go to earlier children, per spec §4.C tie-break rule.
func Recompute(root *Node, x, y, w, h int) {
	if root == nil {
		return
	}
	root.X, root.Y, root.W, root.H = x, y, w, h
	if root.IsLeaf() {
		return
	}

	n := len(root.Children)
	borders := n - 1
	var axis int
	if root.Orientation == Horizontal {
		axis = w
	} else {
		axis = h
	}
	content := axis - borders
	if content < 0 {
		content = 0
	}

	totalWeight := 0.0
	for _, c := range root.Children {
		if c.Weight <= 0 {
			c.Weight = 1
		}
		totalWeight += c.Weight
	}

	sizes := make([]int, n)
	assigned := 0
	for i, c := range root.Children {
		sizes[i] = int(float64(content) * c.Weight / totalWeight)
		assigned += sizes[i]
	}
	for i := 0; assigned < content; i++ {
		sizes[i%n]++
		assigned++
	}

	pos := 0
	for i, c := range root.Children {
		if root.Orientation == Horizontal {
			Recompute(c, x+pos, y, sizes[i], h)
		} else {
			Recompute(c, x, y+pos, w, sizes[i])
		}
		pos += sizes[i] + 1
	}
}

// Validate checks that every pane rectangle in the tree is at least
// MinPaneSize in both dimensions. It does not check that children's
// rectangles partition the parent's area with 1-cell borders.
func Validate(root *Node) error {
	if root == nil {
		return nil
	}
	if root.IsLeaf() {
		if root.W < MinPaneSize || root.H < MinPaneSize {
			return fmt.Errorf("pane %%%d: %dx%d below minimum %dx%d", root.PaneID, root.W, root.H, MinPaneSize, MinPaneSize)
		}
		return nil
	}
	for _, c := range root.Children {
		if err := Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// Reduce collapses any internal node left with a single child by the node
// itself, as required after every mutation (spec §3 layout invariants).
func Reduce(root *Node) *Node {
	if root == nil || root.IsLeaf() {
		return root
	}
	for i, c := range root.Children {
		root.Children[i] = Reduce(c)
	}
	if len(root.Children) == 1 {
		only := root.Children[0]
		only.Weight = root.Weight
		return only
	}
	return root
}
