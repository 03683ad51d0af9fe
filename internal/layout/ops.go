package layout

import (
	"fmt"

	"psmux/internal/errs"
)

// Split replaces targetPaneID's leaf with an internal node of the given
// orientation containing the original pane and a new leaf for newPaneID.
// If the target's existing parent already splits along the same
// orientation, the new leaf is inserted as a flat sibling instead of
// nesting a redundant single-orientation node, keeping the tree reduced.
//
// sizeCells, if > 0, reserves that many cells (along the split axis) for
// the new pane; otherwise the space is halved. Returns errs.ErrTooSmall
// (and leaves root unmodified) if any resulting pane would fall below
// MinPaneSize.
func Split(root *Node, targetPaneID int, dir Orientation, newPaneID int, sizeCells int) (*Node, error) {
	working := Clone(root)
	leaf := Find(working, targetPaneID)
	if leaf == nil {
		return root, fmt.Errorf("pane %%%d: %w", targetPaneID, errs.ErrNotFound)
	}

	parent, idx := parentOf(working, targetPaneID)

	newLeaf := NewLeaf(newPaneID)

	if parent != nil && parent.Orientation == dir {
		insertFlatSibling(parent, idx, newLeaf, leaf, dir, sizeCells)
	} else {
		splitLeafInPlace(leaf, dir, newLeaf, sizeCells)
	}

	Recompute(working, working.X, working.Y, working.W, working.H)
	if err := Validate(working); err != nil {
		return root, fmt.Errorf("%w: %v", errs.ErrTooSmall, err)
	}
	return working, nil
}

// splitLeafInPlace turns leaf into an internal node with two children:
// a clone of the original leaf and newLeaf.
func splitLeafInPlace(leaf *Node, dir Orientation, newLeaf *Node, sizeCells int) {
	original := NewLeaf(leaf.PaneID)
	original.Weight = 1

	totalAxis := leaf.W
	if dir == Vertical {
		totalAxis = leaf.H
	}
	content := totalAxis - 1
	if content < 0 {
		content = 0
	}
	newWeight, origWeight := splitWeights(content, sizeCells)

	original.Weight = origWeight
	newLeaf.Weight = newWeight

	leaf.PaneID = 0
	leaf.Orientation = dir
	leaf.Children = []*Node{original, newLeaf}
}

// insertFlatSibling inserts newLeaf next to the existing leaf within an
// already-same-orientation parent, re-weighting only the two adjacent
// children so the rest of the row/column is undisturbed.
func insertFlatSibling(parent *Node, idx int, newLeaf, leaf *Node, dir Orientation, sizeCells int) {
	totalAxis := leaf.W
	if dir == Vertical {
		totalAxis = leaf.H
	}
	content := totalAxis - 1
	if content < 0 {
		content = 0
	}
	newWeight, origWeight := splitWeights(content, sizeCells)
	existingWeight := leaf.Weight

	newLeaf.Weight = existingWeight * newWeight
	leaf.Weight = existingWeight * origWeight

	children := make([]*Node, 0, len(parent.Children)+1)
	children = append(children, parent.Children[:idx+1]...)
	children = append(children, newLeaf)
	children = append(children, parent.Children[idx+1:]...)
	parent.Children = children
}

func splitWeights(content, sizeCells int) (newWeight, origWeight float64) {
	if sizeCells > 0 && sizeCells < content {
		return float64(sizeCells) / float64(content), float64(content-sizeCells) / float64(content)
	}
	return 0.5, 0.5
}

// Remove drops paneID's leaf and reduces the parent if it is left with a
// single child. Returns the (possibly nil, if the tree had only that pane)
// new root.
func Remove(root *Node, paneID int) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	if root.IsLeaf() {
		if root.PaneID == paneID {
			return nil, true
		}
		return root, false
	}
	removed := false
	var kept []*Node
	for _, c := range root.Children {
		next, ok := Remove(c, paneID)
		if ok {
			removed = true
			if next != nil {
				kept = append(kept, next)
			}
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		return root, false
	}
	root.Children = kept
	if len(root.Children) == 0 {
		return nil, true
	}
	if len(root.Children) == 1 {
		only := root.Children[0]
		only.Weight = root.Weight
		return only, true
	}
	return root, true
}

// Resize walks up from paneID to the nearest ancestor whose orientation
// matches dir, then shifts the boundary between the pane's branch and its
// neighbor by amount cells (positive grows the pane), subject to the
// MinPaneSize floor on both sides. If no ancestor matches dir, Resize is a
// no-op (there is nothing to grow against on that axis).
func Resize(root *Node, paneID int, dir Orientation, amount int) (*Node, error) {
	working := Clone(root)
	leaf := Find(working, paneID)
	if leaf == nil {
		return root, fmt.Errorf("pane %%%d: %w", paneID, errs.ErrNotFound)
	}

	cur := leaf
	var parent *Node
	var idx int
	for {
		p, i := parentOfNode(working, cur)
		if p == nil {
			break
		}
		if p.Orientation == dir {
			parent, idx = p, i
			break
		}
		cur = p
	}
	if parent == nil {
		return working, nil
	}

	neighborIdx := idx + 1
	if neighborIdx >= len(parent.Children) {
		neighborIdx = idx - 1
	}
	if neighborIdx < 0 {
		return working, nil
	}

	grower := parent.Children[idx]
	shrinker := parent.Children[neighborIdx]

	axis := parent.W
	if dir == Vertical {
		axis = parent.H
	}
	content := axis - (len(parent.Children) - 1)
	totalWeight := 0.0
	for _, c := range parent.Children {
		totalWeight += c.Weight
	}

	growerCells := int(float64(content) * grower.Weight / totalWeight)
	shrinkerCells := int(float64(content) * shrinker.Weight / totalWeight)

	newGrower := clampInt(growerCells+amount, MinPaneSize, growerCells+shrinkerCells-MinPaneSize)
	newShrinker := growerCells + shrinkerCells - newGrower

	unit := totalWeight / float64(content)
	grower.Weight = float64(newGrower) * unit
	shrinker.Weight = float64(newShrinker) * unit

	Recompute(working, working.X, working.Y, working.W, working.H)
	if err := Validate(working); err != nil {
		return root, fmt.Errorf("%w: %v", errs.ErrTooSmall, err)
	}
	return working, nil
}

// ResizeAbsolute sets paneID's width (dir==Horizontal) or height
// (dir==Vertical) to an absolute cell count by computing the delta from
// its current size and delegating to Resize.
func ResizeAbsolute(root *Node, paneID int, dir Orientation, target int) (*Node, error) {
	leaf := Find(root, paneID)
	if leaf == nil {
		return root, fmt.Errorf("pane %%%d: %w", paneID, errs.ErrNotFound)
	}
	current := leaf.W
	if dir == Vertical {
		current = leaf.H
	}
	return Resize(root, paneID, dir, target-current)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
