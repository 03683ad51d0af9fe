package layout

import (
	"reflect"
	"testing"
)

func TestRecomputePartitionsWithBorders(t *testing.T) {
	root := flatSplit([]int{1, 2, 3}, Horizontal)
	Recompute(root, 0, 0, 32, 10)
	if err := Validate(root); err != nil {
		t.Fatalf("validate: %v", err)
	}
	var sum int
	for i, c := range root.Children {
		sum += c.W
		if c.H != 10 {
			t.Fatalf("child %d height = %d, want 10", i, c.H)
		}
	}
	sum += len(root.Children) - 1 // borders
	if sum != 32 {
		t.Fatalf("widths+borders = %d, want 32", sum)
	}
}

func TestSplitInsertsFlatSiblingOnSameOrientation(t *testing.T) {
	root := flatSplit([]int{1, 2}, Horizontal)
	Recompute(root, 0, 0, 20, 10)

	next, err := Split(root, 2, Horizontal, 3, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(next.Children) != 3 {
		t.Fatalf("expected flat 3-way split, got %d children", len(next.Children))
	}
	if got := Panes(next); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("panes = %v, want [1 2 3]", got)
	}
}

func TestSplitCreatesNestedNodeOnOppositeOrientation(t *testing.T) {
	root := NewLeaf(1)
	Recompute(root, 0, 0, 20, 10)

	next, err := Split(root, 1, Vertical, 2, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if next.IsLeaf() || next.Orientation != Vertical {
		t.Fatalf("expected vertical split root, got %+v", next)
	}
	if got := Panes(next); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("panes = %v, want [1 2]", got)
	}
}

func TestSplitRejectsTooSmall(t *testing.T) {
	root := NewLeaf(1)
	Recompute(root, 0, 0, 3, 3)
	if _, err := Split(root, 1, Horizontal, 2, 0); err == nil {
		t.Fatal("expected too-small error splitting a 3x3 pane")
	}
}

func TestRemoveReducesSingleChildParent(t *testing.T) {
	root := flatSplit([]int{1, 2}, Horizontal)
	Recompute(root, 0, 0, 20, 10)

	next, ok := Remove(root, 2)
	if !ok {
		t.Fatal("expected removal to report ok")
	}
	if !next.IsLeaf() || next.PaneID != 1 {
		t.Fatalf("expected reduced leaf for pane 1, got %+v", next)
	}
}

func TestRemoveLastPaneYieldsNilRoot(t *testing.T) {
	root := NewLeaf(1)
	next, ok := Remove(root, 1)
	if !ok || next != nil {
		t.Fatalf("expected (nil, true) removing the only pane, got (%+v, %v)", next, ok)
	}
}

func TestResizeGrowsAtExpenseOfNeighbor(t *testing.T) {
	root := flatSplit([]int{1, 2}, Horizontal)
	Recompute(root, 0, 0, 20, 10)
	w1 := Find(root, 1).W

	next, err := Resize(root, 1, Horizontal, 3)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if got := Find(next, 1).W; got != w1+3 {
		t.Fatalf("pane 1 width = %d, want %d", got, w1+3)
	}
	if err := Validate(next); err != nil {
		t.Fatalf("validate after resize: %v", err)
	}
}

func TestResizeNoOpWhenNoMatchingAncestor(t *testing.T) {
	root := flatSplit([]int{1, 2}, Horizontal)
	Recompute(root, 0, 0, 20, 10)

	next, err := Resize(root, 1, Vertical, 3)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if Find(next, 1).H != Find(root, 1).H {
		t.Fatal("expected no-op resize along non-matching orientation")
	}
}

func TestResizeClampsNeighborToMinimum(t *testing.T) {
	// Content axis is 6 cells split evenly (3/3); asking to grow pane 1 by
	// 4 cells would push pane 2 to -1, so it must clamp at MinPaneSize
	// instead of erroring — matching tmux's own resize-pane clamping.
	root := flatSplit([]int{1, 2}, Horizontal)
	Recompute(root, 0, 0, 7, 10)

	next, err := Resize(root, 1, Horizontal, 4)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if got := Find(next, 2).W; got != MinPaneSize {
		t.Fatalf("neighbor width = %d, want clamped to %d", got, MinPaneSize)
	}
}

func TestResizeWalksNestedAncestor(t *testing.T) {
	// pane 1 | (pane 2 over pane 3): resizing pane 2 horizontally must walk
	// past its immediate vertical parent to the outer horizontal split.
	root := &Node{
		Orientation: Horizontal,
		Children: []*Node{
			NewLeaf(1),
			{
				Orientation: Vertical,
				Children:    []*Node{NewLeaf(2), NewLeaf(3)},
				Weight:      1,
			},
		},
	}
	root.Children[0].Weight = 1
	Recompute(root, 0, 0, 30, 20)

	next, err := Resize(root, 2, Horizontal, 4)
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	inner := Find(next, 2)
	if inner.W == Find(root, 2).W {
		t.Fatal("expected pane 2's width to change by walking to the horizontal ancestor")
	}
	// sibling pane 3 shares pane 2's column and must track it.
	if Find(next, 3).W != inner.W {
		t.Fatalf("pane 3 width %d should track pane 2 width %d", Find(next, 3).W, inner.W)
	}
}

func TestBuildPresetTiledGrid(t *testing.T) {
	root := BuildPreset(PresetTiled, []int{1, 2, 3, 4}, 40, 20)
	if err := Validate(root); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := Panes(root); !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Fatalf("panes = %v, want [1 2 3 4]", got)
	}
}

func TestBuildPresetMainVerticalGivesFirstPaneLargerShare(t *testing.T) {
	root := BuildPreset(PresetMainVertical, []int{1, 2, 3}, 50, 20)
	main := Find(root, 1)
	other := Find(root, 2)
	if main.W <= other.W {
		t.Fatalf("main pane width %d should exceed secondary pane width %d", main.W, other.W)
	}
}

func TestNextPresetCyclesAndWraps(t *testing.T) {
	if NextPreset(PresetTiled) != PresetEvenHorizontal {
		t.Fatalf("expected wraparound after tiled")
	}
	if PreviousPreset(PresetEvenHorizontal) != PresetTiled {
		t.Fatalf("expected wraparound before even-horizontal")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	root := BuildPreset(PresetTiled, []int{1, 2, 3, 4, 5}, 60, 30)
	s := Emit(root)

	parsed, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := Panes(parsed); !reflect.DeepEqual(got, Panes(root)) {
		t.Fatalf("pane order = %v, want %v", got, Panes(root))
	}
	// Re-emitting the parsed tree must reproduce the same string: the
	// checksum is a pure function of the body, and Parse preserves geometry
	// and orientation exactly.
	if got := Emit(parsed); got != s {
		t.Fatalf("round trip mismatch:\n got %s\nwant %s", got, s)
	}
}

func TestChecksumMatchesKnownValue(t *testing.T) {
	// A single 80x24 pane at the origin: body is "80x24,0,0,0".
	body := "80x24,0,0,0"
	got := Checksum(body)
	root := NewLeaf(0)
	Recompute(root, 0, 0, 80, 24)
	full := Emit(root)
	want := full[:4]
	if hex := Checksum(body); got != parseHex(want) {
		t.Fatalf("checksum mismatch: computed %04x vs Emit-derived %s", hex, want)
	}
}

func parseHex(s string) uint16 {
	var v uint16
	for i := 0; i < len(s); i++ {
		v <<= 4
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			v |= uint16(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint16(c-'a') + 10
		}
	}
	return v
}
