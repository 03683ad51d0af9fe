package layout

import (
	"fmt"
	"strconv"
	"strings"

	"psmux/internal/errs"
)

// Checksum computes tmux's 16-bit layout-string checksum: a character-wise
// sum (mod 65536) of the string following the "CHECKSUM," prefix, with each
// partial sum rotated right by one bit before adding the next byte — the
// same algorithm tmux's layout_checksum() uses.
func Checksum(s string) uint16 {
	var csum uint16
	for i := 0; i < len(s); i++ {
		csum = (csum >> 1) + (csum << 15)
		csum += uint16(s[i])
	}
	return csum
}

// Emit renders the tree as a tmux layout string:
// "CHECKSUM,WIDTHxHEIGHT,X,Y{a,b,...}" for vertical splits, "[...]" for
// horizontal splits, or a bare "WIDTHxHEIGHT,X,Y,PANE_ID" leaf.
func Emit(root *Node) string {
	body := emitNode(root)
	checksum := Checksum(body)
	return fmt.Sprintf("%04x,%s", checksum, body)
}

func emitNode(n *Node) string {
	if n.IsLeaf() {
		return fmt.Sprintf("%dx%d,%d,%d,%d", n.W, n.H, n.X, n.Y, n.PaneID)
	}
	var open, close byte
	if n.Orientation == Horizontal {
		open, close = '[', ']'
	} else {
		open, close = '{', '}'
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = emitNode(c)
	}
	return fmt.Sprintf("%dx%d,%d,%d%c%s%c", n.W, n.H, n.X, n.Y, open, strings.Join(parts, ","), close)
}

// Parse reconstructs a tree from a tmux layout string. It does not validate
// the checksum against the body (callers that need that, e.g. apply-layout
// from an externally supplied string, should call Checksum separately) —
// Parse's contract is purely structural.
func Parse(s string) (*Node, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, fmt.Errorf("layout string missing checksum: %w", errs.ErrParse)
	}
	body := s[comma+1:]
	p := &parser{s: body}
	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("trailing data in layout string: %w", errs.ErrParse)
	}
	return node, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.atEnd() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) parseNode() (*Node, error) {
	w, h, x, y, err := p.parseGeometry()
	if err != nil {
		return nil, err
	}
	switch p.peek() {
	case '{', '[':
		open := p.peek()
		orientation := Vertical
		closeByte := byte('}')
		if open == '[' {
			orientation = Horizontal
			closeByte = ']'
		}
		p.pos++
		var children []*Node
		for {
			child, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			children = append(children, child)
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if p.peek() != closeByte {
			return nil, fmt.Errorf("unterminated layout group: %w", errs.ErrParse)
		}
		p.pos++
		node := &Node{Orientation: orientation, Children: children, X: x, Y: y, W: w, H: h}
		assignWeightsFromGeometry(node, orientation)
		return node, nil
	case ',':
		p.pos++
		id, err := p.parseInt()
		if err != nil {
			return nil, err
		}
		return &Node{PaneID: id, X: x, Y: y, W: w, H: h, Weight: 1}, nil
	default:
		return nil, fmt.Errorf("expected pane id or group after geometry: %w", errs.ErrParse)
	}
}

// assignWeightsFromGeometry derives each child's Weight from its parsed
// rectangle so Recompute preserves the parsed proportions on first use.
func assignWeightsFromGeometry(node *Node, orientation Orientation) {
	for _, c := range node.Children {
		if orientation == Horizontal {
			c.Weight = float64(c.W)
		} else {
			c.Weight = float64(c.H)
		}
		if c.Weight <= 0 {
			c.Weight = 1
		}
	}
}

func (p *parser) parseGeometry() (w, h, x, y int, err error) {
	w, err = p.parseInt()
	if err != nil {
		return
	}
	if p.peek() != 'x' {
		err = fmt.Errorf("expected 'x' in geometry: %w", errs.ErrParse)
		return
	}
	p.pos++
	h, err = p.parseInt()
	if err != nil {
		return
	}
	if p.peek() != ',' {
		err = fmt.Errorf("expected ',' after height: %w", errs.ErrParse)
		return
	}
	p.pos++
	x, err = p.parseInt()
	if err != nil {
		return
	}
	if p.peek() != ',' {
		err = fmt.Errorf("expected ',' after x: %w", errs.ErrParse)
		return
	}
	p.pos++
	y, err = p.parseInt()
	return
}

func (p *parser) parseInt() (int, error) {
	start := p.pos
	for !p.atEnd() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected integer at %d: %w", start, errs.ErrParse)
	}
	return strconv.Atoi(p.s[start:p.pos])
}
