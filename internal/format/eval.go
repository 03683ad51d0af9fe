package format

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"psmux/internal/errs"
	"psmux/internal/session"
)

// Eval expands a format string against ctx. It is the package's single
// public entry point; everything else builds toward it.
func Eval(input string, ctx *Context) (string, error) {
	nodes, err := parseTemplate(input)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrParse, err)
	}
	var b strings.Builder
	for _, n := range nodes {
		s, err := evalNode(n, ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// evalExpr expands a raw sub-expression string (an operand of a reducer,
// the body of a conditional branch, and so on) the same way Eval does.
// Every operand in the grammar is itself a format string, so this is the
// single recursion point the rest of the evaluator calls through.
func evalExpr(s string, ctx *Context) (string, error) {
	return Eval(s, ctx)
}

func evalNode(n node, ctx *Context) (string, error) {
	switch v := n.(type) {
	case literalNode:
		return v.text, nil
	case literalTextNode:
		return v.text, nil
	case shorthandNode:
		return shorthand(ctx, v.ch), nil
	case varNode:
		return lookupVariable(ctx, v.name), nil
	case condNode:
		return evalCond(v, ctx)
	case cmpNode:
		return evalCmp(v, ctx)
	case boolNode:
		return evalBool(v, ctx)
	case arithNode:
		return evalArith(v, ctx)
	case modNode:
		return evalMod(v, ctx)
	case globNode:
		return evalGlob(v, ctx)
	case loopNode:
		return evalLoop(v, ctx)
	default:
		return "", fmt.Errorf("unhandled format node %T", n)
	}
}

func truthy(s string) bool {
	return s != "" && s != "0" && !strings.EqualFold(s, "false")
}

func evalCond(v condNode, ctx *Context) (string, error) {
	var condVal string
	var err error
	if a, b, ok := splitTopLevelOnce(v.cond, "=="); ok {
		condVal, err = evalCmp(cmpNode{op: "==", a: a, b: b}, ctx)
	} else if a, b, ok := splitTopLevelOnce(v.cond, "!="); ok {
		condVal, err = evalCmp(cmpNode{op: "!=", a: a, b: b}, ctx)
	} else {
		condVal, err = evalCondOperand(v.cond, ctx)
	}
	if err != nil {
		return "", err
	}
	if truthy(condVal) {
		return evalExpr(v.then, ctx)
	}
	return evalExpr(v.els, ctx)
}

// evalCondOperand evaluates a single bare operand (as used by the cond
// slot of #{?cond,...} and the a,b operands of the ==/!=/||/&&/e| reducers):
// a "#{...}"-bearing string is expanded as a nested format, otherwise the
// text is looked up directly as a variable name (so "#{?window_zoomed_flag,Z,}"
// works without wrapping the flag in its own #{}), falling back to the
// literal text itself when no such variable exists.
func evalCondOperand(s string, ctx *Context) (string, error) {
	if strings.Contains(s, "#{") || strings.Contains(s, "##") || strings.IndexByte(s, '#') >= 0 {
		return evalExpr(s, ctx)
	}
	if v, ok := lookupBuiltin(ctx, s); ok {
		return v, nil
	}
	if v, ok := lookupOption(ctx, s); ok {
		return v, nil
	}
	return s, nil
}

func evalCmp(v cmpNode, ctx *Context) (string, error) {
	a, err := evalCondOperand(v.a, ctx)
	if err != nil {
		return "", err
	}
	b, err := evalCondOperand(v.b, ctx)
	if err != nil {
		return "", err
	}
	eq := a == b
	if v.op == "!=" {
		eq = !eq
	}
	if eq {
		return "1", nil
	}
	return "0", nil
}

func evalBool(v boolNode, ctx *Context) (string, error) {
	a, err := evalCondOperand(v.a, ctx)
	if err != nil {
		return "", err
	}
	b, err := evalCondOperand(v.b, ctx)
	if err != nil {
		return "", err
	}
	var result bool
	if v.op == "||" {
		result = truthy(a) || truthy(b)
	} else {
		result = truthy(a) && truthy(b)
	}
	if result {
		return "1", nil
	}
	return "0", nil
}

// evalArith implements #{e|OP|:a,b}. Operands that fail to parse as
// numbers evaluate to 0, matching the teacher's general tolerance for
// malformed format input over hard failure (status lines must always
// render something).
func evalArith(v arithNode, ctx *Context) (string, error) {
	aStr, err := evalCondOperand(v.a, ctx)
	if err != nil {
		return "", err
	}
	bStr, err := evalCondOperand(v.b, ctx)
	if err != nil {
		return "", err
	}
	a, aErr := strconv.ParseFloat(strings.TrimSpace(aStr), 64)
	b, bErr := strconv.ParseFloat(strings.TrimSpace(bStr), 64)
	if aErr != nil {
		a = 0
	}
	if bErr != nil {
		b = 0
	}
	var result float64
	switch v.op {
	case '+':
		result = a + b
	case '-':
		result = a - b
	case '*':
		result = a * b
	case '/':
		if b != 0 {
			result = a / b
		}
	case 'm':
		if b != 0 {
			result = float64(int64(a) % int64(b))
		}
	}
	if result == float64(int64(result)) {
		return strconv.FormatInt(int64(result), 10), nil
	}
	return strconv.FormatFloat(result, 'g', -1, 64), nil
}

// evalModifierBase evaluates the text following a modifier chain's ":"
// (e.g. the "pane_title" in "#{=10:pane_title}", or the "l:hello" in
// "#{=3:l:hello}"). It is itself one more "#{...}" body, so it is run back
// through parseInner/evalNode to support further nesting (another
// modifier, an "l:" literal, or a bare variable name), with a full Eval
// fallback when the text mixes literal runs with "#{...}" expressions.
func evalModifierBase(s string, ctx *Context) (string, error) {
	if strings.Contains(s, "#{") {
		return Eval(s, ctx)
	}
	n, err := parseInner(s)
	if err != nil {
		return s, nil
	}
	return evalNode(n, ctx)
}

func evalGlob(v globNode, ctx *Context) (string, error) {
	pattern, err := evalCondOperand(v.pattern, ctx)
	if err != nil {
		return "", err
	}
	value, err := evalCondOperand(v.value, ctx)
	if err != nil {
		return "", err
	}
	ok, err := path.Match(pattern, value)
	if err != nil || !ok {
		return "0", nil
	}
	return "1", nil
}

func evalMod(v modNode, ctx *Context) (string, error) {
	s, err := evalModifierBase(v.base, ctx)
	if err != nil {
		return "", err
	}
	for _, m := range v.mods {
		switch m.kind {
		case modTruncate:
			s = truncateWidth(s, m.n)
		case modPad:
			s = padWidth(s, m.n)
		case modSubst:
			s = substitute(s, m.from, m.to, m.global)
		case modBasename:
			s = path.Base(s)
		case modDirname:
			s = path.Dir(s)
		case modWidth:
			s = strconv.Itoa(uniseg.StringWidth(s))
		}
	}
	return s, nil
}

func evalLoop(v loopNode, ctx *Context) (string, error) {
	if ctx.Manager == nil {
		return "", nil
	}
	switch v.kind {
	case 'S':
		return joinLoop(ctx.Manager.ListSessions(), func(s *session.Session) (string, error) {
			return evalExpr(v.expr, ctx.withSession(s))
		})
	case 'W':
		sess := ctx.Session
		if sess == nil {
			return "", nil
		}
		return joinLoop(sess.Windows, func(w *session.Window) (string, error) {
			return evalExpr(v.expr, ctx.withWindow(w))
		})
	case 'P':
		win := ctx.Window
		if win == nil {
			return "", nil
		}
		return joinLoop(win.Panes, func(p *session.Pane) (string, error) {
			return evalExpr(v.expr, ctx.withPane(p))
		})
	}
	return "", nil
}

// joinLoop renders each item through render, using a per-call Context
// produced fresh for that iteration (ctx.withSession/withWindow/withPane)
// rather than mutating one shared Context and re-rendering -- the latter
// is the bug that would make every iteration show the same (final) item.
func joinLoop[T any](items []T, render func(T) (string, error)) (string, error) {
	var b strings.Builder
	for _, item := range items {
		s, err := render(item)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func truncateWidth(s string, n int) string {
	if n == 0 {
		return ""
	}
	if n > 0 {
		if uniseg.StringWidth(s) <= n {
			return s
		}
		return takeWidth(s, n, false)
	}
	limit := -n
	if uniseg.StringWidth(s) <= limit {
		return s
	}
	return takeWidth(s, limit, true)
}

// takeWidth returns the longest grapheme-cluster-aligned prefix (or, when
// fromEnd is true, suffix) of s whose display width does not exceed n.
func takeWidth(s string, n int, fromEnd bool) string {
	gr := uniseg.NewGraphemes(s)
	type cluster struct {
		text  string
		width int
	}
	var clusters []cluster
	for gr.Next() {
		clusters = append(clusters, cluster{text: gr.Str(), width: gr.Width()})
	}
	if fromEnd {
		var b strings.Builder
		total := 0
		var kept []string
		for i := len(clusters) - 1; i >= 0; i-- {
			if total+clusters[i].width > n {
				break
			}
			total += clusters[i].width
			kept = append([]string{clusters[i].text}, kept...)
		}
		for _, c := range kept {
			b.WriteString(c)
		}
		return b.String()
	}
	var b strings.Builder
	total := 0
	for _, c := range clusters {
		if total+c.width > n {
			break
		}
		total += c.width
		b.WriteString(c.text)
	}
	return b.String()
}

func padWidth(s string, n int) string {
	if n >= 0 {
		w := uniseg.StringWidth(s)
		if w >= n {
			return s
		}
		return s + strings.Repeat(" ", n-w)
	}
	target := -n
	w := uniseg.StringWidth(s)
	if w >= target {
		return s
	}
	return strings.Repeat(" ", target-w) + s
}

func substitute(s, from, to string, global bool) string {
	if from == "" {
		return s
	}
	re, err := regexp.Compile(regexp.QuoteMeta(from))
	if err != nil {
		return s
	}
	if global {
		return re.ReplaceAllString(s, to)
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + to + s[loc[1]:]
}
