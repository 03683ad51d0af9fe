package format

import (
	"strings"
	"testing"
	"time"

	"psmux/internal/layout"
	"psmux/internal/options"
	"psmux/internal/session"
)

func newTestContext(t *testing.T) (*Context, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(nil)
	sess, pane, err := mgr.CreateSession("work", "main", 80, 24)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	_ = pane
	ctx := &Context{
		Manager: mgr,
		Session: sess,
		Window:  sess.ActiveWindow(),
		Pane:    sess.ActiveWindow().ActivePane(),
		Now:     func() time.Time { return time.Unix(0, 0) },
	}
	return ctx, mgr
}

func mustEval(t *testing.T, s string, ctx *Context) string {
	t.Helper()
	out, err := Eval(s, ctx)
	if err != nil {
		t.Fatalf("Eval(%q) error = %v", s, err)
	}
	return out
}

func TestEvalLiteralAndShorthand(t *testing.T) {
	ctx, _ := newTestContext(t)
	got := mustEval(t, "[#S] #I:#W", ctx)
	if got != "[work] 0:main" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalEscapedHash(t *testing.T) {
	ctx, _ := newTestContext(t)
	got := mustEval(t, "100##done", ctx)
	if got != "100#done" {
		t.Fatalf("got %q, want literal escaped hash", got)
	}
}

func TestEvalVariableReference(t *testing.T) {
	ctx, _ := newTestContext(t)
	got := mustEval(t, "#{session_name}", ctx)
	if got != "work" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalConditionalBareFlag(t *testing.T) {
	ctx, _ := newTestContext(t)
	got := mustEval(t, "#{?window_zoomed_flag,Z,.}", ctx)
	if got != "." {
		t.Fatalf("got %q, want . (not zoomed)", got)
	}
}

func TestEvalConditionalWithNestedCommasInBranches(t *testing.T) {
	ctx, _ := newTestContext(t)
	got := mustEval(t, "#{?window_active,#{session_name}:#I,idle}", ctx)
	if got != "work:0" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalComparisonInlineAndReducer(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{?#{==:#{session_name},work},yes,no}", ctx); got != "yes" {
		t.Fatalf("got %q", got)
	}
	if got := mustEval(t, "#{==:foo,bar}", ctx); got != "0" {
		t.Fatalf("got %q", got)
	}
	if got := mustEval(t, "#{!=:foo,bar}", ctx); got != "1" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalBooleanReducers(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{||:0,1}", ctx); got != "1" {
		t.Fatalf("got %q", got)
	}
	if got := mustEval(t, "#{&&:0,1}", ctx); got != "0" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalArithmetic(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{e|+|:2,3}", ctx); got != "5" {
		t.Fatalf("got %q, want 5", got)
	}
	if got := mustEval(t, "#{e|*|:4,3}", ctx); got != "12" {
		t.Fatalf("got %q, want 12", got)
	}
	if got := mustEval(t, "#{e|/|:10,4}", ctx); got != "2.5" {
		t.Fatalf("got %q, want 2.5", got)
	}
	if got := mustEval(t, "#{e|m|:10,4}", ctx); got != "2" {
		t.Fatalf("got %q, want 2", got)
	}
	if got := mustEval(t, "#{e|/|:notanumber,4}", ctx); got != "0" {
		t.Fatalf("got %q, want 0 for unparseable operand", got)
	}
}

func TestEvalTruncateFromRightAndLeft(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{=3:l:hello}", ctx); got != "hel" {
		t.Fatalf("got %q, want hel", got)
	}
	if got := mustEval(t, "#{=-3:l:hello}", ctx); got != "llo" {
		t.Fatalf("got %q, want llo", got)
	}
	if got := mustEval(t, "#{=10:l:hi}", ctx); got != "hi" {
		t.Fatalf("short input should pass through unchanged, got %q", got)
	}
}

func TestEvalPadRightAndLeft(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{p6:l:ab}", ctx); got != "ab    " {
		t.Fatalf("got %q", got)
	}
	if got := mustEval(t, "#{p-6:l:ab}", ctx); got != "    ab" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalSubstituteOnceAndGlobal(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{s/o/0/:l:foo boo}", ctx); got != "f0o boo" {
		t.Fatalf("got %q, want only first match replaced", got)
	}
	if got := mustEval(t, "#{s/o/0/g:l:foo boo}", ctx); got != "f00 b00" {
		t.Fatalf("got %q, want every match replaced", got)
	}
}

func TestEvalBasenameDirnameWidth(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{b:l:/a/b/c.txt}", ctx); got != "c.txt" {
		t.Fatalf("got %q", got)
	}
	if got := mustEval(t, "#{d:l:/a/b/c.txt}", ctx); got != "/a/b" {
		t.Fatalf("got %q", got)
	}
	if got := mustEval(t, "#{w:l:abc}", ctx); got != "3" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalGlobMatch(t *testing.T) {
	ctx, _ := newTestContext(t)
	if got := mustEval(t, "#{m:wo*,session_name}", ctx); got != "1" {
		t.Fatalf("got %q, want match", got)
	}
	if got := mustEval(t, "#{m:xy*,session_name}", ctx); got != "0" {
		t.Fatalf("got %q, want no match", got)
	}
}

func TestEvalLoopWindowsProducesDistinctOutputPerIteration(t *testing.T) {
	ctx, mgr := newTestContext(t)
	sess := ctx.Session
	if _, _, err := mgr.NewWindow(sess.Name, "second", "", -1, 80, 24); err != nil {
		t.Fatalf("NewWindow() error = %v", err)
	}

	got := mustEval(t, "#{W:#I:#W }", ctx)
	want := "0:main 1:second "
	if got != want {
		t.Fatalf("loop output = %q, want %q (each iteration must see its own window)", got, want)
	}
	// The specific failure mode being guarded against: a shared mutable loop
	// index would make every iteration render the same (final) window.
	if strings.Count(got, "second") > 1 || !strings.Contains(got, "0:main") {
		t.Fatalf("loop iterations are not independent: %q", got)
	}
}

func TestEvalLoopPanesIndependentContext(t *testing.T) {
	ctx, mgr := newTestContext(t)
	sess := ctx.Session
	win := sess.ActiveWindow()
	if _, err := mgr.SplitPane(win.ActivePaneID, layout.Horizontal, 40, ""); err != nil {
		t.Fatalf("SplitPane() error = %v", err)
	}
	got := mustEval(t, "#{P:#P,}", ctx)
	parts := strings.Split(strings.TrimSuffix(got, ","), ",")
	if len(parts) != len(win.Panes) {
		t.Fatalf("loop produced %d entries, want %d panes", len(parts), len(win.Panes))
	}
	seen := map[string]bool{}
	for _, p := range parts {
		if seen[p] {
			t.Fatalf("pane index %q rendered more than once: %q", p, got)
		}
		seen[p] = true
	}
}

func TestEvalUserOption(t *testing.T) {
	ctx, _ := newTestContext(t)
	def, _ := options.Lookup("@greeting")
	ctx.SessionOpts = options.NewSet()
	if err := ctx.SessionOpts.SetScalar("@greeting", options.StringValue("hi"), def, false); err != nil {
		t.Fatalf("SetScalar() error = %v", err)
	}
	if got := mustEval(t, "#{@greeting}", ctx); got != "hi" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalNestedBraceDoesNotConfuseParser(t *testing.T) {
	ctx, _ := newTestContext(t)
	got := mustEval(t, "#{?#{==:#{session_windows},1},single,multi}", ctx)
	if got != "single" {
		t.Fatalf("got %q, want single (one window at this point)", got)
	}
}
