package options

import "testing"

func TestLookupChainFallsThroughToDefault(t *testing.T) {
	r, err := LookupChain("base-index", nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("LookupChain() error = %v", err)
	}
	if !r.IsDefault || r.Value.Int != 0 {
		t.Fatalf("resolved = %+v, want default 0", r)
	}
}

func TestLookupChainPrefersNarrowestScope(t *testing.T) {
	server := NewSet()
	session := NewSet()
	pane := NewSet()

	def, _ := Lookup("mouse")
	server.SetScalar("mouse", BoolValue(true), def, false)
	session.SetScalar("mouse", BoolValue(false), def, false)

	r, err := LookupChain("mouse", pane, nil, session, server)
	if err != nil {
		t.Fatalf("LookupChain() error = %v", err)
	}
	if r.FromScope != ScopeSession || r.Value.Bool != false {
		t.Fatalf("resolved = %+v, want session-scoped false", r)
	}
}

func TestUnsetFallsBackToNextScope(t *testing.T) {
	server := NewSet()
	session := NewSet()
	def, _ := Lookup("mouse")
	server.SetScalar("mouse", BoolValue(true), def, false)
	session.SetScalar("mouse", BoolValue(false), def, false)

	session.Unset("mouse")
	r, err := LookupChain("mouse", nil, nil, session, server)
	if err != nil {
		t.Fatalf("LookupChain() error = %v", err)
	}
	if r.FromScope != ScopeServer || r.Value.Bool != true {
		t.Fatalf("resolved = %+v, want server-scoped true after unset", r)
	}
}

func TestSetScalarAppendsStrings(t *testing.T) {
	s := NewSet()
	def, _ := Lookup("status-left")
	if err := s.SetScalar("status-left", StringValue("a"), def, false); err != nil {
		t.Fatalf("SetScalar() error = %v", err)
	}
	if err := s.SetScalar("status-left", StringValue("b"), def, true); err != nil {
		t.Fatalf("SetScalar() error = %v", err)
	}
	r, _ := LookupChain("status-left", nil, nil, s, nil)
	if r.Value.Str != "ab" {
		t.Fatalf("appended value = %q, want %q", r.Value.Str, "ab")
	}
}

func TestSetScalarRejectsInvalidEnum(t *testing.T) {
	s := NewSet()
	def, _ := Lookup("status-justify")
	if err := s.SetScalar("status-justify", StringValue("diagonal"), def, false); err == nil {
		t.Fatal("expected invalid enum value to error")
	}
}

func TestRenderBoolAndStatus(t *testing.T) {
	def, _ := Lookup("mouse")
	if got := Render(def, Resolved{Value: BoolValue(true)}); got != "on" {
		t.Fatalf("render bool = %q, want on", got)
	}
	statusDef, _ := Lookup("status")
	if got := Render(statusDef, Resolved{Value: IntValue(2)}); got != "2" {
		t.Fatalf("render status = %q, want 2", got)
	}
	if got := Render(statusDef, Resolved{Value: IntValue(1)}); got != "on" {
		t.Fatalf("render status = %q, want on", got)
	}
}

func TestRenderQuotesStringsWithSpaces(t *testing.T) {
	def, _ := Lookup("status-left")
	got := Render(def, Resolved{Value: StringValue("hello world")})
	if got != `"hello world"` {
		t.Fatalf("render = %q, want quoted", got)
	}
}

func TestArraySetAndRender(t *testing.T) {
	s := NewSet()
	s.SetArrayIndex("status-format", 0, "line0", false)
	s.SetArrayIndex("status-format", -1, "line1", true)
	r, err := LookupChain("status-format", nil, nil, s, nil)
	if err != nil {
		t.Fatalf("LookupChain() error = %v", err)
	}
	def, _ := Lookup("status-format")
	got := Render(def, r)
	want := "status-format[0] line0\nstatus-format[1] line1"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestUserOptionAcceptsAnyName(t *testing.T) {
	def, ok := Lookup("@my-thing")
	if !ok || def.Type != TypeString {
		t.Fatalf("expected user option to resolve as a string type, got %+v, ok=%v", def, ok)
	}
	s := NewSet()
	if err := s.SetScalar("@my-thing", StringValue("value"), def, false); err != nil {
		t.Fatalf("SetScalar() error = %v", err)
	}
	r, _ := LookupChain("@my-thing", nil, nil, s, nil)
	if r.Value.Str != "value" {
		t.Fatalf("value = %q, want %q", r.Value.Str, "value")
	}
}

func TestParseValueInt(t *testing.T) {
	def, _ := Lookup("history-limit")
	v, err := ParseValue(def, "5000")
	if err != nil {
		t.Fatalf("ParseValue() error = %v", err)
	}
	if v.Int != 5000 {
		t.Fatalf("parsed = %d, want 5000", v.Int)
	}
	if _, err := ParseValue(def, "not-a-number"); err == nil {
		t.Fatal("expected parse error for non-numeric integer option")
	}
}
