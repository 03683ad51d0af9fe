package options

// Known is the table of every option the server recognizes (spec §4.E).
// User options (`@name`) are not listed here; they are accepted
// unconditionally as opaque strings at any scope (handled in Lookup/Set).
var Known = buildKnown()

func buildKnown() map[string]Definition {
	defs := []Definition{
		{Name: "prefix", Type: TypePrefixKey, Scope: ScopeSession, Default: StringValue("C-b")},
		{Name: "prefix2", Type: TypePrefixKey, Scope: ScopeSession, Default: StringValue("")},
		{Name: "base-index", Type: TypeInt, Scope: ScopeSession, Default: IntValue(0)},
		{Name: "pane-base-index", Type: TypeInt, Scope: ScopeWindow, Default: IntValue(0)},
		{Name: "mouse", Type: TypeBool, Scope: ScopeSession, Default: BoolValue(false)},
		{Name: "status", Type: TypeStatus, Scope: ScopeSession, Default: IntValue(1)},
		{Name: "status-left", Type: TypeString, Scope: ScopeSession, Default: StringValue("[#S] ")},
		{Name: "status-right", Type: TypeString, Scope: ScopeSession, Default: StringValue("")},
		{Name: "status-left-length", Type: TypeInt, Scope: ScopeSession, Default: IntValue(10)},
		{Name: "status-right-length", Type: TypeInt, Scope: ScopeSession, Default: IntValue(40)},
		{Name: "status-style", Type: TypeStyle, Scope: ScopeSession, Default: StringValue("")},
		{Name: "status-justify", Type: TypeEnum, Scope: ScopeSession, Default: StringValue("left"), EnumValues: []string{"left", "centre", "right"}},
		{Name: "status-position", Type: TypeEnum, Scope: ScopeSession, Default: StringValue("bottom"), EnumValues: []string{"top", "bottom"}},
		{Name: "status-format", Type: TypeArray, Scope: ScopeSession, Default: Value{}},
		{Name: "window-status-format", Type: TypeString, Scope: ScopeWindow, Default: StringValue("#I:#W#{?window_flags,#{window_flags}, }")},
		{Name: "window-status-current-format", Type: TypeString, Scope: ScopeWindow, Default: StringValue("#I:#W#{?window_flags,#{window_flags}, }")},
		{Name: "window-status-style", Type: TypeStyle, Scope: ScopeWindow, Default: StringValue("")},
		{Name: "window-status-current-style", Type: TypeStyle, Scope: ScopeWindow, Default: StringValue("")},
		{Name: "window-status-separator", Type: TypeString, Scope: ScopeSession, Default: StringValue(" ")},
		{Name: "mode-style", Type: TypeStyle, Scope: ScopeWindow, Default: StringValue("")},
		{Name: "message-style", Type: TypeStyle, Scope: ScopeSession, Default: StringValue("")},
		{Name: "pane-border-style", Type: TypeStyle, Scope: ScopeWindow, Default: StringValue("")},
		{Name: "pane-active-border-style", Type: TypeStyle, Scope: ScopeWindow, Default: StringValue("")},
		{Name: "default-terminal", Type: TypeString, Scope: ScopeServer, Default: StringValue("xterm-256color")},
		{Name: "default-shell", Type: TypeString, Scope: ScopeServer, Default: StringValue("")},
		{Name: "history-limit", Type: TypeInt, Scope: ScopeSession, Default: IntValue(2000)},
		{Name: "escape-time", Type: TypeInt, Scope: ScopeServer, Default: IntValue(500)},
		{Name: "mode-keys", Type: TypeEnum, Scope: ScopeSession, Default: StringValue("emacs"), EnumValues: []string{"vi", "emacs"}},
		{Name: "monitor-activity", Type: TypeBool, Scope: ScopeWindow, Default: BoolValue(false)},
		{Name: "window-size", Type: TypeEnum, Scope: ScopeWindow, Default: StringValue("latest"), EnumValues: []string{"smallest", "largest", "latest", "manual"}},
		{Name: "allow-passthrough", Type: TypeEnum, Scope: ScopeWindow, Default: StringValue("off"), EnumValues: []string{"off", "on", "all"}},
		{Name: "copy-command", Type: TypeString, Scope: ScopeSession, Default: StringValue("")},
		{Name: "set-clipboard", Type: TypeEnum, Scope: ScopeServer, Default: StringValue("external"), EnumValues: []string{"off", "on", "external"}},
		{Name: "command-alias", Type: TypeArray, Scope: ScopeServer, Default: Value{}},
		{Name: "main-pane-width", Type: TypeInt, Scope: ScopeWindow, Default: IntValue(0)},
		{Name: "main-pane-height", Type: TypeInt, Scope: ScopeWindow, Default: IntValue(0)},
		{Name: "word-separators", Type: TypeString, Scope: ScopeSession, Default: StringValue(" -@\"'")},
		{Name: "cursor-style", Type: TypeEnum, Scope: ScopePane, Default: StringValue("block"), EnumValues: []string{"block", "underline", "bar"}},
		{Name: "cursor-blink", Type: TypeBool, Scope: ScopePane, Default: BoolValue(false)},
		{Name: "prediction-dimming", Type: TypeBool, Scope: ScopeSession, Default: BoolValue(false)},
		{Name: "focus-events", Type: TypeBool, Scope: ScopeServer, Default: BoolValue(false)},
		{Name: "remain-on-exit", Type: TypeBool, Scope: ScopeWindow, Default: BoolValue(false)},
		{Name: "aggressive-resize", Type: TypeBool, Scope: ScopeWindow, Default: BoolValue(false)},
		{Name: "synchronize-panes", Type: TypeBool, Scope: ScopeWindow, Default: BoolValue(false)},
		{Name: "renumber-windows", Type: TypeBool, Scope: ScopeSession, Default: BoolValue(false)},
		{Name: "display-time", Type: TypeInt, Scope: ScopeServer, Default: IntValue(750)},
		{Name: "repeat-time", Type: TypeInt, Scope: ScopeSession, Default: IntValue(500)},
		{Name: "automatic-rename", Type: TypeBool, Scope: ScopeWindow, Default: BoolValue(true)},
		{Name: "destroy-unattached", Type: TypeBool, Scope: ScopeSession, Default: BoolValue(false)},
		{Name: "exit-empty", Type: TypeBool, Scope: ScopeServer, Default: BoolValue(true)},
		{Name: "buffer-limit", Type: TypeInt, Scope: ScopeServer, Default: IntValue(50)},
	}
	out := make(map[string]Definition, len(defs))
	for _, d := range defs {
		out[d.Name] = d
	}
	return out
}

// IsUserOption reports whether name is a user-namespace option (`@name`),
// which is always accepted as an opaque string at any scope.
func IsUserOption(name string) bool {
	return len(name) > 0 && name[0] == '@'
}

// Lookup finds a known option's definition, including the synthetic
// plain-string definition for user options.
func Lookup(name string) (Definition, bool) {
	if IsUserOption(name) {
		return Definition{Name: name, Type: TypeString, Scope: ScopeSession, Default: StringValue("")}, true
	}
	d, ok := Known[name]
	return d, ok
}
