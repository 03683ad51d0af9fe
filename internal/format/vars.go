package format

import (
	"fmt"
	"strconv"
	"strings"

	"psmux/internal/options"
)

// lookupVariable resolves a bare variable name against ctx: pane fields
// first, then window, then session, falling through to the option store
// (server -> session -> window -> pane, narrowest override wins) for
// anything not a built-in, and finally user options ("@name").
func lookupVariable(ctx *Context, name string) string {
	if v, ok := lookupBuiltin(ctx, name); ok {
		return v
	}
	if v, ok := lookupOption(ctx, name); ok {
		return v
	}
	return ""
}

func lookupBuiltin(ctx *Context, name string) (string, bool) {
	switch name {
	case "session_name":
		if ctx.Session != nil {
			return ctx.Session.Name, true
		}
	case "session_id":
		if ctx.Session != nil {
			return ctx.Session.IDString(), true
		}
	case "session_windows":
		if ctx.Session != nil {
			return strconv.Itoa(len(ctx.Session.Windows)), true
		}
	case "session_created":
		if ctx.Session != nil {
			return strconv.FormatInt(ctx.Session.CreatedAt.Unix(), 10), true
		}
	case "session_created_string", "session_created_human":
		if ctx.Session != nil {
			return ctx.Session.CreatedAt.Format("Mon Jan  2 15:04:05 2006"), true
		}
	case "session_attached":
		return "0", true

	case "window_index":
		if ctx.Window != nil {
			return strconv.Itoa(ctx.Window.Index), true
		}
	case "window_id":
		if ctx.Window != nil {
			return ctx.Window.IDString(), true
		}
	case "window_name":
		if ctx.Window != nil {
			return ctx.Window.Name, true
		}
	case "window_panes":
		if ctx.Window != nil {
			return strconv.Itoa(len(ctx.Window.Panes)), true
		}
	case "window_active":
		if ctx.Window != nil && ctx.Session != nil && ctx.Window.ID == ctx.Session.ActiveWindowID {
			return "1", true
		}
		return "0", true
	case "window_activity_flag":
		if ctx.Window != nil {
			return boolDigit(ctx.Window.Activity), true
		}
	case "window_marked_flag":
		if ctx.Window != nil {
			return boolDigit(ctx.Window.Marked), true
		}
	case "window_zoomed_flag":
		if ctx.Window != nil {
			return boolDigit(ctx.Window.IsZoomed()), true
		}
	case "window_flags":
		if ctx.Window != nil {
			return windowFlags(ctx), true
		}

	case "pane_id":
		if ctx.Pane != nil {
			return ctx.Pane.IDString(), true
		}
	case "pane_index":
		if ctx.Pane != nil {
			return strconv.Itoa(ctx.Pane.Index), true
		}
	case "pane_title":
		if ctx.Pane != nil {
			return ctx.Pane.Title, true
		}
	case "pane_width":
		if ctx.Pane != nil {
			return strconv.Itoa(ctx.Pane.Width), true
		}
	case "pane_height":
		if ctx.Pane != nil {
			return strconv.Itoa(ctx.Pane.Height), true
		}
	case "pane_active":
		if ctx.Pane != nil && ctx.Window != nil && ctx.Pane.ID == ctx.Window.ActivePaneID {
			return "1", true
		}
		return "0", true
	case "pane_dead":
		if ctx.Pane != nil {
			return boolDigit(ctx.Pane.Dead), true
		}
	case "pane_current_path":
		if ctx.Pane != nil {
			return ctx.Pane.WorkingDir, true
		}
	case "pane_pid":
		return "0", true

	case "host", "host_short":
		return hostname(), true
	}
	return "", false
}

func lookupOption(ctx *Context, name string) (string, bool) {
	def, ok := options.Lookup(name)
	if !ok {
		return "", false
	}
	r, err := options.LookupChain(name, ctx.PaneOpts, ctx.WindowOpts, ctx.SessionOpts, ctx.ServerOpts)
	if err != nil {
		return "", false
	}
	if def.Type == options.TypeArray {
		return options.Render(def, r), true
	}
	return options.Render(def, r), true
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// windowFlags renders the single-character suffix flags tmux appends to a
// window's name in status lines and window lists (the "#F"/"window_flags"
// variable): "*" current, "-" last, "Z" zoomed, "!" bell/activity.
func windowFlags(ctx *Context) string {
	if ctx.Window == nil {
		return ""
	}
	var b strings.Builder
	if ctx.Session != nil {
		if ctx.Window.ID == ctx.Session.ActiveWindowID {
			b.WriteByte('*')
		} else if ctx.Window.ID == ctx.Session.LastWindowID {
			b.WriteByte('-')
		}
	}
	if ctx.Window.IsZoomed() {
		b.WriteByte('Z')
	}
	if ctx.Window.Activity {
		b.WriteByte('!')
	}
	return b.String()
}

var hostnameFn = func() (string, error) { return "psmux", nil }

func hostname() string {
	h, err := hostnameFn()
	if err != nil {
		return ""
	}
	return h
}

func shorthand(ctx *Context, ch byte) string {
	switch ch {
	case 'S':
		if ctx.Session != nil {
			return ctx.Session.Name
		}
	case 'I':
		if ctx.Window != nil {
			return strconv.Itoa(ctx.Window.Index)
		}
	case 'W':
		if ctx.Window != nil {
			return ctx.Window.Name
		}
	case 'P':
		if ctx.Pane != nil {
			return strconv.Itoa(ctx.Pane.Index)
		}
	case 'H':
		return hostname()
	case 'D':
		if ctx.Pane != nil {
			return ctx.Pane.IDString()
		}
	case 'F':
		return windowFlags(ctx)
	case 'T':
		if ctx.Pane != nil {
			return ctx.Pane.Title
		}
	}
	return fmt.Sprintf("#%c", ch)
}
