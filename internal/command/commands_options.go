package command

import (
	"fmt"
	"sort"
	"strings"

	"psmux/internal/errs"
	"psmux/internal/options"
)

func init() {
	register("set-option", cmdSetOption)
	register("show-options", cmdShowOptions)
	register("show-window-options", cmdShowWindowOptions)
	register("set-environment", cmdSetEnvironment)
	register("show-environment", cmdShowEnvironment)
}

func cmdSetOption(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if len(req.Args) == 0 {
		return fail(errorf("set-option requires a name: %w", errs.ErrParse))
	}
	name := req.Args[0]
	rawValue := strings.Join(req.Args[1:], " ")

	if options.IsUserOption(name) {
		set := pickSet(ctx, t, req, options.ScopeSession)
		if req.Bools["-u"] {
			set.Unset(name)
			return ok(""), nil
		}
		def, _ := options.Lookup(name)
		set.SetScalar(name, options.StringValue(rawValue), def, req.Bools["-a"])
		return ok(""), nil
	}

	def, known := options.Lookup(name)
	if !known {
		return fail(errorf("unknown option %q: %w", name, errs.ErrNotFound))
	}
	set := pickSet(ctx, t, req, def.Scope)
	if set == nil {
		return fail(errorf("no target at option's scope: %w", errs.ErrNotFound))
	}
	if req.Bools["-u"] {
		set.Unset(name)
		return ok(""), nil
	}
	value, err := options.ParseValue(def, rawValue)
	if err != nil {
		return fail(err)
	}
	if err := set.SetScalar(name, value, def, req.Bools["-a"]); err != nil {
		return fail(err)
	}
	return ok(""), nil
}

// pickSet resolves the *options.Set a set-option/show-options call
// addresses from its -g/-s/-w/-p flags (spec §4.E: -g session, -s
// server, -w window, -p pane; no flag defaults to the option's own
// registered scope). ServerOpts has to come from ctx.manager() rather
// than Target, since Target carries no Manager pointer.
func pickSet(ctx *execContext, t Target, req Request, def options.Scope) *options.Set {
	switch {
	case req.Bools["-s"]:
		return ctx.manager().ServerOpts
	case req.Bools["-g"]:
		if t.Session != nil {
			return t.Session.Opts
		}
	case req.Bools["-w"]:
		if t.Window != nil {
			return t.Window.Opts
		}
	case req.Bools["-p"]:
		if t.Pane != nil {
			return t.Pane.Opts
		}
	}
	switch def {
	case options.ScopeServer:
		return ctx.manager().ServerOpts
	case options.ScopeWindow:
		if t.Window != nil {
			return t.Window.Opts
		}
	case options.ScopePane:
		if t.Pane != nil {
			return t.Pane.Opts
		}
	}
	if t.Session != nil {
		return t.Session.Opts
	}
	return nil
}

func cmdShowOptions(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if len(req.Args) == 1 {
		return showOneOption(ctx, t, req, req.Args[0])
	}
	names := make([]string, 0, len(options.Known))
	for name := range options.Known {
		names = append(names, name)
	}
	sort.Strings(names)
	var lines []string
	for _, name := range names {
		def, _ := options.Lookup(name)
		if req.Bools["-s"] && def.Scope != options.ScopeServer {
			continue
		}
		if req.Bools["-w"] && def.Scope != options.ScopeWindow {
			continue
		}
		r, err := lookupResolved(ctx, t, name)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", name, options.Render(def, r)))
	}
	return ok(strings.Join(lines, "\n")), nil
}

func cmdShowWindowOptions(ctx *execContext, req Request) (Result, error) {
	req.Bools["-w"] = true
	return cmdShowOptions(ctx, req)
}

func showOneOption(ctx *execContext, t Target, req Request, name string) (Result, error) {
	r, err := lookupResolved(ctx, t, name)
	if err != nil {
		return fail(err)
	}
	def, _ := options.Lookup(name)
	value := options.Render(def, r)
	if req.Bools["-v"] {
		return ok(value), nil
	}
	return ok(fmt.Sprintf("%s %s", name, value)), nil
}

func lookupResolved(ctx *execContext, t Target, name string) (options.Resolved, error) {
	var paneOpts, winOpts, sessOpts *options.Set
	if t.Pane != nil {
		paneOpts = t.Pane.Opts
	}
	if t.Window != nil {
		winOpts = t.Window.Opts
	}
	if t.Session != nil {
		sessOpts = t.Session.Opts
	}
	return options.LookupChain(name, paneOpts, winOpts, sessOpts, ctx.manager().ServerOpts)
}

func cmdSetEnvironment(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	if len(req.Args) == 0 {
		return fail(errorf("set-environment requires a name: %w", errs.ErrParse))
	}
	name := req.Args[0]
	if req.Bools["-u"] {
		delete(t.Session.Env, name)
		return ok(""), nil
	}
	value := strings.Join(req.Args[1:], " ")
	t.Session.Env[name] = value
	return ok(""), nil
}

func cmdShowEnvironment(ctx *execContext, req Request) (Result, error) {
	t, err := ctx.requireTarget(req)
	if err != nil {
		return fail(err)
	}
	names := make([]string, 0, len(t.Session.Env))
	for name := range t.Session.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	var lines []string
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s=%s", name, t.Session.Env[name]))
	}
	return ok(strings.Join(lines, "\n")), nil
}
