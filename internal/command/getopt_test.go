package command

import (
	"errors"
	"testing"

	"psmux/internal/errs"
)

func TestParseBasic(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, req Request)
	}{
		{
			name: "bool and string flags",
			args: []string{"new-session", "-d", "-s", "mysession"},
			check: func(t *testing.T, req Request) {
				if !req.Bools["-d"] {
					t.Fatalf("expected -d set")
				}
				if req.Strs["-s"] != "mysession" {
					t.Fatalf("got -s=%q", req.Strs["-s"])
				}
			},
		},
		{
			name: "value flag consumes next token even if flag-shaped",
			args: []string{"new-session", "-s", "-d", "one"},
			check: func(t *testing.T, req Request) {
				if req.Strs["-s"] != "-d" {
					t.Fatalf("expected -s to consume -d literally, got %q", req.Strs["-s"])
				}
				if len(req.Args) != 1 || req.Args[0] != "one" {
					t.Fatalf("expected trailing arg one, got %v", req.Args)
				}
			},
		},
		{
			name: "combined bool flags expand",
			args: []string{"new-window", "-dPh"},
			check: func(t *testing.T, req Request) {
				for _, f := range []string{"-d", "-P", "-h"} {
					if !req.Bools[f] {
						t.Fatalf("expected %s set from combined flag", f)
					}
				}
			},
		},
		{
			name: "double dash stops flag parsing",
			args: []string{"new-session", "--", "-s", "literal"},
			check: func(t *testing.T, req Request) {
				if len(req.Args) != 2 || req.Args[0] != "-s" || req.Args[1] != "literal" {
					t.Fatalf("expected args passed through verbatim, got %v", req.Args)
				}
			},
		},
		{
			name: "env flag requires KEY=VALUE",
			args: []string{"new-session", "-e", "FOO=bar"},
			check: func(t *testing.T, req Request) {
				if req.Envs["FOO"] != "bar" {
					t.Fatalf("got envs=%v", req.Envs)
				}
			},
		},
		{
			name:    "env flag without equals fails",
			args:    []string{"new-session", "-e", "FOO"},
			wantErr: true,
		},
		{
			name:    "non-numeric -l value parses as a string flag",
			args:    []string{"split-window", "-l", "notanumber"},
			wantErr: false, // -l on split-window is flagString, not flagInt
		},
		{
			name:    "unknown flag fails",
			args:    []string{"new-session", "-Q"},
			wantErr: true,
		},
		{
			name:    "unknown command fails",
			args:    []string{"not-a-real-command"},
			wantErr: true,
		},
		{
			name:    "empty argv fails",
			args:    []string{},
			wantErr: true,
		},
		{
			name: "bare positional args stop flag scanning",
			args: []string{"rename-session", "newname"},
			check: func(t *testing.T, req Request) {
				if len(req.Args) != 1 || req.Args[0] != "newname" {
					t.Fatalf("got args=%v", req.Args)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				if !errors.Is(err, errs.ErrParse) {
					t.Fatalf("expected ErrParse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, req)
			}
		})
	}
}

func TestParseIntFlag(t *testing.T) {
	req, err := Parse([]string{"new-session", "-x", "80", "-y", "24"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Ints["-x"] != 80 || req.Ints["-y"] != 24 {
		t.Fatalf("got ints=%v", req.Ints)
	}

	_, err = Parse([]string{"new-session", "-x", "wide"})
	if err == nil || !errors.Is(err, errs.ErrParse) {
		t.Fatalf("expected ErrParse for non-numeric -x, got %v", err)
	}
}

func TestParseAliasResolution(t *testing.T) {
	req, err := Parse([]string{"neww", "-d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Name != "new-window" {
		t.Fatalf("expected alias neww to resolve to new-window, got %s", req.Name)
	}
}

func TestParseValueFlagMissingArgFails(t *testing.T) {
	_, err := Parse([]string{"new-session", "-s"})
	if err == nil || !errors.Is(err, errs.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestSplitChain(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want [][]string
	}{
		{
			name: "no separators is one chain",
			args: []string{"new-session", "-d"},
			want: [][]string{{"new-session", "-d"}},
		},
		{
			name: "bare semicolon splits",
			args: []string{"new-window", ";", "select-pane", "-t", "0"},
			want: [][]string{{"new-window"}, {"select-pane", "-t", "0"}},
		},
		{
			name: "escaped semicolon is a literal token",
			args: []string{"send-keys", `\;`, "Enter"},
			want: [][]string{{"send-keys", ";", "Enter"}},
		},
		{
			name: "trailing semicolon yields an empty final chain",
			args: []string{"detach-client", ";"},
			want: [][]string{{"detach-client"}, nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitChain(tt.args)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chains, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("chain %d: got %v, want %v", i, got[i], tt.want[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Fatalf("chain %d token %d: got %q, want %q", i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}

func TestExpandCombinedBoolsRejectsUnknownOrValueFlag(t *testing.T) {
	s := commandSpecs["new-session"]
	if _, ok := expandCombinedBools(s, "-dx"); ok {
		t.Fatalf("expected -dx to fail (-x is not a bool flag)")
	}
	if _, ok := expandCombinedBools(s, "-d"); ok {
		t.Fatalf("expected single-char flag to be rejected (len < 3)")
	}
}
