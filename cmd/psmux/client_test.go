package main

import (
	"testing"

	"psmux/internal/nsfiles"
)

func TestTargetSessionName(t *testing.T) {
	cases := []struct {
		argv []string
		want string
	}{
		{[]string{"kill-session", "-t", "main"}, "main"},
		{[]string{"send-keys", "-t", "main:1.2", "ls"}, "main"},
		{[]string{"list-sessions"}, ""},
		{[]string{"attach", "-t"}, ""}, // -t with nothing following isn't a target
	}
	for _, c := range cases {
		if got := targetSessionName(c.argv); got != c.want {
			t.Errorf("targetSessionName(%v) = %q, want %q", c.argv, got, c.want)
		}
	}
}

func TestResolveExplicitTarget(t *testing.T) {
	dir := t.TempDir()
	if err := nsfiles.WritePortFile(dir, "default", "work", 4242); err != nil {
		t.Fatal(err)
	}
	if err := nsfiles.WriteKeyFile(dir, "default", "work", "secretkey"); err != nil {
		t.Fatal(err)
	}

	c := &client{socket: "default", dir: dir}
	ep, err := c.resolve([]string{"kill-session", "-t", "work"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep.session != "work" || ep.port != 4242 || ep.key != "secretkey" {
		t.Errorf("resolve() = %+v, want session=work port=4242 key=secretkey", ep)
	}
}

func TestResolveUniqueSession(t *testing.T) {
	dir := t.TempDir()
	if err := nsfiles.WritePortFile(dir, "default", "only", 5000); err != nil {
		t.Fatal(err)
	}
	if err := nsfiles.WriteKeyFile(dir, "default", "only", "k"); err != nil {
		t.Fatal(err)
	}

	c := &client{socket: "default", dir: dir}
	ep, err := c.resolve([]string{"list-windows"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ep.session != "only" {
		t.Errorf("resolve() session = %q, want %q", ep.session, "only")
	}
}

func TestResolveMultipleSessionsIsHardError(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b"} {
		if err := nsfiles.WritePortFile(dir, "default", name, 1000); err != nil {
			t.Fatal(err)
		}
		if err := nsfiles.WriteKeyFile(dir, "default", name, "k"); err != nil {
			t.Fatal(err)
		}
	}

	c := &client{socket: "default", dir: dir}
	_, err := c.resolve([]string{"list-windows"})
	if err == nil {
		t.Fatal("expected an error when multiple sessions exist with no -t")
	}
}
