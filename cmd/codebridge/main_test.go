package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestArgv0Alias(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "cbdiff", base: "cbdiff", want: "diff"},
		{name: "codebridge-edit", base: "codebridge-edit", want: "edit"},
		{name: "codebridge", base: "codebridge", want: ""},
	}
	for _, tc := range tests {
		if got := argv0Alias(tc.base); got != tc.want {
			t.Fatalf("%s: argv0Alias(%q) = %q, want %q", tc.name, tc.base, got, tc.want)
		}
	}
}

func TestApplyArgv0Alias(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "empty", args: nil, want: nil},
		{name: "no-alias", args: []string{"codebridge", "serve"}, want: []string{"codebridge", "serve"}},
		{name: "cbdiff", args: []string{"/usr/bin/cbdiff", "a", "b"}, want: []string{"/usr/bin/cbdiff", "diff", "a", "b"}},
	}
	for _, tc := range tests {
		got := applyArgv0Alias(tc.args)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: applyArgv0Alias length = %d, want %d", tc.name, len(got), len(tc.want))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: applyArgv0Alias[%d] = %q, want %q", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	have := map[string]bool{}
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range []string{"serve", "diff", "edit", "doctor", "init", "selftest", "version"} {
		if !have[name] {
			t.Fatalf("expected root command to include %s", name)
		}
	}
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"init", "--config", path, "--set", "engine.transport=websocket"})
	if err := root.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Fatalf("expected written path in output, got %q", out.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "transport: websocket") {
		t.Fatalf("override missing from config:\n%s", data)
	}
	root = newRootCmd()
	root.SetArgs([]string{"init", "--config", path})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected init to refuse to overwrite")
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "pkt.systems/codebridge ") && !strings.Contains(out.String(), "codebridge") {
		t.Fatalf("unexpected version output %q", out.String())
	}
}
