package main

import (
	"bytes"
	"strings"
	"testing"
)

func runRootCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRuleCommandPrintsResolvedFilename(t *testing.T) {
	out, err := runRootCommand(t,
		"rule",
		`s,^.+/([^/]+)/media([.]\w+)$,\1\2,`,
		"https://media.example.com/warcollege/episode-slug/media.mp3",
	)
	if err != nil {
		t.Fatalf("rule command failed: %v", err)
	}
	if strings.TrimSpace(out) != "episode-slug.mp3" {
		t.Fatalf("output = %q", out)
	}
}

func TestRuleCommandReportsNonMatch(t *testing.T) {
	out, err := runRootCommand(t,
		"rule",
		"s,^gopher://,,",
		"https://example.com/direct/file.mp3",
	)
	if err != nil {
		t.Fatalf("rule command failed: %v", err)
	}
	if !strings.Contains(out, "file.mp3") || !strings.Contains(out, "did not match") {
		t.Fatalf("output = %q", out)
	}
}

func TestRuleCommandRejectsMalformedRule(t *testing.T) {
	_, err := runRootCommand(t, "rule", "s,unterminated", "https://example.com/a.mp3")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "malformed rule") {
		t.Fatalf("error = %v", err)
	}
}
