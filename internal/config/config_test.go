package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("exists should be false for a missing file")
	}
	if resolved == "" {
		t.Fatal("resolved path should still be reported")
	}
	if cfg.Downloads.Parallel != defaultParallel {
		t.Fatalf("parallel = %d, want default %d", cfg.Downloads.Parallel, defaultParallel)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Paths.StateDir) {
		t.Fatalf("state dir not expanded: %q", cfg.Paths.StateDir)
	}
}

func TestLoadParsesPodcastsAndFillsDestDir(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
download_dir = "`+filepath.Join(base, "pods")+`"

[downloads]
parallel = 2
limit = 5

[[podcast]]
name = "war-college"
feed_url = "https://example.com/feed.xml"
rule = 's,^.+/([^/]+)/media([.]\w+)$,\1\2,'

[[podcast]]
name = "elsewhere"
feed_url = "https://example.com/other.xml"
dest_dir = "`+filepath.Join(base, "custom")+`"
enabled = false
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("file should have been found")
	}
	if cfg.Downloads.Parallel != 2 || cfg.Downloads.Limit != 5 {
		t.Fatalf("downloads = %+v", cfg.Downloads)
	}
	if len(cfg.Podcasts) != 2 {
		t.Fatalf("got %d podcasts", len(cfg.Podcasts))
	}

	first := cfg.Podcasts[0]
	if first.DestDir != filepath.Join(base, "pods", "war-college") {
		t.Fatalf("dest_dir not derived from download_dir: %q", first.DestDir)
	}
	if !first.IsEnabled() {
		t.Fatal("podcast without enabled key must default to enabled")
	}
	if first.Rule == "" {
		t.Fatal("rule not parsed")
	}

	second := cfg.Podcasts[1]
	if second.DestDir != filepath.Join(base, "custom") {
		t.Fatalf("explicit dest_dir not honored: %q", second.DestDir)
	}
	if second.IsEnabled() {
		t.Fatal("enabled = false not honored")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "negative parallel",
			content: `
[downloads]
parallel = -1
`,
			wantMsg: "downloads.parallel",
		},
		{
			name: "podcast without name",
			content: `
[[podcast]]
feed_url = "https://example.com/feed.xml"
`,
			wantMsg: "name is required",
		},
		{
			name: "podcast without feed url",
			content: `
[[podcast]]
name = "show"
`,
			wantMsg: "feed_url is required",
		},
		{
			name: "bogus feed url",
			content: `
[[podcast]]
name = "show"
feed_url = "not a url"
`,
			wantMsg: "not a valid URL",
		},
		{
			name: "duplicate names",
			content: `
[[podcast]]
name = "show"
feed_url = "https://example.com/a.xml"

[[podcast]]
name = "show"
feed_url = "https://example.com/b.xml"
`,
			wantMsg: "duplicate podcast name",
		},
		{
			name: "unknown log format",
			content: `
[logging]
format = "xml"
`,
			wantMsg: "logging.format",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, _, _, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestEpisodeLimitOverride(t *testing.T) {
	override := 3
	p := Podcast{}
	if got := p.EpisodeLimit(10); got != 10 {
		t.Fatalf("fallback limit = %d, want 10", got)
	}
	p.Limit = &override
	if got := p.EpisodeLimit(10); got != 3 {
		t.Fatalf("override limit = %d, want 3", got)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}
	got, err := ExpandPath("~/podcasts")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "podcasts") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
