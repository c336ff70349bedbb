package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"podfetch/internal/catalog"
	"podfetch/internal/fileutil"
)

// Client fetches episode media over HTTP.
type Client struct {
	http     *http.Client
	progress bool
}

// NewClient returns a Client whose transfers are bounded by timeout,
// covering connection setup through the last body byte. Progress bars are
// enabled only when requested and stdout is a terminal.
func NewClient(timeout time.Duration, progress bool) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		progress: progress && isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// Fetch downloads the episode's media into destDir under its resolved
// filename. The body is written to a uniquely named partial file first and
// moved into place only after a successful close; on any failure the
// partial file is removed and the final name is never touched.
//
// A file already present under the final name counts as success, so a run
// interrupted between rename and completion mark converges on the next run.
func (c *Client) Fetch(ctx context.Context, ep catalog.Episode, destDir string) error {
	if ep.Filename == "" {
		return fmt.Errorf("episode %s has no resolved filename", ep.SourceURL)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination %q: %w", destDir, err)
	}

	final := filepath.Join(destDir, ep.Filename)
	if _, err := os.Stat(final); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "podfetch")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", ep.SourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("get %s: unexpected status %s", ep.SourceURL, resp.Status)
	}

	partial := filepath.Join(destDir, fmt.Sprintf(".%s.%s.part", ep.Filename, uuid.NewString()))
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create partial file: %w", err)
	}

	var dst io.Writer = out
	if c.progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, ep.Filename)
		dst = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(partial)
		return fmt.Errorf("write %s: %w", ep.Filename, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("close partial file: %w", err)
	}

	if err := fileutil.MoveFile(partial, final); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("move %s into place: %w", ep.Filename, err)
	}
	return nil
}
