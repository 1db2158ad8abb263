package ghsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"

	"mamacal/internal/config"
	applog "mamacal/internal/log"
	"mamacal/internal/model"
)

// ErrMissingSettings marks a sync rejected before any network call
// because owner, repo or token is not configured.
var ErrMissingSettings = errors.New("sync settings incomplete")

// Revision is the outcome of reading a target file's current version.
// A missing file is a first write, not an error.
type Revision struct {
	Exists bool
	SHA    string
}

// Client pushes the event list to a GitHub repository as two files, a
// JSON document and a spreadsheet. Each write is guarded by the
// revision read before it: a stale SHA is rejected by GitHub and
// surfaces as a sync failure. No retry, no merge.
//
// The underlying go-github client is built per Sync call so settings
// edits (token changes) take effect immediately.
type Client struct {
	newGH func(token string) *github.Client
}

// NewClient builds a Client talking to api.github.com.
func NewClient() *Client {
	return &Client{
		newGH: func(token string) *github.Client {
			return github.NewClient(nil).WithAuthToken(token)
		},
	}
}

// NewClientWith builds a Client from a custom go-github factory.
// Tests use it to point at an httptest server via BaseURL.
func NewClientWith(newGH func(token string) *github.Client) *Client {
	return &Client{newGH: newGH}
}

// Sync writes the event list to both configured paths, JSON first,
// then the spreadsheet. The two writes are sequential and independent:
// a JSON failure aborts before the spreadsheet write, and a written
// JSON file is not rolled back when the spreadsheet write fails. The
// caller surfaces the partial state to the user.
func (c *Client) Sync(ctx context.Context, events []model.Event, cfg config.GitHubConfig) error {
	if cfg.Owner == "" || cfg.Repo == "" || cfg.Token == "" {
		return ErrMissingSettings
	}

	gh := c.newGH(cfg.Token)

	jsonBody, err := EncodeJSON(events)
	if err != nil {
		return fmt.Errorf("encode json payload: %w", err)
	}
	if err := c.putFile(ctx, gh, cfg, cfg.JSONPath, jsonBody, "Update milestone events (json)"); err != nil {
		return fmt.Errorf("sync %s: %w", cfg.JSONPath, err)
	}

	xlsxBody, err := EncodeXLSX(events)
	if err != nil {
		return fmt.Errorf("encode spreadsheet payload: %w", err)
	}
	if err := c.putFile(ctx, gh, cfg, cfg.XLSXPath, xlsxBody, "Update milestone events (xlsx)"); err != nil {
		return fmt.Errorf("sync %s: %w", cfg.XLSXPath, err)
	}

	applog.Info("sync completed", "owner", cfg.Owner, "repo", cfg.Repo, "events", len(events))
	return nil
}

// putFile performs one read-then-write cycle for a single path.
func (c *Client) putFile(ctx context.Context, gh *github.Client, cfg config.GitHubConfig, path string, content []byte, message string) error {
	rev, err := c.readRevision(ctx, gh, cfg, path)
	if err != nil {
		return err
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(cfg.Branch),
	}

	if rev.Exists {
		opts.SHA = github.String(rev.SHA)
		_, _, err = gh.Repositories.UpdateFile(ctx, cfg.Owner, cfg.Repo, path, opts)
	} else {
		_, _, err = gh.Repositories.CreateFile(ctx, cfg.Owner, cfg.Repo, path, opts)
	}
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	applog.Info("file written", "path", path, "branch", cfg.Branch, "existed", rev.Exists)
	return nil
}

// readRevision fetches the current SHA of path on the configured
// branch. 404 means first write; any other failure aborts the sync.
func (c *Client) readRevision(ctx context.Context, gh *github.Client, cfg config.GitHubConfig, path string) (Revision, error) {
	fc, _, resp, err := gh.Repositories.GetContents(ctx, cfg.Owner, cfg.Repo, path, &github.RepositoryContentGetOptions{
		Ref: cfg.Branch,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Revision{}, nil
		}
		return Revision{}, fmt.Errorf("read revision: %w", err)
	}
	if fc == nil {
		// Path resolved to a directory listing; treat as unusable.
		return Revision{}, fmt.Errorf("read revision: %s is not a file", path)
	}
	return Revision{Exists: true, SHA: fc.GetSHA()}, nil
}
