package sitegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// GitHub publishes generated sites to a single pages-enabled repository,
// one folder per project under websites/.
type GitHub struct {
	http     *resty.Client
	username string
	repo     string
}

func NewGitHub(token, username, repo string) *GitHub {
	hc := resty.New().
		SetBaseURL("https://api.github.com").
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/vnd.github+json").
		SetAuthToken(token)
	return &GitHub{http: hc, username: username, repo: repo}
}

func (g *GitHub) repoPath() string {
	return fmt.Sprintf("/repos/%s/%s", g.username, g.repo)
}

// UploadWebsite pushes all files of a project and returns its pages URL.
func (g *GitHub) UploadWebsite(ctx context.Context, projectID string, files map[string]string) (string, error) {
	if err := g.ensureRepo(ctx); err != nil {
		return "", err
	}

	for name, content := range files {
		path := fmt.Sprintf("websites/%s/%s", projectID, name)
		if err := g.uploadFile(ctx, path, content); err != nil {
			return "", fmt.Errorf("upload %s: %w", name, err)
		}
		slog.Debug("file uploaded", "path", path)
	}

	// Pages enablement can lag on a fresh repo; the URL is valid either way.
	if err := g.enablePages(ctx); err != nil {
		slog.Warn("pages enable failed", "err", err)
	}
	return g.PagesURL(projectID), nil
}

func (g *GitHub) ensureRepo(ctx context.Context) error {
	resp, err := g.http.R().SetContext(ctx).Get(g.repoPath())
	if err != nil {
		return fmt.Errorf("check repo: %w", err)
	}
	if resp.StatusCode() == http.StatusOK {
		return nil
	}
	if resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("check repo: status %d", resp.StatusCode())
	}

	resp, err = g.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":        g.repo,
			"description": "AI-generated websites",
			"private":     false,
			"auto_init":   true,
		}).
		Post("/user/repos")
	if err != nil {
		return fmt.Errorf("create repo: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("create repo: status %d", resp.StatusCode())
	}
	slog.Info("repository created", "repo", g.repo)
	return nil
}

func (g *GitHub) uploadFile(ctx context.Context, path, content string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	body := map[string]any{
		"message": "Add " + path,
		"content": encoded,
		"branch":  "main",
	}

	url := g.repoPath() + "/contents/" + path
	resp, err := g.http.R().SetContext(ctx).SetBody(body).Put(url)
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	if resp.StatusCode() != http.StatusConflict && resp.StatusCode() != http.StatusUnprocessableEntity {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.Body())
	}

	// File already exists: fetch its sha and update in place.
	cur, err := g.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return err
	}
	sha := gjson.GetBytes(cur.Body(), "sha").String()
	if sha == "" {
		return fmt.Errorf("existing file %s has no sha", path)
	}

	body["message"] = "Update " + path
	body["sha"] = sha
	resp, err = g.http.R().SetContext(ctx).SetBody(body).Put(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("update status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

func (g *GitHub) enablePages(ctx context.Context) error {
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"source": map[string]any{"branch": "main", "path": "/"},
		}).
		Post(g.repoPath() + "/pages")
	if err != nil {
		return err
	}
	// 409 means pages is already on.
	if resp.IsError() && resp.StatusCode() != http.StatusConflict {
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}

// PagesURL is where the project is served once pages has propagated.
func (g *GitHub) PagesURL(projectID string) string {
	return fmt.Sprintf("https://%s.github.io/%s/websites/%s/index.html", g.username, g.repo, projectID)
}
