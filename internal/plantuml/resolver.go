package plantuml

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// VersionResolver fetches the latest PlantUML release tag.
type VersionResolver interface {
	ResolveLatestVersion(ctx context.Context) (string, error)
}

// GitHubReleaseResolver resolves versions from GitHub releases.
type GitHubReleaseResolver struct {
	apiBase    string
	owner      string
	repo       string
	httpClient *http.Client
}

// NewGitHubResolver creates a resolver for GitHub releases. apiBase defaults
// to https://api.github.com when empty.
func NewGitHubResolver(apiBase, owner, repo string) *GitHubReleaseResolver {
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	return &GitHubReleaseResolver{
		apiBase: strings.TrimSuffix(apiBase, "/"),
		owner:   owner,
		repo:    repo,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ResolveLatestVersion fetches the tag of the latest GitHub release.
func (r *GitHubReleaseResolver) ResolveLatestVersion(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", r.apiBase, r.owner, r.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch GitHub release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, string(body))
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to decode GitHub response: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("GitHub release has no tag")
	}
	return release.TagName, nil
}
