package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/runner"
)

// ReleaseAsset is one downloadable file of a tagged GitHub release.
type ReleaseAsset struct {
	Repo string // owner/name
	Tag  string
	Name string
}

var (
	AhoyRelease = ReleaseAsset{Repo: "ahoy-cli/ahoy", Tag: "v2.5.0", Name: "ahoy-bin-linux-amd64"}
	QSVRelease  = ReleaseAsset{Repo: "dathere/qsv", Tag: "4.0.0", Name: "qsv-4.0.0-x86_64-unknown-linux-gnu.zip"}
)

// DownloadURL is the conventional github.com download link for the asset.
func (a ReleaseAsset) DownloadURL() string {
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/%s", a.Repo, a.Tag, a.Name)
}

// GitHubRelease represents the structure of a GitHub release JSON response.
type GitHubRelease struct {
	TagName string `json:"tag_name"` // The release tag (e.g., v2.5.0)
	Assets  []struct {
		Name               string `json:"name"`                 // Asset filename
		BrowserDownloadURL string `json:"browser_download_url"` // Direct download URL for the asset
	} `json:"assets"`
}

// ReleaseClient looks release assets up through the GitHub API.
type ReleaseClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewReleaseClient returns a client for api.github.com.
func NewReleaseClient() *ReleaseClient {
	return &ReleaseClient{
		BaseURL: "https://api.github.com",
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// AssetURL confirms that the release carries the asset and returns its download URL.
func (c *ReleaseClient) AssetURL(ctx context.Context, asset ReleaseAsset) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/tags/%s", strings.TrimRight(c.BaseURL, "/"), asset.Repo, asset.Tag)
	logger.Debug("[DEBUG] Fetching GitHub release from URL: %s\n", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP GET error fetching release %s@%s: %w", asset.Repo, asset.Tag, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub release fetch failed for %s@%s: HTTP status %d", asset.Repo, asset.Tag, resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to decode GitHub release JSON for %s@%s: %w", asset.Repo, asset.Tag, err)
	}
	logger.Debug("[DEBUG] Release tag: %s with %d assets\n", release.TagName, len(release.Assets))

	for _, a := range release.Assets {
		if a.Name == asset.Name {
			return a.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("release %s@%s has no asset named %s", asset.Repo, asset.Tag, asset.Name)
}

// AssetResolver maps a release asset to a download URL.
type AssetResolver interface {
	AssetURL(ctx context.Context, asset ReleaseAsset) (string, error)
}

// downloadAsset fetches asset to dest with curl. When the API lookup fails the
// conventional download URL is used instead.
func downloadAsset(ctx context.Context, ec runner.ExecContext, resolver AssetResolver, asset ReleaseAsset, dest string) error {
	url := asset.DownloadURL()
	if resolver != nil {
		resolved, err := resolver.AssetURL(ctx, asset)
		if err != nil {
			logger.Warn("[WARN] Could not resolve %s through the GitHub API, using %s: %v\n", asset.Name, url, err)
		} else {
			url = resolved
		}
	}
	logger.Info("[INFO] Downloading %s to %s\n", asset.Name, dest)
	return ec.Run(ctx, "curl", "-fsSL", "-o", dest, url)
}
