// Package gateways provides adapters for external services and local
// artifact inspection.
package gateways

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/go-github/v68/github"
)

// maxReleasePages bounds how far back the watcher scans when recent
// releases are all drafts, prereleases, or excluded tags.
const maxReleasePages = 5

// ReleaseWatcher implements gateways.ReleaseGateway against the GitHub
// releases API.
type ReleaseWatcher struct {
	client *github.Client
}

// NewReleaseWatcher creates a watcher. An empty token uses unauthenticated
// access, which is enough for the public scientific upstreams this tool
// watches but is subject to stricter rate limits.
func NewReleaseWatcher(token string) *ReleaseWatcher {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &ReleaseWatcher{client: client}
}

// LatestRelease returns the tag of the newest published release of
// owner/repo, skipping drafts, prereleases, and tags matching
// excludePattern.
func (w *ReleaseWatcher) LatestRelease(ctx context.Context, owner, repo, excludePattern string) (string, error) {
	var exclude *regexp.Regexp
	if excludePattern != "" {
		var err error
		exclude, err = regexp.Compile(excludePattern)
		if err != nil {
			return "", fmt.Errorf("invalid exclude pattern %q: %w", excludePattern, err)
		}
	}

	opts := &github.ListOptions{PerPage: 30}
	for page := 1; page <= maxReleasePages; page++ {
		opts.Page = page
		releases, resp, err := w.client.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return "", fmt.Errorf("list releases for %s/%s: %w", owner, repo, err)
		}

		for _, rel := range releases {
			if rel.GetDraft() || rel.GetPrerelease() {
				continue
			}
			tag := rel.GetTagName()
			if tag == "" {
				continue
			}
			if exclude != nil && exclude.MatchString(tag) {
				continue
			}
			return tag, nil
		}

		if resp.NextPage == 0 {
			break
		}
	}

	return "", fmt.Errorf("no published release found for %s/%s", owner, repo)
}
