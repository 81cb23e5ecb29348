// Package gateways defines interfaces for external service adapters.
package gateways

import "context"

// ReleaseGateway looks up upstream project releases.
type ReleaseGateway interface {
	// LatestRelease returns the tag of the newest published release of
	// owner/repo, skipping drafts, prereleases, and tags matching
	// excludePattern (a regular expression; empty means exclude nothing).
	LatestRelease(ctx context.Context, owner, repo, excludePattern string) (string, error)
}
