package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sbpy-tools/sbforge/internal/domain/entities"
	"github.com/sbpy-tools/sbforge/internal/domain/interfaces/gateways"
)

// UpdateInfo reports how one watched upstream compares to what the
// distribution pins and promises.
type UpdateInfo struct {
	Name         string `json:"name"`
	Repo         string `json:"repo"`
	PinVar       string `json:"pin_var,omitempty"`
	Pinned       string `json:"pinned,omitempty"`
	RecipeFloor  string `json:"recipe_floor,omitempty"`
	Latest       string `json:"latest"`
	UpdateNeeded bool   `json:"update_needed"`
	Error        string `json:"error,omitempty"`
}

// FreshnessService compares pinned dependency versions against the latest
// upstream releases.
type FreshnessService struct {
	releases gateways.ReleaseGateway
}

// NewFreshnessService creates a freshness service backed by the given
// release gateway.
func NewFreshnessService(releases gateways.ReleaseGateway) *FreshnessService {
	return &FreshnessService{releases: releases}
}

// Check reports on every configured upstream. Per-upstream failures are
// recorded in the result rather than aborting the sweep.
func (s *FreshnessService) Check(ctx context.Context, upstreams []entities.Upstream,
	jobs []entities.Job, recipe *entities.Recipe) []UpdateInfo {

	results := make([]UpdateInfo, 0, len(upstreams))
	for _, up := range upstreams {
		results = append(results, s.checkOne(ctx, up, jobs, recipe))
	}
	return results
}

func (s *FreshnessService) checkOne(ctx context.Context, up entities.Upstream,
	jobs []entities.Job, recipe *entities.Recipe) UpdateInfo {

	info := UpdateInfo{Name: up.Name, Repo: up.Repo, PinVar: up.PinVar}

	owner, repo, err := splitRepo(up.Repo)
	if err != nil {
		info.Error = err.Error()
		return info
	}

	latestTag, err := s.releases.LatestRelease(ctx, owner, repo, up.ExcludePattern)
	if err != nil {
		info.Error = fmt.Sprintf("fetch latest release: %v", err)
		return info
	}
	info.Latest = latestTag

	latest, err := entities.ParseVersion(strings.TrimPrefix(latestTag, "v"))
	if err != nil {
		info.Error = fmt.Sprintf("latest release tag %q does not parse: %v", latestTag, err)
		return info
	}

	if up.PinVar != "" {
		if pinned, ok := highestPinned(jobs, up.PinVar); ok {
			info.Pinned = pinned.String()
			info.UpdateNeeded = pinned.Less(latest)
		}
	}

	if recipe != nil {
		if dep, ok := recipe.Requirements.FindRun(up.Name); ok {
			if floor, ok := dep.Spec.MinBound(); ok {
				info.RecipeFloor = floor.String()
			}
		}
	}

	return info
}

// highestPinned returns the largest parseable version pinned for pinVar
// across the jobs; channel keywords do not pin anything.
func highestPinned(jobs []entities.Job, pinVar string) (entities.Version, bool) {
	var highest entities.Version
	found := false
	for _, job := range jobs {
		pin, ok := job.Env.Get(pinVar)
		if !ok || channelKeywords[strings.ToLower(pin)] {
			continue
		}
		v, err := entities.ParseVersion(pin)
		if err != nil {
			continue
		}
		if !found || highest.Less(v) {
			highest = v
			found = true
		}
	}
	return highest, found
}

func splitRepo(full string) (owner, repo string, err error) {
	parts := strings.Split(full, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("upstream repo %q must be owner/name", full)
	}
	return parts[0], parts[1], nil
}
