package gateways

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// newTestWatcher points a watcher at a canned releases API.
func newTestWatcher(t *testing.T, handler http.HandlerFunc) *ReleaseWatcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	w := NewReleaseWatcher("")
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("Failed to parse server URL: %v", err)
	}
	w.client.BaseURL = base
	return w
}

func TestLatestRelease_SkipsIneligibleReleases(t *testing.T) {
	w := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/repos/astropy/astropy/releases") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(rw, `[
			{"tag_name": "v4.1", "draft": true},
			{"tag_name": "v4.0rc2", "prerelease": true},
			{"tag_name": "v4.0.dev123"},
			{"tag_name": "v3.2.1"}
		]`)
	})

	tag, err := w.LatestRelease(context.Background(), "astropy", "astropy", `\.dev`)
	if err != nil {
		t.Fatalf("LatestRelease() error = %v", err)
	}
	if tag != "v3.2.1" {
		t.Errorf("LatestRelease() = %q, want v3.2.1 (draft, prerelease, and dev tag skipped)", tag)
	}
}

func TestLatestRelease_NoExcludePattern(t *testing.T) {
	w := newTestWatcher(t, func(rw http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(rw, `[{"tag_name": "v4.0.dev123"}]`)
	})

	tag, err := w.LatestRelease(context.Background(), "astropy", "astropy", "")
	if err != nil {
		t.Fatalf("LatestRelease() error = %v", err)
	}
	if tag != "v4.0.dev123" {
		t.Errorf("LatestRelease() = %q, want v4.0.dev123 (nothing excluded)", tag)
	}
}

func TestLatestRelease_Paginates(t *testing.T) {
	w := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(rw, `[{"tag_name": "v1.0"}]`)
			return
		}
		rw.Header().Set("Link",
			fmt.Sprintf(`<http://%s%s?page=2>; rel="next"`, r.Host, r.URL.Path))
		fmt.Fprint(rw, `[{"tag_name": "v1.1", "draft": true}]`)
	})

	tag, err := w.LatestRelease(context.Background(), "numpy", "numpy", "")
	if err != nil {
		t.Fatalf("LatestRelease() error = %v", err)
	}
	if tag != "v1.0" {
		t.Errorf("LatestRelease() = %q, want v1.0 from page 2", tag)
	}
}

func TestLatestRelease_PageBound(t *testing.T) {
	requests := 0
	w := newTestWatcher(t, func(rw http.ResponseWriter, r *http.Request) {
		requests++
		rw.Header().Set("Link",
			fmt.Sprintf(`<http://%s%s?page=%d>; rel="next"`, r.Host, r.URL.Path, requests+1))
		fmt.Fprint(rw, `[{"tag_name": "v0.1", "prerelease": true}]`)
	})

	_, err := w.LatestRelease(context.Background(), "numpy", "numpy", "")
	if err == nil {
		t.Fatal("LatestRelease() should give up when every page is ineligible")
	}
	if !strings.Contains(err.Error(), "no published release") {
		t.Errorf("unexpected error: %v", err)
	}
	if requests != maxReleasePages {
		t.Errorf("made %d requests, want %d", requests, maxReleasePages)
	}
}

func TestLatestRelease_NoPublishedRelease(t *testing.T) {
	w := newTestWatcher(t, func(rw http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(rw, `[]`)
	})

	_, err := w.LatestRelease(context.Background(), "numpy", "numpy", "")
	if err == nil || !strings.Contains(err.Error(), "no published release") {
		t.Errorf("want no-published-release error, got %v", err)
	}
}

func TestLatestRelease_InvalidExcludePattern(t *testing.T) {
	w := NewReleaseWatcher("")

	_, err := w.LatestRelease(context.Background(), "numpy", "numpy", "(")
	if err == nil || !strings.Contains(err.Error(), "invalid exclude pattern") {
		t.Errorf("want pattern error, got %v", err)
	}
}

func TestLatestRelease_APIError(t *testing.T) {
	w := newTestWatcher(t, func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(rw, `{"message": "Server Error"}`)
	})

	_, err := w.LatestRelease(context.Background(), "numpy", "numpy", "")
	if err == nil || !strings.Contains(err.Error(), "list releases") {
		t.Errorf("want list-releases error, got %v", err)
	}
}
