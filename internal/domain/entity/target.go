package entity

import (
	"fmt"
	"strings"
)

// githubBaseURL is the canonical web origin for repository links.
const githubBaseURL = "https://github.com"

// RepoTarget identifies one watched repository.
type RepoTarget struct {
	Owner string
	Name  string
}

// ParseRepoTarget parses an "owner/name" string.
// Surrounding whitespace is ignored. A missing separator, an empty owner or
// name, or additional path segments yield ErrMalformedTarget.
func ParseRepoTarget(raw string) (RepoTarget, error) {
	s := strings.TrimSpace(raw)
	owner, name, ok := strings.Cut(s, "/")
	if !ok {
		return RepoTarget{}, fmt.Errorf("%w: %q has no owner/name separator", ErrMalformedTarget, raw)
	}
	if owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoTarget{}, fmt.Errorf("%w: %q must be exactly owner/name", ErrMalformedTarget, raw)
	}
	return RepoTarget{Owner: owner, Name: name}, nil
}

// ParseRepoTargets parses every raw target, preserving input order.
// It stops at the first malformed entry.
func ParseRepoTargets(raws []string) ([]RepoTarget, error) {
	targets := make([]RepoTarget, 0, len(raws))
	for _, raw := range raws {
		t, err := ParseRepoTarget(raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// String returns "owner/name".
func (t RepoTarget) String() string {
	return t.Owner + "/" + t.Name
}

// URL returns the repository's canonical web URL.
func (t RepoTarget) URL() string {
	return githubBaseURL + "/" + t.Owner + "/" + t.Name
}

// FileName returns the per-target feed file name.
func (t RepoTarget) FileName() string {
	return t.Owner + "_" + t.Name + ".atom"
}
