package entity

import (
	"strings"
	"time"
)

// Node is the capability shared by every activity variant.
// Two nodes are the same entity iff their NodeID values match; no other
// field takes part in deduplication or set membership.
type Node interface {
	NodeID() string
}

// Issue is a repository issue as returned by the hosting API.
type Issue struct {
	ID        string
	Title     string
	URL       string
	Number    int
	Labels    []string
	Milestone string // empty when the issue has no milestone
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// NodeID implements Node.
func (i Issue) NodeID() string { return i.ID }

// PullRequest is a repository pull request as returned by the hosting API.
type PullRequest struct {
	ID        string
	Title     string
	URL       string
	Number    int
	Labels    []string
	Milestone string
	CreatedAt time.Time
	UpdatedAt time.Time
	MergedAt  *time.Time
}

// NodeID implements Node.
func (p PullRequest) NodeID() string { return p.ID }

// Release is a published (or drafted) repository release.
type Release struct {
	ID              string
	Name            string
	TagName         string
	URL             string
	Description     string // Markdown source
	DescriptionHTML string // pre-rendered by the server
	IsPrerelease    bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PublishedAt     *time.Time
}

// NodeID implements Node.
func (r Release) NodeID() string { return r.ID }

// DisplayName returns the release name, or the tag name when the name is
// blank or whitespace-only.
func (r Release) DisplayName() string {
	if strings.TrimSpace(r.Name) == "" {
		return r.TagName
	}
	return r.Name
}

// ActivitySnapshot holds the six raw issue and pull request collections
// fetched for one repository. Each collection is newest-first as ordered by
// the server and capped at the configured top-K.
type ActivitySnapshot struct {
	OpenIssuesByUpdated       []Issue
	OpenIssuesByCreated       []Issue
	ClosedIssues              []Issue
	OpenPullRequestsByUpdated []PullRequest
	OpenPullRequestsByCreated []PullRequest
	MergedPullRequests        []PullRequest
}
