package digest

import (
	"strings"

	"repo-digest/internal/domain/entity"
)

// DefaultMarker identifies automated dependency-update pull requests.
const DefaultMarker = "Update dependencies from"

// ActivityBuckets are the classified issue and pull request buckets of one
// repository. Within each entity kind, Created and Updated never share a node.
type ActivityBuckets struct {
	IssuesCreated []entity.Issue
	IssuesClosed  []entity.Issue
	IssuesUpdated []entity.Issue

	PullRequestsCreated []entity.PullRequest
	PullRequestsMerged  []entity.PullRequest
	PullRequestsUpdated []entity.PullRequest
}

// Empty reports whether all six buckets are empty.
func (b ActivityBuckets) Empty() bool {
	return !b.HasIssues() && !b.HasPullRequests()
}

// HasIssues reports whether any issue bucket is non-empty.
func (b ActivityBuckets) HasIssues() bool {
	return len(b.IssuesCreated)+len(b.IssuesClosed)+len(b.IssuesUpdated) > 0
}

// HasPullRequests reports whether any pull request bucket is non-empty.
func (b ActivityBuckets) HasPullRequests() bool {
	return len(b.PullRequestsCreated)+len(b.PullRequestsMerged)+len(b.PullRequestsUpdated) > 0
}

// Sizes returns the size of each bucket keyed by a metrics-friendly name.
func (b ActivityBuckets) Sizes() map[string]int {
	return map[string]int{
		"issues_created":        len(b.IssuesCreated),
		"issues_closed":         len(b.IssuesClosed),
		"issues_updated":        len(b.IssuesUpdated),
		"pull_requests_created": len(b.PullRequestsCreated),
		"pull_requests_merged":  len(b.PullRequestsMerged),
		"pull_requests_updated": len(b.PullRequestsUpdated),
	}
}

// Classifier sorts raw activity into window buckets.
type Classifier struct {
	// Marker is the title substring of pull requests to discard. Empty
	// disables the filter.
	Marker string
}

// NewClassifier returns a Classifier discarding pull requests whose title
// contains marker.
func NewClassifier(marker string) Classifier {
	return Classifier{Marker: marker}
}

// ClassifyActivity buckets one repository's issues and pull requests.
//
//	created = CreatedAt in [Start, End)
//	updated = UpdatedAt >= Start, minus created (no upper bound)
//	closed  = ClosedAt in [Start, End)
//	merged  = MergedAt in [Start, End)
//
// Pull requests matching the marker are dropped before classification.
func (c Classifier) ClassifyActivity(s entity.ActivitySnapshot, w entity.TimeWindow) ActivityBuckets {
	var b ActivityBuckets

	b.IssuesCreated = selectNodes(s.OpenIssuesByCreated, func(i entity.Issue) bool {
		return w.Contains(i.CreatedAt)
	})
	b.IssuesUpdated = without(selectNodes(s.OpenIssuesByUpdated, func(i entity.Issue) bool {
		return w.Since(i.UpdatedAt)
	}), b.IssuesCreated)
	b.IssuesClosed = selectNodes(s.ClosedIssues, func(i entity.Issue) bool {
		return w.ContainsPtr(i.ClosedAt)
	})

	b.PullRequestsCreated = selectNodes(c.filterMarker(s.OpenPullRequestsByCreated), func(p entity.PullRequest) bool {
		return w.Contains(p.CreatedAt)
	})
	b.PullRequestsUpdated = without(selectNodes(c.filterMarker(s.OpenPullRequestsByUpdated), func(p entity.PullRequest) bool {
		return w.Since(p.UpdatedAt)
	}), b.PullRequestsCreated)
	b.PullRequestsMerged = selectNodes(c.filterMarker(s.MergedPullRequests), func(p entity.PullRequest) bool {
		return w.ContainsPtr(p.MergedAt)
	})

	return b
}

// ClassifyReleases returns the releases published inside the window.
func (c Classifier) ClassifyReleases(releases []entity.Release, w entity.TimeWindow) []entity.Release {
	return selectNodes(releases, func(r entity.Release) bool {
		return w.ContainsPtr(r.PublishedAt)
	})
}

// IsAutomated reports whether title carries the dependency-update marker.
func (c Classifier) IsAutomated(title string) bool {
	return c.Marker != "" && strings.Contains(title, c.Marker)
}

func (c Classifier) filterMarker(prs []entity.PullRequest) []entity.PullRequest {
	if c.Marker == "" {
		return prs
	}
	kept := make([]entity.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if !c.IsAutomated(pr.Title) {
			kept = append(kept, pr)
		}
	}
	return kept
}

// selectNodes keeps the nodes matching keep, in input order, dropping
// repeated ids after their first occurrence.
func selectNodes[T entity.Node](nodes []T, keep func(T) bool) []T {
	seen := make(map[string]struct{}, len(nodes))
	var out []T
	for _, n := range nodes {
		if !keep(n) {
			continue
		}
		id := n.NodeID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, n)
	}
	return out
}

// without removes from nodes every node whose id appears in exclude.
func without[T entity.Node](nodes []T, exclude []T) []T {
	if len(exclude) == 0 {
		return nodes
	}
	ids := make(map[string]struct{}, len(exclude))
	for _, n := range exclude {
		ids[n.NodeID()] = struct{}{}
	}
	var out []T
	for _, n := range nodes {
		if _, ok := ids[n.NodeID()]; !ok {
			out = append(out, n)
		}
	}
	return out
}
