package digest

import (
	"time"

	"repo-digest/internal/domain/entity"
)

var (
	// now falls on 2024-01-02, so the window is 2024-01-01.
	now    = time.Date(2024, 1, 2, 0, 5, 0, 0, time.UTC)
	window = entity.YesterdayWindow(now)
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(s string) *time.Time {
	t := at(s)
	return &t
}

func issue(id, created, updated string) entity.Issue {
	return entity.Issue{
		ID:        id,
		Title:     "Issue " + id,
		URL:       "https://github.com/octo/hello/issues/" + id,
		CreatedAt: at(created),
		UpdatedAt: at(updated),
	}
}

func pullRequest(id, title, created, updated string) entity.PullRequest {
	return entity.PullRequest{
		ID:        id,
		Title:     title,
		URL:       "https://github.com/octo/hello/pull/" + id,
		CreatedAt: at(created),
		UpdatedAt: at(updated),
	}
}

func ids[T entity.Node](nodes []T) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.NodeID())
	}
	return out
}
