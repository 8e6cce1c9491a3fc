package github

import (
	"encoding/json"
	"time"

	"repo-digest/internal/domain/entity"
)

// graphQLRequest is the POST body of every round trip.
type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// graphQLResponse is the envelope of every response.
type graphQLResponse struct {
	Data   json.RawMessage    `json:"data"`
	Errors []GraphQLErrorItem `json:"errors"`
}

// apiErrorBody is the JSON body GitHub sends with non-2xx responses.
type apiErrorBody struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
}

type labelConnection struct {
	Nodes []struct {
		Name string `json:"name"`
	} `json:"nodes"`
}

func (l labelConnection) names() []string {
	if len(l.Nodes) == 0 {
		return nil
	}
	names := make([]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		names = append(names, n.Name)
	}
	return names
}

type milestone struct {
	Title string `json:"title"`
}

func milestoneTitle(m *milestone) string {
	if m == nil {
		return ""
	}
	return m.Title
}

type issueNode struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Number    int             `json:"number"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	ClosedAt  *time.Time      `json:"closedAt"`
	Labels    labelConnection `json:"labels"`
	Milestone *milestone      `json:"milestone"`
}

type issueConnection struct {
	Nodes []issueNode `json:"nodes"`
}

func (c issueConnection) toEntities() []entity.Issue {
	issues := make([]entity.Issue, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		issues = append(issues, entity.Issue{
			ID:        n.ID,
			Title:     n.Title,
			URL:       n.URL,
			Number:    n.Number,
			Labels:    n.Labels.names(),
			Milestone: milestoneTitle(n.Milestone),
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
			ClosedAt:  n.ClosedAt,
		})
	}
	return issues
}

type pullRequestNode struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Number    int             `json:"number"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	MergedAt  *time.Time      `json:"mergedAt"`
	Labels    labelConnection `json:"labels"`
	Milestone *milestone      `json:"milestone"`
}

type pullRequestConnection struct {
	Nodes []pullRequestNode `json:"nodes"`
}

func (c pullRequestConnection) toEntities() []entity.PullRequest {
	prs := make([]entity.PullRequest, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		prs = append(prs, entity.PullRequest{
			ID:        n.ID,
			Title:     n.Title,
			URL:       n.URL,
			Number:    n.Number,
			Labels:    n.Labels.names(),
			Milestone: milestoneTitle(n.Milestone),
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
			MergedAt:  n.MergedAt,
		})
	}
	return prs
}

type activityData struct {
	Repository *struct {
		OpenIssuesByUpdated       issueConnection       `json:"openIssuesByUpdated"`
		OpenIssuesByCreated       issueConnection       `json:"openIssuesByCreated"`
		ClosedIssues              issueConnection       `json:"closedIssues"`
		OpenPullRequestsByUpdated pullRequestConnection `json:"openPullRequestsByUpdated"`
		OpenPullRequestsByCreated pullRequestConnection `json:"openPullRequestsByCreated"`
		MergedPullRequests        pullRequestConnection `json:"mergedPullRequests"`
	} `json:"repository"`
}

type releaseNode struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TagName         string     `json:"tagName"`
	URL             string     `json:"url"`
	Description     string     `json:"description"`
	DescriptionHTML string     `json:"descriptionHTML"`
	IsPrerelease    bool       `json:"isPrerelease"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	PublishedAt     *time.Time `json:"publishedAt"`
}

type releasesData struct {
	Repository *struct {
		Releases struct {
			Nodes []releaseNode `json:"nodes"`
		} `json:"releases"`
	} `json:"repository"`
}

func (d releasesData) toEntities() []entity.Release {
	nodes := d.Repository.Releases.Nodes
	releases := make([]entity.Release, 0, len(nodes))
	for _, n := range nodes {
		releases = append(releases, entity.Release{
			ID:              n.ID,
			Name:            n.Name,
			TagName:         n.TagName,
			URL:             n.URL,
			Description:     n.Description,
			DescriptionHTML: n.DescriptionHTML,
			IsPrerelease:    n.IsPrerelease,
			CreatedAt:       n.CreatedAt,
			UpdatedAt:       n.UpdatedAt,
			PublishedAt:     n.PublishedAt,
		})
	}
	return releases
}
