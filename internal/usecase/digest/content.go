package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"

	"repo-digest/internal/domain/entity"
)

// emptySection stands in for an entity kind with no non-empty bucket.
const emptySection = "<div></div>"

var sectionTemplate = template.Must(template.New("section").Parse(
	`<section><h2>{{.Heading}}</h2>` +
		`{{range .Groups}}<h3>{{.Title}}</h3><ul>` +
		`{{range .Items}}<li><div><a href="{{.URL}}">{{.Title}} #{{.Number}}</a></div><div>{{.Summary}}</div></li>{{end}}` +
		`</ul>{{end}}</section>`))

var releasesTemplate = template.Must(template.New("releases").Parse(
	`<div>{{range .}}<article>` +
		`<h2><a href="{{.URL}}">{{.Name}}</a>{{if .Prerelease}} (pre-release){{end}}</h2>` +
		`<div>{{.Description}}</div>` +
		`</article>{{end}}</div>`))

type listItem struct {
	Title   string
	URL     string
	Number  int
	Summary string
}

type listGroup struct {
	Title string
	Items []listItem
}

type section struct {
	Heading string
	Groups  []listGroup
}

type releaseView struct {
	Name        string
	URL         string
	Prerelease  bool
	Description template.HTML
}

// RenderActivity renders the body of an issues and pull requests entry:
// an Issues section then a Pull Requests section, each listing its
// non-empty buckets in the order Created, Closed/Merged, Updated.
func RenderActivity(b ActivityBuckets) (string, error) {
	var sb strings.Builder

	issues := section{Heading: "Issues"}
	issues.addGroup("Created", issueItems(b.IssuesCreated))
	issues.addGroup("Closed", issueItems(b.IssuesClosed))
	issues.addGroup("Updated", issueItems(b.IssuesUpdated))
	if err := issues.render(&sb); err != nil {
		return "", fmt.Errorf("render issues: %w", err)
	}

	prs := section{Heading: "Pull Requests"}
	prs.addGroup("Created", pullRequestItems(b.PullRequestsCreated))
	prs.addGroup("Merged", pullRequestItems(b.PullRequestsMerged))
	prs.addGroup("Updated", pullRequestItems(b.PullRequestsUpdated))
	if err := prs.render(&sb); err != nil {
		return "", fmt.Errorf("render pull requests: %w", err)
	}

	return sb.String(), nil
}

// RenderReleases renders the body of a releases entry. Server-rendered
// descriptions are embedded as is; a release with only a Markdown
// description is rendered with goldmark.
func RenderReleases(releases []entity.Release) (string, error) {
	views := make([]releaseView, 0, len(releases))
	for _, r := range releases {
		description, err := releaseDescription(r)
		if err != nil {
			return "", fmt.Errorf("render release %s: %w", r.DisplayName(), err)
		}
		views = append(views, releaseView{
			Name:        r.DisplayName(),
			URL:         r.URL,
			Prerelease:  r.IsPrerelease,
			Description: description,
		})
	}

	var buf bytes.Buffer
	if err := releasesTemplate.Execute(&buf, views); err != nil {
		return "", fmt.Errorf("render releases: %w", err)
	}
	return buf.String(), nil
}

func releaseDescription(r entity.Release) (template.HTML, error) {
	if strings.TrimSpace(r.DescriptionHTML) != "" {
		// #nosec G203 -- GitHub sanitizes descriptionHTML server-side.
		return template.HTML(r.DescriptionHTML), nil
	}
	if strings.TrimSpace(r.Description) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(r.Description), &buf); err != nil {
		return "", err
	}
	// #nosec G203 -- goldmark omits raw HTML unless WithUnsafe is set.
	return template.HTML(buf.String()), nil
}

func (s *section) addGroup(title string, items []listItem) {
	if len(items) > 0 {
		s.Groups = append(s.Groups, listGroup{Title: title, Items: items})
	}
}

func (s section) render(sb *strings.Builder) error {
	if len(s.Groups) == 0 {
		sb.WriteString(emptySection)
		return nil
	}
	return sectionTemplate.Execute(sb, s)
}

func issueItems(issues []entity.Issue) []listItem {
	items := make([]listItem, 0, len(issues))
	for _, i := range issues {
		items = append(items, listItem{
			Title:   i.Title,
			URL:     i.URL,
			Number:  i.Number,
			Summary: summary(i.Labels, i.Milestone),
		})
	}
	return items
}

func pullRequestItems(prs []entity.PullRequest) []listItem {
	items := make([]listItem, 0, len(prs))
	for _, p := range prs {
		items = append(items, listItem{
			Title:   p.Title,
			URL:     p.URL,
			Number:  p.Number,
			Summary: summary(p.Labels, p.Milestone),
		})
	}
	return items
}

// summary joins label names and the milestone title with ", ".
func summary(labels []string, milestone string) string {
	parts := make([]string, 0, len(labels)+1)
	parts = append(parts, labels...)
	if milestone != "" {
		parts = append(parts, milestone)
	}
	return strings.Join(parts, ", ")
}
