package github

// activityQuery fetches the six issue and pull request collections in one
// round trip. Each alias is one collection of entity.ActivitySnapshot.
const activityQuery = `
query RepositoryActivity($owner: String!, $name: String!, $first: Int!, $labels: Int!) {
  repository(owner: $owner, name: $name) {
    openIssuesByUpdated: issues(first: $first, states: [OPEN], orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes { ...IssueFields }
    }
    openIssuesByCreated: issues(first: $first, states: [OPEN], orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes { ...IssueFields }
    }
    closedIssues: issues(first: $first, states: [CLOSED], orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes { ...IssueFields }
    }
    openPullRequestsByUpdated: pullRequests(first: $first, states: [OPEN], orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes { ...PullRequestFields }
    }
    openPullRequestsByCreated: pullRequests(first: $first, states: [OPEN], orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes { ...PullRequestFields }
    }
    mergedPullRequests: pullRequests(first: $first, states: [MERGED], orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes { ...PullRequestFields }
    }
  }
}

fragment IssueFields on Issue {
  id
  title
  url
  number
  createdAt
  updatedAt
  closedAt
  labels(first: $labels) { nodes { name } }
  milestone { title }
}

fragment PullRequestFields on PullRequest {
  id
  title
  url
  number
  createdAt
  updatedAt
  mergedAt
  labels(first: $labels) { nodes { name } }
  milestone { title }
}
`

const releasesQuery = `
query RepositoryReleases($owner: String!, $name: String!, $first: Int!) {
  repository(owner: $owner, name: $name) {
    releases(first: $first, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes {
        id
        name
        tagName
        url
        description
        descriptionHTML
        isPrerelease
        createdAt
        updatedAt
        publishedAt
      }
    }
  }
}
`
