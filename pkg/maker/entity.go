package maker

import "github.com/circleous/repo-maker/pkg/git"

// CommentEvent is the part of an issue_comment webhook delivery the command
// handler works with
type CommentEvent struct {
	// Body raw comment text
	Body string
	// Author login of the user who wrote the comment
	Author string
	// Organization login, empty when the repository belongs to a user
	Organization string
	// Owner login of the repository the comment was made on
	Owner string
	// Repository name of the repository the comment was made on, also used
	// as the template for the new repository
	Repository string
	// IssueNumber issue or pull request number the comment belongs to
	IssueNumber int

	InstallationID int64
	DeliveryID     string
}

// HasOrganization reports whether the event was delivered for a repository
// owned by an organization
func (e CommentEvent) HasOrganization() bool {
	return e.Organization != ""
}

// GrantResult is the outcome of granting one team access to the new
// repository
type GrantResult struct {
	Team       string
	Permission git.Permission
	Err        error
}

// Failed reports whether the grant failed
func (g GrantResult) Failed() bool {
	return g.Err != nil
}
