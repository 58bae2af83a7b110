package git

import "fmt"

// Repository is the struct containing the repo data from user/org
type Repository struct {
	// Owner login of the user or organization owning the repo
	Owner string
	// Name repository name without the owner
	Name string
	// URL browsable repo URL as reported by the remote
	URL string
	// Private visibility of the repository
	Private bool
}

// FullName returns the repository in owner/name format
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// WebURL builds the https URL of the repository on host, e.g.
// https://github.com/acme/widgets
func (r Repository) WebURL(host string) string {
	return fmt.Sprintf("https://%s/%s/%s", host, r.Owner, r.Name)
}

// TemplateOptions is the option struct used when creating a repository from
// a template repository
type TemplateOptions struct {
	// Name of the new repository
	Name string
	// Owner of the new repository, user or organization login
	Owner string
	// Private creates the new repository as private
	Private bool
}
