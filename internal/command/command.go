package command

import "strings"

// DefaultTrigger is the comment prefix starting the command
const DefaultTrigger = "/create-repo"

// Matches reports whether body starts with trigger. It is a plain prefix test.
func Matches(body, trigger string) bool {
	return strings.HasPrefix(body, trigger)
}

// ParseRepoName returns the second whitespace delimited token of the comment,
// the name of the repository to create. Further tokens are ignored.
func ParseRepoName(body string) string {
	fields := strings.Fields(body)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}
