package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/circleous/repo-maker/pkg/maker"
)

const notOrganizationMessage = "This feature is only available for organizations"

func usageMessage(trigger string) string {
	return fmt.Sprintf("Please tell me the name of the repository to create: `%s my-new-repo`", trigger)
}

func missingConfigMessage() string {
	return "Please setup the config file using the following template: \n\n```yaml\n" +
		maker.RenderExample() +
		"```"
}

func invalidConfigMessage(err error) string {
	var b strings.Builder

	b.WriteString("The config file can't be used:\n\n")

	source := ""
	var invalid *maker.InvalidConfigError
	if errors.As(err, &invalid) {
		source = invalid.Source
		err = invalid.Err
	}

	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	} else {
		fmt.Fprintf(&b, "- %s\n", err)
	}

	if source != "" {
		fmt.Fprintf(&b, "\nFix `%s` and try again.", source)
	}

	return b.String()
}

func createdMessage(name, url string, grants []maker.GrantResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repo %s has been created. You can access it at: %s", name, url)

	header := false
	for _, g := range grants {
		if !g.Failed() {
			continue
		}
		if !header {
			b.WriteString("\n\nThe following teams could not be added:\n")
			header = true
		}
		fmt.Fprintf(&b, "- %s: %s\n", g.Team, g.Err)
	}

	return b.String()
}
