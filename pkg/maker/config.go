package maker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v2"

	"github.com/circleous/repo-maker/pkg/git"
)

// DefaultConfigFile is the name of the configuration document looked up in
// the .github directory
const DefaultConfigFile = "repo-maker.yml"

// ErrNoTeams is returned by Validate when the teams key is missing
var ErrNoTeams = errors.New("teams is not defined")

// TeamGrant is a (team, permission) pair applied to the new repository
type TeamGrant struct {
	// Name is the team slug in the organization
	Name string `yaml:"name"`

	// Permission granted to the team. Left empty the remote API default
	// applies.
	Permission git.Permission `yaml:"permission,omitempty"`
}

// Config is the repo-maker.yml document
type Config struct {
	// Extends points to another repository holding a base config, either
	// "repo" (same owner) or "owner/repo"
	Extends string `yaml:"_extends,omitempty"`

	// Teams granted access to every repository created by the command
	Teams []TeamGrant `yaml:"teams"`
}

// ParseConfig decodes and validates a repo-maker.yml document. Unknown keys
// are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var config Config

	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks every team entry and returns all problems found. A config
// extending another one may leave teams out.
func (c *Config) Validate() error {
	if c.Teams == nil && c.Extends == "" {
		return ErrNoTeams
	}

	var result error
	seen := make(map[string]int, len(c.Teams))

	for i, team := range c.Teams {
		name := team.Name
		if strings.TrimSpace(name) == "" {
			result = multierror.Append(result,
				fmt.Errorf("teams[%d]: name is not defined", i))
			continue
		}

		// team slugs never contain whitespace
		if strings.ContainsAny(name, " \t\r\n") {
			result = multierror.Append(result,
				fmt.Errorf("teams[%d]: team name %q can't contain whitespace", i, name))
			continue
		}

		if first, ok := seen[name]; ok {
			result = multierror.Append(result,
				fmt.Errorf("teams[%d]: team %q already listed at teams[%d]", i, name, first))
		} else {
			seen[name] = i
		}

		if team.Permission != "" && !team.Permission.Valid() {
			result = multierror.Append(result,
				fmt.Errorf("teams[%d]: invalid permission %q for team %q, choose one of %s",
					i, team.Permission, name, permissionList()))
		}
	}

	return result
}

// merge returns base with the teams of c applied on top. Teams listed in
// both keep their base position with the permission from c.
func (c *Config) merge(base *Config) *Config {
	merged := &Config{Teams: make([]TeamGrant, 0, len(base.Teams)+len(c.Teams))}
	index := make(map[string]int, len(base.Teams))

	for _, team := range base.Teams {
		index[team.Name] = len(merged.Teams)
		merged.Teams = append(merged.Teams, team)
	}

	for _, team := range c.Teams {
		if i, ok := index[team.Name]; ok {
			merged.Teams[i] = team
			continue
		}
		index[team.Name] = len(merged.Teams)
		merged.Teams = append(merged.Teams, team)
	}

	return merged
}

// ExampleConfig is the config shown to users who have not set one up yet
func ExampleConfig() *Config {
	return &Config{
		Teams: []TeamGrant{
			{Name: "my-team", Permission: git.PermissionPush},
		},
	}
}

// RenderExample renders ExampleConfig as yaml
func RenderExample() string {
	out, err := yaml.Marshal(ExampleConfig())
	if err != nil {
		// static value, can't fail
		panic(err)
	}
	return string(out)
}

func permissionList() string {
	names := make([]string, len(git.Permissions))
	for i, p := range git.Permissions {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
