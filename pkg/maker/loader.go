package maker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/circleous/repo-maker/pkg/git"
)

const (
	configDir = ".github"
	// orgConfigRepo is the repository holding organization wide defaults
	orgConfigRepo = ".github"
	maxExtends    = 5
)

// Loader loads the repo-maker config for a repository. A missing config is
// not an error, Load returns a nil Config instead.
type Loader interface {
	Load(ctx context.Context, owner, repo string) (*Config, error)
}

// ContentReader reads a single file from a remote repository. It returns
// git.ErrNotFound when the file or repository doesn't exist.
type ContentReader interface {
	GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, error)
}

// GithubLoader loads .github/<file> from the repository, falling back to the
// owner's .github repository, and follows _extends
type GithubLoader struct {
	reader ContentReader
	file   string
}

// NewGithubLoader creates a loader reading file through reader. An empty file
// defaults to DefaultConfigFile.
func NewGithubLoader(reader ContentReader, file string) *GithubLoader {
	if file == "" {
		file = DefaultConfigFile
	}
	return &GithubLoader{reader: reader, file: file}
}

// Load implements Loader
func (gl *GithubLoader) Load(ctx context.Context, owner, repo string) (*Config, error) {
	config, err := gl.load(ctx, owner, repo, map[string]bool{})
	if err != nil || config != nil {
		return config, err
	}

	if repo == orgConfigRepo {
		return nil, nil
	}

	return gl.load(ctx, owner, orgConfigRepo, map[string]bool{})
}

func (gl *GithubLoader) load(ctx context.Context, owner, repo string,
	visited map[string]bool) (*Config, error) {
	fullName := git.Repository{Owner: owner, Name: repo}.FullName()
	if visited[fullName] {
		return nil, &InvalidConfigError{
			Source: fullName,
			Err:    fmt.Errorf("_extends cycle through %s", fullName),
		}
	}
	if len(visited) >= maxExtends {
		return nil, &InvalidConfigError{
			Source: fullName,
			Err:    fmt.Errorf("_extends chain longer than %d", maxExtends),
		}
	}
	visited[fullName] = true

	data, err := gl.reader.GetFileContent(ctx, owner, repo, path.Join(configDir, gl.file))
	if errors.Is(err, git.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", gl.file, fullName, err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, &InvalidConfigError{Source: fullName, Err: err}
	}

	if config.Extends == "" {
		return config, nil
	}

	baseOwner, baseRepo := splitExtends(owner, config.Extends)
	base, err := gl.load(ctx, baseOwner, baseRepo, visited)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, &InvalidConfigError{
			Source: fullName,
			Err:    fmt.Errorf("_extends %s: no %s found", config.Extends, gl.file),
		}
	}

	return config.merge(base), nil
}

// FSLoader reads a config file from a billy filesystem. Owner and repo are
// ignored, the same file is returned for every repository.
type FSLoader struct {
	fs   billy.Filesystem
	path string
}

// NewFSLoader creates a loader reading filename from fs
func NewFSLoader(fs billy.Filesystem, filename string) *FSLoader {
	return &FSLoader{fs: fs, path: filename}
}

// Load implements Loader. _extends is not supported for local files.
func (fl *FSLoader) Load(_ context.Context, _, _ string) (*Config, error) {
	f, err := fl.fs.Open(fl.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, &InvalidConfigError{Source: fl.path, Err: err}
	}

	if config.Extends != "" {
		return nil, &InvalidConfigError{
			Source: fl.path,
			Err:    errors.New("_extends is not supported for local config files"),
		}
	}

	return config, nil
}

// InvalidConfigError is returned by loaders when a config document exists but
// can't be used
type InvalidConfigError struct {
	Source string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config in %s: %v", e.Source, e.Err)
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}

func splitExtends(owner, extends string) (string, string) {
	extends = strings.TrimSpace(extends)
	if i := strings.Index(extends, "/"); i >= 0 {
		return extends[:i], extends[i+1:]
	}
	return owner, extends
}
