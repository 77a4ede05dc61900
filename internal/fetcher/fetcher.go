// Package fetcher clones a repository shallowly and discovers its
// GitHub Actions workflow files, grounded on the teacher's
// internal/git/clone.go (go-git clone path) and plugins/github/github.go
// (go-vcsurl URL normalization).
package fetcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/hashicorp/go-hclog"
)

// Options configures Clone.
type Options struct {
	// TargetDir is the directory to clone into. Created if absent.
	TargetDir string
	// Branch checks out a specific branch; empty uses the remote's default.
	Branch string
	Depth  int
}

// DefaultOptions mirrors the teacher's shallow-clone-by-default behavior.
func DefaultOptions(targetDir string) Options {
	return Options{TargetDir: targetDir, Depth: 1}
}

// Fetcher clones repositories and discovers their workflow files.
type Fetcher struct {
	logger hclog.Logger
}

// New builds a Fetcher.
func New(logger hclog.Logger) *Fetcher {
	return &Fetcher{logger: logger}
}

// Clone shallow-clones repoURL (any shorthand go-vcsurl understands, e.g.
// "github.com/owner/repo" or a full HTTPS URL) into opts.TargetDir.
func (f *Fetcher) Clone(ctx context.Context, repoURL string, opts Options) (string, error) {
	info, err := vcsurl.Parse(repoURL)
	if err != nil {
		f.logger.Error("failed to parse repository URL", "url", repoURL, "error", err)
		return "", fmt.Errorf("failed to parse repository URL %q: %w", repoURL, err)
	}

	cloneURL, err := info.Remote(vcsurl.HTTPS)
	if err != nil {
		return "", fmt.Errorf("deriving clone URL for %q: %w", repoURL, err)
	}

	targetFolder := opts.TargetDir
	if targetFolder == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		targetFolder = filepath.Join(home, ".ghss", "repos", info.ID)
	}

	depth := opts.Depth
	if depth <= 0 {
		depth = 1
	}

	f.logger.Debug("starting repository fetch", "repository", info.Name, "cloneURL", cloneURL, "targetFolder", targetFolder)

	cloneOpts := &git.CloneOptions{
		URL:   cloneURL,
		Depth: depth,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}

	_, err = git.PlainCloneContext(ctx, targetFolder, false, cloneOpts)
	if err != nil {
		if err != git.ErrRepositoryAlreadyExists {
			f.logger.Error("error occurred during clone", "error", err, "targetFolder", targetFolder)
			return "", fmt.Errorf("cloning %s: %w", cloneURL, err)
		}
		f.logger.Info("repository already exists, reusing", "targetFolder", targetFolder)
	}

	return targetFolder, nil
}

// DiscoverWorkflows walks repoDir/.github/workflows and returns every
// *.yml/*.yaml file found there, relative to repoDir.
func (f *Fetcher) DiscoverWorkflows(repoDir string) ([]string, error) {
	workflowsDir := filepath.Join(repoDir, ".github", "workflows")

	var found []string
	err := filepath.WalkDir(workflowsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml") {
			rel, err := filepath.Rel(repoDir, path)
			if err != nil {
				return err
			}
			found = append(found, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering workflows under %s: %w", workflowsDir, err)
	}

	f.logger.Debug("discovered workflow files", "repoDir", repoDir, "count", len(found))
	return found, nil
}
