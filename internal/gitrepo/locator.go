package gitrepo

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

const (
	repositoryNotFoundMessageConstant          = "no git repository found"
	startDirectoryRequiredMessageConstant      = "start directory must be provided"
	repositoryOpenErrorTemplateConstant        = "unable to open repository from %s: %w"
	startDirectoryResolveErrorTemplateConstant = "unable to resolve start directory %s: %w"
)

// ErrRepositoryNotFound indicates that neither the start directory nor any ancestor holds git metadata.
var ErrRepositoryNotFound = errors.New(repositoryNotFoundMessageConstant)

// ErrStartDirectoryRequired indicates Locate was called with an empty path.
var ErrStartDirectoryRequired = errors.New(startDirectoryRequiredMessageConstant)

// RepositoryLocator discovers the repository enclosing a directory.
type RepositoryLocator struct {
	openOptions git.PlainOpenOptions
}

// NewRepositoryLocator constructs a locator that searches upward for .git metadata and honors linked worktrees.
func NewRepositoryLocator() *RepositoryLocator {
	return &RepositoryLocator{
		openOptions: git.PlainOpenOptions{
			DetectDotGit:          true,
			EnableDotGitCommonDir: true,
		},
	}
}

// Locate walks from startDirectory towards the filesystem root and opens the first repository found.
func (locator *RepositoryLocator) Locate(startDirectory string) (*Repository, error) {
	if len(startDirectory) == 0 {
		return nil, ErrStartDirectoryRequired
	}

	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return nil, fmt.Errorf(startDirectoryResolveErrorTemplateConstant, startDirectory, absoluteError)
	}

	openOptions := locator.openOptions
	openedRepository, openError := git.PlainOpenWithOptions(absoluteStartDirectory, &openOptions)
	if openError != nil {
		if errors.Is(openError, git.ErrRepositoryNotExists) {
			return nil, ErrRepositoryNotFound
		}
		return nil, fmt.Errorf(repositoryOpenErrorTemplateConstant, absoluteStartDirectory, openError)
	}

	return newRepository(openedRepository), nil
}
