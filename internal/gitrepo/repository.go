package gitrepo

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	noCommitsMessageConstant               = "repository has no commits yet"
	gitDirectoryUnavailableMessageConstant = "repository metadata is not stored on a filesystem"
	bareRepositoryMessageConstant          = "repository has no working tree"
	headResolutionErrorTemplateConstant    = "unable to resolve HEAD: %w"
	worktreeStatusErrorTemplateConstant    = "unable to compute working tree status: %w"
	stateDetectionErrorTemplateConstant    = "unable to detect repository state: %w"
	indexReadErrorTemplateConstant         = "unable to read index: %w"
	coreSectionNameConstant                = "core"
	fileModeOptionNameConstant             = "filemode"
)

// ErrNoCommits indicates HEAD points at an unborn branch.
var ErrNoCommits = errors.New(noCommitsMessageConstant)

// ErrGitDirectoryUnavailable indicates the repository storage cannot be inspected for state markers.
var ErrGitDirectoryUnavailable = errors.New(gitDirectoryUnavailableMessageConstant)

// ErrBareRepository indicates a working tree query was issued against a bare repository.
var ErrBareRepository = errors.New(bareRepositoryMessageConstant)

// HeadReference describes what HEAD currently points at.
type HeadReference struct {
	// BranchName is the short branch name; empty when HEAD is detached.
	BranchName string
	// CommitHash is the full hexadecimal identifier of the commit HEAD resolves to.
	CommitHash string
}

// Detached reports whether HEAD points directly at a commit rather than a branch.
func (reference HeadReference) Detached() bool {
	return len(reference.BranchName) == 0
}

// Repository is a read-only handle onto a discovered repository.
type Repository struct {
	repository   *git.Repository
	gitDirectory billy.Filesystem
	worktree     *git.Worktree

	// fileModeTrusted mirrors core.filemode; when false, executable bit flips are not changes.
	fileModeTrusted bool

	statusGuard sync.Once
	status      git.Status
	statusError error
}

func newRepository(openedRepository *git.Repository) *Repository {
	repository := &Repository{repository: openedRepository, fileModeTrusted: fileModeTrusted(openedRepository)}

	if storage, isFilesystemStorage := openedRepository.Storer.(*filesystem.Storage); isFilesystemStorage {
		repository.gitDirectory = storage.Filesystem()
	}

	if worktree, worktreeError := openedRepository.Worktree(); worktreeError == nil {
		worktree.Excludes = append(worktree.Excludes, loadUserExcludes()...)
		repository.worktree = worktree
	}

	return repository
}

// WorkingDirectory returns the top-level directory the repository is checked out into.
func (repository *Repository) WorkingDirectory() (string, bool) {
	if repository == nil || repository.worktree == nil || repository.worktree.Filesystem == nil {
		return "", false
	}
	return repository.worktree.Filesystem.Root(), true
}

// State reports which multi-step operation, if any, is in progress.
func (repository *Repository) State() (RepositoryState, error) {
	if repository.gitDirectory == nil {
		return RepositoryStateClean, ErrGitDirectoryUnavailable
	}

	state, detectionError := DetectRepositoryState(repository.gitDirectory)
	if detectionError != nil {
		return RepositoryStateClean, fmt.Errorf(stateDetectionErrorTemplateConstant, detectionError)
	}
	return state, nil
}

// Head resolves the current HEAD reference.
func (repository *Repository) Head() (HeadReference, error) {
	headReference, headError := repository.repository.Head()
	if headError != nil {
		if errors.Is(headError, plumbing.ErrReferenceNotFound) {
			return HeadReference{}, ErrNoCommits
		}
		return HeadReference{}, fmt.Errorf(headResolutionErrorTemplateConstant, headError)
	}

	reference := HeadReference{CommitHash: headReference.Hash().String()}
	if headReference.Name().IsBranch() {
		reference.BranchName = headReference.Name().Short()
	}
	return reference, nil
}

// HasWorktreeChanges reports whether the working tree differs from the index for at least one tracked file.
func (repository *Repository) HasWorktreeChanges() (bool, error) {
	status, statusError := repository.worktreeStatus()
	if statusError != nil {
		return false, statusError
	}

	var stagedIndex *index.Index
	for filePath, fileStatus := range status {
		switch fileStatus.Worktree {
		case git.Unmodified, git.Untracked:
			continue
		case git.Modified:
			if repository.fileModeTrusted {
				return true, nil
			}
			if stagedIndex == nil {
				loadedIndex, indexError := repository.repository.Storer.Index()
				if indexError != nil {
					return false, fmt.Errorf(indexReadErrorTemplateConstant, indexError)
				}
				stagedIndex = loadedIndex
			}
			if !repository.contentMatchesIndex(stagedIndex, filePath) {
				return true, nil
			}
		default:
			return true, nil
		}
	}
	return false, nil
}

// contentMatchesIndex reports whether the worktree file hashes to the blob recorded in the index, ignoring mode.
func (repository *Repository) contentMatchesIndex(stagedIndex *index.Index, filePath string) bool {
	entry, entryError := stagedIndex.Entry(filePath)
	if entryError != nil || entry.Mode == filemode.Symlink {
		return false
	}

	content, readError := util.ReadFile(repository.worktree.Filesystem, filePath)
	if readError != nil {
		return false
	}
	return plumbing.ComputeHash(plumbing.BlobObject, content) == entry.Hash
}

// HasUntrackedFiles reports whether the working tree holds files unknown to the index.
func (repository *Repository) HasUntrackedFiles() (bool, error) {
	status, statusError := repository.worktreeStatus()
	if statusError != nil {
		return false, statusError
	}

	for _, fileStatus := range status {
		if fileStatus.Worktree == git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

func (repository *Repository) worktreeStatus() (git.Status, error) {
	if repository.worktree == nil {
		return nil, ErrBareRepository
	}

	repository.statusGuard.Do(func() {
		status, statusError := repository.worktree.Status()
		if statusError != nil {
			repository.statusError = fmt.Errorf(worktreeStatusErrorTemplateConstant, statusError)
			return
		}
		repository.status = status
	})
	return repository.status, repository.statusError
}

func fileModeTrusted(openedRepository *git.Repository) bool {
	repositoryConfiguration, configurationError := openedRepository.Config()
	if configurationError != nil || repositoryConfiguration.Raw == nil {
		return true
	}

	coreSection := repositoryConfiguration.Raw.Section(coreSectionNameConstant)
	if !coreSection.HasOption(fileModeOptionNameConstant) {
		return true
	}

	switch strings.ToLower(strings.TrimSpace(coreSection.Option(fileModeOptionNameConstant))) {
	case "false", "no", "off", "0":
		return false
	default:
		return true
	}
}
