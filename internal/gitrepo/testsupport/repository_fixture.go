package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

const (
	fixtureAuthorNameConstant        = "Prompt Fixture"
	fixtureAuthorEmailConstant       = "fixture@example.com"
	fixtureDirectoryPermissions      = 0o755
	fixtureFilePermissions           = 0o644
	gitMetadataDirectoryNameConstant = ".git"
	homeEnvironmentConstant          = "HOME"
	xdgConfigHomeEnvironmentConstant = "XDG_CONFIG_HOME"
	xdgConfigHomeDirectoryConstant   = ".config"
)

var fixtureCommitTime = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

// RepositoryFixture builds on-disk repositories for tests through go-git.
type RepositoryFixture struct {
	Root       string
	Repository *git.Repository

	testInstance testing.TB
}

// NewRepositoryFixture initializes a non-bare repository at parentDirectory/name whose unborn HEAD points at branchName.
func NewRepositoryFixture(testInstance testing.TB, parentDirectory string, name string, branchName string) *RepositoryFixture {
	testInstance.Helper()

	repositoryRoot := filepath.Join(parentDirectory, name)
	require.NoError(testInstance, os.MkdirAll(repositoryRoot, fixtureDirectoryPermissions))

	repository, initError := git.PlainInitWithOptions(repositoryRoot, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(branchName)},
		Bare:        false,
	})
	require.NoError(testInstance, initError)

	return &RepositoryFixture{Root: repositoryRoot, Repository: repository, testInstance: testInstance}
}

// Path joins relative segments onto the repository root.
func (fixture *RepositoryFixture) Path(segments ...string) string {
	return filepath.Join(append([]string{fixture.Root}, segments...)...)
}

// MakeDirectory creates a directory below the repository root and returns its absolute path.
func (fixture *RepositoryFixture) MakeDirectory(relativePath string) string {
	fixture.testInstance.Helper()

	directoryPath := fixture.Path(relativePath)
	require.NoError(fixture.testInstance, os.MkdirAll(directoryPath, fixtureDirectoryPermissions))
	return directoryPath
}

// WriteFile writes content to a file below the repository root.
func (fixture *RepositoryFixture) WriteFile(relativePath string, content string) {
	fixture.testInstance.Helper()

	filePath := fixture.Path(relativePath)
	require.NoError(fixture.testInstance, os.MkdirAll(filepath.Dir(filePath), fixtureDirectoryPermissions))
	require.NoError(fixture.testInstance, os.WriteFile(filePath, []byte(content), fixtureFilePermissions))
}

// Commit stages the provided paths and records a commit.
func (fixture *RepositoryFixture) Commit(message string, relativePaths ...string) plumbing.Hash {
	fixture.testInstance.Helper()

	worktree, worktreeError := fixture.Repository.Worktree()
	require.NoError(fixture.testInstance, worktreeError)

	for _, relativePath := range relativePaths {
		_, addError := worktree.Add(filepath.ToSlash(relativePath))
		require.NoError(fixture.testInstance, addError)
	}

	commitHash, commitError := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: fixtureAuthorNameConstant, Email: fixtureAuthorEmailConstant, When: fixtureCommitTime},
	})
	require.NoError(fixture.testInstance, commitError)
	return commitHash
}

// Stage adds the provided paths to the index without committing.
func (fixture *RepositoryFixture) Stage(relativePaths ...string) {
	fixture.testInstance.Helper()

	worktree, worktreeError := fixture.Repository.Worktree()
	require.NoError(fixture.testInstance, worktreeError)

	for _, relativePath := range relativePaths {
		_, addError := worktree.Add(filepath.ToSlash(relativePath))
		require.NoError(fixture.testInstance, addError)
	}
}

// DetachHead checks out the provided commit directly, leaving HEAD detached.
func (fixture *RepositoryFixture) DetachHead(commitHash plumbing.Hash) {
	fixture.testInstance.Helper()

	worktree, worktreeError := fixture.Repository.Worktree()
	require.NoError(fixture.testInstance, worktreeError)
	require.NoError(fixture.testInstance, worktree.Checkout(&git.CheckoutOptions{Hash: commitHash}))
}

// WriteMetadataFile writes a file inside the .git directory, creating parents as needed.
func (fixture *RepositoryFixture) WriteMetadataFile(relativePath string, content string) {
	fixture.testInstance.Helper()

	filePath := fixture.Path(gitMetadataDirectoryNameConstant, relativePath)
	require.NoError(fixture.testInstance, os.MkdirAll(filepath.Dir(filePath), fixtureDirectoryPermissions))
	require.NoError(fixture.testInstance, os.WriteFile(filePath, []byte(content), fixtureFilePermissions))
}

// MakeMetadataDirectory creates a directory inside the .git directory.
func (fixture *RepositoryFixture) MakeMetadataDirectory(relativePath string) {
	fixture.testInstance.Helper()

	require.NoError(fixture.testInstance, os.MkdirAll(fixture.Path(gitMetadataDirectoryNameConstant, relativePath), fixtureDirectoryPermissions))
}

// SetConfigOption writes a repository-local configuration option.
func (fixture *RepositoryFixture) SetConfigOption(sectionName string, optionName string, value string) {
	fixture.testInstance.Helper()

	repositoryConfiguration, configurationError := fixture.Repository.Config()
	require.NoError(fixture.testInstance, configurationError)
	repositoryConfiguration.Raw.Section(sectionName).SetOption(optionName, value)
	require.NoError(fixture.testInstance, fixture.Repository.SetConfig(repositoryConfiguration))
}

// ChangeMode sets the permission bits of a file below the repository root.
func (fixture *RepositoryFixture) ChangeMode(relativePath string, mode os.FileMode) {
	fixture.testInstance.Helper()

	require.NoError(fixture.testInstance, os.Chmod(fixture.Path(relativePath), mode))
}

// IsolateUserConfiguration points HOME and XDG_CONFIG_HOME at fresh temporary
// directories so user-level git settings cannot leak into a test. It returns
// the home directory and the XDG configuration directory.
func IsolateUserConfiguration(testInstance testing.TB) (string, string) {
	testInstance.Helper()

	homeDirectory := testInstance.TempDir()
	configurationHome := filepath.Join(homeDirectory, xdgConfigHomeDirectoryConstant)
	require.NoError(testInstance, os.MkdirAll(configurationHome, fixtureDirectoryPermissions))

	testInstance.Setenv(homeEnvironmentConstant, homeDirectory)
	testInstance.Setenv(xdgConfigHomeEnvironmentConstant, configurationHome)
	return homeDirectory, configurationHome
}

// RequireOutsideRepository skips the test when directory is already enclosed by a repository.
func RequireOutsideRepository(testInstance testing.TB, directory string) {
	testInstance.Helper()

	_, openError := git.PlainOpenWithOptions(directory, &git.PlainOpenOptions{DetectDotGit: true})
	if openError == nil {
		testInstance.Skipf("temporary directory %s is enclosed by a git repository", directory)
	}
}
