package gitrepo_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitprompt/internal/gitrepo"
	"github.com/temirov/gitprompt/internal/gitrepo/testsupport"
)

const (
	testRepositoryNameConstant    = "repo"
	testBranchNameConstant        = "main"
	testFeatureBranchNameConstant = "feature/prompt"
	testTrackedFileNameConstant   = "README.md"
	testUntrackedFileNameConstant = "notes.txt"
	testInitialContentConstant    = "initial\n"
	testModifiedContentConstant   = "modified\n"
	testCommitMessageConstant     = "initial commit"
	testNestedDirectoryConstant   = "sub/dir"
	testScriptFileNameConstant    = "a.sh"
	testScriptContentConstant     = "#!/bin/sh\necho prompt\n"
	testGloballyIgnoredConstant   = ".DS_Store"
	testSubtestNameTemplate       = "%d_%s"
)

func TestRepositoryLocatorLocate(testInstance *testing.T) {
	testInstance.Run("discoversFromRepositoryRoot", func(testInstance *testing.T) {
		fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)

		repository, locateError := gitrepo.NewRepositoryLocator().Locate(fixture.Root)
		require.NoError(testInstance, locateError)

		workingDirectory, hasWorkingDirectory := repository.WorkingDirectory()
		require.True(testInstance, hasWorkingDirectory)
		require.Equal(testInstance, filepath.Clean(fixture.Root), filepath.Clean(workingDirectory))
	})

	testInstance.Run("discoversFromNestedDirectory", func(testInstance *testing.T) {
		fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)
		nestedDirectory := fixture.MakeDirectory(testNestedDirectoryConstant)

		repository, locateError := gitrepo.NewRepositoryLocator().Locate(nestedDirectory)
		require.NoError(testInstance, locateError)

		workingDirectory, hasWorkingDirectory := repository.WorkingDirectory()
		require.True(testInstance, hasWorkingDirectory)
		require.Equal(testInstance, filepath.Clean(fixture.Root), filepath.Clean(workingDirectory))
	})

	testInstance.Run("reportsMissingRepository", func(testInstance *testing.T) {
		plainDirectory := testInstance.TempDir()
		testsupport.RequireOutsideRepository(testInstance, plainDirectory)

		repository, locateError := gitrepo.NewRepositoryLocator().Locate(plainDirectory)
		require.ErrorIs(testInstance, locateError, gitrepo.ErrRepositoryNotFound)
		require.Nil(testInstance, repository)
	})

	testInstance.Run("rejectsEmptyStartDirectory", func(testInstance *testing.T) {
		_, locateError := gitrepo.NewRepositoryLocator().Locate("")
		require.ErrorIs(testInstance, locateError, gitrepo.ErrStartDirectoryRequired)
	})
}

func TestRepositoryHead(testInstance *testing.T) {
	testInstance.Run("unbornBranch", func(testInstance *testing.T) {
		fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)
		repository := locateRepository(testInstance, fixture.Root)

		_, headError := repository.Head()
		require.ErrorIs(testInstance, headError, gitrepo.ErrNoCommits)
	})

	testInstance.Run("namedBranch", func(testInstance *testing.T) {
		fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testFeatureBranchNameConstant)
		fixture.WriteFile(testTrackedFileNameConstant, testInitialContentConstant)
		commitHash := fixture.Commit(testCommitMessageConstant, testTrackedFileNameConstant)
		repository := locateRepository(testInstance, fixture.Root)

		headReference, headError := repository.Head()
		require.NoError(testInstance, headError)
		require.False(testInstance, headReference.Detached())
		require.Equal(testInstance, testFeatureBranchNameConstant, headReference.BranchName)
		require.Equal(testInstance, commitHash.String(), headReference.CommitHash)
	})

	testInstance.Run("detachedHead", func(testInstance *testing.T) {
		fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)
		fixture.WriteFile(testTrackedFileNameConstant, testInitialContentConstant)
		commitHash := fixture.Commit(testCommitMessageConstant, testTrackedFileNameConstant)
		fixture.DetachHead(commitHash)
		repository := locateRepository(testInstance, fixture.Root)

		headReference, headError := repository.Head()
		require.NoError(testInstance, headError)
		require.True(testInstance, headReference.Detached())
		require.Equal(testInstance, commitHash.String(), headReference.CommitHash)
	})
}

func TestRepositoryWorktreeInspection(testInstance *testing.T) {
	testCases := []struct {
		name                    string
		prepare                 func(fixture *testsupport.RepositoryFixture)
		expectedWorktreeChanges bool
		expectedUntrackedFiles  bool
	}{
		{
			name:    "clean",
			prepare: func(fixture *testsupport.RepositoryFixture) {},
		},
		{
			name: "modifiedTrackedFile",
			prepare: func(fixture *testsupport.RepositoryFixture) {
				fixture.WriteFile(testTrackedFileNameConstant, testModifiedContentConstant)
			},
			expectedWorktreeChanges: true,
		},
		{
			name: "untrackedFileOnly",
			prepare: func(fixture *testsupport.RepositoryFixture) {
				fixture.WriteFile(testUntrackedFileNameConstant, testInitialContentConstant)
			},
			expectedUntrackedFiles: true,
		},
		{
			name: "stagedModificationOnly",
			prepare: func(fixture *testsupport.RepositoryFixture) {
				fixture.WriteFile(testTrackedFileNameConstant, testModifiedContentConstant)
				fixture.Stage(testTrackedFileNameConstant)
			},
		},
		{
			name: "ignoredFileOnly",
			prepare: func(fixture *testsupport.RepositoryFixture) {
				fixture.WriteFile(".gitignore", testUntrackedFileNameConstant+"\n")
				fixture.Commit("ignore notes", ".gitignore")
				fixture.WriteFile(testUntrackedFileNameConstant, testInitialContentConstant)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			testsupport.IsolateUserConfiguration(testInstance)
			fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)
			fixture.WriteFile(testTrackedFileNameConstant, testInitialContentConstant)
			fixture.Commit(testCommitMessageConstant, testTrackedFileNameConstant)
			testCase.prepare(fixture)

			repository := locateRepository(testInstance, fixture.Root)

			worktreeChanges, worktreeError := repository.HasWorktreeChanges()
			require.NoError(testInstance, worktreeError)
			require.Equal(testInstance, testCase.expectedWorktreeChanges, worktreeChanges)

			untrackedFiles, untrackedError := repository.HasUntrackedFiles()
			require.NoError(testInstance, untrackedError)
			require.Equal(testInstance, testCase.expectedUntrackedFiles, untrackedFiles)
		})
	}
}

func TestRepositoryHonorsUserExcludes(testInstance *testing.T) {
	testCases := []struct {
		name                   string
		configure              func(testInstance *testing.T, homeDirectory string, configurationHome string)
		expectedUntrackedFiles bool
	}{
		{
			name:                   "no_user_excludes",
			configure:              func(*testing.T, string, string) {},
			expectedUntrackedFiles: true,
		},
		{
			name: "core_excludesfile",
			configure: func(testInstance *testing.T, homeDirectory string, configurationHome string) {
				excludesPath := filepath.Join(homeDirectory, "global_ignore")
				writeUserFile(testInstance, excludesPath, "# editor droppings\n"+testGloballyIgnoredConstant+"\n")
				writeUserFile(testInstance, filepath.Join(homeDirectory, ".gitconfig"), "[core]\n\texcludesfile = "+excludesPath+"\n")
			},
		},
		{
			name: "xdg_default_ignore",
			configure: func(testInstance *testing.T, homeDirectory string, configurationHome string) {
				writeUserFile(testInstance, filepath.Join(configurationHome, "git", "ignore"), testGloballyIgnoredConstant+"\n")
			},
		},
		{
			name: "core_excludesfile_replaces_xdg_default",
			configure: func(testInstance *testing.T, homeDirectory string, configurationHome string) {
				excludesPath := filepath.Join(homeDirectory, "global_ignore")
				writeUserFile(testInstance, excludesPath, "*.log\n")
				writeUserFile(testInstance, filepath.Join(homeDirectory, ".gitconfig"), "[core]\n\texcludesfile = "+excludesPath+"\n")
				writeUserFile(testInstance, filepath.Join(configurationHome, "git", "ignore"), testGloballyIgnoredConstant+"\n")
			},
			expectedUntrackedFiles: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			homeDirectory, configurationHome := testsupport.IsolateUserConfiguration(testInstance)
			testCase.configure(testInstance, homeDirectory, configurationHome)

			fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)
			fixture.WriteFile(testTrackedFileNameConstant, testInitialContentConstant)
			fixture.Commit(testCommitMessageConstant, testTrackedFileNameConstant)
			fixture.WriteFile(testGloballyIgnoredConstant, testInitialContentConstant)

			untrackedFiles, untrackedError := locateRepository(testInstance, fixture.Root).HasUntrackedFiles()
			require.NoError(testInstance, untrackedError)
			require.Equal(testInstance, testCase.expectedUntrackedFiles, untrackedFiles)
		})
	}
}

func TestRepositoryHonorsCoreFileMode(testInstance *testing.T) {
	testCases := []struct {
		name                    string
		fileModeValue           string
		modifyContent           bool
		expectedWorktreeChanges bool
	}{
		{name: "mode_change_with_filemode_unset", expectedWorktreeChanges: true},
		{name: "mode_change_with_filemode_true", fileModeValue: "true", expectedWorktreeChanges: true},
		{name: "mode_change_with_filemode_false", fileModeValue: "false"},
		{name: "mode_change_with_filemode_no", fileModeValue: "no"},
		{name: "content_change_with_filemode_false", fileModeValue: "false", modifyContent: true, expectedWorktreeChanges: true},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			testsupport.IsolateUserConfiguration(testInstance)
			fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)
			fixture.WriteFile(testScriptFileNameConstant, testScriptContentConstant)
			fixture.Commit(testCommitMessageConstant, testScriptFileNameConstant)
			if len(testCase.fileModeValue) > 0 {
				fixture.SetConfigOption("core", "filemode", testCase.fileModeValue)
			}
			if testCase.modifyContent {
				fixture.WriteFile(testScriptFileNameConstant, testModifiedContentConstant)
			}
			fixture.ChangeMode(testScriptFileNameConstant, 0o755)

			worktreeChanges, worktreeError := locateRepository(testInstance, fixture.Root).HasWorktreeChanges()
			require.NoError(testInstance, worktreeError)
			require.Equal(testInstance, testCase.expectedWorktreeChanges, worktreeChanges)
		})
	}
}

func writeUserFile(testInstance *testing.T, filePath string, content string) {
	testInstance.Helper()

	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o644))
}

func TestRepositoryState(testInstance *testing.T) {
	fixture := testsupport.NewRepositoryFixture(testInstance, testInstance.TempDir(), testRepositoryNameConstant, testBranchNameConstant)
	fixture.WriteFile(testTrackedFileNameConstant, testInitialContentConstant)
	fixture.Commit(testCommitMessageConstant, testTrackedFileNameConstant)

	repository := locateRepository(testInstance, fixture.Root)
	state, stateError := repository.State()
	require.NoError(testInstance, stateError)
	require.Equal(testInstance, gitrepo.RepositoryStateClean, state)

	fixture.MakeMetadataDirectory("rebase-merge")
	fixture.WriteMetadataFile("rebase-merge/interactive", "")

	state, stateError = repository.State()
	require.NoError(testInstance, stateError)
	require.Equal(testInstance, gitrepo.RepositoryStateRebaseInteractive, state)
}

func locateRepository(testInstance *testing.T, directory string) *gitrepo.Repository {
	testInstance.Helper()

	repository, locateError := gitrepo.NewRepositoryLocator().Locate(directory)
	require.NoError(testInstance, locateError)
	return repository
}
