package gitrepo

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/go-git/go-billy/v5"
)

const (
	rebaseMergeDirectoryNameConstant      = "rebase-merge"
	rebaseApplyDirectoryNameConstant      = "rebase-apply"
	interactiveMarkerNameConstant         = "interactive"
	rebasingMarkerNameConstant            = "rebasing"
	applyingMarkerNameConstant            = "applying"
	mergeHeadFileNameConstant             = "MERGE_HEAD"
	revertHeadFileNameConstant            = "REVERT_HEAD"
	cherryPickHeadFileNameConstant        = "CHERRY_PICK_HEAD"
	bisectLogFileNameConstant             = "BISECT_LOG"
	sequencerTodoFilePathConstant         = "sequencer/todo"
	stateMarkerInspectionTemplateConstant = "unable to inspect %s: %w"
)

// RepositoryState enumerates the operations a repository may be in the middle of.
type RepositoryState string

// Repository states reported by State.
const (
	RepositoryStateClean                RepositoryState = RepositoryState("clean")
	RepositoryStateMerge                RepositoryState = RepositoryState("merge")
	RepositoryStateRevert               RepositoryState = RepositoryState("revert")
	RepositoryStateRevertSequence       RepositoryState = RepositoryState("revert-sequence")
	RepositoryStateCherryPick           RepositoryState = RepositoryState("cherry-pick")
	RepositoryStateCherryPickSequence   RepositoryState = RepositoryState("cherry-pick-sequence")
	RepositoryStateBisect               RepositoryState = RepositoryState("bisect")
	RepositoryStateRebase               RepositoryState = RepositoryState("rebase")
	RepositoryStateRebaseInteractive    RepositoryState = RepositoryState("rebase-interactive")
	RepositoryStateRebaseMerge          RepositoryState = RepositoryState("rebase-merge")
	RepositoryStateApplyMailbox         RepositoryState = RepositoryState("apply-mailbox")
	RepositoryStateApplyMailboxOrRebase RepositoryState = RepositoryState("apply-mailbox-or-rebase")
)

type stateMarkerKind int

const (
	stateMarkerFile stateMarkerKind = iota
	stateMarkerDirectory
)

type stateMarker struct {
	markerPath     string
	kind           stateMarkerKind
	state          RepositoryState
	sequencedState RepositoryState
}

// Order matters: the first marker present in the git directory wins.
var stateMarkers = []stateMarker{
	{markerPath: path.Join(rebaseMergeDirectoryNameConstant, interactiveMarkerNameConstant), kind: stateMarkerFile, state: RepositoryStateRebaseInteractive},
	{markerPath: rebaseMergeDirectoryNameConstant, kind: stateMarkerDirectory, state: RepositoryStateRebaseMerge},
	{markerPath: path.Join(rebaseApplyDirectoryNameConstant, rebasingMarkerNameConstant), kind: stateMarkerFile, state: RepositoryStateRebase},
	{markerPath: path.Join(rebaseApplyDirectoryNameConstant, applyingMarkerNameConstant), kind: stateMarkerFile, state: RepositoryStateApplyMailbox},
	{markerPath: rebaseApplyDirectoryNameConstant, kind: stateMarkerDirectory, state: RepositoryStateApplyMailboxOrRebase},
	{markerPath: mergeHeadFileNameConstant, kind: stateMarkerFile, state: RepositoryStateMerge},
	{markerPath: revertHeadFileNameConstant, kind: stateMarkerFile, state: RepositoryStateRevert, sequencedState: RepositoryStateRevertSequence},
	{markerPath: cherryPickHeadFileNameConstant, kind: stateMarkerFile, state: RepositoryStateCherryPick, sequencedState: RepositoryStateCherryPickSequence},
	{markerPath: bisectLogFileNameConstant, kind: stateMarkerFile, state: RepositoryStateBisect},
}

// DetectRepositoryState reports the in-progress operation recorded in the provided git directory.
func DetectRepositoryState(gitDirectory billy.Filesystem) (RepositoryState, error) {
	for _, marker := range stateMarkers {
		present, inspectionError := markerPresent(gitDirectory, marker.markerPath, marker.kind)
		if inspectionError != nil {
			return RepositoryStateClean, inspectionError
		}
		if !present {
			continue
		}

		if len(marker.sequencedState) == 0 {
			return marker.state, nil
		}

		sequenced, sequencerError := markerPresent(gitDirectory, sequencerTodoFilePathConstant, stateMarkerFile)
		if sequencerError != nil {
			return marker.state, sequencerError
		}
		if sequenced {
			return marker.sequencedState, nil
		}
		return marker.state, nil
	}

	return RepositoryStateClean, nil
}

func markerPresent(gitDirectory billy.Filesystem, markerPath string, kind stateMarkerKind) (bool, error) {
	fileInfo, statError := gitDirectory.Stat(markerPath)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(stateMarkerInspectionTemplateConstant, markerPath, statError)
	}

	switch kind {
	case stateMarkerDirectory:
		return fileInfo.IsDir(), nil
	default:
		return fileInfo.Mode().IsRegular(), nil
	}
}
