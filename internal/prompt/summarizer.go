package prompt

import (
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/gitprompt/internal/gitrepo"
)

const (
	mergingLabelTextConstant         = "(merging)"
	revertingLabelTextConstant       = "(reverting)"
	cherryPickingLabelTextConstant   = "(cherry-picking)"
	bisectingLabelTextConstant       = "(bisecting)"
	rebasingLabelTextConstant        = "(rebasing)"
	mailboxApplyingLabelTextConstant = "(mailbox-applying)"
	noCommitsLabelTextConstant       = "(no commits yet)"
	notRepositoryLabelTextConstant   = "(not repo)"
	dirtyBranchSuffixConstant        = "*"

	stateReadFailedMessageConstant      = "repository state unavailable, assuming clean"
	headUnbornMessageConstant           = "repository has no commits"
	headResolutionFailedMessageConstant = "HEAD resolution failed, reporting no commits"
	worktreeDiffFailedMessageConstant   = "working tree diff failed, assuming no changes"
	untrackedScanFailedMessageConstant  = "untracked file scan failed, assuming none"
	repositorySummarizedMessageConstant = "repository summarized"
	logFieldRepositoryStateConstant     = "repository_state"
	logFieldBranchConstant              = "branch"
	logFieldDetachedConstant            = "detached"
	logFieldDirtyConstant               = "dirty"
)

// RepositoryInspector exposes the read-only queries needed to summarize a repository.
type RepositoryInspector interface {
	State() (gitrepo.RepositoryState, error)
	Head() (gitrepo.HeadReference, error)
	HasWorktreeChanges() (bool, error)
	HasUntrackedFiles() (bool, error)
}

var operationLabelTexts = map[gitrepo.RepositoryState]string{
	gitrepo.RepositoryStateMerge:                mergingLabelTextConstant,
	gitrepo.RepositoryStateRevert:               revertingLabelTextConstant,
	gitrepo.RepositoryStateRevertSequence:       revertingLabelTextConstant,
	gitrepo.RepositoryStateCherryPick:           cherryPickingLabelTextConstant,
	gitrepo.RepositoryStateCherryPickSequence:   cherryPickingLabelTextConstant,
	gitrepo.RepositoryStateBisect:               bisectingLabelTextConstant,
	gitrepo.RepositoryStateRebase:               rebasingLabelTextConstant,
	gitrepo.RepositoryStateRebaseInteractive:    rebasingLabelTextConstant,
	gitrepo.RepositoryStateRebaseMerge:          rebasingLabelTextConstant,
	gitrepo.RepositoryStateApplyMailbox:         mailboxApplyingLabelTextConstant,
	gitrepo.RepositoryStateApplyMailboxOrRebase: mailboxApplyingLabelTextConstant,
}

// OperationLabel returns the label for an in-progress operation. The boolean is false for a clean repository.
func OperationLabel(state gitrepo.RepositoryState) (StatusLabel, bool) {
	labelText, inProgress := operationLabelTexts[state]
	if !inProgress {
		return StatusLabel{}, false
	}
	return StatusLabel{Text: labelText, Color: ColorMagenta}, true
}

// NoCommitsLabel is shown for a repository whose HEAD is unborn.
func NoCommitsLabel() StatusLabel {
	return StatusLabel{Text: noCommitsLabelTextConstant, Color: ColorYellow}
}

// NotRepositoryLabel is shown outside of any repository.
func NotRepositoryLabel() StatusLabel {
	return StatusLabel{Text: notRepositoryLabelTextConstant, Bold: true, Color: ColorBlue}
}

// BranchLabel renders the branch or detached commit, red with a trailing marker when dirty.
func BranchLabel(headReference gitrepo.HeadReference, dirty bool) StatusLabel {
	labelText := headReference.BranchName
	if headReference.Detached() {
		labelText = headReference.CommitHash
	}

	if dirty {
		return StatusLabel{Text: labelText + dirtyBranchSuffixConstant, Color: ColorRed}
	}
	return StatusLabel{Text: labelText, Color: ColorBlue}
}

// Summarizer produces the status label for a repository.
type Summarizer struct {
	logger *zap.Logger
}

// NewSummarizer constructs a Summarizer; a nil logger disables diagnostics.
func NewSummarizer(logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{logger: logger}
}

// Summarize inspects the repository and returns its status label. Query failures never escape.
func (summarizer *Summarizer) Summarize(inspector RepositoryInspector) StatusLabel {
	state, stateError := inspector.State()
	if stateError != nil {
		summarizer.logger.Debug(stateReadFailedMessageConstant, zap.Error(stateError))
		state = gitrepo.RepositoryStateClean
	}

	if operationLabel, inProgress := OperationLabel(state); inProgress {
		summarizer.logger.Debug(repositorySummarizedMessageConstant, zap.String(logFieldRepositoryStateConstant, string(state)))
		return operationLabel
	}

	headReference, headError := inspector.Head()
	if headError != nil {
		if errors.Is(headError, gitrepo.ErrNoCommits) {
			summarizer.logger.Debug(headUnbornMessageConstant)
		} else {
			summarizer.logger.Debug(headResolutionFailedMessageConstant, zap.Error(headError))
		}
		return NoCommitsLabel()
	}

	dirty := summarizer.dirty(inspector)
	summarizer.logger.Debug(
		repositorySummarizedMessageConstant,
		zap.String(logFieldRepositoryStateConstant, string(state)),
		zap.String(logFieldBranchConstant, headReference.BranchName),
		zap.Bool(logFieldDetachedConstant, headReference.Detached()),
		zap.Bool(logFieldDirtyConstant, dirty),
	)

	return BranchLabel(headReference, dirty)
}

func (summarizer *Summarizer) dirty(inspector RepositoryInspector) bool {
	worktreeChanges, worktreeError := inspector.HasWorktreeChanges()
	if worktreeError != nil {
		summarizer.logger.Debug(worktreeDiffFailedMessageConstant, zap.Error(worktreeError))
		worktreeChanges = false
	}
	if worktreeChanges {
		return true
	}

	untrackedFiles, untrackedError := inspector.HasUntrackedFiles()
	if untrackedError != nil {
		summarizer.logger.Debug(untrackedScanFailedMessageConstant, zap.Error(untrackedError))
		return false
	}
	return untrackedFiles
}
