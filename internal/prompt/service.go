package prompt

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/gitprompt/internal/gitrepo"
)

const (
	repositoryLocatorMissingMessageConstant = "repository locator not configured"
	promptLineTemplateConstant              = "%s %s "
	repositoryNotFoundMessageConstant       = "no repository encloses the working directory"
	repositoryLocateFailedMessageConstant   = "repository discovery failed, treating directory as plain"
	repositoryLocatedMessageConstant        = "repository located"
	logFieldWorkingDirectoryConstant        = "working_directory"
	logFieldRepositoryRootConstant          = "repository_root"
)

// ErrRepositoryLocatorNotConfigured indicates the locator dependency was missing.
var ErrRepositoryLocatorNotConfigured = errors.New(repositoryLocatorMissingMessageConstant)

// Repository is the view of a discovered repository the prompt needs.
type Repository interface {
	RepositoryInspector
	WorkingDirectoryProvider
}

// RepositoryLocator discovers the repository enclosing a directory.
type RepositoryLocator interface {
	Locate(startDirectory string) (Repository, error)
}

// GitRepositoryLocator adapts gitrepo.RepositoryLocator to RepositoryLocator.
type GitRepositoryLocator struct {
	locator *gitrepo.RepositoryLocator
}

// NewGitRepositoryLocator constructs a RepositoryLocator backed by go-git discovery.
func NewGitRepositoryLocator() *GitRepositoryLocator {
	return &GitRepositoryLocator{locator: gitrepo.NewRepositoryLocator()}
}

// Locate opens the repository enclosing startDirectory.
func (locator *GitRepositoryLocator) Locate(startDirectory string) (Repository, error) {
	repository, locateError := locator.locator.Locate(startDirectory)
	if locateError != nil {
		return nil, locateError
	}
	return repository, nil
}

// ServiceDependencies enumerates collaborators required by the service.
type ServiceDependencies struct {
	Locator RepositoryLocator
	Logger  *zap.Logger
}

// Line is the rendered prompt: a directory label followed by a status label.
type Line struct {
	DirectoryLabel string
	Status         StatusLabel
}

// String formats the line as "<directory> <status> ".
func (line Line) String() string {
	return fmt.Sprintf(promptLineTemplateConstant, line.DirectoryLabel, line.Status.Render())
}

// Service produces prompt lines for directories.
type Service struct {
	locator    RepositoryLocator
	summarizer *Summarizer
	logger     *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Locator == nil {
		return nil, ErrRepositoryLocatorNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		locator:    dependencies.Locator,
		summarizer: NewSummarizer(logger),
		logger:     logger,
	}, nil
}

// Describe builds the prompt line for workingDirectory. Discovery failures yield the not-a-repository label.
func (service *Service) Describe(workingDirectory string) Line {
	directoryContext := DirectoryContext{Path: workingDirectory}

	repository, locateError := service.locator.Locate(workingDirectory)
	if locateError != nil {
		if errors.Is(locateError, gitrepo.ErrRepositoryNotFound) {
			service.logger.Debug(repositoryNotFoundMessageConstant, zap.String(logFieldWorkingDirectoryConstant, workingDirectory))
		} else {
			service.logger.Debug(repositoryLocateFailedMessageConstant, zap.String(logFieldWorkingDirectoryConstant, workingDirectory), zap.Error(locateError))
		}
		return Line{DirectoryLabel: directoryContext.Label(), Status: NotRepositoryLabel()}
	}

	directoryContext.Repository = repository
	repositoryRoot, _ := repository.WorkingDirectory()
	service.logger.Debug(
		repositoryLocatedMessageConstant,
		zap.String(logFieldWorkingDirectoryConstant, workingDirectory),
		zap.String(logFieldRepositoryRootConstant, repositoryRoot),
	)

	return Line{DirectoryLabel: directoryContext.Label(), Status: service.summarizer.Summarize(repository)}
}

// Write renders the prompt line for workingDirectory followed by a newline.
func (service *Service) Write(outputWriter io.Writer, workingDirectory string) error {
	_, writeError := fmt.Fprintln(outputWriter, service.Describe(workingDirectory).String())
	return writeError
}
