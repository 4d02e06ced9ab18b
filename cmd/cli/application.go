package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/gitprompt/internal/prompt"
	"github.com/temirov/gitprompt/internal/utils"
)

const (
	applicationNameConstant                 = "gitprompt"
	applicationShortDescriptionConstant     = "Print a zsh prompt segment describing the current directory and Git status"
	applicationLongDescriptionConstant      = "gitprompt prints the current directory label and a colored Git status label using zsh prompt markup. It never fails visibly and always exits successfully."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "GITPROMPT"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationEmbeddedFieldConstant      = "embedded_configuration"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	workingDirectoryErrorTemplateConstant   = "unable to determine working directory: %w"
	promptServiceErrorTemplateConstant      = "unable to construct prompt service: %w"
	promptWriteErrorTemplateConstant        = "unable to write prompt: %w"
	promptRenderedMessageConstant           = "prompt rendered"
	logFieldWorkingDirectoryConstant        = "working_directory"
	logFieldIgnoredArgumentCountConstant    = "ignored_argument_count"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	workingDirectoryResolverMissingConstant = "working directory resolver not configured"
)

// ErrWorkingDirectoryResolverNotConfigured indicates the application was built without a working directory source.
var ErrWorkingDirectoryResolverNotConfigured = errors.New(workingDirectoryResolverMissingConstant)

// ApplicationConfiguration describes the configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// WorkingDirectoryResolver reports the directory the prompt describes.
type WorkingDirectoryResolver func() (string, error)

// ApplicationDependencies enumerates the collaborators an Application may override.
type ApplicationDependencies struct {
	Locator                  prompt.RepositoryLocator
	WorkingDirectoryResolver WorkingDirectoryResolver
	OutputWriter             io.Writer
	Arguments                []string
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand              *cobra.Command
	configurationLoader      *utils.ConfigurationLoader
	loggerFactory            *utils.LoggerFactory
	logger                   *zap.Logger
	configuration            ApplicationConfiguration
	configurationMetadata    utils.LoadedConfiguration
	configurationError       error
	locator                  prompt.RepositoryLocator
	workingDirectoryResolver WorkingDirectoryResolver
}

// NewApplication assembles a CLI application backed by go-git discovery and the process working directory.
func NewApplication() *Application {
	return NewApplicationWithDependencies(ApplicationDependencies{})
}

// NewApplicationWithDependencies assembles a CLI application, substituting defaults for unset dependencies.
func NewApplicationWithDependencies(dependencies ApplicationDependencies) *Application {
	configurationLoader := utils.NewConfigurationLoader(configurationTypeConstant, environmentPrefixConstant)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:      configurationLoader,
		loggerFactory:            utils.NewLoggerFactory(),
		logger:                   zap.NewNop(),
		locator:                  dependencies.Locator,
		workingDirectoryResolver: dependencies.WorkingDirectoryResolver,
	}
	if application.locator == nil {
		application.locator = prompt.NewGitRepositoryLocator()
	}
	if application.workingDirectoryResolver == nil {
		application.workingDirectoryResolver = os.Getwd
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			application.initializeConfiguration()
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}
	cobraCommand.CompletionOptions.DisableDefaultCmd = true
	cobraCommand.SetContext(context.Background())

	if dependencies.OutputWriter != nil {
		cobraCommand.SetOut(dependencies.OutputWriter)
	}
	if dependencies.Arguments != nil {
		cobraCommand.SetArgs(dependencies.Arguments)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command and flushes the logger.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// ConfigurationError reports why configuration could not be applied, if it could not.
func (application *Application) ConfigurationError() error {
	return application.configurationError
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	return NewApplication().Execute()
}

// initializeConfiguration never fails the command: a bad configuration only disables logging.
func (application *Application) initializeConfiguration() {
	application.configurationError = nil
	application.logger = zap.NewNop()

	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelNone),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(defaultValues, &application.configuration)
	if loadError != nil {
		application.configurationError = fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
		return
	}
	application.configurationMetadata = loadedConfiguration

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		application.configurationError = fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
		return
	}

	application.logger = logger
	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.Bool(configurationEmbeddedFieldConstant, application.configurationMetadata.EmbeddedConfigurationUsed),
	)
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}
	if application.workingDirectoryResolver == nil {
		return ErrWorkingDirectoryResolverNotConfigured
	}

	workingDirectory, workingDirectoryError := application.workingDirectoryResolver()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}

	service, serviceError := prompt.NewService(prompt.ServiceDependencies{
		Locator: application.locator,
		Logger:  application.logger,
	})
	if serviceError != nil {
		return fmt.Errorf(promptServiceErrorTemplateConstant, serviceError)
	}

	if writeError := service.Write(command.OutOrStdout(), workingDirectory); writeError != nil {
		return fmt.Errorf(promptWriteErrorTemplateConstant, writeError)
	}

	application.logger.Debug(
		promptRenderedMessageConstant,
		zap.String(logFieldWorkingDirectoryConstant, workingDirectory),
		zap.Int(logFieldIgnoredArgumentCountConstant, len(arguments)),
	)

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}
