// Package cli provides the dsbulk command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driving"
	"github.com/custodia-labs/dsbulk/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// GlobalOptions are the persistent flags every command shares.
type GlobalOptions struct {
	// ConfigDir overrides the configuration directory (~/.dsbulk).
	ConfigDir string

	// Verbose enables diagnostic logging to stderr.
	Verbose bool
}

// UploadRequest describes one upload run after its flags were validated.
type UploadRequest struct {
	// Instance names the connection profile; empty selects the default.
	Instance string

	// JobID names the run and its checkpoint and report files.
	JobID string

	// WorkDir is where the checkpoint and report files are written.
	WorkDir string

	// NoHistory disables the persistent run history.
	NoHistory bool
}

// UploadSession is the wired orchestrator for one run.
type UploadSession struct {
	Orchestrator driving.UploadOrchestrator

	// ReportPath is the error report log, if one is kept.
	ReportPath string

	// Close releases the session's resources.
	Close func() error
}

// UploadSessionFactory builds the orchestrator for one run.
type UploadSessionFactory func(ctx context.Context, req UploadRequest) (*UploadSession, error)

// Services holds everything the commands call into.
type Services struct {
	Profiles driving.ProfileService
	History  driving.RunHistoryService
	Prefixes driving.PrefixService

	// NewUploadSession wires an orchestrator per upload run.
	NewUploadSession UploadSessionFactory

	// ReadItems reads a newline-separated work item file.
	ReadItems func(path string) ([]domain.WorkItem, error)

	// LoadCoordinates reads an S3 credentials file.
	LoadCoordinates func(path string) (*domain.S3Coordinates, error)

	// Close releases shared resources after the command ran.
	Close func() error
}

// Bootstrap builds the services once global flags are parsed.
type Bootstrap func(opts GlobalOptions) (*Services, error)

// Service instances, set by SetServices or the bootstrap.
var (
	profileService   driving.ProfileService
	historyService   driving.RunHistoryService
	prefixService    driving.PrefixService
	newUploadSession UploadSessionFactory
	readItems        func(path string) ([]domain.WorkItem, error)
	loadCoordinates  func(path string) (*domain.S3Coordinates, error)
	closeServices    func() error
)

var (
	bootstrap  Bootstrap
	globalOpts GlobalOptions
)

// skipBootstrap marks commands that need no services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "dsbulk",
	Short: "Bulk upload documents to a document-conversion service",
	Long: `dsbulk submits lists of file URLs or S3 key-prefixes to a document
conversion service in batches, tracks every task until it completes and keeps
a resumable checkpoint of the work that is still pending.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigDir, "config-dir", "",
		"configuration directory (default ~/.dsbulk)")
}

// SetBootstrap registers the function that wires services at startup.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	profileService = s.Profiles
	historyService = s.History
	prefixService = s.Prefixes
	newUploadSession = s.NewUploadSession
	readItems = s.ReadItems
	loadCoordinates = s.LoadCoordinates
	closeServices = s.Close
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeErr := shutdownServices(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(globalOpts.Verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if cmd.Annotations[skipBootstrap] != "" || bootstrap == nil {
		return nil
	}

	services, err := bootstrap(globalOpts)
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

func shutdownServices() error {
	if closeServices == nil {
		return nil
	}
	closer := closeServices
	closeServices = nil
	return closer()
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrInvalidInput):
		return 2
	default:
		return 1
	}
}
