package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/dsbulk/internal/core/domain"
)

// uploadOptions are the upload command's flags.
type uploadOptions struct {
	inputType      string
	inputFile      string
	s3Credentials  string
	batchSize      int
	concurrency    int
	instance       string
	projectKey     string
	collectionKey  string
	resumePoint    string
	pollInterval   time.Duration
	maxPollRetries int
	workDir        string
	noHistory      bool
}

var uploadOpts uploadOptions

// notifySignals delivers termination signals; replaced in tests.
var notifySignals = func(c chan<- os.Signal) func() {
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	return func() { signal.Stop(c) }
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a list of URLs or S3 key-prefixes",
	Long: `Submits work items to a data collection in batches and waits for every
upload task to finish.

The items that are not yet confirmed are kept in a checkpoint file in the
work directory. Pass it back with --resume-point to continue an interrupted
or partly failed run. On SIGINT or SIGTERM the checkpoint is saved and the
command exits cleanly.

Examples:
  # Upload file URLs, six per task, five tasks at a time
  dsbulk upload -t URL -l url_list.txt -b 6 -n 5 -p PROJ -c COLL

  # Upload S3 key-prefixes appended to the coordinates in cos.json
  dsbulk upload -t S3 --s3-credentials cos.json -l prefixes.txt -p PROJ -c COLL

  # Resume a previous run
  dsbulk upload -r upload_resume_<job-id>.txt -p PROJ -c COLL`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

func init() {
	f := uploadCmd.Flags()
	f.StringVarP(&uploadOpts.inputType, "input-type", "t", domain.InputTypeURL.String(), "input type: URL or S3")
	f.StringVarP(&uploadOpts.inputFile, "input-file", "l", "", "file with one work item per line")
	f.StringVar(&uploadOpts.s3Credentials, "s3-credentials", "", "JSON file with S3 coordinates (S3 input)")
	f.IntVarP(&uploadOpts.batchSize, "batch-size", "b", 1, "work items per upload task")
	f.IntVarP(&uploadOpts.concurrency, "concurrency", "n", 5, "maximum upload tasks in flight")
	f.StringVarP(&uploadOpts.instance, "instance", "i", "", "connection profile (default: the default profile)")
	f.StringVarP(&uploadOpts.projectKey, "project-key", "p", "", "project key (required)")
	f.StringVarP(&uploadOpts.collectionKey, "collection-key", "c", "", "collection key (required)")
	f.StringVarP(&uploadOpts.resumePoint, "resume-point", "r", "", "checkpoint file of a previous run")
	f.DurationVar(&uploadOpts.pollInterval, "poll-interval", domain.DefaultPollInterval, "delay between task status queries")
	f.IntVar(&uploadOpts.maxPollRetries, "max-poll-retries", 0,
		"consecutive transient poll errors tolerated per task (0 = unlimited)")
	f.StringVar(&uploadOpts.workDir, "work-dir", ".", "directory for checkpoint and report files")
	f.BoolVar(&uploadOpts.noHistory, "no-history", false, "do not record the run in the history database")

	_ = uploadCmd.MarkFlagRequired("project-key")
	_ = uploadCmd.MarkFlagRequired("collection-key")

	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, _ []string) error {
	if newUploadSession == nil || readItems == nil {
		return errors.New("upload service not configured")
	}

	cfg, source, err := buildRunConfig(uploadOpts)
	if err != nil {
		return err
	}

	cmd.Printf("Reading elements from %s\n", source)
	items, err := readItems(source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}

	if cfg.InputType == domain.InputTypeS3 {
		if loadCoordinates == nil {
			return errors.New("s3 credentials loader not configured")
		}
		coords, err := loadCoordinates(uploadOpts.s3Credentials)
		if err != nil {
			return err
		}
		cfg.S3 = coords
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session, err := newUploadSession(ctx, UploadRequest{
		Instance:  uploadOpts.instance,
		JobID:     cfg.JobID,
		WorkDir:   uploadOpts.workDir,
		NoHistory: uploadOpts.noHistory,
	})
	if err != nil {
		return err
	}
	if session.Close != nil {
		defer session.Close() //nolint:errcheck // Best-effort cleanup
	}

	printer := newUploadPrinter(cmd, cfg)
	if session.ReportPath != "" {
		cmd.Printf("Errors are logged to %s\n", session.ReportPath)
	}

	signals := make(chan os.Signal, 1)
	stop := notifySignals(signals)
	defer stop()
	go func() {
		select {
		case <-signals:
			printer.println("Received termination signal. Saving current state...")
			cancel()
		case <-ctx.Done():
		}
	}()

	_, err = session.Orchestrator.Run(ctx, cfg, items, printer)
	if errors.Is(err, domain.ErrInterrupted) && printer.stateSaved() {
		return nil
	}
	return err
}

// buildRunConfig validates flags before anything touches the network.
// It returns the file the work items are read from.
func buildRunConfig(opts uploadOptions) (domain.RunConfig, string, error) {
	inputType, err := domain.ParseInputType(opts.inputType)
	if err != nil {
		return domain.RunConfig{}, "", fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	if opts.resumePoint == "" && !fileExists(opts.inputFile) {
		return domain.RunConfig{}, "", fmt.Errorf(
			"%w: input-file does not exist, and no resume-point given. Please provide either",
			domain.ErrInvalidConfig)
	}
	if opts.resumePoint != "" && !fileExists(opts.resumePoint) {
		return domain.RunConfig{}, "", fmt.Errorf("%w: resume-point file does not exist", domain.ErrInvalidConfig)
	}
	if inputType == domain.InputTypeS3 && opts.s3Credentials == "" {
		return domain.RunConfig{}, "", fmt.Errorf(
			"%w: you must provide s3-credentials with input-type S3", domain.ErrInvalidConfig)
	}

	cfg := domain.RunConfig{
		JobID:          uuid.NewString(),
		InputType:      inputType,
		BatchSize:      opts.batchSize,
		Concurrency:    opts.concurrency,
		PollInterval:   opts.pollInterval,
		MaxPollRetries: opts.maxPollRetries,
		Collection: domain.CollectionCoordinates{
			ProjectKey: opts.projectKey,
			IndexKey:   opts.collectionKey,
		},
	}

	// S3 coordinates are loaded later; validate everything else now.
	check := cfg
	if inputType == domain.InputTypeS3 {
		check.S3 = &domain.S3Coordinates{}
	}
	if err := check.Validate(); err != nil {
		return domain.RunConfig{}, "", err
	}

	source := opts.inputFile
	if opts.resumePoint != "" {
		source = opts.resumePoint
	}
	return cfg, source, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
