// Command dsbulk uploads batches of documents to a document-conversion service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	checkpointfile "github.com/custodia-labs/dsbulk/internal/adapters/driven/checkpoint/file"
	configfile "github.com/custodia-labs/dsbulk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/dsbulk/internal/adapters/driven/deepsearch"
	"github.com/custodia-labs/dsbulk/internal/adapters/driven/objectstore/s3"
	"github.com/custodia-labs/dsbulk/internal/adapters/driven/report"
	"github.com/custodia-labs/dsbulk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/dsbulk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/dsbulk/internal/adapters/driving/cli"
	"github.com/custodia-labs/dsbulk/internal/core/ports/driven"
	"github.com/custodia-labs/dsbulk/internal/core/services"
	"github.com/custodia-labs/dsbulk/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// bootstrap wires the adapters behind the CLI's services.
func bootstrap(opts cli.GlobalOptions) (*cli.Services, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := configfile.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		configDir = dir
	}

	configStore, err := configfile.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	profiles := services.NewProfileService(configStore)

	// History is optional; an unusable database degrades to memory.
	var (
		runs    driven.RunStore
		closers []func() error
	)
	store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		logger.Warn("Run history unavailable: %v", err)
		runs = memory.NewRunStore()
	} else {
		logger.Debug("Run history at %s", store.Path())
		runs = store.RunStore()
		closers = append(closers, store.Close)
	}

	newSession := func(_ context.Context, req cli.UploadRequest) (*cli.UploadSession, error) {
		profile, err := profiles.Resolve(req.Instance)
		if err != nil {
			return nil, err
		}
		logger.Info("Using profile %s (%s)", profile.Name, profile.Host)

		client, err := deepsearch.NewClient(deepsearch.ConfigFromProfile(profile))
		if err != nil {
			return nil, err
		}

		if err := os.MkdirAll(req.WorkDir, 0o755); err != nil { //nolint:gosec // Work dir holds non-secret job files
			return nil, fmt.Errorf("creating work directory: %w", err)
		}
		checkpoint := checkpointfile.NewStore(filepath.Join(req.WorkDir, checkpointfile.ResumeFileName(req.JobID)))

		reporter, err := report.Open(filepath.Join(req.WorkDir, report.FileName(req.JobID)))
		if err != nil {
			return nil, err
		}

		sessionRuns := runs
		if req.NoHistory {
			sessionRuns = nil
		}

		return &cli.UploadSession{
			Orchestrator: services.NewUploadOrchestrator(client, checkpoint, reporter, sessionRuns),
			ReportPath:   reporter.Path(),
			Close:        reporter.Close,
		}, nil
	}

	return &cli.Services{
		Profiles:         profiles,
		History:          services.NewRunHistoryService(runs),
		Prefixes:         services.NewPrefixService(s3.NewPrefixLister()),
		NewUploadSession: newSession,
		ReadItems:        checkpointfile.ReadItems,
		LoadCoordinates:  s3.LoadCoordinates,
		Close: func() error {
			var errs []error
			for _, c := range closers {
				errs = append(errs, c())
			}
			return errors.Join(errs...)
		},
	}, nil
}
