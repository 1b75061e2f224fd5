// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/CH-CLARK/mister-skinnylegs/cmd/skinnylegs/cli"
	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/config"
	"github.com/CH-CLARK/mister-skinnylegs/lib/plugins"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile/chromium"
	"github.com/CH-CLARK/mister-skinnylegs/lib/report"
	"github.com/CH-CLARK/mister-skinnylegs/lib/runner"
	"github.com/CH-CLARK/mister-skinnylegs/lib/storage"
)

type runFlags struct {
	profileFolder string
	outputFolder  string
	cacheFolder   string
	configPath    string
	workers       int
}

func runCommand() *cli.Command {
	flags := &runFlags{}
	return &cli.Command{
		Name:    "run",
		Summary: "Run all registered artifact plugins against a browser profile",
		Description: "Runs every registered artifact against a Chromium profile folder and\nwrites per-service JSON and CSV reports plus exported binary files under\na new output folder. The output folder must not already exist: reports\nfrom one run never overwrite another's.",
		Usage:   "skinnylegs run --profile-folder <dir> --output-folder <dir> [flags]",
		Examples: []cli.Example{
			{
				Description: "process a Chrome default profile",
				Command:     `skinnylegs run -p "~/.config/google-chrome/Default" -o ./report`,
			},
			{
				Description: "process with a separately collected cache folder",
				Command:     `skinnylegs run -p ./Default -o ./report -c ./Cache_Data`,
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVarP(&flags.profileFolder, "profile-folder", "p", "", "browser profile folder to process (required)")
			flagSet.StringVarP(&flags.outputFolder, "output-folder", "o", "", "report output folder, must not exist (required)")
			flagSet.StringVarP(&flags.cacheFolder, "cache-folder", "c", "", "cache folder, when collected separately from the profile")
			flagSet.StringVar(&flags.configPath, "config", "", "run configuration YAML file")
			flagSet.IntVar(&flags.workers, "workers", 0, "concurrent artifact invocations (0 = number of CPUs, capped)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("run: unexpected argument %q", args[0])
			}
			return runExtraction(flags)
		},
	}
}

func runExtraction(flags *runFlags) error {
	if flags.profileFolder == "" {
		return fmt.Errorf("run: --profile-folder is required")
	}
	if flags.outputFolder == "" {
		return fmt.Errorf("run: --output-folder is required")
	}

	// All input validation happens before any filesystem side effects:
	// a run that cannot start leaves nothing behind.
	if err := requireDirectory(flags.profileFolder); err != nil {
		return fmt.Errorf("run: profile folder: %w", err)
	}
	if flags.cacheFolder != "" {
		if err := requireDirectory(flags.cacheFolder); err != nil {
			return fmt.Errorf("run: cache folder: %w", err)
		}
	}
	if _, err := os.Stat(flags.outputFolder); err == nil {
		return fmt.Errorf("run: output folder %s already exists", flags.outputFolder)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("run: output folder: %w", err)
	}

	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}

	cat, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flags.outputFolder, 0o755); err != nil {
		return fmt.Errorf("run: creating output folder: %w", err)
	}
	logPath := filepath.Join(flags.outputFolder,
		fmt.Sprintf("log_%s.log", time.Now().Format("20060102_150405")))
	logFile, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("run: creating log file: %w", err)
	}
	defer logFile.Close()

	fmt.Print(banner + "\n")
	logger := cli.NewRunLogger(logFile)
	logger.Info("mister skinnylegs is on the go", "version", Version, "profile_folder", flags.profileFolder)

	logger.Info("artifacts registered", "count", cat.Len())
	for _, entry := range cat.All() {
		logger.Info("artifact",
			"service", entry.Descriptor.Service,
			"name", entry.Descriptor.Name,
			"version", entry.Descriptor.Version,
			"plugin", entry.Origin)
	}

	run, err := runner.New(runner.Config{
		Catalog:     cat,
		OpenProfile: chromium.Opener(flags.profileFolder, flags.cacheFolder, logger),
		Storage:     storage.NewMaker(flags.outputFolder, logger),
		Logger:      logger,
		Workers:     cfg.Workers,
	})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	logger.Info("processing starting")
	writer := report.NewWriter(flags.outputFolder, logger)
	summary := report.NewSummary(flags.profileFolder)
	for envelope := range run.RunAll() {
		path, err := writer.Write(envelope)
		if err != nil {
			// Report writing failures are the run's fault, not the
			// artifact's. Surface them but keep draining results.
			logger.Error("writing report", "artifact", envelope.Name, "error", err)
		}
		summary.Record(envelope, path != "", err)
	}
	if err := summary.WriteFile(flags.outputFolder); err != nil {
		return err
	}

	logger.Info("processing complete",
		"run_id", summary.RunID,
		"written", summary.Written,
		"empty", summary.Empty,
		"failed", summary.Failed,
		"write_errors", summary.WriteErrors)
	logger.Info("mister skinnylegs is going home")

	if summary.Degraded() {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// buildCatalog registers the built-in plugins, filtered by the run
// configuration's include/exclude lists.
func buildCatalog(cfg *config.Run) (*catalog.Catalog, error) {
	registered := plugins.Builtin()
	selected := make([]catalog.Plugin, 0, len(registered))
	for _, plugin := range registered {
		kept := make([]artifact.Descriptor, 0, len(plugin.Artifacts))
		for _, descriptor := range plugin.Artifacts {
			if cfg.Selects(descriptor.Name) {
				kept = append(kept, descriptor)
			}
		}
		if len(kept) > 0 {
			selected = append(selected, catalog.Plugin{Origin: plugin.Origin, Artifacts: kept})
		}
	}
	cat, err := catalog.New(selected...)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if cat.Len() == 0 {
		return nil, fmt.Errorf("run: configuration selects no artifacts")
	}
	return cat, nil
}

func requireDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
