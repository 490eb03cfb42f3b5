package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/blackcoderx/brainannex/pkg/config"
	"github.com/blackcoderx/brainannex/pkg/request"
	"github.com/blackcoderx/brainannex/pkg/storage"
	"github.com/blackcoderx/brainannex/pkg/tui"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	cfgFile   string
	annexDir  string
	envName   string
	verbose   bool
	plainFlag bool
	copyOut   bool

	cfg    config.Config
	client *request.Client
	logger *zap.Logger
	env    map[string]string

	// clipboardWriteAll is swapped out in tests.
	clipboardWriteAll = clipboard.WriteAll

	rootCmd = &cobra.Command{
		Use:   "annex",
		Short: "Brain Annex from your terminal",
		Long: `annex talks to a Brain Annex server: it reads and edits content items,
uploads media, changes the schema and replays saved API requests.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .annex/config.json)")
	rootCmd.PersistentFlags().StringVar(&annexDir, "dir", config.FolderName, "settings folder")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "dev", "environment used for {{VAR}} substitution")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&plainFlag, "plain", false, "no colors or animations")
	rootCmd.PersistentFlags().BoolVar(&copyOut, "copy", false, "copy a successful payload to the clipboard")
}

// setup loads .env, creates the settings folder on first run and builds the
// shared client and logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Failed to load .env file: %v\n", err)
	}

	created, err := config.InitializeFolder(annexDir)
	if err != nil {
		return fmt.Errorf("error initializing config folder: %w", err)
	}
	if created {
		fmt.Fprintf(cmd.ErrOrStderr(), "Initialized %s\n", annexDir)
	}

	v := viper.GetViper()
	config.Setup(v, annexDir, cfgFile)
	if cfg, err = config.Load(v); err != nil {
		return err
	}

	if logger, err = config.NewLogger(cfg.LogLevel, verbose); err != nil {
		return err
	}
	if client, err = cfg.NewClient(logger); err != nil {
		return err
	}

	env = map[string]string{}
	if envName != "" {
		path := filepath.Join(storage.GetEnvironmentsDir(annexDir), envName+".yaml")
		if _, statErr := os.Stat(path); statErr == nil {
			if env, err = storage.LoadEnvironment(path); err != nil {
				return fmt.Errorf("failed to load environment '%s': %w", envName, err)
			}
		}
	}
	logger.Debug("client ready",
		zap.String("base_url", client.BaseURL),
		zap.String("protocol", client.Protocol.String()),
		zap.String("env", envName))
	return nil
}

// plain reports whether output should skip styling.
func plain(cmd *cobra.Command) bool {
	return plainFlag || !tui.IsTerminal(cmd.OutOrStdout())
}

// emit prints a completion and copies a successful payload when asked to.
// A failed completion becomes the command error.
func emit(cmd *cobra.Command, comp request.Completion) error {
	p := plain(cmd)
	if !comp.Success {
		fmt.Fprintln(cmd.ErrOrStderr(), tui.Status(false, comp.ErrorMessage, p))
		return comp.Err()
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderCompletion(comp, 100, p))
	if copyOut {
		text := tui.RenderPayload(comp, 100, true)
		if err := clipboardWriteAll(text); err != nil {
			logger.Warn("clipboard copy failed", zap.Error(err))
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
