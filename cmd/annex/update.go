package main

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackcoderx/brainannex/pkg/tui"
)

const releaseRepo = "blackcoderx/brainannex"

var updateYes bool

func init() {
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "update without asking")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update annex to the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if version == "dev" {
			fmt.Fprintln(out, "You are running a development build. Update is not supported.")
			return nil
		}

		current, err := semver.ParseTolerant(version)
		if err != nil {
			return fmt.Errorf("error parsing current version '%s': %w", version, err)
		}

		latest, found, err := selfupdate.DetectLatest(releaseRepo)
		if err != nil {
			return fmt.Errorf("error occurred while detecting version: %w", err)
		}
		if !found || latest.Version.LTE(current) {
			fmt.Fprintln(out, "Current version is the latest")
			return nil
		}

		if !updateYes {
			if plain(cmd) {
				fmt.Fprintf(out, "Version %s is available, run annex update --yes to install it\n", latest.Version)
				return nil
			}
			ok, err := tui.Confirm(fmt.Sprintf("Update to %s?", latest.Version))
			if err != nil || !ok {
				return err
			}
		}

		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("could not locate executable path: %w", err)
		}
		logger.Info("updating", zap.String("from", current.String()), zap.String("to", latest.Version.String()))
		if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
			return fmt.Errorf("error occurred while updating binary: %w", err)
		}
		fmt.Fprintln(out, tui.Status(true, "updated to "+latest.Version.String(), plain(cmd)))
		return nil
	},
}
