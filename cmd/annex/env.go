package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/brainannex/pkg/storage"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage environments used for {{VAR}} substitution",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := storage.ListEnvironments(annexDir)
		if err != nil {
			return err
		}
		for _, n := range names {
			marker := "  "
			if n == envName {
				marker = "* "
			}
			fmt.Fprintln(cmd.OutOrStdout(), marker+n)
		}
		return nil
	},
}

var envShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print the variables of an environment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars := env
		if len(args) == 1 {
			var err error
			if vars, err = storage.LoadEnvironment(envPath(args[0])); err != nil {
				return err
			}
		}
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, vars[k])
		}
		return nil
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set <name> KEY=VALUE...",
	Short: "Set variables in an environment, creating it if needed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := envPath(args[0])
		vars := map[string]string{}
		if _, err := os.Stat(path); err == nil {
			raw, err := storage.ReadEnvironment(path)
			if err != nil {
				return err
			}
			vars = raw
		}
		for _, kv := range args[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return fmt.Errorf("argument %q: expected KEY=VALUE", kv)
			}
			vars[k] = v
		}
		if err := storage.SaveEnvironment(vars, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Updated %s\n", path)
		return nil
	},
}

func init() {
	envCmd.AddCommand(envShowCmd, envSetCmd)
	rootCmd.AddCommand(envCmd)
}

func envPath(name string) string {
	return filepath.Join(storage.GetEnvironmentsDir(annexDir), name+".yaml")
}
