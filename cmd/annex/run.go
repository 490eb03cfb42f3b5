package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackcoderx/brainannex/pkg/request"
	"github.com/blackcoderx/brainannex/pkg/storage"
	"github.com/blackcoderx/brainannex/pkg/tui"
)

var (
	runCollection bool
	runParallel   bool
)

func init() {
	runCmd.Flags().BoolVarP(&runCollection, "collection", "c", false, "arguments are collection files")
	runCmd.Flags().BoolVarP(&runParallel, "parallel", "p", false, "send all requests at once")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <name|file>...",
	Short: "Replay saved requests",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var reqs []*storage.Request
		for _, arg := range args {
			loaded, err := loadRequests(arg, runCollection)
			if err != nil {
				return err
			}
			reqs = append(reqs, loaded...)
		}
		for i, r := range reqs {
			reqs[i] = storage.ApplyEnvironment(r, env)
		}

		if runParallel {
			return runAll(cmd, reqs)
		}
		var errs []error
		for _, r := range reqs {
			if err := runRequest(cmd, r, annexDir); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
			}
		}
		return errors.Join(errs...)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := storage.ListRequests(annexDir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No saved requests")
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

// loadRequests resolves arg as a file path, or as a name in the requests
// folder.
func loadRequests(arg string, collection bool) ([]*storage.Request, error) {
	path := arg
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(storage.GetRequestsDir(annexDir), storage.RequestFileName(arg))
	}

	if collection {
		c, err := storage.LoadCollection(path)
		if err != nil {
			return nil, err
		}
		out := make([]*storage.Request, len(c.Requests))
		for i := range c.Requests {
			out[i] = &c.Requests[i]
		}
		return out, nil
	}

	r, err := storage.LoadRequest(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load request '%s': %w", arg, err)
	}
	if r.Name == "" {
		r.Name = arg
	}
	return []*storage.Request{r}, nil
}

// runAll starts every request at once and prints the results as they
// arrive, each tagged with its request name.
func runAll(cmd *cobra.Command, reqs []*storage.Request) error {
	results := make(chan request.Result[json.RawMessage, string], len(reqs))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	started := 0
	var errs []error
	for _, r := range reqs {
		opts, closer, err := r.Options(annexDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
			continue
		}
		closers = append(closers, closer)

		task, err := request.Go[json.RawMessage](cmd.Context(), client, r.Endpoint, opts, r.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, err))
			continue
		}
		started++
		go func() { results <- task.Wait() }()
	}

	p := plain(cmd)
	for i := 0; i < started; i++ {
		res := <-results
		logger.Debug("request finished", zap.String("name", res.Token), zap.Bool("success", res.Success))
		if !res.Success {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", res.Token, tui.Status(false, res.ErrorMessage, p))
			errs = append(errs, fmt.Errorf("%s: %w", res.Token, res.Err()))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", res.Token, tui.Status(true, "ok", p))
		if len(res.Payload) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), tui.HighlightJSON(string(res.Payload), 100, p))
		}
	}
	return errors.Join(errs...)
}
