package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/brainannex/pkg/request"
	"github.com/blackcoderx/brainannex/pkg/tui"
)

// parseParams reads key=value (string) and key:=value (number, bool or
// null) arguments in order.
func parseParams(args []string) (request.Params, error) {
	params := request.Params{}
	for _, arg := range args {
		if k, raw, ok := strings.Cut(arg, ":="); ok && k != "" && !strings.Contains(k, "=") {
			v, err := parseScalar(raw)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", arg, err)
			}
			params = append(params, request.Param{Key: k, Value: v})
			continue
		}
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q: expected key=value or key:=value", arg)
		}
		params = append(params, request.Param{Key: k, Value: v})
	}
	return params, nil
}

func parseScalar(s string) (any, error) {
	switch s {
	case "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("%q is not a number, bool or null", s)
}

// wait runs fn behind the waiting indicator on stderr.
func wait(cmd *cobra.Command, label string, fn func(context.Context) error) error {
	var out io.Writer = cmd.ErrOrStderr()
	if plainFlag {
		out = io.Discard
	}
	return tui.Wait(cmd.Context(), out, label, fn)
}

// call performs one request behind the waiting indicator.
func call(cmd *cobra.Command, label, endpoint string, opts request.Options) (request.Completion, error) {
	var comp request.Completion
	err := wait(cmd, label, func(ctx context.Context) error {
		var err error
		comp, err = client.Do(ctx, endpoint, opts)
		return err
	})
	return comp, err
}
