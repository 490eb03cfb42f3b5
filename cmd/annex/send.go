package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/brainannex/pkg/request"
	"github.com/blackcoderx/brainannex/pkg/storage"
)

var (
	sendMethod   string
	sendJSON     bool
	sendFile     string
	sendSaveName string
)

func init() {
	sendCmd.Flags().StringVarP(&sendMethod, "method", "X", "", "GET or POST (default: GET, POST when data is sent)")
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "send parameters as a JSON body")
	sendCmd.Flags().StringVarP(&sendFile, "file", "F", "", "upload a file as multipart form data")
	sendCmd.Flags().StringVar(&sendSaveName, "save", "", "save the request under this name")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <endpoint> [key=value | key:=number ...]",
	Short: "Call an API endpoint and print the payload",
	Example: `  annex send /BA/api/update uri=61 English=Love
  annex send /BA/api/get_item -X GET uri=61
  annex send /BA/api/upload_media category_id=12 -F photo.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(args[1:])
		if err != nil {
			return err
		}
		saved := storage.Request{
			Name:     sendSaveName,
			Endpoint: args[0],
			Method:   strings.ToUpper(sendMethod),
			Params:   params,
			File:     sendFile,
		}
		if sendJSON {
			saved.Encoding = request.EncodingJSON.String()
		}

		if sendSaveName != "" {
			path := filepath.Join(storage.GetRequestsDir(annexDir), storage.RequestFileName(sendSaveName))
			if err := storage.SaveRequest(saved, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved request to %s\n", path)
		}

		cwd, _ := os.Getwd()
		return runRequest(cmd, storage.ApplyEnvironment(&saved, env), cwd)
	},
}

// runRequest sends a saved or ad hoc request and prints the outcome.
func runRequest(cmd *cobra.Command, req *storage.Request, baseDir string) error {
	opts, closer, err := req.Options(baseDir)
	if err != nil {
		return err
	}
	defer closer.Close()

	label := req.Name
	if label == "" {
		label = req.Endpoint
	}
	comp, err := call(cmd, label, req.Endpoint, opts)
	if err != nil {
		return err
	}
	return emit(cmd, comp)
}
