package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// RequestFileName turns a request name into its file name.
func RequestFileName(name string) string {
	if hasYAMLExt(name) {
		return name
	}
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-")) + ".yaml"
}

func hasYAMLExt(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// SaveRequest writes req to filePath, adding a .yaml extension if missing.
func SaveRequest(req Request, filePath string) error {
	if req.Endpoint == "" {
		return fmt.Errorf("request %q has no endpoint", req.Name)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if !hasYAMLExt(filePath) {
		filePath += ".yaml"
	}

	data, err := yaml.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadRequest reads a saved request.
func LoadRequest(filePath string) (*Request, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if req.Endpoint == "" {
		return nil, fmt.Errorf("%s: endpoint is required", filePath)
	}
	return &req, nil
}

// LoadCollection reads a file holding several requests run in order.
func LoadCollection(filePath string) (*Collection, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var c Collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	for i, r := range c.Requests {
		if r.Endpoint == "" {
			return nil, fmt.Errorf("%s: request %d (%s) has no endpoint", filePath, i+1, r.Name)
		}
	}
	return &c, nil
}

// ListRequests lists saved request files relative to the requests directory.
func ListRequests(baseDir string) ([]string, error) {
	requestsDir := GetRequestsDir(baseDir)

	if _, err := os.Stat(requestsDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	var files []string
	err := filepath.Walk(requestsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && hasYAMLExt(path) {
			relPath, _ := filepath.Rel(requestsDir, path)
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return files, nil
}

// GetRequestsDir returns the requests directory path.
func GetRequestsDir(baseDir string) string {
	return filepath.Join(baseDir, "requests")
}

// GetEnvironmentsDir returns the environments directory path.
func GetEnvironmentsDir(baseDir string) string {
	return filepath.Join(baseDir, "environments")
}

// Options converts the saved request into call options. A relative file
// path is resolved against baseDir. The returned closer releases the upload
// and is never nil.
func (r *Request) Options(baseDir string) (request.Options, io.Closer, error) {
	enc, err := request.ParseEncoding(r.Encoding)
	if err != nil {
		return request.Options{}, nopCloser{}, err
	}
	opts := request.Options{
		Method:   strings.ToUpper(r.Method),
		Params:   r.Params.Clone(),
		Encoding: enc,
	}
	if r.File == "" {
		return opts, nopCloser{}, nil
	}

	path := r.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return request.Options{}, nopCloser{}, fmt.Errorf("failed to open upload: %w", err)
	}
	opts.File = &request.File{Name: filepath.Base(path), Content: f}
	return opts, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
