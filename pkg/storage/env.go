package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// varPattern matches {{VAR_NAME}} or {{env:VAR_NAME}}
var varPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// LoadEnvironment loads variables from a YAML file, resolving {{env:VAR}}
// references against the process environment.
func LoadEnvironment(filePath string) (map[string]string, error) {
	env, err := ReadEnvironment(filePath)
	if err != nil {
		return nil, err
	}
	for key, value := range env {
		env[key] = substitute(value, nil)
	}
	return env, nil
}

// ReadEnvironment loads variables as written, without resolving references.
func ReadEnvironment(filePath string) (map[string]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	env := map[string]string{}
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse environment YAML: %w", err)
	}
	return env, nil
}

// SaveEnvironment writes variables to a YAML file.
func SaveEnvironment(env map[string]string, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if !hasYAMLExt(filePath) {
		filePath += ".yaml"
	}

	data, err := yaml.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// ListEnvironments lists the environment names found under baseDir.
func ListEnvironments(baseDir string) ([]string, error) {
	envDir := GetEnvironmentsDir(baseDir)

	if _, err := os.Stat(envDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read environments directory: %w", err)
	}

	var envs []string
	for _, entry := range entries {
		if !entry.IsDir() && hasYAMLExt(entry.Name()) {
			envs = append(envs, strings.TrimSuffix(strings.TrimSuffix(entry.Name(), ".yaml"), ".yml"))
		}
	}
	return envs, nil
}

// SubstituteVariables replaces {{VAR}} placeholders with values from env.
// Unknown placeholders are left as they are.
func SubstituteVariables(text string, env map[string]string) string {
	return substitute(text, env)
}

// ApplyEnvironment returns a copy of req with placeholders substituted in
// the endpoint, the file path and every string parameter.
func ApplyEnvironment(req *Request, env map[string]string) *Request {
	applied := *req
	applied.Endpoint = substitute(req.Endpoint, env)
	applied.File = substitute(req.File, env)
	applied.Params = make(request.Params, 0, len(req.Params))

	for _, kv := range req.Params {
		if s, ok := kv.Value.(string); ok {
			kv.Value = substitute(s, env)
		}
		applied.Params = append(applied.Params, kv)
	}
	return &applied
}

// substitute resolves {{env:VAR}} from the process environment and {{VAR}}
// from env (which may be nil).
func substitute(text string, env map[string]string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}"))

		if sysVar, ok := strings.CutPrefix(name, "env:"); ok {
			if val := os.Getenv(sysVar); val != "" {
				return val
			}
			return match
		}
		if val, ok := env[name]; ok {
			return val
		}
		return match
	})
}
