package storage

import (
	"github.com/blackcoderx/brainannex/pkg/request"
)

// Request is a saved call in YAML form.
type Request struct {
	Name     string         `yaml:"name"`               // Unique name for the request
	Endpoint string         `yaml:"endpoint"`           // Endpoint path (can contain variables)
	Method   string         `yaml:"method,omitempty"`   // GET or POST; empty lets params decide
	Encoding string         `yaml:"encoding,omitempty"` // form (default) or json
	Params   request.Params `yaml:"params,omitempty"`   // Ordered parameters
	File     string         `yaml:"file,omitempty"`     // Path of a file to upload
}

// Collection represents a folder of related requests.
type Collection struct {
	Name        string    `yaml:"name"`                  // Collection name
	Description string    `yaml:"description,omitempty"` // Optional description
	Requests    []Request `yaml:"requests,omitempty"`    // List of requests in the collection
}
