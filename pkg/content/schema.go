package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// Schema edits the classes, properties and relationships of the graph schema.
type Schema struct {
	client *request.Client
	base   string
}

// NewSchema creates a schema editor using the default base path.
func NewSchema(c *request.Client) *Schema {
	return &Schema{client: c, base: DefaultBasePath + "/schema"}
}

// WithBasePath returns a copy of s that talks to a different schema root.
func (s *Schema) WithBasePath(base string) *Schema {
	return &Schema{client: s.client, base: strings.TrimSuffix(base, "/")}
}

// Property describes a class property.
type Property struct {
	Name     string `json:"name"`
	DataType string `json:"data_type,omitempty"`
	Required bool   `json:"required,omitempty"`
}

// Relationship links two classes.
type Relationship struct {
	From string
	To   string
	Name string
}

func (r Relationship) validate() error {
	if r.From == "" || r.To == "" || r.Name == "" {
		return fmt.Errorf("relationship needs from, to and name")
	}
	return nil
}

func (s *Schema) call(ctx context.Context, name string, params request.Params) error {
	comp, err := s.client.Do(ctx, s.base+"/"+name, request.Options{
		Method:   "POST",
		Params:   params,
		Encoding: request.EncodingJSON,
	})
	if err != nil {
		return err
	}
	return comp.Err()
}

func requireName(what, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", what)
	}
	return nil
}

// AddClass creates a class. code is an optional short schema code.
func (s *Schema) AddClass(ctx context.Context, name, code string) error {
	if err := requireName("class name", name); err != nil {
		return err
	}
	params := request.Params{{Key: "class_name", Value: name}}
	if code != "" {
		params = append(params, request.Param{Key: "code", Value: code})
	}
	return s.call(ctx, "add_class", params)
}

// DeleteClass removes a class and its properties.
func (s *Schema) DeleteClass(ctx context.Context, name string) error {
	if err := requireName("class name", name); err != nil {
		return err
	}
	return s.call(ctx, "delete_class", request.Params{{Key: "class_name", Value: name}})
}

// AddProperty adds a property to a class.
func (s *Schema) AddProperty(ctx context.Context, class string, p Property) error {
	if err := requireName("class name", class); err != nil {
		return err
	}
	if err := requireName("property name", p.Name); err != nil {
		return err
	}
	params := request.Params{
		{Key: "class_name", Value: class},
		{Key: "property_name", Value: p.Name},
	}
	if p.DataType != "" {
		params = append(params, request.Param{Key: "data_type", Value: p.DataType})
	}
	if p.Required {
		params = append(params, request.Param{Key: "required", Value: true})
	}
	return s.call(ctx, "add_property", params)
}

// DeleteProperty removes a property from a class.
func (s *Schema) DeleteProperty(ctx context.Context, class, property string) error {
	if err := requireName("class name", class); err != nil {
		return err
	}
	if err := requireName("property name", property); err != nil {
		return err
	}
	return s.call(ctx, "delete_property", request.Params{
		{Key: "class_name", Value: class},
		{Key: "property_name", Value: property},
	})
}

// AddRelationship creates a named relationship between two classes.
func (s *Schema) AddRelationship(ctx context.Context, r Relationship) error {
	if err := r.validate(); err != nil {
		return err
	}
	return s.call(ctx, "add_relationship", request.Params{
		{Key: "from_class", Value: r.From},
		{Key: "to_class", Value: r.To},
		{Key: "rel_name", Value: r.Name},
	})
}

// DeleteRelationship removes a relationship between two classes.
func (s *Schema) DeleteRelationship(ctx context.Context, r Relationship) error {
	if err := r.validate(); err != nil {
		return err
	}
	return s.call(ctx, "delete_relationship", request.Params{
		{Key: "from_class", Value: r.From},
		{Key: "to_class", Value: r.To},
		{Key: "rel_name", Value: r.Name},
	})
}

// ClassProperties lists the properties of a class in schema order.
func (s *Schema) ClassProperties(ctx context.Context, class string) ([]Property, error) {
	if err := requireName("class name", class); err != nil {
		return nil, err
	}
	return request.Fetch[[]Property](ctx, s.client, s.base+"/class_properties", request.Options{
		Method:   "GET",
		Params:   request.Params{{Key: "class_name", Value: class}},
		Encoding: request.EncodingJSON,
	})
}
