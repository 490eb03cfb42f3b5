package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// undefined marks a parameter whose value should never be transmitted.
type undefined struct{}

// Undefined can be used as a parameter value to have the key dropped
// from the encoded output. A nil value behaves the same way.
var Undefined = undefined{}

// Param is a single key/value pair of a request parameter set.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered parameter set. Values must be strings, booleans,
// integers or floats; Undefined, nil and NaN values are dropped on encoding.
type Params []Param

// Set replaces the value of key, or appends it if the key is not present.
func (p *Params) Set(key string, value any) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// GetString returns the value under key rendered as plain text, or "" if the
// key is missing or dropped.
func (p Params) GetString(key string) string {
	v, ok := p.Get(key)
	if !ok {
		return ""
	}
	s, keep, err := rawValue(v)
	if err != nil || !keep {
		return ""
	}
	return s
}

// Delete removes key from the set.
func (p *Params) Delete(key string) {
	out := (*p)[:0]
	for _, kv := range *p {
		if kv.Key != key {
			out = append(out, kv)
		}
	}
	*p = out
}

// Clone returns a copy that can be mutated independently.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Merge returns p followed by the entries of other, with other winning on
// duplicate keys.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for _, kv := range other {
		out.Set(kv.Key, kv.Value)
	}
	return out
}

// Validate reports the first value whose type cannot be serialized.
func (p Params) Validate() error {
	for _, kv := range p {
		if kv.Key == "" {
			return fmt.Errorf("%w: empty parameter name", ErrInvalidRequest)
		}
		if _, _, err := rawValue(kv.Value); err != nil {
			return fmt.Errorf("%w: parameter %q: %v", ErrInvalidRequest, kv.Key, err)
		}
	}
	return nil
}

// Encode renders the set as an &-joined key=value string. Empty strings are
// sent as-is, non-empty strings are percent-encoded and numbers or booleans
// are written without escaping.
func (p Params) Encode() (string, error) {
	var sb strings.Builder
	for _, kv := range p {
		enc, keep, err := encodeValue(kv.Value)
		if err != nil {
			return "", fmt.Errorf("%w: parameter %q: %v", ErrInvalidRequest, kv.Key, err)
		}
		if !keep {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(enc)
	}
	return sb.String(), nil
}

// MarshalJSON writes the set as a JSON object, preserving order and
// skipping dropped values.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, kv := range p {
		if _, keep, err := rawValue(kv.Value); err != nil {
			return nil, fmt.Errorf("%w: parameter %q: %v", ErrInvalidRequest, kv.Key, err)
		} else if !keep {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object, keeping the key order of the input.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("params must be a JSON object")
	}

	out := Params{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case json.Number:
			if i, err := v.Int64(); err == nil {
				out = append(out, Param{Key: key, Value: i})
			} else {
				f, _ := v.Float64()
				out = append(out, Param{Key: key, Value: f})
			}
		case string, bool:
			out = append(out, Param{Key: key, Value: v})
		case nil:
			out = append(out, Param{Key: key, Value: nil})
		default:
			return fmt.Errorf("parameter %q: nested values are not supported", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*p = out
	return nil
}

// MarshalYAML writes the set as a YAML mapping in order.
func (p Params) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range p {
		var val yaml.Node
		if err := val.Encode(kv.Value); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", kv.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML reads a YAML mapping, keeping the document order.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}

	out := make(Params, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if valNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: parameter %q must be a scalar", valNode.Line, keyNode.Value)
		}

		var v any
		if err := valNode.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", valNode.Line, err)
		}
		out = append(out, Param{Key: keyNode.Value, Value: v})
	}

	*p = out
	return nil
}

// encodeValue returns the wire form of a single value. keep is false when the
// key must be dropped.
func encodeValue(v any) (enc string, keep bool, err error) {
	raw, keep, err := rawValue(v)
	if err != nil || !keep {
		return "", keep, err
	}
	if s, ok := v.(string); ok && s != "" {
		return url.QueryEscape(s), true, nil
	}
	return raw, true, nil
}

// rawValue stringifies a value without escaping.
func rawValue(v any) (string, bool, error) {
	switch x := v.(type) {
	case nil, undefined:
		return "", false, nil
	case string:
		return x, true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case int:
		return strconv.Itoa(x), true, nil
	case int8:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint64:
		return strconv.FormatUint(x, 10), true, nil
	case float32:
		if math.IsNaN(float64(x)) {
			return "", false, nil
		}
		if math.IsInf(float64(x), 0) {
			return "", false, fmt.Errorf("unsupported value %v", x)
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true, nil
	case float64:
		if math.IsNaN(x) {
			return "", false, nil
		}
		if math.IsInf(x, 0) {
			return "", false, fmt.Errorf("unsupported value %v", x)
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true, nil
	case json.Number:
		return x.String(), true, nil
	default:
		return "", false, fmt.Errorf("unsupported value type %T", v)
	}
}
