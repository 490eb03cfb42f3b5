package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Protocol selects how response bodies are interpreted.
type Protocol int

const (
	// ProtocolJSON expects {"status": "ok", "payload": ...} or
	// {"status": "error", "error_message": "..."}.
	ProtocolJSON Protocol = iota
	// ProtocolLegacy expects plain text: "+payload" or "-error message".
	ProtocolLegacy
)

func (p Protocol) String() string {
	switch p {
	case ProtocolJSON:
		return "json"
	case ProtocolLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// ParseProtocol maps a config value to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return ProtocolJSON, nil
	case "legacy", "text":
		return ProtocolLegacy, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (use json or legacy)", s)
	}
}

// envelopeSchema describes the structured envelope. A successful envelope
// must carry a payload; error_message is optional but must be text.
const envelopeSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string"},
    "error_message": {"type": "string"}
  },
  "oneOf": [
    {"properties": {"status": {"const": "ok"}}, "required": ["payload"]},
    {"properties": {"status": {"not": {"const": "ok"}}}}
  ]
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func envelopeValidator() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	})
	return schema, schemaErr
}

// decodeBody turns a fully read response body into a payload or an error.
func decodeBody(p Protocol, body []byte) ([]byte, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &ProtocolError{Reason: MsgNoData}
	}
	if p == ProtocolLegacy {
		return decodeLegacy(body)
	}
	return decodeEnvelope(body)
}

func decodeEnvelope(body []byte) ([]byte, error) {
	if !json.Valid(body) {
		return nil, &ProtocolError{Reason: "response is not valid JSON", Err: fmt.Errorf("%q", truncate(body, 120))}
	}

	v, err := envelopeValidator()
	if err != nil {
		return nil, fmt.Errorf("loading envelope schema: %w", err)
	}
	result, err := v.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, &ProtocolError{Reason: "unreadable response envelope", Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &ProtocolError{Reason: "malformed response envelope", Err: fmt.Errorf("%s", strings.Join(msgs, "; "))}
	}

	env := gjson.ParseBytes(body)
	if env.Get("status").String() != "ok" {
		msg := env.Get("error_message").String()
		if strings.TrimSpace(msg) == "" {
			msg = MsgNoErrorInfo
		}
		return nil, &ApplicationError{Message: msg}
	}

	return []byte(env.Get("payload").Raw), nil
}

func decodeLegacy(body []byte) ([]byte, error) {
	rest := body[1:]
	switch body[0] {
	case '+':
		return rest, nil
	case '-':
		if len(bytes.TrimSpace(rest)) == 0 {
			return nil, &ApplicationError{Message: MsgNoErrorInfo}
		}
		return nil, &ApplicationError{Message: string(rest)}
	default:
		return nil, &ProtocolError{Reason: string(body)}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
