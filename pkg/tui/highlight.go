package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// HighlightJSON pretty prints a JSON document and renders it with Glamour.
// Input that is not valid JSON is returned unchanged. plain skips the
// terminal styling.
func HighlightJSON(input string, width int, plain bool) string {
	var js interface{}
	if json.Unmarshal([]byte(input), &js) != nil {
		return input
	}

	pretty, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return input
	}
	if plain {
		return string(pretty)
	}

	var sb strings.Builder
	sb.WriteString("```json\n")
	sb.Write(pretty)
	sb.WriteString("\n```")

	if width < 40 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return string(pretty)
	}

	out, err := renderer.Render(sb.String())
	if err != nil {
		return string(pretty)
	}
	return strings.TrimSpace(out)
}

// RenderPayload formats a successful payload. Text payloads are shown as
// they are, JSON is highlighted.
func RenderPayload(comp request.Completion, width int, plain bool) string {
	var text string
	if err := comp.Decode(&text); err == nil {
		return text
	}
	if len(comp.Payload) == 0 {
		return ""
	}
	return HighlightJSON(string(comp.Payload), width, plain)
}

// RenderCompletion renders the status line followed by the payload or the
// error message.
func RenderCompletion(comp request.Completion, width int, plain bool) string {
	if !comp.Success {
		return Status(false, comp.ErrorMessage, plain)
	}
	body := RenderPayload(comp, width, plain)
	if body == "" {
		return Status(true, "ok", plain)
	}
	return Status(true, "ok", plain) + "\n" + body
}

// Status renders a one line ok/error marker.
func Status(ok bool, msg string, plain bool) string {
	switch {
	case plain && ok:
		return "ok: " + msg
	case plain:
		return "error: " + msg
	case ok:
		return OKStyle.Render(OKPrefix + msg)
	default:
		return ErrorStyle.Render(ErrorPrefix + msg)
	}
}

// KeyValues renders params one per line.
func KeyValues(p request.Params, plain bool) string {
	var sb strings.Builder
	for _, kv := range p {
		key := kv.Key
		if !plain {
			key = KeyStyle.Render(key)
		}
		fmt.Fprintf(&sb, "%s: %v\n", key, kv.Value)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
