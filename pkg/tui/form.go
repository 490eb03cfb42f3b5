package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// EditFields opens a form with one input per field and returns the edited
// copy. Keys listed in required may not be left blank. Numeric and boolean
// fields keep their type when the new text still parses.
func EditFields(title string, fields request.Params, required []string) (request.Params, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("nothing to edit")
	}

	must := make(map[string]bool, len(required))
	for _, r := range required {
		must[r] = true
	}

	values := make([]string, len(fields))
	inputs := make([]huh.Field, 0, len(fields))
	for i, kv := range fields {
		values[i] = fields.GetString(kv.Key)
		in := huh.NewInput().
			Title(kv.Key).
			Value(&values[i])
		if must[kv.Key] {
			key := kv.Key
			in = in.Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("%s is required", key)
				}
				return nil
			})
		}
		inputs = append(inputs, in)
	}

	form := huh.NewForm(huh.NewGroup(inputs...).Title(title))
	if err := form.Run(); err != nil {
		return nil, err
	}
	return applyEdits(fields, values), nil
}

// applyEdits writes the edited texts back onto a copy of fields.
func applyEdits(fields request.Params, values []string) request.Params {
	out := fields.Clone()
	for i := range out {
		out[i].Value = coerce(out[i].Value, values[i])
	}
	return out
}

func coerce(orig any, s string) any {
	switch orig.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case float32, float64:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case bool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

// Confirm asks a yes/no question.
func Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
