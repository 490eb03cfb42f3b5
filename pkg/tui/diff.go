package tui

import (
	"fmt"
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// Diff returns a unified diff between two field sets rendered one
// "key: value" per line. It is empty when nothing changed.
func Diff(name string, before, after request.Params) string {
	original := fieldLines(before)
	modified := fieldLines(after)
	if original == modified {
		return ""
	}

	edits := udiff.Strings(original, modified)
	unified, err := udiff.ToUnified("a/"+name, "b/"+name, original, edits, 3)
	if err != nil {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n(diff generation failed)\n", name, name)
	}
	return unified
}

func fieldLines(p request.Params) string {
	var sb strings.Builder
	for _, kv := range p {
		fmt.Fprintf(&sb, "%s: %s\n", kv.Key, p.GetString(kv.Key))
	}
	return sb.String()
}

// ColorDiff styles the lines of a unified diff.
func ColorDiff(diff string) string {
	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = DimStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = HunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = AddedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = RemovedStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
