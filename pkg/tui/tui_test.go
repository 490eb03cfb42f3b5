package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/brainannex/pkg/request"
)

func TestHighlightJSONPlain(t *testing.T) {
	assert.Equal(t, "{\n  \"a\": 1\n}", HighlightJSON(`{"a":1}`, 80, true))
	assert.Equal(t, "not json", HighlightJSON("not json", 80, true))
}

func fetchCompletion(t *testing.T, body string) request.Completion {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	comp, err := request.NewClient(srv.URL).Do(context.Background(), "/x", request.Options{})
	require.NoError(t, err)
	return comp
}

func TestRenderCompletion(t *testing.T) {
	ok := fetchCompletion(t, `{"status":"ok","payload":{"uri":"61"}}`)
	out := RenderCompletion(ok, 80, true)
	assert.True(t, strings.HasPrefix(out, "ok: ok\n"), out)
	assert.Contains(t, out, `"uri": "61"`)

	text := fetchCompletion(t, `{"status":"ok","payload":"saved"}`)
	assert.Equal(t, "ok: ok\nsaved", RenderCompletion(text, 80, true))

	failed := fetchCompletion(t, `{"status":"error","error_message":"no such item"}`)
	assert.Equal(t, "error: no such item", RenderCompletion(failed, 80, true))
}

func TestKeyValues(t *testing.T) {
	p := request.Params{{Key: "English", Value: "Love"}, {Key: "pos", Value: 20}}
	assert.Equal(t, "English: Love\npos: 20", KeyValues(p, true))
}

func TestDiff(t *testing.T) {
	before := request.Params{{Key: "English", Value: "Love"}, {Key: "German", Value: "Liebe"}}
	assert.Empty(t, Diff("61", before, before.Clone()))

	after := before.Clone()
	after.Set("German", "die Liebe")
	d := Diff("61", before, after)
	assert.Contains(t, d, "--- a/61")
	assert.Contains(t, d, "-German: Liebe")
	assert.Contains(t, d, "+German: die Liebe")
	assert.NotEmpty(t, ColorDiff(d))
}

func TestApplyEdits(t *testing.T) {
	fields := request.Params{
		{Key: "text", Value: "Chapter 1"},
		{Key: "duration", Value: 90},
		{Key: "done", Value: false},
		{Key: "ratio", Value: 0.5},
	}
	got := applyEdits(fields, []string{"Chapter 2", "120", "yes?", "0.75"})

	assert.Equal(t, "Chapter 2", got[0].Value)
	assert.Equal(t, int64(120), got[1].Value)
	assert.Equal(t, "yes?", got[2].Value)
	assert.Equal(t, 0.75, got[3].Value)
	assert.Equal(t, "Chapter 1", fields[0].Value)
}

func TestWaitPlain(t *testing.T) {
	var out bytes.Buffer
	called := false
	err := Wait(context.Background(), &out, "Saving", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "Saving...\n", out.String())

	boom := errors.New("boom")
	err = Wait(context.Background(), &out, "Saving", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWaitModel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := waitModel{label: "Loading", spinner: newSpinner(), cancel: cancel, target: 1}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(waitModel)
	assert.True(t, m.interrupted)
	assert.Error(t, ctx.Err())

	next, cmd := m.Update(waitDoneMsg{err: nil})
	m = next.(waitModel)
	assert.True(t, m.done)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestCompletionPayloadIsJSON(t *testing.T) {
	comp := fetchCompletion(t, `{"status":"ok","payload":[1,2]}`)
	var v []int
	require.NoError(t, json.Unmarshal(comp.Payload, &v))
	assert.Equal(t, "[\n  1,\n  2\n]", RenderPayload(comp, 80, true))
}
