package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/brainannex/pkg/request"
)

func TestSaveLoadRequest(t *testing.T) {
	dir := t.TempDir()
	req := Request{
		Name:     "Update word",
		Endpoint: "/BA/api/update",
		Method:   "POST",
		Params: request.Params{
			{Key: "uri", Value: "61"},
			{Key: "English", Value: "Love"},
			{Key: "German", Value: "Liebe"},
		},
	}

	path := filepath.Join(GetRequestsDir(dir), "update-word")
	require.NoError(t, SaveRequest(req, path))

	got, err := LoadRequest(path + ".yaml")
	require.NoError(t, err)
	assert.Equal(t, req.Name, got.Name)
	assert.Equal(t, req.Endpoint, got.Endpoint)

	var keys []string
	for _, kv := range got.Params {
		keys = append(keys, kv.Key)
	}
	assert.Equal(t, []string{"uri", "English", "German"}, keys)

	list, err := ListRequests(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"update-word.yaml"}, list)
}

func TestSaveRequestNeedsEndpoint(t *testing.T) {
	err := SaveRequest(Request{Name: "x"}, filepath.Join(t.TempDir(), "x.yaml"))
	assert.Error(t, err)
}

func TestLoadRequestRejectsMissingEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bad\n"), 0644))
	_, err := LoadRequest(path)
	assert.Error(t, err)
}

func TestListRequestsMissingDir(t *testing.T) {
	list, err := ListRequests(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRequestFileName(t *testing.T) {
	assert.Equal(t, "get-item.yaml", RequestFileName("Get Item"))
	assert.Equal(t, "a.yml", RequestFileName("a.yml"))
}

func TestLoadCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.yaml")
	doc := `name: words
requests:
  - name: add
    endpoint: /BA/api/add_item_to_category
    params:
      category_id: "12"
      English: Love
  - name: fetch
    endpoint: /BA/api/get_item
    method: GET
    params:
      uri: "61"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := LoadCollection(path)
	require.NoError(t, err)
	require.Len(t, c.Requests, 2)
	assert.Equal(t, "GET", c.Requests[1].Method)
	assert.Equal(t, "Love", c.Requests[0].Params.GetString("English"))
}

func TestEnvironmentRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(GetEnvironmentsDir(dir), "dev")
	require.NoError(t, SaveEnvironment(map[string]string{"CATEGORY": "12"}, path))

	env, err := LoadEnvironment(path + ".yaml")
	require.NoError(t, err)
	assert.Equal(t, "12", env["CATEGORY"])

	names, err := ListEnvironments(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"dev"}, names)
}

func TestLoadEnvironmentResolvesProcessEnv(t *testing.T) {
	t.Setenv("ANNEX_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "prod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("TOKEN: \"{{env:ANNEX_TEST_TOKEN}}\"\nMISSING: \"{{env:ANNEX_TEST_UNSET}}\"\n"), 0644))

	env, err := LoadEnvironment(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", env["TOKEN"])
	assert.Equal(t, "{{env:ANNEX_TEST_UNSET}}", env["MISSING"])
}

func TestApplyEnvironment(t *testing.T) {
	req := &Request{
		Endpoint: "/BA/api/{{ACTION}}",
		File:     "{{UPLOADS}}/cat.png",
		Params: request.Params{
			{Key: "category_id", Value: "{{CATEGORY}}"},
			{Key: "pos", Value: 20},
			{Key: "note", Value: "{{ UNKNOWN }}"},
		},
	}
	env := map[string]string{"ACTION": "upload_media", "CATEGORY": "12", "UPLOADS": "media"}

	got := ApplyEnvironment(req, env)
	assert.Equal(t, "/BA/api/upload_media", got.Endpoint)
	assert.Equal(t, "media/cat.png", got.File)
	assert.Equal(t, "12", got.Params.GetString("category_id"))
	assert.Equal(t, 20, got.Params[1].Value)
	assert.Equal(t, "{{ UNKNOWN }}", got.Params.GetString("note"))

	// original is untouched
	assert.Equal(t, "{{CATEGORY}}", req.Params.GetString("category_id"))
}

func TestRequestOptions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644))

	r := &Request{Endpoint: "/x", Method: "post", Encoding: "json", File: "a.txt",
		Params: request.Params{{Key: "k", Value: "v"}}}
	opts, closer, err := r.Options(dir)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, "POST", opts.Method)
	assert.Equal(t, request.EncodingJSON, opts.Encoding)
	require.NotNil(t, opts.File)
	assert.Equal(t, "a.txt", opts.File.Name)
	body, err := io.ReadAll(opts.File.Content)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	_, _, err = (&Request{Endpoint: "/x", Encoding: "xml"}).Options(dir)
	assert.Error(t, err)

	_, closer, err = (&Request{Endpoint: "/x", File: "missing.bin"}).Options(dir)
	assert.Error(t, err)
	assert.NoError(t, closer.Close())
}
