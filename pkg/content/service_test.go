package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/brainannex/pkg/item"
	"github.com/blackcoderx/brainannex/pkg/request"
)

// fakeServer records what each endpoint received and answers with canned
// envelopes.
type fakeServer struct {
	mu       sync.Mutex
	form     map[string]url.Values
	json     map[string]map[string]any
	replies  map[string]string
	uploaded string
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{
		form:    map[string]url.Values{},
		json:    map[string]map[string]any{},
		replies: map[string]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) reply(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[path] = body
}

func (f *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"):
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if file, _, err := r.FormFile("file"); err == nil {
				b, _ := io.ReadAll(file)
				f.uploaded = string(b)
				file.Close()
			}
			f.form[r.URL.Path] = r.MultipartForm.Value
		}
	case r.Header.Get("Content-Type") == "application/json":
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		f.json[r.URL.Path] = m
	case r.URL.Query().Get("json") != "":
		var m map[string]any
		_ = json.Unmarshal([]byte(r.URL.Query().Get("json")), &m)
		f.json[r.URL.Path] = m
	default:
		_ = r.ParseForm()
		f.form[r.URL.Path] = r.Form
	}

	body, ok := f.replies[r.URL.Path]
	if !ok {
		body = `{"status":"ok","payload":null}`
	}
	_, _ = io.WriteString(w, body)
}

func newTestService(t *testing.T) (*Service, *fakeServer) {
	f, srv := newFakeServer(t)
	return NewService(request.NewClient(srv.URL)), f
}

func TestServiceGet(t *testing.T) {
	svc, f := newTestService(t)
	f.reply("/BA/api/get_item", `{"status":"ok","payload":{"uri":"61","schema_code":"h","class_name":"Header","pos":20,"text":"Chapter 1"}}`)

	it, err := svc.Get(context.Background(), "61")
	require.NoError(t, err)
	assert.Equal(t, "61", it.URI)
	assert.Equal(t, KindHeader, it.Kind)
	assert.Equal(t, "Header", it.ClassName)
	assert.Equal(t, 20, it.Pos)
	assert.Equal(t, "Chapter 1", it.Fields.GetString("text"))
	assert.Equal(t, []string{"61"}, f.form["/BA/api/get_item"]["uri"])

	f.reply("/BA/api/get_item", `{"status":"error","error_message":"no item with uri 99"}`)
	_, err = svc.Get(context.Background(), "99")
	assert.EqualError(t, err, "no item with uri 99")
}

func TestServiceUpdate(t *testing.T) {
	svc, f := newTestService(t)

	it := Item{URI: "61", Kind: KindRecord, ClassName: "German Vocabulary", Fields: request.Params{
		{Key: "English", Value: "Love"},
		{Key: "German", Value: "Liebe"},
	}}
	require.NoError(t, svc.Update(context.Background(), it))

	got := f.form["/BA/api/update"]
	assert.Equal(t, "61", got.Get("uri"))
	assert.Equal(t, "r", got.Get("schema_code"))
	assert.Equal(t, "German Vocabulary", got.Get("class_name"))
	assert.Equal(t, "Liebe", got.Get("German"))

	assert.Error(t, svc.Update(context.Background(), Item{Kind: KindHeader}), "missing uri")
	assert.Error(t, svc.Update(context.Background(), Item{URI: "1", Kind: KindHeader}), "missing text")
}

func TestServiceAddAndDelete(t *testing.T) {
	svc, f := newTestService(t)
	f.reply("/BA/api/add_item_to_category", `{"status":"ok","payload":"sl-4"}`)

	link := NewItem(KindSiteLink, request.Params{{Key: "url", Value: "https://example.com/a b"}, {Key: "name", Value: "Example"}})
	uri, err := svc.Add(context.Background(), "cat-1", link, "")
	require.NoError(t, err)
	assert.Equal(t, "sl-4", uri)

	got := f.form["/BA/api/add_item_to_category"]
	assert.Equal(t, "cat-1", got.Get("category_id"))
	assert.Equal(t, InsertBottom, got.Get("insert_after"))
	assert.Equal(t, "sl", got.Get("schema_code"))
	assert.Equal(t, "https://example.com/a b", got.Get("url"))

	_, err = svc.Add(context.Background(), "cat-1", NewItem(KindSiteLink, request.Params{{Key: "url", Value: "example.com"}}), "")
	assert.ErrorContains(t, err, "scheme")

	require.NoError(t, svc.Delete(context.Background(), "sl-4", KindSiteLink, "cat-1"))
	assert.Equal(t, "sl-4", f.form["/BA/api/delete"].Get("uri"))
}

func TestServiceUploadAndText(t *testing.T) {
	svc, f := newTestService(t)
	f.reply("/BA/api/upload_media", `{"status":"ok","payload":"i-8"}`)
	f.reply("/BA/api/get_text_media", `{"status":"ok","payload":"<p>hello</p>"}`)

	uri, err := svc.UploadMedia(context.Background(), "cat-2", "pic.png", strings.NewReader("PNG"))
	require.NoError(t, err)
	assert.Equal(t, "i-8", uri)
	assert.Equal(t, "PNG", f.uploaded)
	assert.Equal(t, []string{"cat-2"}, f.form["/BA/api/upload_media"]["category_id"])

	body, err := svc.TextMedia(context.Background(), "n-3")
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", body)
}

func TestServiceRecords(t *testing.T) {
	svc, f := newTestService(t)
	f.reply("/BA/api/get_records_by_class", `{"status":"ok","payload":[{"uri":"r-1","English":"Love"},{"uri":"r-2","English":"Hate"}]}`)

	recs, err := svc.Records(context.Background(), RecordsetQuery{ClassName: "German Vocabulary", OrderBy: "English", Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r-2", recs[1].URI)
	assert.Equal(t, KindRecord, recs[1].Kind)
	assert.Equal(t, "German Vocabulary", recs[1].ClassName)

	q := f.json["/BA/api/get_records_by_class"]
	assert.Equal(t, "German Vocabulary", q["class_name"])
	assert.Equal(t, float64(10), q["limit"])
	_, hasSkip := q["skip"]
	assert.False(t, hasSkip)
}

func TestServiceReposition(t *testing.T) {
	svc, f := newTestService(t)
	require.NoError(t, svc.Reposition(context.Background(), "cat-1", "h-2", Up))
	assert.Equal(t, "up", f.form["/BA/api/reposition"].Get("direction"))
	assert.Error(t, svc.Reposition(context.Background(), "cat-1", "h-2", Direction("sideways")))
}

func TestServiceEditor(t *testing.T) {
	svc, f := newTestService(t)
	f.reply("/BA/api/add_item_to_category", `{"status":"ok","payload":"h-77"}`)

	var removed []Item
	placeholder := svc.Editor("cat-9", NewItem(KindHeader, nil), nil, item.OnDelete(func(it Item) { removed = append(removed, it) }))
	placeholder.BeginEdit()
	assert.True(t, placeholder.Cancel())
	assert.Len(t, removed, 1)

	ed := svc.Editor("cat-9", NewItem(KindHeader, nil), nil)
	ed.BeginEdit()
	require.NoError(t, ed.Update(func(it *Item) { it.Fields.Set("text", "Intro") }))
	require.NoError(t, ed.Save(context.Background()))
	assert.Equal(t, "h-77", ed.Baseline().URI)
	assert.True(t, ed.Persisted())

	f.reply("/BA/api/update", `{"status":"error","error_message":"locked by another user"}`)
	ed.BeginEdit()
	require.NoError(t, ed.Update(func(it *Item) { it.Fields.Set("text", "Changed") }))
	err := ed.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, "locked by another user", ed.LastError())
	assert.Equal(t, "Intro", ed.Baseline().Fields.GetString("text"))
}

func TestServiceEditorsForNewItemsShareSequencer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var adds atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := adds.Add(1)
		if n == 1 {
			started <- struct{}{}
			<-release
		}
		fmt.Fprintf(w, `{"status":"ok","payload":"h-%d"}`, n)
	}))
	t.Cleanup(srv.Close)
	svc := NewService(request.NewClient(srv.URL))

	seq := item.NewSequencer()
	first := svc.Editor("cat-9", NewItem(KindHeader, nil), seq)
	second := svc.Editor("cat-9", NewItem(KindHeader, nil), seq)
	assert.NotEqual(t, first.Key(), second.Key())

	for _, ed := range []*item.Editor[Item]{first, second} {
		ed.BeginEdit()
		require.NoError(t, ed.Update(func(it *Item) { it.Fields.Set("text", "Intro") }))
	}

	firstErr := make(chan error, 1)
	go func() { firstErr <- first.Save(context.Background()) }()
	<-started

	require.NoError(t, second.Save(context.Background()))
	close(release)
	require.NoError(t, <-firstErr)

	assert.True(t, first.Persisted())
	assert.True(t, second.Persisted())
	assert.Equal(t, "h-1", first.Baseline().URI)
	assert.Equal(t, "h-2", second.Baseline().URI)
	assert.Equal(t, "h-1", first.Key())
	assert.Equal(t, "h-2", second.Key())
}

func TestSchema(t *testing.T) {
	f, srv := newFakeServer(t)
	schema := NewSchema(request.NewClient(srv.URL))
	ctx := context.Background()

	require.NoError(t, schema.AddClass(ctx, "German Vocabulary", ""))
	assert.Equal(t, map[string]any{"class_name": "German Vocabulary"}, f.json["/BA/api/schema/add_class"])

	require.NoError(t, schema.AddProperty(ctx, "German Vocabulary", Property{Name: "Gender", DataType: "str", Required: true}))
	assert.Equal(t, true, f.json["/BA/api/schema/add_property"]["required"])

	rel := Relationship{From: "German Vocabulary", To: "Category", Name: "BA_in_category"}
	require.NoError(t, schema.AddRelationship(ctx, rel))
	assert.Equal(t, "BA_in_category", f.json["/BA/api/schema/add_relationship"]["rel_name"])
	require.NoError(t, schema.DeleteRelationship(ctx, rel))
	require.NoError(t, schema.DeleteProperty(ctx, "German Vocabulary", "Gender"))
	require.NoError(t, schema.DeleteClass(ctx, "German Vocabulary"))

	f.reply("/BA/api/schema/class_properties", `{"status":"ok","payload":[{"name":"English"},{"name":"German","data_type":"str"}]}`)
	props, err := schema.ClassProperties(ctx, "German Vocabulary")
	require.NoError(t, err)
	assert.Equal(t, []Property{{Name: "English"}, {Name: "German", DataType: "str"}}, props)

	assert.Error(t, schema.AddClass(ctx, " ", ""))
	assert.Error(t, schema.AddRelationship(ctx, Relationship{From: "A"}))

	f.reply("/BA/api/schema/delete_class", `{"status":"error","error_message":"class has instances"}`)
	assert.EqualError(t, schema.DeleteClass(ctx, "Busy"), "class has instances")
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"h":         KindHeader,
		"Note":      KindNote,
		"site link": KindSiteLink,
		"site_link": KindSiteLink,
		"timer":     KindTimer,
		"rs":        KindRecordset,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("widget")
	assert.Error(t, err)
}

func TestItemValidate(t *testing.T) {
	assert.NoError(t, NewItem(KindTimer, request.Params{{Key: "duration", Value: 90}}).Validate())
	assert.Error(t, NewItem(KindTimer, request.Params{{Key: "duration", Value: "soon"}}).Validate())
	assert.Error(t, Item{Kind: KindRecord}.Validate(), "records need a class")
	assert.Error(t, NewItem(KindRecordset, request.Params{{Key: "rs_class", Value: "X"}, {Key: "n_group", Value: 0}}).Validate())
	assert.Error(t, Item{Kind: "zz"}.Validate())
}

func TestItemJSON(t *testing.T) {
	it := Item{URI: "n-1", Kind: KindNote, ClassName: "Note", Pos: 40, Fields: request.Params{{Key: "body", Value: "hi"}}}
	blob, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uri":"n-1","schema_code":"n","class_name":"Note","body":"hi","pos":40}`, string(blob))

	var back Item
	require.NoError(t, json.Unmarshal(blob, &back))
	assert.Equal(t, it.URI, back.URI)
	assert.Equal(t, it.Pos, back.Pos)
	assert.Equal(t, "hi", back.Fields.GetString("body"))
}
