package content

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/blackcoderx/brainannex/pkg/item"
	"github.com/blackcoderx/brainannex/pkg/request"
)

// DefaultBasePath is where the server mounts its API.
const DefaultBasePath = "/BA/api"

// Placement values for Add.
const (
	InsertTop    = "TOP"
	InsertBottom = "BOTTOM"
)

// Service performs content item operations.
type Service struct {
	client *request.Client
	base   string
}

// NewService creates a service using the default base path.
func NewService(c *request.Client) *Service {
	return &Service{client: c, base: DefaultBasePath}
}

// WithBasePath returns a copy of s that talks to a different API root.
func (s *Service) WithBasePath(base string) *Service {
	return &Service{client: s.client, base: strings.TrimSuffix(base, "/")}
}

func (s *Service) endpoint(name string) string {
	return s.base + "/" + name
}

// Get loads one item.
func (s *Service) Get(ctx context.Context, uri string) (Item, error) {
	if uri == "" {
		return Item{}, fmt.Errorf("uri is required")
	}
	return request.Fetch[Item](ctx, s.client, s.endpoint("get_item"), request.Options{
		Method: "GET",
		Params: request.Params{{Key: keyURI, Value: uri}},
	})
}

// Update stores the fields of an existing item.
func (s *Service) Update(ctx context.Context, it Item) error {
	if it.URI == "" {
		return fmt.Errorf("cannot update an item without uri")
	}
	if err := it.Validate(); err != nil {
		return err
	}
	comp, err := s.client.Do(ctx, s.endpoint("update"), request.Options{
		Method: "POST",
		Params: it.params(),
	})
	if err != nil {
		return err
	}
	return comp.Err()
}

// Add creates it in the category and returns the new URI. insertAfter is
// the URI of the preceding item, or InsertTop / InsertBottom.
func (s *Service) Add(ctx context.Context, categoryURI string, it Item, insertAfter string) (string, error) {
	if categoryURI == "" {
		return "", fmt.Errorf("category is required")
	}
	if err := it.Validate(); err != nil {
		return "", err
	}
	if insertAfter == "" {
		insertAfter = InsertBottom
	}

	params := request.Params{
		{Key: "category_id", Value: categoryURI},
		{Key: "insert_after", Value: insertAfter},
	}
	it.URI = ""
	params = append(params, it.params()...)

	return request.Fetch[string](ctx, s.client, s.endpoint("add_item_to_category"), request.Options{
		Method: "POST",
		Params: params,
	})
}

// Delete removes an item from a category.
func (s *Service) Delete(ctx context.Context, uri string, kind Kind, categoryURI string) error {
	if uri == "" {
		return fmt.Errorf("uri is required")
	}
	comp, err := s.client.Do(ctx, s.endpoint("delete"), request.Options{
		Method: "POST",
		Params: request.Params{
			{Key: keyURI, Value: uri},
			{Key: keySchemaCode, Value: string(kind)},
			{Key: "category_id", Value: categoryURI},
		},
	})
	if err != nil {
		return err
	}
	return comp.Err()
}

// UploadMedia uploads an image or document into a category and returns the
// URI of the new item.
func (s *Service) UploadMedia(ctx context.Context, categoryURI, filename string, content io.Reader) (string, error) {
	if categoryURI == "" {
		return "", fmt.Errorf("category is required")
	}
	return request.Fetch[string](ctx, s.client, s.endpoint("upload_media"), request.Options{
		Params: request.Params{{Key: "category_id", Value: categoryURI}},
		File:   &request.File{Name: filename, Content: content},
	})
}

// TextMedia returns the body of a note.
func (s *Service) TextMedia(ctx context.Context, uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("uri is required")
	}
	return request.Fetch[string](ctx, s.client, s.endpoint("get_text_media"), request.Options{
		Method: "GET",
		Params: request.Params{{Key: keyURI, Value: uri}},
	})
}

// RecordsetQuery selects a page of records of one class.
type RecordsetQuery struct {
	ClassName string
	OrderBy   string
	Limit     int
	Skip      int
}

// Records lists the records of a class, the data behind a recordset item.
func (s *Service) Records(ctx context.Context, q RecordsetQuery) ([]Item, error) {
	if q.ClassName == "" {
		return nil, fmt.Errorf("class name is required")
	}
	params := request.Params{{Key: keyClassName, Value: q.ClassName}}
	if q.OrderBy != "" {
		params = append(params, request.Param{Key: "order_by", Value: q.OrderBy})
	}
	if q.Limit > 0 {
		params = append(params, request.Param{Key: "limit", Value: q.Limit})
	}
	if q.Skip > 0 {
		params = append(params, request.Param{Key: "skip", Value: q.Skip})
	}

	items, err := request.Fetch[[]Item](ctx, s.client, s.endpoint("get_records_by_class"), request.Options{
		Method:   "GET",
		Params:   params,
		Encoding: request.EncodingJSON,
	})
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ClassName == "" {
			items[i].ClassName = q.ClassName
		}
	}
	return items, nil
}

// Direction for Reposition.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Reposition moves an item one slot within its category.
func (s *Service) Reposition(ctx context.Context, categoryURI, uri string, dir Direction) error {
	if dir != Up && dir != Down {
		return fmt.Errorf("direction must be %q or %q", Up, Down)
	}
	comp, err := s.client.Do(ctx, s.endpoint("reposition"), request.Options{
		Method: "POST",
		Params: request.Params{
			{Key: "category_id", Value: categoryURI},
			{Key: keyURI, Value: uri},
			{Key: "direction", Value: string(dir)},
		},
	})
	if err != nil {
		return err
	}
	return comp.Err()
}

// Saver persists drafts for an item.Editor: unsaved items are added at the
// bottom of categoryURI, existing ones are updated.
func (s *Service) Saver(categoryURI string) item.Saver[Item] {
	return item.SaverFunc[Item](func(ctx context.Context, draft Item) (Item, error) {
		if draft.URI == "" {
			uri, err := s.Add(ctx, categoryURI, draft, InsertBottom)
			if err != nil {
				return Item{}, err
			}
			draft.URI = uri
			return draft, nil
		}
		if err := s.Update(ctx, draft); err != nil {
			return Item{}, err
		}
		return draft, nil
	})
}

// placeholders numbers the editors of items not yet stored.
var placeholders atomic.Uint64

// Editor opens an editor for it backed by this service. Unsaved items get a
// key of their own until the server assigns a URI.
func (s *Service) Editor(categoryURI string, it Item, seq *item.Sequencer, opts ...item.Option[Item]) *item.Editor[Item] {
	key := it.URI
	if key == "" {
		key = fmt.Sprintf("new:%s:%d", it.Kind, placeholders.Add(1))
	}
	opts = append([]item.Option[Item]{
		item.WithClone(Item.Clone),
		item.WithSequencer[Item](seq),
		item.WithKey(func(it Item) string { return it.URI }),
	}, opts...)
	return item.New[Item](key, it, it.URI != "", s.Saver(categoryURI), opts...)
}
