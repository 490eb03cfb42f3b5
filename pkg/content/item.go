package content

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/blackcoderx/brainannex/pkg/request"
)

// Reserved keys carried next to the user fields of an item.
const (
	keyURI        = "uri"
	keySchemaCode = "schema_code"
	keyClassName  = "class_name"
	keyPos        = "pos"
)

// Item is one content item of a category page.
type Item struct {
	URI       string
	Kind      Kind
	ClassName string
	Pos       int
	Fields    request.Params
}

// NewItem creates an unsaved item of the given kind.
func NewItem(kind Kind, fields request.Params) Item {
	return Item{Kind: kind, ClassName: kind.DefaultClass(), Fields: fields}
}

// Clone returns a copy whose fields can be edited independently.
func (it Item) Clone() Item {
	it.Fields = it.Fields.Clone()
	return it
}

// Validate checks the fields required by the item's kind.
func (it Item) Validate() error {
	info, ok := kinds[it.Kind]
	if !ok {
		return fmt.Errorf("unknown item kind %q", it.Kind)
	}
	if it.Kind == KindRecord && it.ClassName == "" {
		return fmt.Errorf("records need a class name")
	}
	for _, f := range info.required {
		if it.Fields.GetString(f) == "" {
			return fmt.Errorf("%s: field %q is required", info.name, f)
		}
	}
	if info.check != nil {
		if err := info.check(it); err != nil {
			return fmt.Errorf("%s: %w", info.name, err)
		}
	}
	return nil
}

// params flattens the item for the wire: reserved keys first, then fields.
func (it Item) params() request.Params {
	p := request.Params{}
	if it.URI != "" {
		p = append(p, request.Param{Key: keyURI, Value: it.URI})
	}
	p = append(p, request.Param{Key: keySchemaCode, Value: string(it.Kind)})
	if it.ClassName != "" {
		p = append(p, request.Param{Key: keyClassName, Value: it.ClassName})
	}
	for _, kv := range it.Fields {
		switch kv.Key {
		case keyURI, keySchemaCode, keyClassName, keyPos:
			continue
		}
		p = append(p, kv)
	}
	return p
}

// itemFromParams splits a flat server record into an Item.
func itemFromParams(p request.Params) (Item, error) {
	it := Item{Fields: request.Params{}}
	for _, kv := range p {
		switch kv.Key {
		case keyURI:
			it.URI = p.GetString(keyURI)
		case keySchemaCode:
			it.Kind = Kind(p.GetString(keySchemaCode))
		case keyClassName:
			it.ClassName = p.GetString(keyClassName)
		case keyPos:
			pos, err := strconv.Atoi(p.GetString(keyPos))
			if err != nil {
				return Item{}, fmt.Errorf("bad position %v: %w", kv.Value, err)
			}
			it.Pos = pos
		default:
			it.Fields = append(it.Fields, kv)
		}
	}
	if it.Kind == "" {
		it.Kind = KindRecord
	}
	return it, nil
}

// MarshalJSON writes the item as one flat object.
func (it Item) MarshalJSON() ([]byte, error) {
	p := it.params()
	if it.Pos != 0 {
		p = append(p, request.Param{Key: keyPos, Value: it.Pos})
	}
	return json.Marshal(p)
}

// UnmarshalJSON reads a flat server record.
func (it *Item) UnmarshalJSON(data []byte) error {
	var p request.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	v, err := itemFromParams(p)
	if err != nil {
		return err
	}
	*it = v
	return nil
}
