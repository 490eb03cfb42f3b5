// Package content provides typed access to Brain Annex content items and to
// the schema that describes them. Every call goes through request.Client.
package content

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the schema code of a content item.
type Kind string

const (
	KindHeader    Kind = "h"
	KindNote      Kind = "n"
	KindImage     Kind = "i"
	KindDocument  Kind = "d"
	KindRecord    Kind = "r"
	KindRecordset Kind = "rs"
	KindSiteLink  Kind = "sl"
	KindTimer     Kind = "timer"
)

type kindInfo struct {
	name     string
	class    string
	required []string
	check    func(Item) error
}

var kinds = map[Kind]kindInfo{
	KindHeader:    {name: "header", class: "Header", required: []string{"text"}},
	KindNote:      {name: "note", class: "Note", required: []string{"body"}},
	KindImage:     {name: "image", class: "Image", required: []string{"basename", "suffix"}},
	KindDocument:  {name: "document", class: "Document", required: []string{"basename", "suffix"}},
	KindRecord:    {name: "record"},
	KindRecordset: {name: "recordset", class: "Recordset", required: []string{"rs_class"}, check: checkRecordset},
	KindSiteLink:  {name: "site link", class: "Site Link", required: []string{"url"}, check: checkSiteLink},
	KindTimer:     {name: "timer", class: "Timer", required: []string{"duration"}, check: checkTimer},
}

// ParseKind accepts a schema code ("sl") or a name ("site link", "site_link").
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := kinds[Kind(s)]; ok {
		return Kind(s), nil
	}
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(s)
	for k, info := range kinds {
		if info.name == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown item kind %q (known: %s)", s, strings.Join(KindNames(), ", "))
}

// KindNames lists the schema codes, sorted.
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return string(k)
}

// DefaultClass is the class name used for items of this kind, empty for
// records whose class is user defined.
func (k Kind) DefaultClass() string {
	return kinds[k].class
}

// RequiredFields lists the fields an item of this kind must carry.
func (k Kind) RequiredFields() []string {
	return append([]string(nil), kinds[k].required...)
}

func checkSiteLink(it Item) error {
	u := it.Fields.GetString("url")
	if !strings.Contains(u, "://") {
		return fmt.Errorf("url %q must include a scheme", u)
	}
	return nil
}

func checkTimer(it Item) error {
	d := it.Fields.GetString("duration")
	n, err := strconv.Atoi(d)
	if err != nil || n <= 0 {
		return fmt.Errorf("duration must be a positive number of seconds, got %q", d)
	}
	return nil
}

func checkRecordset(it Item) error {
	if n := it.Fields.GetString("n_group"); n != "" {
		if v, err := strconv.Atoi(n); err != nil || v <= 0 {
			return fmt.Errorf("n_group must be a positive integer, got %q", n)
		}
	}
	return nil
}
