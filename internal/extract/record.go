package extract

import (
	"bytes"
	"encoding/json"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
)

// PageRecord holds the values extracted from one page, or from several pages
// after consolidation. Fields keep the display order of the areas.
type PageRecord struct {
	Pages   []int
	Values  map[string][]string
	Scalars map[string]string
	order   []string
}

func newPageRecord(page int, order []string) *PageRecord {
	return &PageRecord{
		Pages:  []int{page},
		Values: make(map[string][]string, len(order)),
		order:  order,
	}
}

// NewPageRecord builds a record for page with fields ordered as list
func NewPageRecord(page int, list []areas.Area) *PageRecord {
	return newPageRecord(page, fieldOrder(list))
}

// Set stores the values for an area
func (r *PageRecord) Set(name string, values []string) {
	if values == nil {
		values = []string{}
	}
	r.Values[name] = values
	if !r.hasField(name) {
		r.order = append(r.order, name)
	}
}

// Value returns the values stored for an area
func (r PageRecord) Value(name string) []string {
	return r.Values[name]
}

// Scalar returns the merged value of an area when it was collapsed into one string
func (r PageRecord) Scalar(name string) (string, bool) {
	s, ok := r.Scalars[name]
	return s, ok
}

// Fields returns the area names in output order
func (r PageRecord) Fields() []string {
	return append([]string(nil), r.order...)
}

func (r PageRecord) hasField(name string) bool {
	for _, f := range r.order {
		if f == name {
			return true
		}
	}
	return false
}

// MarshalJSON writes a flat object: pageNumber first, then one key per area
func (r PageRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	var pages any = r.Pages
	if len(r.Pages) == 1 {
		pages = r.Pages[0]
	}
	if err := writeField(&buf, areas.ReservedName, pages); err != nil {
		return nil, err
	}

	for _, name := range r.order {
		buf.WriteByte(',')
		var v any = r.Values[name]
		if s, ok := r.Scalars[name]; ok {
			v = s
		} else if r.Values[name] == nil {
			v = []string{}
		}
		if err := writeField(&buf, name, v); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func fieldOrder(list []areas.Area) []string {
	order := make([]string, 0, len(list))
	for _, a := range list {
		order = append(order, a.Name)
	}
	return order
}
