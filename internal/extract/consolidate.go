package extract

import (
	"strings"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
)

// Consolidate groups records that share the same identifier value, in order
// of first appearance. Page numbers and values are concatenated; areas with
// the Merge flag become a single space-joined value. Without an identifier
// area the records are returned unchanged.
func Consolidate(records []PageRecord, list []areas.Area) []PageRecord {
	id, ok := areas.FindByType(list, areas.FieldIdentifier)
	if !ok {
		return records
	}

	list = ordered(list)
	var out []*PageRecord
	groups := make(map[string]*PageRecord)

	for _, rec := range records {
		key := firstValue(rec.Values[id.Name])
		group, found := groups[key]
		if !found || key == "" {
			group = &PageRecord{
				Values: make(map[string][]string, len(list)),
				order:  fieldOrder(list),
			}
			for _, a := range list {
				group.Values[a.Name] = []string{}
			}
			out = append(out, group)
			if key != "" {
				groups[key] = group
			}
		}

		group.Pages = append(group.Pages, rec.Pages...)
		for _, a := range list {
			if a.Name == id.Name && found {
				continue
			}
			group.Values[a.Name] = append(group.Values[a.Name], rec.Values[a.Name]...)
		}
	}

	result := make([]PageRecord, 0, len(out))
	for _, group := range out {
		for _, a := range list {
			if !a.Merge {
				continue
			}
			if group.Scalars == nil {
				group.Scalars = make(map[string]string)
			}
			group.Scalars[a.Name] = strings.Join(group.Values[a.Name], " ")
		}
		result = append(result, *group)
	}
	return result
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
