package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/a3tai/mcp-pdf-areas/internal/areas"
	"github.com/a3tai/mcp-pdf-areas/internal/layout"
)

// Fingerprint is a digest over every input that influences an extraction result
type Fingerprint string

// fingerprintArea is the part of an Area that affects output
type fingerprintArea struct {
	Name      string          `json:"name"`
	Order     int             `json:"order"`
	Type      areas.FieldType `json:"type"`
	Region    *areas.Rect     `json:"region"`
	Mandatory bool            `json:"mandatory"`
	Merge     bool            `json:"merge"`
	OCR       bool            `json:"ocr"`
}

type fingerprintInput struct {
	Areas    []fingerprintArea `json:"areas"`
	Document Identity          `json:"document"`
	Excluded []int             `json:"excluded"`
	View     layout.View       `json:"view"`
}

// ComputeFingerprint digests areas, document identity, excluded pages and
// the display view. Area IDs and selection state are ignored and the
// excluded pages are order-insensitive.
func ComputeFingerprint(list []areas.Area, id Identity, excluded []int, view layout.View) Fingerprint {
	in := fingerprintInput{
		Areas:    make([]fingerprintArea, 0, len(list)),
		Document: id,
		Excluded: normalizePages(excluded),
		View:     view,
	}
	in.Document.ModTime = id.ModTime.UTC()

	for _, a := range ordered(list) {
		in.Areas = append(in.Areas, fingerprintArea{
			Name:      a.Name,
			Order:     a.Order,
			Type:      a.Type,
			Region:    a.Region,
			Mandatory: a.Mandatory,
			Merge:     a.Merge,
			OCR:       a.OCR,
		})
	}

	data, _ := json.Marshal(in)
	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// normalizePages sorts and de-duplicates page numbers
func normalizePages(pages []int) []int {
	out := make([]int, 0, len(pages))
	seen := make(map[int]bool, len(pages))
	for _, p := range pages {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// CacheStats reports cache usage
type CacheStats struct {
	Hits   int64       `json:"hits"`
	Misses int64       `json:"misses"`
	Stores int64       `json:"stores"`
	Key    Fingerprint `json:"key,omitempty"`
}

// Cache holds the result of the last completed run
type Cache struct {
	mutex   sync.RWMutex
	key     Fingerprint
	records []PageRecord
	valid   bool
	hits    int64
	misses  int64
	stores  int64
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{}
}

// Lookup returns the stored records when fp matches the stored fingerprint
func (c *Cache) Lookup(fp Fingerprint) ([]PageRecord, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.valid && c.key == fp {
		c.hits++
		return c.records, true
	}

	c.misses++
	return nil, false
}

// Store replaces whatever was cached
func (c *Cache) Store(fp Fingerprint, records []PageRecord) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.key = fp
	c.records = records
	c.valid = true
	c.stores++
}

// Current returns the fingerprint of the stored result
func (c *Cache) Current() (Fingerprint, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.key, c.valid
}

// Clear drops the stored result
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.key = ""
	c.records = nil
	c.valid = false
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := CacheStats{Hits: c.hits, Misses: c.misses, Stores: c.stores}
	if c.valid {
		stats.Key = c.key
	}
	return stats
}
