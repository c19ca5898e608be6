package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxPageNumber bounds page numbers accepted in a page list
const MaxPageNumber = 100000

// ParsePageSet parses a page list such as "1,3-5" into sorted, unique page numbers
func ParsePageSet(s string) ([]int, error) {
	seen := make(map[int]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi := part, part
		if i := strings.Index(part, "-"); i >= 0 {
			lo, hi = strings.TrimSpace(part[:i]), strings.TrimSpace(part[i+1:])
		}

		first, err := parsePage(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q: %w", part, err)
		}
		last, err := parsePage(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid page range %q: %w", part, err)
		}
		if last < first {
			return nil, fmt.Errorf("invalid page range %q: end before start", part)
		}

		for p := first; p <= last; p++ {
			seen[p] = struct{}{}
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a page number: %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("page numbers start at 1, got %d", n)
	}
	if n > MaxPageNumber {
		return 0, fmt.Errorf("page number %d exceeds the limit of %d", n, MaxPageNumber)
	}
	return n, nil
}
