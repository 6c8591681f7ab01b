package sitemap

import (
	bloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/lukemcguire/sitemapcheck/urlutil"
)

// SeenSet tracks URLs by their normalized key. A bloom filter answers the
// common "definitely new" case; positives are confirmed against an exact set,
// so there are no false positives.
type SeenSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewSeenSet sizes the filter for expected entries at a 0.1% false positive rate.
func NewSeenSet(expected uint) *SeenSet {
	if expected == 0 {
		expected = 1024
	}
	return &SeenSet{
		filter: bloom.NewWithEstimates(expected, 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Contains reports whether rawURL (or an equivalent URL) was added before.
func (s *SeenSet) Contains(rawURL string) bool {
	key := urlutil.Key(rawURL)
	if !s.filter.TestString(key) {
		return false
	}
	_, ok := s.exact[key]
	return ok
}

// AddIfNew marks rawURL as seen. It returns true if the URL was new.
func (s *SeenSet) AddIfNew(rawURL string) bool {
	key := urlutil.Key(rawURL)
	if s.filter.TestString(key) {
		if _, ok := s.exact[key]; ok {
			return false
		}
	}
	s.filter.AddString(key)
	s.exact[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys added.
func (s *SeenSet) Len() int {
	return len(s.exact)
}
