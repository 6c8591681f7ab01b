package result

import "encoding/json"

// Bucket is one (status code, count) pair of a Tally.
type Bucket struct {
	StatusCode int `json:"status_code" yaml:"status_code"`
	Count      int `json:"count" yaml:"count"`
}

// Tally counts outcomes by HTTP status code, remembering the order in which
// codes were first seen. Unreachable URLs are counted separately.
type Tally struct {
	order       []int
	counts      map[int]int
	unreachable int
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[int]int)}
}

// Add increments the bucket for code.
func (t *Tally) Add(code int) {
	if _, seen := t.counts[code]; !seen {
		t.order = append(t.order, code)
	}
	t.counts[code]++
}

// AddUnreachable increments the unreachable counter.
func (t *Tally) AddUnreachable() {
	t.unreachable++
}

// Count returns the number of URLs that answered with code.
func (t *Tally) Count(code int) int {
	return t.counts[code]
}

// Unreachable returns the number of URLs that produced no HTTP status.
func (t *Tally) Unreachable() int {
	return t.unreachable
}

// Buckets returns the counts in first-seen order.
func (t *Tally) Buckets() []Bucket {
	buckets := make([]Bucket, 0, len(t.order))
	for _, code := range t.order {
		buckets = append(buckets, Bucket{StatusCode: code, Count: t.counts[code]})
	}
	return buckets
}

// Sum returns the total across all status buckets plus unreachable URLs.
func (t *Tally) Sum() int {
	sum := t.unreachable
	for _, count := range t.counts {
		sum += count
	}
	return sum
}

type tallyView struct {
	Buckets     []Bucket `json:"buckets" yaml:"buckets"`
	Unreachable int      `json:"unreachable" yaml:"unreachable"`
}

// MarshalJSON keeps first-seen order, which a JSON object would lose.
func (t *Tally) MarshalJSON() ([]byte, error) {
	return json.Marshal(tallyView{Buckets: t.Buckets(), Unreachable: t.unreachable})
}

// UnmarshalJSON restores a Tally written by MarshalJSON.
func (t *Tally) UnmarshalJSON(data []byte) error {
	var view tallyView
	if err := json.Unmarshal(data, &view); err != nil {
		return err
	}
	*t = *NewTally()
	for _, bucket := range view.Buckets {
		t.order = append(t.order, bucket.StatusCode)
		t.counts[bucket.StatusCode] = bucket.Count
	}
	t.unreachable = view.Unreachable
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t *Tally) MarshalYAML() (interface{}, error) {
	if t == nil {
		return nil, nil
	}
	return tallyView{Buckets: t.Buckets(), Unreachable: t.unreachable}, nil
}
