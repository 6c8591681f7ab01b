package result

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTallyFirstSeenOrder(t *testing.T) {
	tally := NewTally()
	for _, code := range []int{404, 200, 404, 301, 200, 200} {
		tally.Add(code)
	}

	want := []Bucket{
		{StatusCode: 404, Count: 2},
		{StatusCode: 200, Count: 3},
		{StatusCode: 301, Count: 1},
	}
	if got := tally.Buckets(); !reflect.DeepEqual(got, want) {
		t.Errorf("Buckets() = %v, want %v", got, want)
	}
	if tally.Count(200) != 3 {
		t.Errorf("Count(200) = %d, want 3", tally.Count(200))
	}
	if tally.Count(500) != 0 {
		t.Errorf("Count(500) = %d, want 0", tally.Count(500))
	}
}

func TestTallySumIncludesUnreachable(t *testing.T) {
	tally := NewTally()
	tally.Add(200)
	tally.Add(500)
	tally.AddUnreachable()
	tally.AddUnreachable()

	if tally.Unreachable() != 2 {
		t.Errorf("Unreachable() = %d, want 2", tally.Unreachable())
	}
	if tally.Sum() != 4 {
		t.Errorf("Sum() = %d, want 4", tally.Sum())
	}
}

func TestTallyEmpty(t *testing.T) {
	tally := NewTally()
	if len(tally.Buckets()) != 0 {
		t.Errorf("expected no buckets, got %v", tally.Buckets())
	}
	if tally.Sum() != 0 {
		t.Errorf("Sum() = %d, want 0", tally.Sum())
	}
}

func TestTallyJSONKeepsOrder(t *testing.T) {
	tally := NewTally()
	tally.Add(503)
	tally.Add(200)
	tally.AddUnreachable()

	data, err := json.Marshal(tally)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"buckets":[{"status_code":503,"count":1},{"status_code":200,"count":1}],"unreachable":1}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	decoded := NewTally()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded.Buckets(), tally.Buckets()) || decoded.Unreachable() != 1 {
		t.Errorf("decoded tally %v/%d differs from the encoded one", decoded.Buckets(), decoded.Unreachable())
	}
}

func TestReportHasFailures(t *testing.T) {
	tests := []struct {
		name   string
		report *Report
		want   bool
	}{
		{"nil report", nil, false},
		{"clean report", &Report{Total: 3}, false},
		{"error records", &Report{Errors: []ErrorRecord{{URL: "https://example.com/x", StatusCode: 404}}}, true},
		{"unreachable", &Report{Unreachable: []Failure{{URL: "https://down.example.com/"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.HasFailures(); got != tt.want {
				t.Errorf("HasFailures() = %v, want %v", got, tt.want)
			}
		})
	}
}
