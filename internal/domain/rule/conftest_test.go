package rule

import (
	"encoding/json"
	"testing"
)

func mustRecord(t *testing.T, raw string) *Record {
	t.Helper()
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	return &rec
}

