package trends

import (
	"testing"
	"time"
)

// --- History ---

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 15; i++ {
		h.Push([]Trend{{Term: term(i)}})
	}

	if got := h.Len(); got != 10 {
		t.Fatalf("Len = %d after 15 pushes, want 10", got)
	}
	cycles := h.Cycles()
	if got := cycles[0][0].Term; got != term(5) {
		t.Errorf("oldest retained = %s, want %s", got, term(5))
	}
	if got := cycles[9][0].Term; got != term(14) {
		t.Errorf("newest retained = %s, want %s", got, term(14))
	}
}

func TestHistory_KnownTermsNewestFirstDeduplicated(t *testing.T) {
	h := NewHistory(10)
	h.Push([]Trend{{Term: "#old"}, {Term: "#shared"}})
	h.Push([]Trend{{Term: "#new"}, {Term: "#shared"}})

	got := h.KnownTerms()
	want := []string{"#new", "#shared", "#old"}
	if len(got) != len(want) {
		t.Fatalf("KnownTerms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("KnownTerms[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestHistory_MinimumSizeOne(t *testing.T) {
	h := NewHistory(0)
	h.Push([]Trend{{Term: "#a"}})
	h.Push([]Trend{{Term: "#b"}})

	if got := h.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}
}

func term(i int) string {
	return string(rune('a'+i)) + "-term"
}

// --- FilterByAge ---

func TestFilterByAge_DropsStale(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	list := []Trend{
		{Term: "#fresh", CreatedAt: now.Add(-time.Hour)},
		{Term: "#stale", CreatedAt: now.Add(-48 * time.Hour)},
	}

	got := FilterByAge(list, 24*time.Hour, now)
	if len(got) != 1 || got[0].Term != "#fresh" {
		t.Errorf("FilterByAge kept %v, want only #fresh", Terms(got))
	}
}

func TestFilterByAge_ZeroTimestampRetained(t *testing.T) {
	now := time.Now()
	list := []Trend{{Term: "#unknown"}}

	if got := FilterByAge(list, time.Hour, now); len(got) != 1 {
		t.Errorf("FilterByAge dropped a trend without timestamp")
	}
}

func TestFilterByAge_DisabledKeepsAll(t *testing.T) {
	now := time.Now()
	list := []Trend{{Term: "#old", CreatedAt: now.Add(-1000 * time.Hour)}}

	if got := FilterByAge(list, 0, now); len(got) != 1 {
		t.Errorf("FilterByAge with maxAge 0 dropped entries")
	}
}

// --- Sentiment ---

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		in   string
		want Sentiment
	}{
		{"positive", SentimentPositive},
		{"negative", SentimentNegative},
		{"neutral", SentimentNeutral},
		{"excited", SentimentNeutral},
		{"", SentimentNeutral},
	}
	for _, tt := range tests {
		if got := ParseSentiment(tt.in); got != tt.want {
			t.Errorf("ParseSentiment(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
