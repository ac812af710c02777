package trends

import (
	"testing"

	"trendwatch/internal/feed"
)

func ingest(m *FrequencyModel, texts ...string) {
	posts := make([]feed.Post, len(texts))
	for i, txt := range texts {
		posts[i] = feed.Post{ID: txt, Text: txt}
	}
	m.Ingest(posts)
}

// --- Tokenization ---

func TestIngest_KeepsHashtagsAndMentions(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "big launch of #golang by @gopher")

	current := m.Current()
	if current["#golang"] != 1 {
		t.Errorf("count[#golang] = %d, want 1", current["#golang"])
	}
	if current["@gopher"] != 1 {
		t.Errorf("count[@gopher] = %d, want 1", current["@gopher"])
	}
	if current["launch"] != 1 {
		t.Errorf("count[launch] = %d, want 1", current["launch"])
	}
}

func TestIngest_DropsStopwordsAndShortTerms(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "the new AI is here and it works")

	current := m.Current()
	for _, banned := range []string{"the", "new", "and", "is", "it", "ai"} {
		if _, ok := current[banned]; ok {
			t.Errorf("count contains %q, want it dropped", banned)
		}
	}
	if current["works"] != 1 {
		t.Errorf("count[works] = %d, want 1", current["works"])
	}
	if current["here"] != 1 {
		t.Errorf("count[here] = %d, want 1", current["here"])
	}
}

func TestIngest_Lowercases(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "#GoLang #golang #GOLANG")

	if got := m.Current()["#golang"]; got != 3 {
		t.Errorf("count[#golang] = %d, want 3", got)
	}
}

func TestIngest_DropsBareMarkers(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "# @ weird tokens")

	current := m.Current()
	if _, ok := current["#"]; ok {
		t.Error("count contains bare #")
	}
	if _, ok := current["@"]; ok {
		t.Error("count contains bare @")
	}
}

func TestIngest_ShortHashtagDropped(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "#ai keeps #tech alive")

	current := m.Current()
	// #ai has only two chars behind the marker.
	if _, ok := current["#ai"]; ok {
		t.Error("count contains #ai, want it dropped for length")
	}
	if current["#tech"] != 1 {
		t.Errorf("count[#tech] = %d, want 1", current["#tech"])
	}
}

func TestIngest_ExcludedTerms(t *testing.T) {
	m := NewFrequencyModel([]string{"spam", "#Promo"})
	ingest(m, "spam spam #promo legit")

	current := m.Current()
	if _, ok := current["spam"]; ok {
		t.Error("count contains excluded term spam")
	}
	if _, ok := current["#promo"]; ok {
		t.Error("count contains excluded term #promo")
	}
	if current["legit"] != 1 {
		t.Errorf("count[legit] = %d, want 1", current["legit"])
	}
}

func TestIngest_PrefersFullText(t *testing.T) {
	m := NewFrequencyModel(nil)
	m.Ingest([]feed.Post{{
		ID:       "1",
		Text:     "truncated…",
		FullText: "complete #story here",
	}})

	current := m.Current()
	if current["#story"] != 1 {
		t.Errorf("count[#story] = %d, want 1 (full text should win)", current["#story"])
	}
	if _, ok := current["truncated"]; ok {
		t.Error("count contains term from truncated text")
	}
}

// --- Shift ---

func TestShift_MovesCurrentToPrevious(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "#alpha #alpha")

	m.Shift()
	ingest(m, "#alpha #beta")

	if got := m.Previous()["#alpha"]; got != 2 {
		t.Errorf("previous[#alpha] = %d, want 2", got)
	}
	if got := m.Current()["#alpha"]; got != 1 {
		t.Errorf("current[#alpha] = %d, want 1", got)
	}
	if got := m.Current()["#beta"]; got != 1 {
		t.Errorf("current[#beta] = %d, want 1", got)
	}
}

func TestShift_DiscardsOlderSnapshot(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "#old")
	m.Shift()
	m.Shift()

	if got := len(m.Previous()); got != 0 {
		t.Errorf("previous has %d terms after double shift, want 0", got)
	}
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	m := NewFrequencyModel(nil)
	ingest(m, "#alpha")

	snapshot := m.Current()
	snapshot["#alpha"] = 99

	if got := m.Current()["#alpha"]; got != 1 {
		t.Errorf("current[#alpha] = %d after mutating a copy, want 1", got)
	}
}
