package topics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trendwatch/internal/logging"
)

// stubOracle scripts one discovery answer.
type stubOracle struct {
	response  string
	err       error
	available bool
}

func (s *stubOracle) Complete(context.Context, string, string) (string, error) {
	return s.response, s.err
}

func (s *stubOracle) CompleteJSON(context.Context, string, string) (string, error) {
	return s.response, s.err
}

func (s *stubOracle) Available() bool { return s.available }

func testManager(t *testing.T, orc *stubOracle) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topics.json")
	m, err := NewManager(NewFileStore(path), orc, []string{"#AI", "tech"}, []string{"@Gopher"}, 5, 3, 24, logging.Discard())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, path
}

// --- Seeding ---

func TestNewManager_SeedsCanonicalDefaults(t *testing.T) {
	m, _ := testManager(t, &stubOracle{})

	tags := m.Hashtags()
	if len(tags) != 2 || tags[0] != "#ai" || tags[1] != "#tech" {
		t.Errorf("Hashtags = %v, want [#ai #tech]", tags)
	}
	accounts := m.Accounts()
	if len(accounts) != 1 || accounts[0] != "gopher" {
		t.Errorf("Accounts = %v, want [gopher]", accounts)
	}
}

func TestNewManager_LoadsPersistedState(t *testing.T) {
	m, path := testManager(t, &stubOracle{})
	m.AddHashtag("#persisted")

	// A new manager against the same file must see the mutation, not
	// the defaults.
	m2, err := NewManager(NewFileStore(path), &stubOracle{}, []string{"#other"}, nil, 5, 3, 24, logging.Discard())
	if err != nil {
		t.Fatalf("NewManager (reload): %v", err)
	}
	if !contains(m2.Hashtags(), "#persisted") {
		t.Errorf("reloaded Hashtags = %v, want #persisted retained", m2.Hashtags())
	}
	if contains(m2.Hashtags(), "#other") {
		t.Error("reloaded manager re-seeded defaults over persisted state")
	}
}

// --- Mutations ---

func TestAddHashtag_DuplicateIsNoOp(t *testing.T) {
	m, _ := testManager(t, &stubOracle{})

	if !m.AddHashtag("newone") {
		t.Fatal("AddHashtag(newone) = false, want true")
	}
	if m.AddHashtag("#NewOne") {
		t.Error("AddHashtag of a canonical duplicate returned true")
	}
}

func TestAddHashtag_PersistsImmediately(t *testing.T) {
	m, path := testManager(t, &stubOracle{})
	m.AddHashtag("#durable")

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("state file missing after mutation: %v", err)
	}
	set, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !contains(set.Hashtags, "#durable") {
		t.Errorf("persisted Hashtags = %v, want #durable", set.Hashtags)
	}
}

func TestRemoveHashtag(t *testing.T) {
	m, _ := testManager(t, &stubOracle{})

	if !m.RemoveHashtag("#AI") {
		t.Fatal("RemoveHashtag(#AI) = false, want true")
	}
	if contains(m.Hashtags(), "#ai") {
		t.Errorf("Hashtags = %v, want #ai gone", m.Hashtags())
	}
	if m.RemoveHashtag("#AI") {
		t.Error("second RemoveHashtag returned true")
	}
}

func TestSetCategoryStatus(t *testing.T) {
	m, _ := testManager(t, &stubOracle{})

	if !m.SetCategoryStatus("tech", true) {
		t.Fatal("creating a category returned false")
	}
	if m.SetCategoryStatus("tech", true) {
		t.Error("setting an unchanged status returned true")
	}
	if !m.SetCategoryStatus("tech", false) {
		t.Error("toggling a category returned false")
	}
	if got := m.ActiveCategories(); len(got) != 0 {
		t.Errorf("ActiveCategories = %v, want empty", got)
	}
}

// --- Discovery ---

func TestDiscoverNewTopics_AppliesOracleSuggestions(t *testing.T) {
	orc := &stubOracle{
		available: true,
		response:  `{"hashtags": ["#Fresh", "#ai"], "accounts": ["@newsbot"]}`,
	}
	m, _ := testManager(t, orc)

	if !m.DiscoverNewTopics(context.Background(), []string{"#trendy"}) {
		t.Fatal("DiscoverNewTopics = false, want true")
	}
	if !contains(m.Hashtags(), "#fresh") {
		t.Errorf("Hashtags = %v, want #fresh added", m.Hashtags())
	}
	if !contains(m.Accounts(), "newsbot") {
		t.Errorf("Accounts = %v, want newsbot added", m.Accounts())
	}

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("History has %d records, want 1", len(history))
	}
	if history[0].Source != "oracle" {
		t.Errorf("record source = %s, want oracle", history[0].Source)
	}
	// #ai was already monitored; only the genuinely new tag is recorded.
	if len(history[0].AddedHashtags) != 1 || history[0].AddedHashtags[0] != "#fresh" {
		t.Errorf("AddedHashtags = %v, want [#fresh]", history[0].AddedHashtags)
	}
}

func TestDiscoverNewTopics_OracleFailureIsFalse(t *testing.T) {
	orc := &stubOracle{available: true, response: "no json here"}
	m, _ := testManager(t, orc)

	if m.DiscoverNewTopics(context.Background(), nil) {
		t.Error("DiscoverNewTopics = true on malformed oracle output")
	}
	if len(m.History()) != 0 {
		t.Error("failed discovery left a history record")
	}
}

func TestDiscoverNewTopics_NoOracleIsFalse(t *testing.T) {
	m, _ := testManager(t, &stubOracle{available: false})

	if m.DiscoverNewTopics(context.Background(), nil) {
		t.Error("DiscoverNewTopics = true without an oracle")
	}
}

func TestApply_RespectsCaps(t *testing.T) {
	m, _ := testManager(t, &stubOracle{})

	added := m.Apply(
		[]string{"#one", "#two", "#three", "#four", "#five", "#six", "#seven"},
		[]string{"a1", "a2", "a3", "a4"},
		"oracle",
	)
	if !added {
		t.Fatal("Apply = false, want true")
	}

	history := m.History()
	if got := len(history[0].AddedHashtags); got != 5 {
		t.Errorf("added %d hashtags, want the cap of 5", got)
	}
	if got := len(history[0].AddedAccounts); got != 3 {
		t.Errorf("added %d accounts, want the cap of 3", got)
	}
}

func TestApply_NothingNewReturnsFalse(t *testing.T) {
	m, _ := testManager(t, &stubOracle{})

	if m.Apply([]string{"#AI"}, []string{"@gopher"}, "emergency") {
		t.Error("Apply = true when everything was already monitored")
	}
	if len(m.History()) != 0 {
		t.Error("no-op Apply left a history record")
	}
}

// --- Refresh interval ---

func TestNeedsRefresh(t *testing.T) {
	m, _ := testManager(t, &stubOracle{})

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.set.LastUpdated = base

	m.now = func() time.Time { return base.Add(12 * time.Hour) }
	if m.NeedsRefresh() {
		t.Error("NeedsRefresh = true before the interval elapsed")
	}

	m.now = func() time.Time { return base.Add(25 * time.Hour) }
	if !m.NeedsRefresh() {
		t.Error("NeedsRefresh = false after the interval elapsed")
	}
}
