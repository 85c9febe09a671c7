package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"valuecards/internal/fault"
	"valuecards/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strptr(s string) *string { return &s }

func TestInitSessionSeedsDeck(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, selections, err := s.InitSession(ctx)
	if err != nil {
		t.Fatalf("init session: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected non-empty session ID")
	}
	if sess.Finalized() {
		t.Error("fresh session should not be finalized")
	}
	if len(selections) != len(defaultDeck) {
		t.Errorf("expected %d selections, got %d", len(defaultDeck), len(selections))
	}
	for _, sel := range selections {
		if sel.Priority != model.PriorityUnsorted {
			t.Errorf("selection %s: expected unsorted, got %s", sel.ID, sel.Priority)
		}
		if sel.IsCore {
			t.Errorf("selection %s: expected non-core", sel.ID)
		}
		if sel.IsCustom() {
			t.Errorf("selection %s: seeded selection reported custom", sel.ID)
		}
	}

	// The same set must come back from a fresh read, catalog joined in.
	stored, err := s.Selections(ctx, sess.ID)
	if err != nil {
		t.Fatalf("list selections: %v", err)
	}
	if len(stored) != len(selections) {
		t.Fatalf("expected %d stored selections, got %d", len(selections), len(stored))
	}
	if stored[0].Catalog == nil || stored[0].Catalog.Label == "" {
		t.Error("expected joined catalog definition")
	}
}

func TestSessionNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Session(ctx, "missing")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_, err = s.SessionBySlug(ctx, "missing")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected ErrNotFound for slug, got %v", err)
	}
}

func TestUpdatePriorityAndClearCore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sess, selections, _ := s.InitSession(ctx)

	sel := selections[0]
	if err := s.UpdatePriority(ctx, sel.ID, model.PriorityHigh, false); err != nil {
		t.Fatalf("update priority: %v", err)
	}
	if err := s.UpdateCore(ctx, sel.ID, true, nil); err != nil {
		t.Fatalf("update core: %v", err)
	}

	if err := s.UpdatePriority(ctx, sel.ID, model.PriorityMedium, true); err != nil {
		t.Fatalf("demote: %v", err)
	}

	got, err := s.Selection(ctx, sel.ID)
	if err != nil {
		t.Fatalf("fetch selection: %v", err)
	}
	if got.Priority != model.PriorityMedium {
		t.Errorf("expected medium, got %s", got.Priority)
	}
	if got.IsCore {
		t.Error("expected core flag cleared with demotion")
	}
	_ = sess
}

func TestUpdateCoreOverrideSemantics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, selections, _ := s.InitSession(ctx)
	id := selections[0].ID

	// Set an override.
	if err := s.UpdateCore(ctx, id, true, strptr("my words")); err != nil {
		t.Fatalf("set override: %v", err)
	}
	got, _ := s.Selection(ctx, id)
	if got.DescriptionOverride == nil || *got.DescriptionOverride != "my words" {
		t.Fatalf("expected override stored, got %+v", got.DescriptionOverride)
	}

	// nil leaves it alone.
	if err := s.UpdateCore(ctx, id, false, nil); err != nil {
		t.Fatalf("toggle core: %v", err)
	}
	got, _ = s.Selection(ctx, id)
	if got.DescriptionOverride == nil || *got.DescriptionOverride != "my words" {
		t.Error("nil override should leave stored value unchanged")
	}

	// Empty string clears it.
	if err := s.UpdateCore(ctx, id, false, strptr("")); err != nil {
		t.Fatalf("clear override: %v", err)
	}
	got, _ = s.Selection(ctx, id)
	if got.DescriptionOverride != nil {
		t.Errorf("expected cleared override, got %q", *got.DescriptionOverride)
	}
}

func TestInsertCustom(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sess, _, _ := s.InitSession(ctx)

	sel, err := s.InsertCustom(ctx, sess.ID, "Integrity", nil)
	if err != nil {
		t.Fatalf("insert custom: %v", err)
	}
	if sel.Priority != model.PriorityHigh {
		t.Errorf("expected high priority, got %s", sel.Priority)
	}
	if sel.IsCore {
		t.Error("expected non-core")
	}
	if !sel.IsCustom() {
		t.Error("expected custom selection")
	}
	if sel.DisplayLabel() != "Integrity" {
		t.Errorf("expected label Integrity, got %q", sel.DisplayLabel())
	}
	if sel.CustomDescription != nil {
		t.Errorf("expected nil description, got %q", *sel.CustomDescription)
	}
}

func TestFinalizeAndSlugCollision(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _, _ := s.InitSession(ctx)
	b, _, _ := s.InitSession(ctx)

	got, err := s.Finalize(ctx, a.ID, "slug-aaaaaa", strptr("Ada"), nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !got.Finalized() || *got.Slug != "slug-aaaaaa" {
		t.Fatalf("expected finalized session with slug, got %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at set with slug")
	}
	if got.UserName == nil || *got.UserName != "Ada" {
		t.Error("expected stored name")
	}

	_, err = s.Finalize(ctx, b.ID, "slug-aaaaaa", nil, nil)
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	// COALESCE keeps previously stored identity fields.
	got, err = s.Finalize(ctx, a.ID, "slug-aaaaaa", nil, strptr("ada@example.com"))
	if err != nil {
		t.Fatalf("re-finalize: %v", err)
	}
	if got.UserName == nil || *got.UserName != "Ada" {
		t.Error("nil name must not overwrite stored name")
	}
	if got.UserEmail == nil || *got.UserEmail != "ada@example.com" {
		t.Error("expected stored email")
	}
}

func TestReflectionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	sess, _, _ := s.InitSession(ctx)
	s.Finalize(ctx, sess.ID, "slug-bbbbbb", nil, nil)

	responses := map[string]string{
		"daily":   "at work, mostly",
		"tension": "time with family",
	}
	if err := s.SaveReflections(ctx, "slug-bbbbbb", responses); err != nil {
		t.Fatalf("save reflections: %v", err)
	}

	got, err := s.SessionBySlug(ctx, "slug-bbbbbb")
	if err != nil {
		t.Fatalf("fetch by slug: %v", err)
	}
	if diff := cmp.Diff(responses, got.Reflections); diff != "" {
		t.Errorf("reflections mismatch (-want +got):\n%s", diff)
	}

	if err := s.SaveReflections(ctx, "no-such-slug", responses); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown slug, got %v", err)
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	defs, err := s.Catalog(ctx, true)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(defs) != len(defaultDeck) {
		t.Errorf("expected %d defaults, got %d", len(defaultDeck), len(defs))
	}
	for _, d := range defs {
		if d.Label == "" {
			t.Errorf("catalog entry %s: empty label", d.ID)
		}
	}
}
