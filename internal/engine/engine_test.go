package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"valuecards/internal/fault"
	"valuecards/internal/model"
	"valuecards/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, zap.NewNop()), s
}

func strptr(s string) *string { return &s }

// fillHigh moves n selections into the high tier and returns them.
func fillHigh(t *testing.T, e *Engine, sessionID string, n int) []model.Selection {
	t.Helper()
	ctx := context.Background()
	selections, err := e.Selections(ctx, sessionID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(selections), n)

	out := make([]model.Selection, 0, n)
	for i := 0; i < n; i++ {
		sel, err := e.SetPriority(ctx, selections[i].ID, model.PriorityHigh)
		require.NoError(t, err)
		out = append(out, *sel)
	}
	return out
}

func TestInitializeSession(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	sess, selections, err := e.InitializeSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.NotEmpty(t, selections)
	for _, sel := range selections {
		assert.Equal(t, model.PriorityUnsorted, sel.Priority)
		assert.False(t, sel.IsCore)
	}
}

func TestSetPriorityRejectsUnsortedAndUnknown(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	_, selections, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	_, err = e.SetPriority(ctx, selections[0].ID, model.PriorityUnsorted)
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = e.SetPriority(ctx, selections[0].ID, model.Priority("urgent"))
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = e.SetPriority(ctx, "no-such-selection", model.PriorityHigh)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestHighTierCap(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, selections, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	fillHigh(t, e, sess.ID, model.MaxHighValues)

	// The 16th move must fail and leave every priority untouched.
	candidate := selections[model.MaxHighValues]
	_, err = e.SetPriority(ctx, candidate.ID, model.PriorityHigh)
	assert.ErrorIs(t, err, fault.ErrCapacity)

	after, err := e.Selections(ctx, sess.ID)
	require.NoError(t, err)
	high := 0
	for _, sel := range after {
		if sel.Priority == model.PriorityHigh {
			high++
		}
		if sel.ID == candidate.ID {
			assert.Equal(t, model.PriorityUnsorted, sel.Priority)
		}
	}
	assert.Equal(t, model.MaxHighValues, high)

	// A selection already in high may be "moved" to high freely.
	_, err = e.SetPriority(ctx, after[0].ID, model.PriorityHigh)
	assert.NoError(t, err)
}

func TestCoreCap(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	high := fillHigh(t, e, sess.ID, model.MaxCoreValues+1)
	for i := 0; i < model.MaxCoreValues; i++ {
		_, err := e.SetCoreMembership(ctx, high[i].ID, true, nil)
		require.NoError(t, err)
	}

	// The 8th flag must fail; the candidate stays non-core.
	_, err = e.SetCoreMembership(ctx, high[model.MaxCoreValues].ID, true, nil)
	assert.ErrorIs(t, err, fault.ErrCapacity)

	got, err := e.Selections(ctx, sess.ID)
	require.NoError(t, err)
	core := 0
	for _, sel := range got {
		if sel.IsCore {
			core++
		}
		if sel.ID == high[model.MaxCoreValues].ID {
			assert.False(t, sel.IsCore)
		}
	}
	assert.Equal(t, model.MaxCoreValues, core)

	// Re-flagging an existing core value does not count against the cap.
	_, err = e.SetCoreMembership(ctx, high[0].ID, true, nil)
	assert.NoError(t, err)
}

func TestCoreRequiresHighTier(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	_, selections, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	sel, err := e.SetPriority(ctx, selections[0].ID, model.PriorityMedium)
	require.NoError(t, err)

	_, err = e.SetCoreMembership(ctx, sel.ID, true, nil)
	assert.ErrorIs(t, err, fault.ErrValidation)
}

func TestDemotionClearsCoreFlag(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	high := fillHigh(t, e, sess.ID, 1)
	cored, err := e.SetCoreMembership(ctx, high[0].ID, true, nil)
	require.NoError(t, err)
	require.True(t, cored.IsCore)

	demoted, err := e.SetPriority(ctx, cored.ID, model.PriorityLow)
	require.NoError(t, err)
	assert.False(t, demoted.IsCore, "core flag must not survive leaving the high tier")
	assert.Equal(t, model.PriorityLow, demoted.Priority)
}

func TestCoreDescriptionTriState(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)
	high := fillHigh(t, e, sess.ID, 1)
	id := high[0].ID

	sel, err := e.SetCoreMembership(ctx, id, true, strptr("what this means to me"))
	require.NoError(t, err)
	require.NotNil(t, sel.DescriptionOverride)
	assert.Equal(t, "what this means to me", *sel.DescriptionOverride)

	// Absent description leaves the override alone.
	sel, err = e.SetCoreMembership(ctx, id, true, nil)
	require.NoError(t, err)
	require.NotNil(t, sel.DescriptionOverride)

	// Explicit empty string clears it.
	sel, err = e.SetCoreMembership(ctx, id, true, strptr(""))
	require.NoError(t, err)
	assert.Nil(t, sel.DescriptionOverride)
}

func TestAddCustomSelection(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	sel, err := e.AddCustomSelection(ctx, sess.ID, "Integrity", nil)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, sel.Priority)
	assert.False(t, sel.IsCore)
	assert.Equal(t, "Integrity", sel.DisplayLabel())
	assert.Nil(t, sel.CustomDescription)
	assert.True(t, sel.IsCustom())

	_, err = e.AddCustomSelection(ctx, sess.ID, "   ", nil)
	assert.ErrorIs(t, err, fault.ErrValidation)

	_, err = e.AddCustomSelection(ctx, "no-such-session", "Grit", nil)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestAddCustomSelectionRespectsHighCap(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	fillHigh(t, e, sess.ID, model.MaxHighValues)

	_, err = e.AddCustomSelection(ctx, sess.ID, "One Too Many", nil)
	assert.ErrorIs(t, err, fault.ErrCapacity)

	after, err := e.Selections(ctx, sess.ID)
	require.NoError(t, err)
	for _, sel := range after {
		assert.False(t, sel.IsCustom(), "rejected custom value must not be persisted")
	}
}

func TestFinalizeSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	first, err := e.FinalizeSession(ctx, sess.ID, strptr("Ada"), strptr("ada@example.com"))
	require.NoError(t, err)
	require.True(t, first.Finalized())
	assert.Len(t, *first.Slug, slugLen)
	assert.NotNil(t, first.CompletedAt)

	// Second call returns the same slug and keeps the original name.
	second, err := e.FinalizeSession(ctx, sess.ID, strptr("Somebody Else"), nil)
	require.NoError(t, err)
	assert.Equal(t, *first.Slug, *second.Slug)
	require.NotNil(t, second.UserName)
	assert.Equal(t, "Ada", *second.UserName)

	_, err = e.FinalizeSession(ctx, "no-such-session", nil, nil)
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestSaveReflections(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)
	final, err := e.FinalizeSession(ctx, sess.ID, nil, nil)
	require.NoError(t, err)

	err = e.SaveReflections(ctx, *final.Slug, map[string]string{"daily": "in small ways"})
	assert.NoError(t, err)

	err = e.SaveReflections(ctx, *final.Slug, map[string]string{"made-up": "nope"})
	assert.ErrorIs(t, err, fault.ErrValidation)

	got, err := e.SessionBySlug(ctx, *final.Slug)
	require.NoError(t, err)
	assert.Equal(t, "in small ways", got.Reflections["daily"])
}

func TestCoreStepScenario(t *testing.T) {
	// Initialize, sort four into high, flag only three core: the session
	// must not be finalize-ready by the 4-core rule the pages enforce.
	ctx := context.Background()
	e, _ := newTestEngine(t)
	sess, _, err := e.InitializeSession(ctx)
	require.NoError(t, err)

	high := fillHigh(t, e, sess.ID, 4)
	for i := 0; i < 3; i++ {
		_, err := e.SetCoreMembership(ctx, high[i].ID, true, nil)
		require.NoError(t, err)
	}

	selections, err := e.Selections(ctx, sess.ID)
	require.NoError(t, err)
	core := 0
	for _, sel := range selections {
		if sel.IsCore {
			core++
		}
	}
	assert.Less(t, core, model.MinCoreValues)
}

func TestNewSlugShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		slug := newSlug()
		assert.Len(t, slug, slugLen)
		for _, r := range slug {
			assert.Contains(t, slugAlphabet, string(r))
		}
		seen[slug] = true
	}
	assert.Len(t, seen, 100, "slugs expected to be unique in practice")
}
