// Package engine implements the selection rules of the exercise: tier
// transitions, core-value membership and custom-value admission. Every
// operation validates against a fresh snapshot of the session's selections
// and only then writes.
package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"valuecards/internal/fault"
	"valuecards/internal/model"
	"valuecards/internal/store"
)

// slugAlphabet matches the URL-safe alphabet used for share links.
const slugAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

const slugLen = 10

// Engine applies the exercise rules on top of a Store.
type Engine struct {
	store store.Store
	log   *zap.Logger
}

// New builds an Engine. The logger may be zap.NewNop() in tests.
func New(st store.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: st, log: log}
}

// InitializeSession creates a session pre-populated with one unsorted
// selection per default catalog entry. The session row and its selections
// are written in one transaction.
func (e *Engine) InitializeSession(ctx context.Context) (*model.Session, []model.Selection, error) {
	sess, selections, err := e.store.InitSession(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize session: %w", err)
	}
	e.log.Info("session initialized",
		zap.String("session_id", sess.ID),
		zap.Int("selections", len(selections)))
	return sess, selections, nil
}

// Session fetches a session by ID.
func (e *Engine) Session(ctx context.Context, id string) (*model.Session, error) {
	return e.store.Session(ctx, id)
}

// SessionBySlug fetches a finalized session by its public share slug.
func (e *Engine) SessionBySlug(ctx context.Context, slug string) (*model.Session, error) {
	return e.store.SessionBySlug(ctx, slug)
}

// Selections lists a session's selections with catalog data joined in.
func (e *Engine) Selections(ctx context.Context, sessionID string) ([]model.Selection, error) {
	return e.store.Selections(ctx, sessionID)
}

// SelectionsBySlug lists the selections of a finalized session.
func (e *Engine) SelectionsBySlug(ctx context.Context, slug string) ([]model.Selection, error) {
	sess, err := e.store.SessionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return e.store.Selections(ctx, sess.ID)
}

// SetPriority moves a selection into a new tier. Moving into high is
// capacity-gated at 15; moving a core selection out of high clears its core
// flag in the same write, so is_core implies high after every operation.
func (e *Engine) SetPriority(ctx context.Context, selectionID string, p model.Priority) (*model.Selection, error) {
	if !model.ValidPriorities[p] || p == model.PriorityUnsorted {
		return nil, fmt.Errorf("priority %q: %w", p, fault.ErrValidation)
	}

	sel, err := e.store.Selection(ctx, selectionID)
	if err != nil {
		return nil, err
	}

	if p == model.PriorityHigh && sel.Priority != model.PriorityHigh {
		n, err := e.countTier(ctx, sel.SessionID, selectionID, tierHigh)
		if err != nil {
			return nil, err
		}
		if n >= model.MaxHighValues {
			e.log.Debug("high tier full",
				zap.String("session_id", sel.SessionID),
				zap.String("selection_id", selectionID))
			return nil, fmt.Errorf("high tier holds %d of %d: %w", n, model.MaxHighValues, fault.ErrCapacity)
		}
	}

	clearCore := sel.IsCore && p != model.PriorityHigh
	if err := e.store.UpdatePriority(ctx, selectionID, p, clearCore); err != nil {
		return nil, err
	}

	sel.Priority = p
	if clearCore {
		sel.IsCore = false
	}
	return sel, nil
}

// SetCoreMembership flags or unflags a selection as a core value, gated at 7.
// A nil description leaves the stored override untouched; a pointer to ""
// clears it; anything else replaces it. Only high-priority selections can be
// flagged core.
func (e *Engine) SetCoreMembership(ctx context.Context, selectionID string, isCore bool, description *string) (*model.Selection, error) {
	sel, err := e.store.Selection(ctx, selectionID)
	if err != nil {
		return nil, err
	}

	if isCore && !sel.IsCore {
		if sel.Priority != model.PriorityHigh {
			return nil, fmt.Errorf("core values must sit in the high tier: %w", fault.ErrValidation)
		}
		n, err := e.countTier(ctx, sel.SessionID, selectionID, tierCore)
		if err != nil {
			return nil, err
		}
		if n >= model.MaxCoreValues {
			e.log.Debug("core set full",
				zap.String("session_id", sel.SessionID),
				zap.String("selection_id", selectionID))
			return nil, fmt.Errorf("core set holds %d of %d: %w", n, model.MaxCoreValues, fault.ErrCapacity)
		}
	}

	if err := e.store.UpdateCore(ctx, selectionID, isCore, description); err != nil {
		return nil, err
	}

	sel.IsCore = isCore
	if description != nil {
		if *description == "" {
			sel.DescriptionOverride = nil
		} else {
			sel.DescriptionOverride = description
		}
	}
	return sel, nil
}

// AddCustomSelection admits a user-authored value at high priority. The
// label is required after trimming, and the high-tier cap applies here the
// same as in SetPriority.
func (e *Engine) AddCustomSelection(ctx context.Context, sessionID, label string, description *string) (*model.Selection, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("custom value label is required: %w", fault.ErrValidation)
	}

	if _, err := e.store.Session(ctx, sessionID); err != nil {
		return nil, err
	}

	n, err := e.countTier(ctx, sessionID, "", tierHigh)
	if err != nil {
		return nil, err
	}
	if n >= model.MaxHighValues {
		return nil, fmt.Errorf("high tier holds %d of %d: %w", n, model.MaxHighValues, fault.ErrCapacity)
	}

	sel, err := e.store.InsertCustom(ctx, sessionID, label, description)
	if err != nil {
		return nil, err
	}
	e.log.Info("custom value added",
		zap.String("session_id", sessionID),
		zap.String("selection_id", sel.ID))
	return sel, nil
}

// FinalizeSession assigns the permanent share slug and completion time.
// Idempotent: a finalized session is returned unchanged, keeping its slug
// and any previously stored name or email.
func (e *Engine) FinalizeSession(ctx context.Context, sessionID string, name, email *string) (*model.Session, error) {
	sess, err := e.store.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Finalized() {
		return sess, nil
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			name = nil
		} else {
			name = &trimmed
		}
	}

	// Collisions on a 64^10 space are close to impossible, but the store's
	// UNIQUE constraint is authoritative.
	for attempt := 0; attempt < 5; attempt++ {
		slug := newSlug()
		finalized, err := e.store.Finalize(ctx, sessionID, slug, name, email)
		if errors.Is(err, store.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		e.log.Info("session finalized",
			zap.String("session_id", sessionID),
			zap.String("slug", slug))
		return finalized, nil
	}
	return nil, fmt.Errorf("exhausted slug attempts: %w", fault.ErrPersistence)
}

// SaveReflections stores the summary-page reflection answers. Keys must be
// known prompt IDs.
func (e *Engine) SaveReflections(ctx context.Context, slug string, responses map[string]string) error {
	known := make(map[string]bool, len(model.ReflectionPrompts))
	for _, p := range model.ReflectionPrompts {
		known[p.ID] = true
	}
	for id := range responses {
		if !known[id] {
			return fmt.Errorf("unknown reflection prompt %q: %w", id, fault.ErrValidation)
		}
	}
	return e.store.SaveReflections(ctx, slug, responses)
}

type tier int

const (
	tierHigh tier = iota
	tierCore
)

// countTier counts a session's high or core selections, excluding excludeID
// so a selection already in the target state does not count against itself.
func (e *Engine) countTier(ctx context.Context, sessionID, excludeID string, t tier) (int, error) {
	selections, err := e.store.Selections(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sel := range selections {
		if sel.ID == excludeID {
			continue
		}
		switch t {
		case tierHigh:
			if sel.Priority == model.PriorityHigh {
				n++
			}
		case tierCore:
			if sel.IsCore {
				n++
			}
		}
	}
	return n, nil
}

func newSlug() string {
	b := make([]byte, slugLen)
	rand.Read(b)
	for i := range b {
		b[i] = slugAlphabet[b[i]&63]
	}
	return string(b)
}
