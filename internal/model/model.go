// Package model defines the core exercise data types.
package model

import "time"

// Priority is the sorting bucket a selection sits in.
type Priority string

const (
	PriorityUnsorted Priority = "unsorted"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
)

// ValidPriorities are the accepted priority values.
var ValidPriorities = map[Priority]bool{
	PriorityUnsorted: true,
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
}

// Limits on how far a session can lean on any one bucket.
const (
	MaxHighValues = 15
	MinCoreValues = 4
	MaxCoreValues = 7
)

// FallbackLabel and FallbackDescription are shown when every source of a
// display field is empty.
const (
	FallbackLabel       = "Unknown"
	FallbackDescription = "No description provided."
)

// ValueDefinition is one entry of the immutable values catalog.
type ValueDefinition struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description *string `json:"description,omitempty"`
	IsDefault   bool    `json:"is_default"`
}

// Session is one anonymous attempt at the exercise. Slug and CompletedAt are
// both nil until the session is finalized, then both set, permanently.
type Session struct {
	ID          string            `json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Slug        *string           `json:"slug,omitempty"`
	UserName    *string           `json:"user_name,omitempty"`
	UserEmail   *string           `json:"user_email,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Reflections map[string]string `json:"reflection_responses,omitempty"`
}

// Finalized reports whether the session has its permanent share slug.
func (s *Session) Finalized() bool {
	return s.Slug != nil && *s.Slug != ""
}

// Selection pairs a session with one value, either catalog-backed
// (ValueID set) or fully custom (CustomLabel set). The distinction is fixed
// at creation. DescriptionOverride is the user's personalized wording and
// applies to both kinds.
type Selection struct {
	ID                  string    `json:"id"`
	SessionID           string    `json:"session_id"`
	ValueID             *string   `json:"value_master_id,omitempty"`
	CustomLabel         *string   `json:"custom_label,omitempty"`
	CustomDescription   *string   `json:"custom_description,omitempty"`
	DescriptionOverride *string   `json:"description_override,omitempty"`
	Priority            Priority  `json:"priority"`
	IsCore              bool      `json:"is_core"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	// Catalog is the joined definition for catalog-backed selections.
	Catalog *ValueDefinition `json:"catalog,omitempty"`
}

// IsCustom reports whether the selection is user-authored rather than
// catalog-backed.
func (s *Selection) IsCustom() bool {
	return s.ValueID == nil
}

// DisplayLabel resolves the label shown on cards, pages and reports.
func (s *Selection) DisplayLabel() string {
	if s.CustomLabel != nil && *s.CustomLabel != "" {
		return *s.CustomLabel
	}
	if s.Catalog != nil && s.Catalog.Label != "" {
		return s.Catalog.Label
	}
	return FallbackLabel
}

// DisplayDescription resolves the description shown on cards, pages and
// reports: the user's override wins, then a custom value's own description,
// then the catalog definition, then the fallback literal.
func (s *Selection) DisplayDescription() string {
	if s.DescriptionOverride != nil && *s.DescriptionOverride != "" {
		return *s.DescriptionOverride
	}
	if s.CustomDescription != nil && *s.CustomDescription != "" {
		return *s.CustomDescription
	}
	if s.Catalog != nil && s.Catalog.Description != nil && *s.Catalog.Description != "" {
		return *s.Catalog.Description
	}
	return FallbackDescription
}

// ReflectionPrompt is one of the fixed prompts answered on the summary page.
type ReflectionPrompt struct {
	ID     string
	Prompt string
}

// ReflectionPrompts is the fixed prompt set, in display order.
var ReflectionPrompts = []ReflectionPrompt{
	{ID: "daily", Prompt: "Where do you already see these values show up in your day-to-day life?"},
	{ID: "tension", Prompt: "Where do you feel tension or misalignment?"},
	{ID: "decision", Prompt: "What's one decision you could make this month to better live out these values?"},
}
