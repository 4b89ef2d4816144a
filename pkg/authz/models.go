package authz

import (
	"time"
)

// Effect determines whether a matching rule grants or refuses the action
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// ConstraintKind identifies the evaluator used for a rule constraint
type ConstraintKind string

const (
	ConstraintOwnership ConstraintKind = "ownership"
	ConstraintThreshold ConstraintKind = "threshold"
	ConstraintTemporal  ConstraintKind = "temporal"
	ConstraintCustom    ConstraintKind = "custom"
)

// RawFact is one loosely-typed rule record handed over by the ontology
// loading collaborator. Field values are uncleaned source text; the compiler
// owns normalization and validation.
type RawFact struct {
	Role              string          `json:"role" yaml:"role"`
	Action            string          `json:"action" yaml:"action"`
	EntityType        string          `json:"entity_type" yaml:"entity_type"`
	Effect            string          `json:"effect,omitempty" yaml:"effect,omitempty"`
	RequiresOwnership bool            `json:"requires_ownership,omitempty" yaml:"requires_ownership,omitempty"`
	Constraints       []RawConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	SourceRef         string          `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`
}

// RawConstraint is the uncompiled form of a rule constraint. Bound is left
// untyped because source documents deliver numbers as strings, ints, or
// floats depending on the serialization.
type RawConstraint struct {
	Kind      string      `json:"kind" yaml:"kind"`
	Field     string      `json:"field,omitempty" yaml:"field,omitempty"`
	Operator  string      `json:"operator,omitempty" yaml:"operator,omitempty"`
	Bound     interface{} `json:"bound,omitempty" yaml:"bound,omitempty"`
	Start     string      `json:"start,omitempty" yaml:"start,omitempty"`
	End       string      `json:"end,omitempty" yaml:"end,omitempty"`
	Predicate string      `json:"predicate,omitempty" yaml:"predicate,omitempty"`
}

// AliasDeclaration declares two role spellings as equivalent
type AliasDeclaration struct {
	Role    string `json:"role" yaml:"role"`
	AliasOf string `json:"alias_of" yaml:"alias_of"`
}

// Rule is one compiled, normalized permission entry. Rules are immutable
// after compilation and shared by concurrent readers.
type Rule struct {
	Action            string       `json:"action"`
	EntityType        string       `json:"entity_type"`
	Role              string       `json:"role"`
	Effect            Effect       `json:"effect"`
	RequiresOwnership bool         `json:"requires_ownership,omitempty"`
	Constraints       []Constraint `json:"constraints,omitempty"`
	SourceRef         string       `json:"source_ref,omitempty"`
}

// Constraint is a compiled predicate beyond role/action/entity identity.
// All constraints on a rule are conjunctive.
type Constraint struct {
	Kind      ConstraintKind `json:"kind"`
	Field     string         `json:"field,omitempty"`
	Operator  string         `json:"operator,omitempty"`
	Bound     float64        `json:"bound,omitempty"`
	Start     time.Time      `json:"start,omitempty"`
	End       time.Time      `json:"end,omitempty"`
	Predicate string         `json:"predicate,omitempty"`
}

// ValidationRequest describes one proposed action to be decided
type ValidationRequest struct {
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id,omitempty"`
	Role       string                 `json:"role"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// ValidationResult is the outcome of a decision. Reason is always populated,
// including on allow, to support audit trails.
type ValidationResult struct {
	Allowed          bool              `json:"allowed"`
	Reason           string            `json:"reason"`
	ReasonKind       string            `json:"reason_kind"`
	MatchedRuleRef   string            `json:"matched_rule_ref,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

// SuggestedAction is one alternative the requesting role is permitted to take
type SuggestedAction struct {
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
}
