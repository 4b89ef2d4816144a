package authz

// Reason kinds carried on every ValidationResult. Callers switch on these;
// the Reason string is for display only.
const (
	ReasonKindAllowed         = "allowed"
	ReasonKindNoMatchingRule  = "no-matching-rule"
	ReasonKindConstraintUnmet = "constraint-unmet"
	ReasonKindExplicitDeny    = "explicit-deny"
	ReasonKindInvalidRequest  = "invalid-request"
)

// ConstraintUnmetKind builds the reason kind for a denial caused by an
// unsatisfied constraint, e.g. "constraint-unmet:ownership".
func ConstraintUnmetKind(kind ConstraintKind) string {
	return ReasonKindConstraintUnmet + ":" + string(kind)
}

// Well-known request attribute keys consumed by the constraint evaluators
const (
	AttributeIsOwner   = "isOwner"
	AttributeAmount    = "amount"
	AttributeTimestamp = "timestamp"
)

// Comparator names for threshold constraints, post-normalization
const (
	OperatorLT  = "<"
	OperatorLTE = "<="
	OperatorGT  = ">"
	OperatorGTE = ">="
	OperatorEQ  = "=="
)

// DefaultSuggestionLimit caps the alternatives returned on denial
const DefaultSuggestionLimit = 5
