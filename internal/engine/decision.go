package engine

import (
	"fmt"
	"strings"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

// Decide validates one proposed action against a compiled index. The call is
// a pure function of its inputs: no I/O, no mutation, safe for concurrent
// use across any number of goroutines sharing one index.
//
// Absence of a matching bucket is default-deny. Within a bucket, any rule
// whose constraints are satisfied and whose effect is DENY wins over every
// ALLOW, regardless of rule order.
func Decide(req *authz.ValidationRequest, idx *CompiledIndex) authz.ValidationResult {
	return DecideWithLimit(req, idx, authz.DefaultSuggestionLimit)
}

// DecideWithLimit is Decide with an explicit cap on suggested alternatives
func DecideWithLimit(req *authz.ValidationRequest, idx *CompiledIndex, suggestionLimit int) authz.ValidationResult {
	if missing := missingFields(req); len(missing) > 0 {
		// A misformed agent action fails safely shut, never as a fault.
		return authz.ValidationResult{
			Allowed:    false,
			ReasonKind: authz.ReasonKindInvalidRequest,
			Reason:     fmt.Sprintf("request is missing required field(s): %s", strings.Join(missing, ", ")),
		}
	}

	if idx == nil {
		return authz.ValidationResult{
			Allowed:    false,
			ReasonKind: authz.ReasonKindNoMatchingRule,
			Reason:     "no rule index loaded",
		}
	}

	action := normalizeIdentifier(req.Action)
	entity := normalizeIdentifier(req.EntityType)
	role := idx.Aliases().Canonicalize(req.Role)

	rules := idx.bucket(action, entity, role)
	if len(rules) == 0 {
		return authz.ValidationResult{
			Allowed:    false,
			ReasonKind: authz.ReasonKindNoMatchingRule,
			Reason: fmt.Sprintf("no matching rule for role %q, action %q, entity %q",
				role, action, entity),
			SuggestedActions: SuggestWithLimit(req, idx, suggestionLimit),
		}
	}

	var (
		allowRule    *authz.Rule
		unmetKind    authz.ConstraintKind
		unmetMessage string
	)

	for i := range rules {
		rule := &rules[i]
		kind, ok := ruleSatisfied(rule, req, idx.registry)
		if !ok {
			if unmetMessage == "" {
				unmetKind = kind
				unmetMessage = describeUnmet(rule, kind, req)
			}
			continue
		}

		// Fail-safe precedence: a satisfied DENY ends the scan.
		if rule.Effect == authz.EffectDeny {
			return authz.ValidationResult{
				Allowed:        false,
				ReasonKind:     authz.ReasonKindExplicitDeny,
				Reason:         fmt.Sprintf("rule %s explicitly denies %q on %q for role %q", rule.SourceRef, action, entity, role),
				MatchedRuleRef: rule.SourceRef,
				SuggestedActions: SuggestWithLimit(req, idx, suggestionLimit),
			}
		}
		if allowRule == nil {
			allowRule = rule
		}
	}

	if allowRule != nil {
		return authz.ValidationResult{
			Allowed:        true,
			ReasonKind:     authz.ReasonKindAllowed,
			Reason:         fmt.Sprintf("action %q on %q is allowed for role %q by rule %s", action, entity, role, allowRule.SourceRef),
			MatchedRuleRef: allowRule.SourceRef,
		}
	}

	// The bucket exists but no rule's conditions held. Callers must be able
	// to tell this apart from "no rule at all".
	return authz.ValidationResult{
		Allowed:          false,
		ReasonKind:       authz.ConstraintUnmetKind(unmetKind),
		Reason:           unmetMessage,
		SuggestedActions: SuggestWithLimit(req, idx, suggestionLimit),
	}
}

// missingFields lists absent required request fields
func missingFields(req *authz.ValidationRequest) []string {
	var missing []string
	if req == nil {
		return []string{"action", "entity_type", "role"}
	}
	if normalizeIdentifier(req.Action) == "" {
		missing = append(missing, "action")
	}
	if normalizeIdentifier(req.EntityType) == "" {
		missing = append(missing, "entity_type")
	}
	if normalizeIdentifier(req.Role) == "" {
		missing = append(missing, "role")
	}
	return missing
}

// ruleSatisfied checks ownership and every constraint conjunctively. On
// failure it reports the kind of the first unmet condition.
func ruleSatisfied(rule *authz.Rule, req *authz.ValidationRequest, registry *Registry) (authz.ConstraintKind, bool) {
	if rule.RequiresOwnership && !ownershipSatisfied(req) {
		return authz.ConstraintOwnership, false
	}
	for _, c := range rule.Constraints {
		if c.Kind == authz.ConstraintOwnership {
			// Already covered by the RequiresOwnership check above.
			continue
		}
		if !evaluateConstraint(c, req, registry) {
			return c.Kind, false
		}
	}
	return "", true
}

// describeUnmet renders a display reason naming the unmet condition
func describeUnmet(rule *authz.Rule, kind authz.ConstraintKind, req *authz.ValidationRequest) string {
	switch kind {
	case authz.ConstraintOwnership:
		return fmt.Sprintf("rule %s requires the acting subject to own the target %q", rule.SourceRef, req.EntityType)
	case authz.ConstraintThreshold:
		for _, c := range rule.Constraints {
			if c.Kind == authz.ConstraintThreshold {
				return fmt.Sprintf("rule %s requires attribute %q %s %v", rule.SourceRef, c.Field, c.Operator, c.Bound)
			}
		}
	case authz.ConstraintTemporal:
		for _, c := range rule.Constraints {
			if c.Kind == authz.ConstraintTemporal {
				return fmt.Sprintf("rule %s requires attribute %q within [%s, %s)",
					rule.SourceRef, c.Field, c.Start.Format("2006-01-02T15:04:05Z07:00"), c.End.Format("2006-01-02T15:04:05Z07:00"))
			}
		}
	case authz.ConstraintCustom:
		for _, c := range rule.Constraints {
			if c.Kind == authz.ConstraintCustom {
				return fmt.Sprintf("rule %s requires predicate %q to hold", rule.SourceRef, c.Predicate)
			}
		}
	}
	return fmt.Sprintf("rule %s has unmet conditions", rule.SourceRef)
}
