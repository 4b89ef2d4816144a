package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

// bucketKey identifies one rule bucket in the compiled index
type bucketKey struct {
	action string
	entity string
	role   string
}

// CompiledIndex is the immutable mapping from (action, entityType,
// canonicalRole) to its ordered rule bucket. It is built once per ontology
// load and shared by concurrent readers without locking; reload produces a
// brand-new index.
type CompiledIndex struct {
	buckets   map[bucketKey][]authz.Rule
	keys      []bucketKey
	aliases   *AliasTable
	registry  *Registry
	ruleCount int
}

// RuleCount returns the number of compiled rules
func (idx *CompiledIndex) RuleCount() int {
	return idx.ruleCount
}

// Aliases returns the alias table the index was compiled with. Using the
// same table at compile time and decision time keeps normalization symmetric.
func (idx *CompiledIndex) Aliases() *AliasTable {
	return idx.aliases
}

// bucket returns the rule list for a normalized key, or nil
func (idx *CompiledIndex) bucket(action, entity, role string) []authz.Rule {
	return idx.buckets[bucketKey{action: action, entity: entity, role: role}]
}

// comparatorAliases maps the comparator spellings seen in source documents
// to their normalized form.
var comparatorAliases = map[string]string{
	"<":   authz.OperatorLT,
	"lt":  authz.OperatorLT,
	"<=":  authz.OperatorLTE,
	"le":  authz.OperatorLTE,
	"lte": authz.OperatorLTE,
	"≤":   authz.OperatorLTE,
	">":   authz.OperatorGT,
	"gt":  authz.OperatorGT,
	">=":  authz.OperatorGTE,
	"ge":  authz.OperatorGTE,
	"gte": authz.OperatorGTE,
	"≥":   authz.OperatorGTE,
	"=":   authz.OperatorEQ,
	"==":  authz.OperatorEQ,
	"eq":  authz.OperatorEQ,
}

// Compile converts raw fact records into a fresh immutable index. It fails
// with a *authz.CompilationError on the first malformed or contradictory
// fact; a partially valid fact set never produces a partial index. Compile
// never mutates its inputs and has no side effects, so repeated calls over
// the same input yield identical indexes.
func Compile(facts []authz.RawFact, declarations []authz.AliasDeclaration, registry *Registry) (*CompiledIndex, error) {
	aliases := BuildAliasTable(declarations)

	idx := &CompiledIndex{
		buckets:  make(map[bucketKey][]authz.Rule),
		aliases:  aliases,
		registry: registry,
	}

	for i, fact := range facts {
		rule, err := compileFact(fact, i, aliases, registry)
		if err != nil {
			return nil, err
		}

		key := bucketKey{action: rule.Action, entity: rule.EntityType, role: rule.Role}
		if _, seen := idx.buckets[key]; !seen {
			idx.keys = append(idx.keys, key)
		}
		// Bucket order is insertion order from the source facts.
		idx.buckets[key] = append(idx.buckets[key], rule)
		idx.ruleCount++
	}

	return idx, nil
}

// compileFact validates and normalizes a single fact
func compileFact(fact authz.RawFact, position int, aliases *AliasTable, registry *Registry) (authz.Rule, error) {
	sourceRef := fact.SourceRef
	if sourceRef == "" {
		sourceRef = fmt.Sprintf("fact:%d", position)
	}

	action := normalizeIdentifier(fact.Action)
	if action == "" {
		return authz.Rule{}, authz.NewCompilationError(
			authz.ErrCodeEmptyAction,
			"fact has an empty or whitespace-only action identifier",
		).WithSource(sourceRef).WithField("action")
	}

	entity := normalizeIdentifier(fact.EntityType)
	if entity == "" {
		return authz.Rule{}, authz.NewCompilationError(
			authz.ErrCodeEmptyEntity,
			"fact has an empty or whitespace-only entity type identifier",
		).WithSource(sourceRef).WithField("entity_type")
	}

	if normalizeIdentifier(fact.Role) == "" {
		return authz.Rule{}, authz.NewCompilationError(
			authz.ErrCodeEmptyRole,
			"fact has an empty or whitespace-only role identifier",
		).WithSource(sourceRef).WithField("role")
	}
	role := aliases.Canonicalize(fact.Role)

	effect, err := parseEffect(fact.Effect, sourceRef)
	if err != nil {
		return authz.Rule{}, err
	}

	rule := authz.Rule{
		Action:            action,
		EntityType:        entity,
		Role:              role,
		Effect:            effect,
		RequiresOwnership: fact.RequiresOwnership,
		SourceRef:         sourceRef,
	}

	for _, raw := range fact.Constraints {
		constraint, err := compileConstraint(raw, sourceRef, registry)
		if err != nil {
			return authz.Rule{}, err
		}
		if constraint.Kind == authz.ConstraintOwnership {
			rule.RequiresOwnership = true
		}
		rule.Constraints = append(rule.Constraints, constraint)
	}

	return rule, nil
}

// parseEffect maps the source effect string onto Effect. An absent effect
// means allow; explicit denial must be stated.
func parseEffect(raw, sourceRef string) (authz.Effect, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(authz.EffectAllow):
		return authz.EffectAllow, nil
	case string(authz.EffectDeny):
		return authz.EffectDeny, nil
	default:
		return "", authz.NewCompilationError(
			authz.ErrCodeInvalidEffect,
			fmt.Sprintf("unknown effect %q, want %q or %q", raw, authz.EffectAllow, authz.EffectDeny),
		).WithSource(sourceRef).WithField("effect")
	}
}

// compileConstraint validates one raw constraint into its compiled form
func compileConstraint(raw authz.RawConstraint, sourceRef string, registry *Registry) (authz.Constraint, error) {
	switch authz.ConstraintKind(strings.ToLower(strings.TrimSpace(raw.Kind))) {
	case authz.ConstraintOwnership:
		return authz.Constraint{Kind: authz.ConstraintOwnership}, nil

	case authz.ConstraintThreshold:
		return compileThreshold(raw, sourceRef)

	case authz.ConstraintTemporal:
		return compileTemporal(raw, sourceRef)

	case authz.ConstraintCustom:
		name := normalizeIdentifier(raw.Predicate)
		if _, ok := registry.Lookup(name); !ok {
			return authz.Constraint{}, authz.NewCompilationError(
				authz.ErrCodeUnknownPredicate,
				fmt.Sprintf("custom constraint references unregistered predicate %q", raw.Predicate),
			).WithSource(sourceRef).WithField("predicate")
		}
		return authz.Constraint{Kind: authz.ConstraintCustom, Predicate: name}, nil

	default:
		return authz.Constraint{}, authz.NewCompilationError(
			authz.ErrCodeInvalidKind,
			fmt.Sprintf("unknown constraint kind %q", raw.Kind),
		).WithSource(sourceRef).WithField("kind")
	}
}

func compileThreshold(raw authz.RawConstraint, sourceRef string) (authz.Constraint, error) {
	operator, ok := comparatorAliases[strings.ToLower(strings.TrimSpace(raw.Operator))]
	if !ok {
		return authz.Constraint{}, authz.NewCompilationError(
			authz.ErrCodeInvalidOperator,
			fmt.Sprintf("unknown threshold comparator %q", raw.Operator),
		).WithSource(sourceRef).WithField("operator")
	}

	bound, err := numericBound(raw.Bound)
	if err != nil {
		return authz.Constraint{}, authz.NewCompilationError(
			authz.ErrCodeInvalidBound,
			fmt.Sprintf("threshold bound %v is not numeric", raw.Bound),
		).WithSource(sourceRef).WithField("bound")
	}

	field := strings.TrimSpace(raw.Field)
	if field == "" {
		field = authz.AttributeAmount
	}

	return authz.Constraint{
		Kind:     authz.ConstraintThreshold,
		Field:    field,
		Operator: operator,
		Bound:    bound,
	}, nil
}

func compileTemporal(raw authz.RawConstraint, sourceRef string) (authz.Constraint, error) {
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.Start))
	if err != nil {
		return authz.Constraint{}, authz.NewCompilationError(
			authz.ErrCodeInvalidWindow,
			fmt.Sprintf("temporal window start %q is not an RFC 3339 timestamp", raw.Start),
		).WithSource(sourceRef).WithField("start")
	}

	end, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.End))
	if err != nil {
		return authz.Constraint{}, authz.NewCompilationError(
			authz.ErrCodeInvalidWindow,
			fmt.Sprintf("temporal window end %q is not an RFC 3339 timestamp", raw.End),
		).WithSource(sourceRef).WithField("end")
	}

	if !end.After(start) {
		return authz.Constraint{}, authz.NewCompilationError(
			authz.ErrCodeInvalidWindow,
			fmt.Sprintf("temporal window end %s is not after start %s", raw.End, raw.Start),
		).WithSource(sourceRef).WithField("end")
	}

	field := strings.TrimSpace(raw.Field)
	if field == "" {
		field = authz.AttributeTimestamp
	}

	return authz.Constraint{
		Kind:  authz.ConstraintTemporal,
		Field: field,
		Start: start,
		End:   end,
	}, nil
}

// numericBound coerces the untyped bound from the source document
func numericBound(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("unsupported bound type %T", raw)
	}
}
