package engine

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

// Predicate is an externally registered custom constraint check. Predicates
// must be pure functions of the request; they run on every matching decision.
type Predicate func(req *authz.ValidationRequest) bool

// Registry holds named custom predicates. Registration happens before
// compilation; the compiler rejects facts referencing unknown names.
type Registry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewRegistry creates an empty predicate registry
func NewRegistry() *Registry {
	return &Registry{predicates: make(map[string]Predicate)}
}

// Register adds a named predicate, replacing any previous registration
func (r *Registry) Register(name string, p Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predicates[normalizeIdentifier(name)] = p
}

// Lookup returns the predicate registered under name
func (r *Registry) Lookup(name string) (Predicate, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.predicates[normalizeIdentifier(name)]
	return p, ok
}

// Names returns the registered predicate names in sorted order
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// evaluateConstraint reports whether one compiled constraint holds against a
// request. Missing or malformed request attributes evaluate to false rather
// than an error: a malformed request degrades to deny, never to a fault.
func evaluateConstraint(c authz.Constraint, req *authz.ValidationRequest, registry *Registry) bool {
	switch c.Kind {
	case authz.ConstraintOwnership:
		return ownershipSatisfied(req)
	case authz.ConstraintThreshold:
		value, ok := numericAttribute(req, c.Field)
		if !ok {
			return false
		}
		return compareThreshold(value, c.Operator, c.Bound)
	case authz.ConstraintTemporal:
		ts, ok := timeAttribute(req, c.Field)
		if !ok {
			return false
		}
		return !ts.Before(c.Start) && ts.Before(c.End)
	case authz.ConstraintCustom:
		p, ok := registry.Lookup(c.Predicate)
		if !ok {
			// Unresolvable names are rejected at compile time; hitting this
			// means the registry changed under a live index. Fail shut.
			return false
		}
		return p(req)
	default:
		return false
	}
}

// ownershipSatisfied reports whether the request marks the subject as owner
func ownershipSatisfied(req *authz.ValidationRequest) bool {
	raw, ok := req.Attributes[authz.AttributeIsOwner]
	if !ok {
		return false
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}

// compareThreshold applies a normalized comparator
func compareThreshold(value float64, operator string, bound float64) bool {
	switch operator {
	case authz.OperatorLT:
		return value < bound
	case authz.OperatorLTE:
		return value <= bound
	case authz.OperatorGT:
		return value > bound
	case authz.OperatorGTE:
		return value >= bound
	case authz.OperatorEQ:
		return value == bound
	default:
		return false
	}
}

// numericAttribute extracts a numeric request attribute. JSON decoding hands
// numbers over as float64; callers constructing requests in code may use any
// integer type or a numeric string.
func numericAttribute(req *authz.ValidationRequest, field string) (float64, bool) {
	raw, ok := req.Attributes[field]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case fmt.Stringer:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// timeAttribute extracts a timestamp request attribute. Accepted forms are
// time.Time, RFC 3339 strings, and Unix seconds.
func timeAttribute(req *authz.ValidationRequest, field string) (time.Time, bool) {
	raw, ok := req.Attributes[field]
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case int:
		return time.Unix(int64(v), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}
