package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

func requestWithAttributes(attrs map[string]interface{}) *authz.ValidationRequest {
	return &authz.ValidationRequest{
		Action:     "read",
		EntityType: "PatientRecord",
		Role:       "Doctor",
		Attributes: attrs,
	}
}

func TestOwnershipConstraint(t *testing.T) {
	constraint := authz.Constraint{Kind: authz.ConstraintOwnership}

	testCases := []struct {
		name     string
		attrs    map[string]interface{}
		expected bool
	}{
		{"owner true", map[string]interface{}{authz.AttributeIsOwner: true}, true},
		{"owner false", map[string]interface{}{authz.AttributeIsOwner: false}, false},
		{"owner absent", map[string]interface{}{}, false},
		{"nil attributes", nil, false},
		{"string true accepted", map[string]interface{}{authz.AttributeIsOwner: "true"}, true},
		{"non-boolean value denied", map[string]interface{}{authz.AttributeIsOwner: 1.0}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := evaluateConstraint(constraint, requestWithAttributes(tc.attrs), nil)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestThresholdConstraint(t *testing.T) {
	testCases := []struct {
		name     string
		operator string
		bound    float64
		attrs    map[string]interface{}
		expected bool
	}{
		{"gte holds", authz.OperatorGTE, 1000, map[string]interface{}{"amount": 5000.0}, true},
		{"gte equal holds", authz.OperatorGTE, 1000, map[string]interface{}{"amount": 1000.0}, true},
		{"gte below fails", authz.OperatorGTE, 1000, map[string]interface{}{"amount": 999.0}, false},
		{"lt holds", authz.OperatorLT, 100, map[string]interface{}{"amount": 99.5}, true},
		{"lte equal holds", authz.OperatorLTE, 100, map[string]interface{}{"amount": 100.0}, true},
		{"gt equal fails", authz.OperatorGT, 100, map[string]interface{}{"amount": 100.0}, false},
		{"eq holds", authz.OperatorEQ, 42, map[string]interface{}{"amount": 42.0}, true},
		{"integer attribute accepted", authz.OperatorGTE, 1000, map[string]interface{}{"amount": 5000}, true},
		{"numeric string accepted", authz.OperatorGTE, 1000, map[string]interface{}{"amount": "5000"}, true},
		{"missing field fails closed", authz.OperatorGTE, 1000, map[string]interface{}{}, false},
		{"non-numeric field fails closed", authz.OperatorGTE, 1000, map[string]interface{}{"amount": "plenty"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			constraint := authz.Constraint{
				Kind:     authz.ConstraintThreshold,
				Field:    "amount",
				Operator: tc.operator,
				Bound:    tc.bound,
			}
			result := evaluateConstraint(constraint, requestWithAttributes(tc.attrs), nil)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestTemporalConstraint(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 17, 0, 0, 0, time.UTC)
	constraint := authz.Constraint{
		Kind:  authz.ConstraintTemporal,
		Field: "timestamp",
		Start: start,
		End:   end,
	}

	testCases := []struct {
		name     string
		attrs    map[string]interface{}
		expected bool
	}{
		{"inside window", map[string]interface{}{"timestamp": "2026-01-01T12:00:00Z"}, true},
		{"start is inclusive", map[string]interface{}{"timestamp": "2026-01-01T09:00:00Z"}, true},
		{"end is exclusive", map[string]interface{}{"timestamp": "2026-01-01T17:00:00Z"}, false},
		{"before window", map[string]interface{}{"timestamp": "2026-01-01T08:59:59Z"}, false},
		{"time.Time value accepted", map[string]interface{}{"timestamp": start.Add(time.Hour)}, true},
		{"unix seconds accepted", map[string]interface{}{"timestamp": float64(start.Add(time.Hour).Unix())}, true},
		{"absent field fails closed", map[string]interface{}{}, false},
		{"garbage timestamp fails closed", map[string]interface{}{"timestamp": "noonish"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := evaluateConstraint(constraint, requestWithAttributes(tc.attrs), nil)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestCustomConstraint(t *testing.T) {
	registry := NewRegistry()
	registry.Register("sameDepartment", func(req *authz.ValidationRequest) bool {
		dept, _ := req.Attributes["department"].(string)
		return dept == "cardiology"
	})

	constraint := authz.Constraint{Kind: authz.ConstraintCustom, Predicate: "samedepartment"}

	assert.True(t, evaluateConstraint(constraint,
		requestWithAttributes(map[string]interface{}{"department": "cardiology"}), registry))
	assert.False(t, evaluateConstraint(constraint,
		requestWithAttributes(map[string]interface{}{"department": "neurology"}), registry))

	// A predicate that vanished from the registry fails shut.
	missing := authz.Constraint{Kind: authz.ConstraintCustom, Predicate: "gone"}
	assert.False(t, evaluateConstraint(missing, requestWithAttributes(nil), registry))
}

func TestRegistry_NamesSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register("zulu", func(*authz.ValidationRequest) bool { return true })
	registry.Register("alpha", func(*authz.ValidationRequest) bool { return true })

	assert.Equal(t, []string{"alpha", "zulu"}, registry.Names())
}

func TestRegistry_LookupNormalizesNames(t *testing.T) {
	registry := NewRegistry()
	registry.Register("OnCall Shift", func(*authz.ValidationRequest) bool { return true })

	_, ok := registry.Lookup("oncallshift")
	assert.True(t, ok)
}
