package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

func mustCompile(t *testing.T, facts []authz.RawFact, declarations []authz.AliasDeclaration) *CompiledIndex {
	t.Helper()
	idx, err := Compile(facts, declarations, NewRegistry())
	require.NoError(t, err)
	return idx
}

func TestDecide_AllowCitesMatchedRule(t *testing.T) {
	idx := mustCompile(t, []authz.RawFact{
		{Role: "Doctor", Action: "read", EntityType: "PatientRecord", SourceRef: "rule:doctor-read"},
	}, nil)

	result := Decide(&authz.ValidationRequest{
		Action:     "read",
		EntityType: "PatientRecord",
		Role:       "Doctor",
	}, idx)

	assert.True(t, result.Allowed)
	assert.Equal(t, authz.ReasonKindAllowed, result.ReasonKind)
	assert.Equal(t, "rule:doctor-read", result.MatchedRuleRef)
	assert.NotEmpty(t, result.Reason, "reason is populated even on allow")
	assert.Empty(t, result.SuggestedActions, "suggestions are empty on allow")
}

func TestDecide_DefaultDenyWhenNoBucket(t *testing.T) {
	idx := mustCompile(t, []authz.RawFact{
		{Role: "Doctor", Action: "read", EntityType: "PatientRecord"},
	}, nil)

	result := Decide(&authz.ValidationRequest{
		Action:     "delete",
		EntityType: "PatientRecord",
		Role:       "Doctor",
	}, idx)

	assert.False(t, result.Allowed)
	assert.Equal(t, authz.ReasonKindNoMatchingRule, result.ReasonKind)
	assert.Empty(t, result.MatchedRuleRef)
}

func TestDecide_ExplicitDenyWinsRegardlessOfOrder(t *testing.T) {
	// Scenario D: allow and deny in the same bucket, deny declared first or
	// last, result is always denied.
	allowFirst := []authz.RawFact{
		{Role: "Nurse", Action: "delete", EntityType: "PatientRecord", Effect: "allow", SourceRef: "allow-rule"},
		{Role: "Nurse", Action: "delete", EntityType: "PatientRecord", Effect: "deny", SourceRef: "deny-rule"},
	}
	denyFirst := []authz.RawFact{
		{Role: "Nurse", Action: "delete", EntityType: "PatientRecord", Effect: "deny", SourceRef: "deny-rule"},
		{Role: "Nurse", Action: "delete", EntityType: "PatientRecord", Effect: "allow", SourceRef: "allow-rule"},
	}

	req := &authz.ValidationRequest{Action: "delete", EntityType: "PatientRecord", Role: "Nurse"}

	for name, facts := range map[string][]authz.RawFact{"allow first": allowFirst, "deny first": denyFirst} {
		t.Run(name, func(t *testing.T) {
			result := Decide(req, mustCompile(t, facts, nil))
			assert.False(t, result.Allowed)
			assert.Equal(t, authz.ReasonKindExplicitDeny, result.ReasonKind)
			assert.Equal(t, "deny-rule", result.MatchedRuleRef)
		})
	}
}

func TestDecide_OwnershipGating(t *testing.T) {
	// Scenario C: requiresOwnership rule denies without isOwner, allows with.
	idx := mustCompile(t, []authz.RawFact{
		{
			Role: "Patient", Action: "read", EntityType: "MedicalRecord",
			RequiresOwnership: true, SourceRef: "rule:own-record",
		},
	}, nil)

	testCases := []struct {
		name        string
		attrs       map[string]interface{}
		wantAllowed bool
		wantKind    string
	}{
		{
			name:        "owner true allows",
			attrs:       map[string]interface{}{authz.AttributeIsOwner: true},
			wantAllowed: true,
			wantKind:    authz.ReasonKindAllowed,
		},
		{
			name:        "owner false denies with ownership kind",
			attrs:       map[string]interface{}{authz.AttributeIsOwner: false},
			wantAllowed: false,
			wantKind:    "constraint-unmet:ownership",
		},
		{
			name:        "owner absent denies with ownership kind",
			attrs:       nil,
			wantAllowed: false,
			wantKind:    "constraint-unmet:ownership",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Decide(&authz.ValidationRequest{
				Action:     "read",
				EntityType: "MedicalRecord",
				EntityID:   "rec-77",
				Role:       "Patient",
				Attributes: tc.attrs,
			}, idx)

			assert.Equal(t, tc.wantAllowed, result.Allowed)
			assert.Equal(t, tc.wantKind, result.ReasonKind)
		})
	}
}

func TestDecide_ConstraintUnmetDistinguishedFromNoRule(t *testing.T) {
	idx := mustCompile(t, []authz.RawFact{
		{
			Role: "Manager", Action: "approve", EntityType: "Refund", SourceRef: "rule:big-refund",
			Constraints: []authz.RawConstraint{
				{Kind: "threshold", Field: "amount", Operator: ">=", Bound: 1000},
			},
		},
	}, nil)

	belowThreshold := Decide(&authz.ValidationRequest{
		Action:     "approve",
		EntityType: "Refund",
		Role:       "Manager",
		Attributes: map[string]interface{}{"amount": 500.0},
	}, idx)
	assert.False(t, belowThreshold.Allowed)
	assert.Equal(t, "constraint-unmet:threshold", belowThreshold.ReasonKind)
	assert.Contains(t, belowThreshold.Reason, "amount")

	noBucket := Decide(&authz.ValidationRequest{
		Action:     "reject",
		EntityType: "Refund",
		Role:       "Manager",
	}, idx)
	assert.Equal(t, authz.ReasonKindNoMatchingRule, noBucket.ReasonKind)
}

func TestDecide_AlternateConditionsAsSeparateRules(t *testing.T) {
	// Two allow rules in one bucket express OR: either condition admits.
	idx := mustCompile(t, []authz.RawFact{
		{
			Role: "Teller", Action: "transfer", EntityType: "Account", SourceRef: "small",
			Constraints: []authz.RawConstraint{
				{Kind: "threshold", Field: "amount", Operator: "<=", Bound: 100},
			},
		},
		{
			Role: "Teller", Action: "transfer", EntityType: "Account", SourceRef: "owned",
			Constraints: []authz.RawConstraint{{Kind: "ownership"}},
		},
	}, nil)

	smallAmount := Decide(&authz.ValidationRequest{
		Action: "transfer", EntityType: "Account", Role: "Teller",
		Attributes: map[string]interface{}{"amount": 50.0},
	}, idx)
	assert.True(t, smallAmount.Allowed)
	assert.Equal(t, "small", smallAmount.MatchedRuleRef)

	ownedAccount := Decide(&authz.ValidationRequest{
		Action: "transfer", EntityType: "Account", Role: "Teller",
		Attributes: map[string]interface{}{"amount": 10000.0, authz.AttributeIsOwner: true},
	}, idx)
	assert.True(t, ownedAccount.Allowed)
	assert.Equal(t, "owned", ownedAccount.MatchedRuleRef)

	neither := Decide(&authz.ValidationRequest{
		Action: "transfer", EntityType: "Account", Role: "Teller",
		Attributes: map[string]interface{}{"amount": 10000.0},
	}, idx)
	assert.False(t, neither.Allowed)
}

func TestDecide_AliasSymmetry(t *testing.T) {
	// Scenario B: a rule declared for LabTech matches requests for
	// LabTechnician, and role=A vs role=B give identical results.
	facts := []authz.RawFact{
		{Role: "Doctor", Action: "read", EntityType: "PatientRecord"},
		{Role: "LabTech", Action: "read", EntityType: "LabResult", SourceRef: "rule:lab-read"},
	}
	declarations := []authz.AliasDeclaration{{Role: "LabTech", AliasOf: "LabTechnician"}}
	idx := mustCompile(t, facts, declarations)

	asTechnician := Decide(&authz.ValidationRequest{
		Action: "read", EntityType: "LabResult", Role: "LabTechnician",
	}, idx)
	asTech := Decide(&authz.ValidationRequest{
		Action: "read", EntityType: "LabResult", Role: "LabTech",
	}, idx)

	assert.True(t, asTechnician.Allowed)
	assert.Equal(t, asTech, asTechnician)
}

func TestDecide_WrongRoleBucketNeverMatches(t *testing.T) {
	// Scenario A: Manager's approve/Refund rule must not leak to Customer.
	idx := mustCompile(t, []authz.RawFact{
		{
			Role: "Manager", Action: "approve", EntityType: "Refund", SourceRef: "rule:mgr-approve",
			Constraints: []authz.RawConstraint{
				{Kind: "threshold", Field: "amount", Operator: ">=", Bound: 1000},
			},
		},
		{Role: "Customer", Action: "request", EntityType: "Refund", SourceRef: "rule:cust-request"},
	}, nil)

	result := Decide(&authz.ValidationRequest{
		Action:     "approve",
		EntityType: "Refund",
		Role:       "Customer",
		Attributes: map[string]interface{}{"amount": 5000.0},
	}, idx)

	assert.False(t, result.Allowed)
	assert.Equal(t, authz.ReasonKindNoMatchingRule, result.ReasonKind)

	// Customer's own allowed action on Refund is suggested; the Manager-only
	// approve bucket is not.
	assert.Contains(t, result.SuggestedActions, authz.SuggestedAction{Action: "request", EntityType: "refund"})
	assert.NotContains(t, result.SuggestedActions, authz.SuggestedAction{Action: "approve", EntityType: "refund"})
}

func TestDecide_InvalidRequest(t *testing.T) {
	idx := mustCompile(t, []authz.RawFact{
		{Role: "Doctor", Action: "read", EntityType: "PatientRecord"},
	}, nil)

	testCases := []struct {
		name string
		req  *authz.ValidationRequest
	}{
		{"nil request", nil},
		{"missing action", &authz.ValidationRequest{EntityType: "PatientRecord", Role: "Doctor"}},
		{"missing entity", &authz.ValidationRequest{Action: "read", Role: "Doctor"}},
		{"missing role", &authz.ValidationRequest{Action: "read", EntityType: "PatientRecord"}},
		{"whitespace only", &authz.ValidationRequest{Action: "  ", EntityType: "PatientRecord", Role: "Doctor"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Decide(tc.req, idx)
			assert.False(t, result.Allowed)
			assert.Equal(t, authz.ReasonKindInvalidRequest, result.ReasonKind)
			assert.NotEmpty(t, result.Reason)
		})
	}
}

func TestDecide_Determinism(t *testing.T) {
	idx := mustCompile(t, []authz.RawFact{
		{Role: "Manager", Action: "approve", EntityType: "Refund", SourceRef: "r1"},
		{Role: "Manager", Action: "reject", EntityType: "Refund", SourceRef: "r2"},
		{Role: "Manager", Action: "read", EntityType: "Invoice", SourceRef: "r3"},
		{Role: "Manager", Action: "export", EntityType: "Report", SourceRef: "r4"},
	}, nil)

	req := &authz.ValidationRequest{Action: "delete", EntityType: "Refund", Role: "Manager"}

	first := Decide(req, idx)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Decide(req, idx))
	}
}

func TestDecide_RequestNormalization(t *testing.T) {
	idx := mustCompile(t, []authz.RawFact{
		{Role: "Doctor", Action: "read", EntityType: "PatientRecord", SourceRef: "r1"},
	}, nil)

	result := Decide(&authz.ValidationRequest{
		Action:     " READ ",
		EntityType: "patient record",
		Role:       "  doctor",
	}, idx)

	assert.True(t, result.Allowed)
}
