package engine

import (
	"strings"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

// normalizeIdentifier lowercases an identifier and strips all whitespace so
// that "Lab Technician" and "labtechnician" compare equal.
func normalizeIdentifier(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// AliasTable canonicalizes role spellings to a single identity. It is built
// once from declared alias pairs and read-only afterwards.
type AliasTable struct {
	canonical map[string]string
}

// BuildAliasTable constructs an alias table from declared synonym pairs.
// Resolution is by union-find: all mutually declared aliases collapse to one
// canonical representative, the lexicographically smallest normalized
// identifier, independent of declaration order.
func BuildAliasTable(declarations []authz.AliasDeclaration) *AliasTable {
	parent := make(map[string]string)

	var find func(string) string
	find = func(x string) string {
		p, ok := parent[x]
		if !ok {
			parent[x] = x
			return x
		}
		if p == x {
			return x
		}
		root := find(p)
		parent[x] = root
		return root
	}

	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// Keep the smaller identifier as the representative so the result
		// does not depend on declaration order.
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for _, decl := range declarations {
		role := normalizeIdentifier(decl.Role)
		alias := normalizeIdentifier(decl.AliasOf)
		if role == "" || alias == "" {
			continue
		}
		union(role, alias)
	}

	canonical := make(map[string]string, len(parent))
	for member := range parent {
		canonical[member] = find(member)
	}

	return &AliasTable{canonical: canonical}
}

// Canonicalize maps a raw role spelling to its canonical identity. Unknown
// roles pass through in normalized form; an unrecognized role simply matches
// no rule, which is indistinguishable from having no permission.
func (t *AliasTable) Canonicalize(role string) string {
	key := normalizeIdentifier(role)
	if t == nil {
		return key
	}
	if canon, ok := t.canonical[key]; ok {
		return canon
	}
	return key
}
