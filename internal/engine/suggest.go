package engine

import (
	"sort"

	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

// Suggest proposes alternative actions for a denied request: first other
// actions the same role may take on the same entity, then actions the role
// may take on other entities. The output is deterministic and independent of
// map iteration order.
func Suggest(req *authz.ValidationRequest, idx *CompiledIndex) []authz.SuggestedAction {
	return SuggestWithLimit(req, idx, authz.DefaultSuggestionLimit)
}

// SuggestWithLimit is Suggest with an explicit result cap
func SuggestWithLimit(req *authz.ValidationRequest, idx *CompiledIndex, limit int) []authz.SuggestedAction {
	if req == nil || idx == nil || limit <= 0 {
		return nil
	}

	action := normalizeIdentifier(req.Action)
	entity := normalizeIdentifier(req.EntityType)
	role := idx.Aliases().Canonicalize(req.Role)

	var sameEntity, otherEntity []authz.SuggestedAction
	for _, key := range idx.keys {
		if key.role != role {
			continue
		}
		if !bucketHasAllow(idx.buckets[key]) {
			continue
		}
		switch {
		case key.entity == entity && key.action != action:
			sameEntity = append(sameEntity, authz.SuggestedAction{Action: key.action, EntityType: key.entity})
		case key.entity != entity:
			otherEntity = append(otherEntity, authz.SuggestedAction{Action: key.action, EntityType: key.entity})
		}
	}

	sortSuggestions(sameEntity)
	sortSuggestions(otherEntity)

	seen := make(map[authz.SuggestedAction]struct{})
	var out []authz.SuggestedAction
	for _, s := range append(sameEntity, otherEntity...) {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

// bucketHasAllow reports whether at least one ALLOW rule exists in a bucket.
// Constraints are not evaluated here: a suggestion is an action the role is
// in principle permitted to take, not a guarantee for this exact context.
func bucketHasAllow(rules []authz.Rule) bool {
	for _, r := range rules {
		if r.Effect == authz.EffectAllow {
			return true
		}
	}
	return false
}

// sortSuggestions orders by action name, then entity name
func sortSuggestions(s []authz.SuggestedAction) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Action != s[j].Action {
			return s[i].Action < s[j].Action
		}
		return s[i].EntityType < s[j].EntityType
	})
}
