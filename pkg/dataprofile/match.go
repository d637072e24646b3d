package dataprofile

import "strings"

// typeRule is the one matching rule shared by the legacy string types and the
// structured service types: a profile handles a request when it lists the
// requested type, lists the wildcard, or lists "default" while "hipri" is asked.
type typeRule[T any] struct {
	equal    func(a, b T) bool
	wildcard *T
	fallback T // covers primary
	primary  T
}

func (r typeRule[T]) handles(have []T, want T) bool {
	for _, t := range have {
		if r.equal(t, want) {
			return true
		}
		if r.wildcard != nil && r.equal(t, *r.wildcard) {
			return true
		}
		if r.equal(t, r.fallback) && r.equal(want, r.primary) {
			return true
		}
	}
	return false
}

var legacyWildcard = TypeAll

var legacyTypeRule = typeRule[string]{
	equal:    strings.EqualFold,
	wildcard: &legacyWildcard,
	fallback: TypeDefault,
	primary:  TypeHIPRI,
}

var serviceTypeRule = typeRule[ServiceType]{
	equal:    func(a, b ServiceType) bool { return a == b },
	fallback: ServiceDefault,
	primary:  ServiceHIPRI,
}

// handlesLegacyType applies the deprecated string rule.
func handlesLegacyType(types []string, want string) bool {
	if strings.TrimSpace(want) == "" {
		return false
	}
	return legacyTypeRule.handles(types, want)
}

// handlesServiceType applies the structured rule. Unknown service types are never handled.
func handlesServiceType(types []ServiceType, want ServiceType) bool {
	if !want.known() {
		return false
	}
	return serviceTypeRule.handles(types, want)
}
