package jsvalue

import "strconv"

// maxArrayIndex is 2^53-1 per the Testable Properties index rule
// (spec.md §8), clamped in practice to 2^32-2 (the ECMAScript array
// index ceiling) since no array-part implementation in this engine
// needs to address beyond that.
const maxArrayIndex = 1<<32 - 2

// parseCanonicalIndex inspects s and returns the non-negative integer
// it denotes if and only if `ToString(i) == s` (spec.md §3 "Property
// key" canonicalization avoids double representation of the same
// key), or -1 if s is not a canonical index string.
func parseCanonicalIndex(s string) int64 {
	if s == "" {
		return -1
	}
	if s == "0" {
		return 0
	}
	if s[0] < '1' || s[0] > '9' {
		return -1 // leading zero or non-digit disqualifies the fast path
	}
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return -1
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n > maxArrayIndex {
		return -1
	}
	return int64(n)
}

// PropertyKeyKind discriminates the canonical forms a key can take
// (spec.md §3 "Property key").
type PropertyKeyKind byte

const (
	PropKeyIndex PropertyKeyKind = iota
	PropKeyString
	PropKeySymbol
	PropKeyPrivate
)

// PropertyKey is the canonicalized key used by the object protocol's
// property map and array part.
type PropertyKey struct {
	Kind    PropertyKeyKind
	Index   int64
	Str     *InternedString
	Sym     *Symbol
	Private *PrivateName
}

// KeyFromString canonicalizes an interned string into either an
// integer-index key or a string key.
func KeyFromString(s *InternedString) PropertyKey {
	if s.IndexValue >= 0 {
		return PropertyKey{Kind: PropKeyIndex, Index: s.IndexValue}
	}
	return PropertyKey{Kind: PropKeyString, Str: s}
}

// KeyFromSymbol wraps a symbol as a property key.
func KeyFromSymbol(s *Symbol) PropertyKey { return PropertyKey{Kind: PropKeySymbol, Sym: s} }

// KeyFromPrivate wraps a private name as a property key.
func KeyFromPrivate(p *PrivateName) PropertyKey {
	return PropertyKey{Kind: PropKeyPrivate, Private: p}
}

// KeyFromValue canonicalizes any Value used in computed-property
// position (`obj[expr]`) into a PropertyKey. Non-string/symbol values
// must already have been coerced to a string by the caller (ToPropertyKey
// abstract operation); this helper accepts the already-coerced form.
func KeyFromValue(v Value) PropertyKey {
	switch v.Kind {
	case KindString:
		return KeyFromString(v.AsString())
	case KindSymbol:
		s, _ := v.Ptr.(*Symbol)
		return KeyFromSymbol(s)
	case KindPrivateName:
		p, _ := v.Ptr.(*PrivateName)
		return KeyFromPrivate(p)
	default:
		return PropertyKey{}
	}
}

// String renders the key the way it would appear via String(key), for
// diagnostics and for non-index string map storage.
func (k PropertyKey) String() string {
	switch k.Kind {
	case PropKeyIndex:
		return strconv.FormatInt(k.Index, 10)
	case PropKeyString:
		return k.Str.Content
	case PropKeySymbol:
		return "Symbol(" + k.Sym.Description + ")"
	case PropKeyPrivate:
		return "#" + k.Private.Description
	}
	return ""
}

// Equal reports whether two canonical keys denote the same property.
func (k PropertyKey) Equal(other PropertyKey) bool {
	if k.Kind != other.Kind {
		return false
	}
	switch k.Kind {
	case PropKeyIndex:
		return k.Index == other.Index
	case PropKeyString:
		return k.Str == other.Str || k.Str.Content == other.Str.Content
	case PropKeySymbol:
		return k.Sym == other.Sym
	case PropKeyPrivate:
		return k.Private == other.Private
	}
	return false
}
