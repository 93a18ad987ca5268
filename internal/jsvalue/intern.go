package jsvalue

import (
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// InternedString is the heap representation of a JS string: UTF-16
// code units internally (spec.md §4.1), transcoded once from the
// host's UTF-8 source text via golang.org/x/text/encoding/unicode, the
// same subpackage the teacher's internal/interp/encoding.go already
// imports for UTF-16 work.
type InternedString struct {
	Content string   // normalized UTF-8 form, used for display/comparison
	UTF16   []uint16 // internal representation spec.md §4.1 mandates

	// IndexValue memoises the parsed non-negative integer index this
	// string denotes, or -1 if the string is not a canonical index
	// string (spec.md §4.1 "index string" sub-classification).
	IndexValue int64
}

func (*InternedString) HeapThing() {}

var utf16Encoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

// toUTF16 transcodes a UTF-8 Go string into UTF-16 code units using
// the x/text UTF-16 encoder/transformer pipeline.
func toUTF16(s string) []uint16 {
	encoded, _, err := transform.String(utf16Encoder, s)
	if err != nil {
		// Fall back to a naive rune-by-rune conversion; transform only
		// fails on malformed input, which the lexer should never hand
		// us, but the core must not panic on it.
		units := make([]uint16, 0, len(s))
		for _, r := range s {
			if r > 0xFFFF {
				r -= 0x10000
				units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			} else {
				units = append(units, uint16(r))
			}
		}
		return units
	}
	units := make([]uint16, 0, len(encoded)/2)
	for i := 0; i+1 < len(encoded); i += 2 {
		units = append(units, uint16(encoded[i])|uint16(encoded[i+1])<<8)
	}
	return units
}

// StringTable is the per-runtime interning table for strings used as
// property keys (spec.md §4.1). Plain (non-key) strings need not be
// interned, but the engine interns every string through this table to
// keep a single canonical *InternedString per distinct content, which
// keeps SameValueZero and property lookups to pointer/content
// comparisons.
type StringTable struct {
	mu      sync.Mutex
	entries map[string]*InternedString
}

// NewStringTable creates an empty per-runtime string table.
func NewStringTable() *StringTable {
	return &StringTable{entries: make(map[string]*InternedString)}
}

// Intern returns the canonical *InternedString for s, allocating one
// on first use.
func (t *StringTable) Intern(s string) *InternedString {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[s]; ok {
		return existing
	}
	is := &InternedString{
		Content:    s,
		UTF16:      toUTF16(s),
		IndexValue: parseCanonicalIndex(s),
	}
	t.entries[s] = is
	return is
}

// Len reports how many distinct strings are currently interned, used
// by the heap's root-scan to bound table growth in tests.
func (t *StringTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
