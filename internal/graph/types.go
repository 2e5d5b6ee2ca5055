package graph

import (
	"fmt"
	"iter"
	"slices"
)

// Node represents a declared type in the index.
type Node struct {
	ID        string `json:"id"`
	Name      string `json:"name"` // canonical name, e.g. App.Outer+Inner`1
	Kind      string `json:"kind"` // class, struct, interface, record, enum
	FilePath  string `json:"file_path"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

// Symbol is the kind of a relationship edge.
type Symbol int

const (
	SymbolInheritance Symbol = iota + 1
	SymbolContainment
	SymbolAssociation       // reference whose lifecycle is external
	SymbolOwningAssociation // declaring type constructs the instance
)

// String returns a human-readable representation of the Symbol.
func (s Symbol) String() string {
	switch s {
	case SymbolInheritance:
		return "inheritance"
	case SymbolContainment:
		return "containment"
	case SymbolAssociation:
		return "association"
	case SymbolOwningAssociation:
		return "owning_association"
	default:
		return "unknown"
	}
}

// ParseSymbol is the inverse of Symbol.String.
func ParseSymbol(s string) (Symbol, bool) {
	for _, sym := range []Symbol{SymbolInheritance, SymbolContainment, SymbolAssociation, SymbolOwningAssociation} {
		if sym.String() == s {
			return sym, true
		}
	}
	return 0, false
}

// MarshalText encodes the symbol by name.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a symbol name.
func (s *Symbol) UnmarshalText(b []byte) error {
	sym, ok := ParseSymbol(string(b))
	if !ok {
		return fmt.Errorf("unknown relationship symbol %q", b)
	}
	*s = sym
	return nil
}

// Relationship is one directed edge between two escaped type names.
//
// For inheritance the base type is Source and the derived type is Target. For
// containment Source is the outer type. For associations Source is the
// declaring type and Target the member's type.
type Relationship struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Symbol Symbol `json:"symbol"`
	Label  string `json:"label,omitempty"`
}

// Collection is an ordered, append-only list of relationships. Insertion
// order follows declaration order; duplicates are kept.
//
// A Collection is not safe for concurrent writers. Use one per tree.
type Collection struct {
	items []Relationship
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) add(r Relationship) {
	c.items = append(c.items, r)
}

// Len returns the number of recorded relationships.
func (c *Collection) Len() int {
	return len(c.items)
}

// All iterates relationships in insertion order.
func (c *Collection) All() iter.Seq[Relationship] {
	return slices.Values(c.items)
}

// Items returns a copy of the recorded relationships.
func (c *Collection) Items() []Relationship {
	return slices.Clone(c.items)
}
