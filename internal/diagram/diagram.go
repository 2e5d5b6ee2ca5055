// Package diagram walks a declaration tree once, collecting type blocks and
// relationships, and renders the result as a PlantUML class diagram.
package diagram

import (
	"fmt"
	"strings"

	"classmap/internal/graph"
	"classmap/util"
)

// Accessibility is a set of C# access levels.
type Accessibility uint8

const (
	AccessPublic Accessibility = 1 << iota
	AccessProtected
	AccessInternal
	AccessProtectedInternal
	AccessPrivateProtected
	AccessPrivate

	// AccessNonPublic is everything except public, used by --public.
	AccessNonPublic = AccessProtected | AccessInternal | AccessProtectedInternal |
		AccessPrivateProtected | AccessPrivate
)

var accessNames = []struct {
	name  string
	level Accessibility
}{
	{"public", AccessPublic},
	{"protected", AccessProtected},
	{"internal", AccessInternal},
	{"protected-internal", AccessProtectedInternal},
	{"private-protected", AccessPrivateProtected},
	{"private", AccessPrivate},
}

// ParseAccessibilities converts names such as "private" or
// "protected-internal" into a set. Underscores and spaces are accepted in
// place of the dash.
func ParseAccessibilities(names []string) (Accessibility, error) {
	var set Accessibility
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		name = strings.NewReplacer("_", "-", " ", "-").Replace(name)
		if name == "" {
			continue
		}
		found := false
		for _, a := range accessNames {
			if a.name == name {
				set |= a.level
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown accessibility %q", raw)
		}
	}
	return set, nil
}

func (a Accessibility) String() string {
	var parts []string
	for _, n := range accessNames {
		if a&n.level != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}

// Options controls what Build puts into a diagram.
type Options struct {
	// IgnoreAccessibilities drops members with these access levels from type
	// blocks. Relationships are unaffected.
	IgnoreAccessibilities Accessibility
	// CreateAssociation emits association edges for fields and properties of
	// simple named types. Members that produced an edge are left out of the
	// type block.
	CreateAssociation bool
}

// TypeBlock is one class, struct, interface, record or enum.
type TypeBlock struct {
	// Name is the resolved, escaped identifier.
	Name           string
	Keyword        string
	TypeParameters []string
	Abstract       bool
	Static         bool
	Members        []string
	LineStart      int
	LineEnd        int
}

// Diagram is everything extracted from one declaration tree.
type Diagram struct {
	Title         string
	Types         []TypeBlock
	Relationships *graph.Collection
}

// Nodes summarises the type blocks for the index. Names are unquoted.
func (d *Diagram) Nodes(filePath string) []graph.Node {
	nodes := make([]graph.Node, 0, len(d.Types))
	for _, t := range d.Types {
		name := strings.Trim(t.Name, `"`)
		nodes = append(nodes, graph.Node{
			ID:        util.GenerateNodeID(filePath, name),
			Name:      name,
			Kind:      t.Keyword,
			FilePath:  filePath,
			LineStart: t.LineStart,
			LineEnd:   t.LineEnd,
		})
	}
	return nodes
}
