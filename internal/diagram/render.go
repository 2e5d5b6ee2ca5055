package diagram

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strings"

	"classmap/internal/graph"
)

const indent = "    "

// Arrow returns the PlantUML arrow for a relationship symbol.
func Arrow(s graph.Symbol) string {
	switch s {
	case graph.SymbolInheritance:
		return "<|--"
	case graph.SymbolContainment:
		return "+--"
	case graph.SymbolAssociation:
		return "-->"
	case graph.SymbolOwningAssociation:
		return "o->"
	default:
		return "--"
	}
}

// RelationshipLine formats one edge as "Source Arrow ["label"] Target".
// Ends are quoted the same way as type block headers.
func RelationshipLine(r graph.Relationship) string {
	source, target := quoteName(r.Source), quoteName(r.Target)
	if r.Label == "" {
		return source + " " + Arrow(r.Symbol) + " " + target
	}
	return fmt.Sprintf("%s %s %q %s", source, Arrow(r.Symbol), r.Label, target)
}

// quoteName wraps names holding an arity marker in double quotes unless
// they are quoted already.
func quoteName(name string) string {
	if !strings.HasPrefix(name, `"`) && strings.ContainsRune(name, '`') {
		return `"` + name + `"`
	}
	return name
}

// Render writes d as a complete @startuml document.
func Render(w io.Writer, d *Diagram) error {
	bw := bufio.NewWriter(w)

	if d.Title != "" {
		fmt.Fprintf(bw, "@startuml %s\n", d.Title)
	} else {
		bw.WriteString("@startuml\n")
	}

	for _, t := range d.Types {
		bw.WriteString(header(t))
		bw.WriteString(" {\n")
		for _, m := range t.Members {
			bw.WriteString(indent)
			bw.WriteString(m)
			bw.WriteByte('\n')
		}
		bw.WriteString("}\n")
	}

	if d.Relationships != nil {
		for r := range d.Relationships.All() {
			bw.WriteString(RelationshipLine(r))
			bw.WriteByte('\n')
		}
	}

	bw.WriteString("@enduml\n")
	return bw.Flush()
}

func header(t TypeBlock) string {
	name := quoteName(t.Name)
	if len(t.TypeParameters) > 0 {
		name += "<" + strings.Join(t.TypeParameters, ",") + ">"
	}

	var h string
	switch t.Keyword {
	case "interface":
		h = "interface " + name
	case "enum":
		h = "enum " + name
	case "struct", "record":
		h = "class " + name + " <<" + t.Keyword + ">>"
	default:
		h = "class " + name
		if t.Abstract {
			h = "abstract " + h
		}
	}
	if t.Static {
		h += " <<static>>"
	}
	return h
}

// RenderInclude writes an index document that includes every file in files.
// Paths are written with forward slashes.
func RenderInclude(w io.Writer, files []string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("@startuml\n")
	for _, f := range files {
		f = strings.ReplaceAll(f, `\`, "/")
		if !path.IsAbs(f) && !strings.HasPrefix(f, ".") {
			f = "./" + f
		}
		fmt.Fprintf(bw, "!include %s\n", f)
	}
	bw.WriteString("@enduml\n")
	return bw.Flush()
}
