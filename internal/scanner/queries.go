package scanner

// Queries maps a language to the tree-sitter query used to outline its type
// declarations. Each match captures the declaration as @def and its
// identifier as @name.
var Queries = map[string]string{
	"csharp": `
		(class_declaration name: (identifier) @name) @def
		(struct_declaration name: (identifier) @name) @def
		(interface_declaration name: (identifier) @name) @def
		(record_declaration name: (identifier) @name) @def
		(enum_declaration name: (identifier) @name) @def
	`,
}
