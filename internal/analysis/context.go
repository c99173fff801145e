package analysis

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
)

// Context holds the per-file alias map and known imports, built once by the
// import pre-pass and read-only during detector execution.
type Context struct {
	aliases map[string]string
	imports map[string]struct{}
}

// NewContext returns an empty analysis context.
func NewContext() *Context {
	return &Context{
		aliases: make(map[string]string),
		imports: make(map[string]struct{}),
	}
}

// CollectContext walks a parsed file's import statements and records
// aliases and direct imports. Unresolvable shapes are skipped; the
// pre-pass never fails.
func CollectContext(file *parser.ParsedFile) *Context {
	ctx := NewContext()
	parser.Walk(file.Root(), func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "import_statement":
			ctx.collectImport(node, file.Source)
			return false
		case "import_from_statement":
			ctx.collectImportFrom(node, file.Source)
			return false
		}
		return true
	})
	return ctx
}

// collectImport handles `import X` and `import X as Y`.
func (c *Context) collectImport(node *tree_sitter.Node, source []byte) {
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name":
			c.imports[parser.NodeText(child, source)] = struct{}{}
		case "aliased_import":
			module := parser.NodeText(child.ChildByFieldName("name"), source)
			alias := parser.NodeText(child.ChildByFieldName("alias"), source)
			if module != "" && alias != "" {
				c.aliases[alias] = module
			}
		}
	}
}

// collectImportFrom handles `from X import Y`, `from X import Y as Z`
// and `from X import *`.
func (c *Context) collectImportFrom(node *tree_sitter.Node, source []byte) {
	moduleNode := node.ChildByFieldName("module_name")
	module := parser.NodeText(moduleNode, source)
	if module == "" {
		return
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if moduleNode != nil && child.Id() == moduleNode.Id() {
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			// No per-name aliasing possible; only the module is known.
			c.imports[module] = struct{}{}
			return
		case "dotted_name":
			name := parser.NodeText(child, source)
			c.aliases[name] = module + "." + name
		case "aliased_import":
			imported := parser.NodeText(child.ChildByFieldName("name"), source)
			alias := parser.NodeText(child.ChildByFieldName("alias"), source)
			if imported != "" && alias != "" {
				c.aliases[alias] = module + "." + imported
			}
		}
	}
}

// ResolveName resolves a bare name through the alias map to its canonical
// dotted form. Unknown names resolve to themselves.
func (c *Context) ResolveName(name string) string {
	if resolved, ok := c.aliases[name]; ok {
		return resolved
	}
	return name
}
