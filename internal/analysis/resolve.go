package analysis

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/datamut/internal/parser"
	"github.com/standardbeagle/datamut/internal/rules"
)

// resolver infers (library, function) pairs for call sites from syntax
// alone: alias resolution, type-flow bindings, chain-root inference and,
// as a last resort, receiver naming conventions.
type resolver struct {
	catalog *rules.Catalog
	ctx     *Context
	tracker *TypeTracker
	source  []byte
	path    string
}

func newResolver(catalog *rules.Catalog, ctx *Context, tracker *TypeTracker, file *parser.ParsedFile) *resolver {
	return &resolver{catalog: catalog, ctx: ctx, tracker: tracker, source: file.Source, path: file.Path}
}

// recognized reports whether the catalogue carries a real library bundle for
// lib. The sql and hardcoded pseudo-libraries never own a local variable.
func (r *resolver) recognized(lib string) bool {
	if lib == "" || lib == "sql" || lib == "hardcoded" {
		return false
	}
	return r.catalog.BundleFor(lib) != nil
}

// resolveCall determines the (library, function) pair for a call node.
// Resolution ambiguity is not an error: ok=false simply means no finding.
func (r *resolver) resolveCall(call *tree_sitter.Node) (library, function string, ok bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", "", false
	}

	switch fn.Kind() {
	case "identifier":
		// Direct call f(...): resolve through the alias map. Only a dotted
		// resolution identifies a library.
		resolved := r.ctx.ResolveName(parser.NodeText(fn, r.source))
		if strings.Contains(resolved, ".") {
			parts := strings.Split(resolved, ".")
			return parts[0], parts[len(parts)-1], true
		}
		return "", "", false

	case "attribute":
		function = parser.NodeText(fn.ChildByFieldName("attribute"), r.source)
		obj := fn.ChildByFieldName("object")
		if obj == nil || function == "" {
			return "", "", false
		}

		switch obj.Kind() {
		case "identifier":
			name := parser.NodeText(obj, r.source)
			if lib, bound := r.tracker.Library(name); bound {
				return lib, function, true
			}
			resolved := r.ctx.ResolveName(name)
			if lib := r.catalog.ResolveAlias(resolved); lib != "" {
				return lib, function, true
			}
			return resolved, function, true

		case "subscript":
			name, isName := subscriptBase(obj, r.source)
			if !isName {
				return "", "", false
			}
			if lib, bound := r.tracker.Library(name); bound {
				return lib, function, true
			}
			resolved := r.ctx.ResolveName(name)
			if lib := r.catalog.ResolveAlias(resolved); lib != "" {
				return lib, function, true
			}
			if lib := libraryFromNamingConvention(name); lib != "" {
				return lib, function, true
			}
			return "", "", false

		case "call":
			// Nested chain: walk inward to the chain's root receiver.
			if lib := r.libraryFromChainRoot(obj); lib != "" {
				return lib, function, true
			}
			return "", "", false

		case "attribute":
			// Module-attribute call mod.sub.method(...).
			path := r.resolveDottedPath(obj)
			if path == "" {
				return "", "", false
			}
			first := firstSegment(path)
			if lib := r.catalog.ResolveAlias(first); lib != "" {
				return lib, function, true
			}
			return first, function, true
		}
	}
	return "", "", false
}

// libraryFromChainRoot walks a method chain inward until it reaches the
// root receiver and resolves its owning library.
func (r *resolver) libraryFromChainRoot(call *tree_sitter.Node) string {
	current := call
	for current != nil {
		fn := current.ChildByFieldName("function")
		if fn == nil || fn.Kind() != "attribute" {
			return ""
		}
		obj := fn.ChildByFieldName("object")
		if obj == nil {
			return ""
		}
		switch obj.Kind() {
		case "identifier":
			return r.receiverLibrary(parser.NodeText(obj, r.source))
		case "subscript":
			if name, isName := subscriptBase(obj, r.source); isName {
				return r.receiverLibrary(name)
			}
			return ""
		case "call":
			current = obj
		default:
			return ""
		}
	}
	return ""
}

// receiverLibrary resolves a root receiver name through bindings, aliases
// and finally naming conventions.
func (r *resolver) receiverLibrary(name string) string {
	if lib, bound := r.tracker.Library(name); bound {
		return lib
	}
	resolved := r.ctx.ResolveName(name)
	if lib := r.catalog.ResolveAlias(resolved); lib != "" {
		return lib
	}
	return libraryFromNamingConvention(name)
}

// resolveDottedPath flattens an attribute expression into a dotted path,
// resolving the leading name through the alias map.
func (r *resolver) resolveDottedPath(node *tree_sitter.Node) string {
	switch node.Kind() {
	case "identifier":
		return r.ctx.ResolveName(parser.NodeText(node, r.source))
	case "attribute":
		base := r.resolveDottedPath(node.ChildByFieldName("object"))
		attr := parser.NodeText(node.ChildByFieldName("attribute"), r.source)
		if base == "" || attr == "" {
			return ""
		}
		return base + "." + attr
	}
	return ""
}

func firstSegment(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}

// libraryFromNamingConvention is the last-resort receiver heuristic:
// dataframe-ish names resolve to pandas, array-ish names to numpy.
func libraryFromNamingConvention(name string) string {
	switch {
	case strings.HasPrefix(name, "df"), strings.HasPrefix(name, "data"), strings.HasPrefix(name, "frame"):
		return "pandas"
	case strings.HasPrefix(name, "arr"), strings.HasPrefix(name, "array"), strings.HasPrefix(name, "np_"):
		return "numpy"
	}
	return ""
}

// observeAssignment updates the type-flow tracker for `name = expr`:
// a call resolving into a recognized library binds the target, and a
// subscript of an already-bound name propagates its binding.
func (r *resolver) observeAssignment(node *tree_sitter.Node) {
	name, value, ok := assignmentParts(node, r.source)
	if !ok {
		return
	}
	switch value.Kind() {
	case "call":
		if lib, _, resolved := r.resolveCall(value); resolved && r.recognized(lib) {
			r.tracker.Bind(name, lib)
		}
	case "subscript":
		if base, isName := subscriptBase(value, r.source); isName {
			if lib, bound := r.tracker.Library(base); bound {
				r.tracker.Bind(name, lib)
			}
		}
	}
}
