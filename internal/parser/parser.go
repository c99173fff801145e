package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	dmerrors "github.com/standardbeagle/datamut/internal/errors"
)

// PythonParser wraps a tree-sitter parser configured for Python.
// Instances are not safe for concurrent use; take one from the pool
// per goroutine via Get/Put.
type PythonParser struct {
	parser *tree_sitter.Parser
}

// ParsedFile bundles a parse result with the source it came from.
// The tree borrows the Source buffer; keep both together and call
// Close when done.
type ParsedFile struct {
	Path   string
	Source []byte
	Tree   *tree_sitter.Tree
}

// Root returns the module root node of the parsed file.
func (f *ParsedFile) Root() *tree_sitter.Node {
	return f.Tree.RootNode()
}

// Close releases the underlying tree-sitter tree.
func (f *ParsedFile) Close() {
	if f.Tree != nil {
		f.Tree.Close()
	}
}

// NewPythonParser creates a parser with the Python grammar loaded.
func NewPythonParser() (*PythonParser, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to load python grammar: %w", err)
	}
	return &PythonParser{parser: parser}, nil
}

// Parse parses Python source into a tree. The input buffer is copied
// before parsing: the tree-sitter C library mutates its input via CGO
// and callers must be able to keep their source immutable.
func (p *PythonParser) Parse(path string, content []byte) (parsed *ParsedFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed = nil
			err = dmerrors.NewParseError(path, fmt.Errorf("tree-sitter panic: %v", r))
		}
	}()

	buf := make([]byte, len(content))
	copy(buf, content)

	tree := p.parser.Parse(buf, nil)
	if tree == nil {
		return nil, dmerrors.NewParseError(path, fmt.Errorf("parser returned no tree"))
	}
	return &ParsedFile{Path: path, Source: buf, Tree: tree}, nil
}

// Parser pool: parsers hold CGO state and are mildly expensive to create,
// so the scanner reuses them across files.
var pool = sync.Pool{
	New: func() any {
		p, err := NewPythonParser()
		if err != nil {
			return err
		}
		return p
	},
}

// Get returns a pooled Python parser.
func Get() (*PythonParser, error) {
	switch v := pool.Get().(type) {
	case *PythonParser:
		return v, nil
	case error:
		return nil, v
	default:
		return NewPythonParser()
	}
}

// Put returns a parser to the pool.
func Put(p *PythonParser) {
	if p != nil {
		pool.Put(p)
	}
}
