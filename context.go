package yangkit

import (
	"os"

	"github.com/mvarela/yangkit/dictionary"
	"github.com/openconfig/goyang/pkg/yang"
)

// Context owns one dictionary, the set of directories searched for
// imported/included modules, the compiled schema forest, and the
// flags spec.md §6 lists. Nothing about a Context is safe for
// concurrent compilation; concurrent reads of an already-compiled tree
// are fine.
type Context struct {
	Dictionary *dictionary.Dictionary
	Diagnostics
	modules *yang.Modules

	searchDirs []string

	disableSearchdirCWD bool
	disableSearchdirs   bool
	refImplemented      map[string]bool
	allImplemented      bool
	noYanglib           bool

	Schema *SchemaNode
}

// ContextOption configures a Context at construction time, matching
// the teacher's own Option/YANGTreeOption functional-option pattern.
type ContextOption func(*Context)

// DisableSearchdirCWD stops the context from implicitly searching the
// current working directory for modules.
func DisableSearchdirCWD() ContextOption {
	return func(c *Context) { c.disableSearchdirCWD = true }
}

// DisableSearchdirs stops the context from searching any directory,
// including those added with SearchDir: imported modules must then be
// read explicitly.
func DisableSearchdirs() ContextOption {
	return func(c *Context) { c.disableSearchdirs = true }
}

// SearchDir adds a directory to the module search path.
func SearchDir(dir string) ContextOption {
	return func(c *Context) { c.searchDirs = append(c.searchDirs, dir) }
}

// RefImplemented marks a module as "implemented" rather than merely
// "imported", per RFC 7950 §5.6.5 conformance type handling.
func RefImplemented(module string) ContextOption {
	return func(c *Context) {
		if c.refImplemented == nil {
			c.refImplemented = map[string]bool{}
		}
		c.refImplemented[module] = true
	}
}

// AllImplemented marks every loaded module as implemented, bypassing
// RFC 7950's import-only-by-default rule. Useful for tooling that
// validates instance data against an entire module set.
func AllImplemented() ContextOption {
	return func(c *Context) { c.allImplemented = true }
}

// NoYanglib suppresses injection of the built-in ietf-yang-library
// virtual module.
func NoYanglib() ContextOption {
	return func(c *Context) { c.noYanglib = true }
}

// NewContext constructs a Context ready to Load modules into.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		Dictionary: dictionary.New(),
		modules:    yang.NewModules(),
	}
	for _, o := range opts {
		o(c)
	}
	if !c.disableSearchdirCWD {
		if wd, err := os.Getwd(); err == nil {
			c.searchDirs = append(c.searchDirs, wd)
		}
	}
	if !c.disableSearchdirs {
		// AddPath is a package-level function: goyang keeps its search
		// path as process-global state (yang.Path) that Read's internal
		// file lookup consults, rather than per-Modules state.
		yang.AddPath(c.searchDirs...)
	}
	return c
}

func (c *Context) isImplemented(name string) bool {
	if c.allImplemented {
		return true
	}
	return c.refImplemented[name]
}
