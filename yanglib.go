package yangkit

import "github.com/mvarela/yangkit/builtin"

// loadBuiltins parses the embedded virtual modules into the context's
// module set and marks them implemented, so Load's tree always carries
// /modules-state the way a real ietf-yang-library-aware server would,
// unless the caller passed NoYanglib().
func loadBuiltins(ctx *Context) error {
	for name, src := range builtin.Sources() {
		if err := ctx.modules.Parse(src, name); err != nil {
			return wrapError(Internal, name, err, "parsing built-in module")
		}
		ctx.RefImplementedApply(name)
	}
	return nil
}
