// Package builtin embeds the small set of virtual YANG modules
// yangkit.Load injects into every compiled Context unless NoYanglib()
// is set. The teacher (neoul/yangtree) shipped these pre-gzipped and
// generated; that generated source file was not part of this retrieval
// pack, so they are reauthored here as plain embedded YANG text.
package builtin

import _ "embed"

//go:embed ietf-yang-library.yang
var yangLibrarySource string

//go:embed ietf-yang-metadata.yang
var yangMetadataSource string

// Sources returns the built-in modules keyed by module name, as raw
// YANG text ready to feed to a yang.Modules.Parse call.
func Sources() map[string]string {
	return map[string]string{
		"ietf-yang-library":  yangLibrarySource,
		"ietf-yang-metadata": yangMetadataSource,
	}
}
