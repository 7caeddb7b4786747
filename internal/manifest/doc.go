// Package manifest reads and mutates the repo client's XML manifest
// fragments: the local fragment directory, the active manifest, and the ROM's
// fixed snippets. Documents are parsed into an element tree, mutated, and
// serialized with a fixed format (XML declaration, two-space indent, single
// trailing newline) so round trips are deterministic.
package manifest
