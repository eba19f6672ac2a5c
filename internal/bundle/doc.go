// Package bundle imports the frontend's typed AST exchange format.
//
// A bundle is a versioned, length-prefixed stream: a fixed header (magic
// plus schema version), one type-table frame, then one frame per Item
// record. Frames are JSON; every item record is validated against the
// embedded CUE schema before decoding, so structural malformation is
// reported declaratively rather than as a decoder panic.
//
// The importer is the only component permitted to allocate top-level
// Items. It resolves the frontend's local ids and type-table indices to
// first-class arena handles and fails with ImportError on any dangling
// reference, out-of-range index, or unsupported node tag. An
// unrecognized schema version is rejected outright, never partially
// parsed.
package bundle
