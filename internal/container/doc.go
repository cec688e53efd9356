// Package container implements the section header (spec §4.3) locating
// containers attached to the bundle executable, and a streaming cursor
// over one container's entries. Grounded on original_source/section.h
// and container.h (cbStub/cbEngineSize accounting, BURN_CONTAINER_CONTEXT
// next/stream-to-file/stream-to-buffer/skip/close cursor) and built on
// stdlib archive/zip, and archive/tar with compress/gzip for
// cabinet-like containers, as the concrete container formats, since the pack
// carries no third-party archive library and the original's own cabinet
// format has no Go equivalent worth emulating byte-for-byte.
package container
