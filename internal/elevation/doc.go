// Package elevation implements the parent/child privilege-elevation
// channel (spec §4.8): a Unix-domain-socket analogue of the original's
// named pipe, a random name plus a high-entropy secret exchanged as
// launch arguments, length-prefixed typed-message framing, and a
// request/reply message pump that multiplexes callback messages while
// waiting for completion. Grounded on
// original_source/src/burn/engine/pipe.h (BURN_PIPE_CONNECTION,
// message-type constants, secret-based auth) and on the teacher's
// internal/workflow/executor.go tool-dispatch-table pattern for the
// elevated-operation dispatch table.
package elevation
