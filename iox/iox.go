// Package iox holds small cleanup helpers for connections, files and loggers.
package iox

import "io"

// DiscardClose closes c and drops the error. Meant for defer on paths
// where a failed close changes nothing, such as a connection that has
// already been answered:
//
//	defer iox.DiscardClose(conn)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts c for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(ln))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn and drops its error, e.g. defer iox.DiscardErr(logger.Sync).
func DiscardErr(fn func() error) { _ = fn() }
