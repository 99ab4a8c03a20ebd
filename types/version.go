// Package types holds the protocol data model shared by the codec, the
// server and the client.
package types

// Version is the canonical project version.
// The CLI and the wire codec ship in lockstep under this version.
const Version = "0.1.0"
