// Package memzero wipes secret buffers once they are no longer needed.
package memzero

import "runtime"

// Zero overwrites every buffer with zeros. It is best effort: copies the
// runtime or the caller made elsewhere are not reached.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
	runtime.KeepAlive(bufs)
}
