//go:build cgo

package database

// godror links against the Oracle client libraries and needs cgo.
import _ "github.com/godror/godror"
