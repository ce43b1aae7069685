// Package utils provides strict scalar conversions for loosely-typed input.
//
// Snapshot documents arrive as decoded JSON or YAML, so the same field may be
// a json.Number, an int, a float64 or a numeric string depending on the
// producer. The To* helpers accept every faithful representation and return
// an error wrapping ErrWrongType for anything else, never a silent zero value.
package utils
