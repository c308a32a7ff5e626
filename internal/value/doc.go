// Package value defines the attribute types held by records.
//
// Values are a sealed set (Null, String, Int, Bool, Array, Object) so that
// filters can compare attributes without reflection and traces serialize
// deterministically through MarshalCanonical.
//
// Floats are deliberately absent. Integral floats produced by YAML, JSON or
// CUE decoding are converted to Int by From; fractional values are rejected.
package value
