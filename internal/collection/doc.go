// Package collection implements the ordered, key-unique record container
// that subsets filter. It forwards the events of held records, removes
// destroyed records, and tags mutations with an optional provenance origin
// so that listeners can recognise changes they initiated themselves.
package collection
