// Package mapping loads and validates the two code-to-folder mappings that
// drive archive classification.
//
// A mapping is a flat JSON object from short uppercase codes (1-6 alphanumeric
// characters) to filesystem-safe folder names. Mappings are loaded once per
// run, validated eagerly, and immutable afterwards, so they may be shared
// across workers without synchronization.
package mapping
