// Package layout builds the date- and category-partitioned destination path
// for a classified file and guards it against path traversal.
//
// The builder is pure: directory creation belongs to the transfer engine.
// Traversal violations are tagged services.ErrSecurity and are never retried.
package layout
