// Package classify parses staged filenames into category code, activity
// code, title, and extension.
//
// Classification is pure: it never touches the filesystem and fails as a
// unit, so callers either get a fully populated ParsedName or a tagged
// classification error. Filenames are NFC-normalized first so names arriving
// from macOS or network shares in decomposed form classify identically.
package classify
