package classify

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"shelver/internal/services"
)

// ParsedName is the immutable result of classifying a filename. All fields
// are non-empty when classification succeeds.
type ParsedName struct {
	CategoryCode string
	ActivityCode string
	Title        string
	Ext          string
}

// Filename reassembles the destination filename: title plus extension,
// exactly as they appeared in the source name.
func (p ParsedName) Filename() string {
	return p.Title + p.Ext
}

// tempMarkers are partial-write suffixes left by downloaders and copy tools.
// Files carrying one are never classified.
var tempMarkers = map[string]struct{}{
	".tmp":        {},
	".part":       {},
	".partial":    {},
	".crdownload": {},
}

// IsTemporary reports whether the filename carries a partial-write marker.
// Discovery drops such files silently instead of recording a skip.
func IsTemporary(filename string) bool {
	_, ok := tempMarkers[strings.ToLower(extension(strings.TrimSpace(filename)))]
	return ok
}

// Classify parses a base filename of the form CODE1_CODE2_title.ext into its
// parts. Codes are normalized to uppercase; the title remainder (which may
// itself contain underscores) and extension are preserved verbatim. Failures
// are tagged services.ErrClassification and describe what was malformed.
func Classify(filename string) (ParsedName, error) {
	name := norm.NFC.String(strings.TrimSpace(filename))
	if name == "" {
		return ParsedName{}, fail("empty filename")
	}
	if strings.ContainsAny(name, `/\`) {
		return ParsedName{}, fail("filename must not contain path separators")
	}

	ext := extension(name)
	if ext == "" {
		return ParsedName{}, fail(fmt.Sprintf("%s has no extension", name))
	}
	if _, temp := tempMarkers[strings.ToLower(ext)]; temp {
		return ParsedName{}, fail(fmt.Sprintf("%s is a partial-write artifact", name))
	}

	stem := strings.TrimSuffix(name, ext)
	parts := strings.SplitN(stem, "_", 3)
	if len(parts) < 3 {
		return ParsedName{}, fail(fmt.Sprintf("%s needs CODE_CODE_title form, found %d segment(s)", name, len(parts)))
	}

	category := strings.ToUpper(strings.TrimSpace(parts[0]))
	activity := strings.ToUpper(strings.TrimSpace(parts[1]))
	title := parts[2]
	if category == "" || activity == "" {
		return ParsedName{}, fail(fmt.Sprintf("%s has an empty code segment", name))
	}
	if strings.TrimSpace(title) == "" {
		return ParsedName{}, fail(fmt.Sprintf("%s has an empty title", name))
	}

	return ParsedName{
		CategoryCode: category,
		ActivityCode: activity,
		Title:        title,
		Ext:          ext,
	}, nil
}

// extension returns the final dot-suffix of name, or "" when the name has no
// usable extension (no dot, trailing dot, or a leading-dot-only name).
func extension(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx:]
}

func fail(message string) error {
	return services.Wrap(services.ErrClassification, "classify", "parse", message, nil)
}
