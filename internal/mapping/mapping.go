package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"shelver/internal/services"
)

// Mapping resolves short uppercase codes to human-readable folder names.
// Instances are immutable after Load and safe for concurrent readers.
type Mapping struct {
	kind    string
	entries map[string]string
}

const (
	minCodeLen = 1
	maxCodeLen = 6
)

// Load reads a JSON object of code -> folder name pairs from path. A missing
// or malformed file is a configuration error: mappings are required inputs,
// not per-file concerns.
func Load(kind, path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "mapping", "load",
				fmt.Sprintf("%s mapping file not found at %s (create one with 'shelver mapping init')", kind, path), err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "mapping", "load",
			fmt.Sprintf("read %s mapping", kind), err)
	}

	raw := map[string]string{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mapping", "parse",
			fmt.Sprintf("parse %s mapping %s", kind, path), err)
	}

	return New(kind, raw)
}

// New validates and wraps an already-parsed mapping. Keys are normalized to
// uppercase; duplicate keys after normalization are rejected.
func New(kind string, raw map[string]string) (*Mapping, error) {
	entries := make(map[string]string, len(raw))
	for code, folder := range raw {
		normalized := strings.ToUpper(strings.TrimSpace(code))
		if err := validateCode(normalized); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "mapping", "validate",
				fmt.Sprintf("%s mapping key %q", kind, code), err)
		}
		if err := validateFolderName(folder); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "mapping", "validate",
				fmt.Sprintf("%s mapping value for %q", kind, code), err)
		}
		if _, dup := entries[normalized]; dup {
			return nil, services.Wrap(services.ErrConfiguration, "mapping", "validate",
				fmt.Sprintf("%s mapping key %q duplicated after uppercasing", kind, code), nil)
		}
		entries[normalized] = strings.TrimSpace(folder)
	}
	return &Mapping{kind: kind, entries: entries}, nil
}

// Kind reports the mapping's label, e.g. "category" or "activity".
func (m *Mapping) Kind() string { return m.kind }

// Len reports the number of entries.
func (m *Mapping) Len() int { return len(m.entries) }

// Resolve looks up the folder name for a code. No fallback is invented for
// unknown codes.
func (m *Mapping) Resolve(code string) (string, bool) {
	folder, ok := m.entries[strings.ToUpper(strings.TrimSpace(code))]
	return folder, ok
}

// Codes returns the mapping keys in sorted order.
func (m *Mapping) Codes() []string {
	codes := make([]string, 0, len(m.entries))
	for code := range m.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func validateCode(code string) error {
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return fmt.Errorf("code must be %d-%d characters, got %d", minCodeLen, maxCodeLen, len(code))
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return fmt.Errorf("code must be alphanumeric, found %q", r)
		}
	}
	return nil
}

func validateFolderName(folder string) error {
	trimmed := strings.TrimSpace(folder)
	if trimmed == "" {
		return errors.New("folder name must not be empty")
	}
	if strings.ContainsAny(trimmed, `/\`) {
		return errors.New("folder name must not contain path separators")
	}
	if trimmed == "." || trimmed == ".." {
		return errors.New("folder name must not be a relative path element")
	}
	return nil
}
