package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"
)

// Entry is one named predicate over a table.
type Entry struct {
	Table  string
	Name   string
	Source string
}

// Catalog is the set of entries loaded from one YAML file or CUE
// directory. Entries are sorted by table, then by name.
type Catalog struct {
	Path    string
	Entries []Entry
}

// Tables returns the distinct table names in entry order.
func (c *Catalog) Tables() []string {
	var tables []string
	for i, e := range c.Entries {
		if i == 0 || c.Entries[i-1].Table != e.Table {
			tables = append(tables, e.Table)
		}
	}
	return tables
}

// Error codes reported by the loaders.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No catalog files found
	ErrCodeLoadFailed  = "E004" // CUE or YAML load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeEmptyCatalog = "E101" // No entries defined
	ErrCodeInvalidTable = "E102" // Table missing a name or filters
	ErrCodeInvalidEntry = "E103" // Filter source is not a non-empty string
	ErrCodeDuplicate    = "E104" // Same table and filter name twice
)

// LoadError is a catalog loading failure, with a CUE position when known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func loadError(code, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Load reads a catalog from path. A directory or .cue file is read as
// CUE; .yaml and .yml files are read as YAML.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, loadError(ErrCodeNotFound, "catalog not found: %s", path)
	}
	if err != nil {
		return nil, loadError(ErrCodeNotFound, "error accessing catalog: %v", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUEFile(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, loadError(ErrCodeLoadFailed, "unrecognized catalog extension %q", filepath.Ext(path))
	}
}

// builder accumulates entries and rejects duplicates.
type builder struct {
	path    string
	seen    map[string]bool
	entries []Entry
}

func newBuilder(path string) *builder {
	return &builder{path: path, seen: make(map[string]bool)}
}

func (b *builder) add(e Entry) error {
	key := e.Table + "\x00" + e.Name
	if b.seen[key] {
		return loadError(ErrCodeDuplicate, "duplicate filter %s.%s", e.Table, e.Name)
	}
	b.seen[key] = true
	b.entries = append(b.entries, e)
	return nil
}

func (b *builder) build() (*Catalog, error) {
	if len(b.entries) == 0 {
		return nil, loadError(ErrCodeEmptyCatalog, "no filters found in %s", b.path)
	}
	sort.Slice(b.entries, func(i, j int) bool {
		if b.entries[i].Table != b.entries[j].Table {
			return b.entries[i].Table < b.entries[j].Table
		}
		return b.entries[i].Name < b.entries[j].Name
	})
	return &Catalog{Path: b.path, Entries: b.entries}, nil
}
