package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadCUE reads every .cue file in dir as one CUE instance. Filters are
// declared as
//
//	table: Users: filter: adults: "(user) => user.age >= 18"
func LoadCUE(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, loadError(ErrCodeNotFound, "catalog directory not found: %s", dir)
	}
	if err != nil {
		return nil, loadError(ErrCodeNotFound, "error accessing catalog directory: %v", err)
	}
	if !info.IsDir() {
		return nil, loadError(ErrCodeNotFound, "not a directory: %s", dir)
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, loadError(ErrCodeScanError, "error scanning directory: %v", err)
	}
	if len(cueFiles) == 0 {
		return nil, loadError(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, loadError(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, loadError(ErrCodeLoadFailed, "loading CUE files: %v", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, loadError(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return fromCUE(dir, value)
}

// LoadCUEFile reads a single CUE file.
func LoadCUEFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loadError(ErrCodeNotFound, "catalog not found: %s", path)
		}
		return nil, loadError(ErrCodeLoadFailed, "reading catalog: %v", err)
	}

	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, loadError(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return fromCUE(path, value)
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func fromCUE(path string, value cue.Value) (*Catalog, error) {
	b := newBuilder(path)

	tablesVal := value.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, loadError(ErrCodeEmptyCatalog, "no table field in %s", path)
	}

	tables, err := tablesVal.Fields()
	if err != nil {
		return nil, cueError(ErrCodeInvalidTable, tablesVal, "iterating tables: %v", err)
	}
	for tables.Next() {
		table := tables.Label()
		filtersVal := tables.Value().LookupPath(cue.MakePath(cue.Str("filter")))
		if !filtersVal.Exists() {
			return nil, cueError(ErrCodeInvalidTable, tables.Value(), "table %s: no filter field", table)
		}

		filters, err := filtersVal.Fields()
		if err != nil {
			return nil, cueError(ErrCodeInvalidTable, filtersVal, "table %s: iterating filters: %v", table, err)
		}
		for filters.Next() {
			name := filters.Label()
			src, err := filters.Value().String()
			if err != nil {
				return nil, cueError(ErrCodeInvalidEntry, filters.Value(), "filter %s.%s: source must be a string", table, name)
			}
			if strings.TrimSpace(src) == "" {
				return nil, cueError(ErrCodeInvalidEntry, filters.Value(), "filter %s.%s: empty source", table, name)
			}
			if err := b.add(Entry{Table: table, Name: name, Source: src}); err != nil {
				return nil, err
			}
		}
	}
	return b.build()
}

func cueError(code string, v cue.Value, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}
