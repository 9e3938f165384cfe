package catalog

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlCatalog struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string            `yaml:"name"`
	Filters map[string]string `yaml:"filters"`
}

// LoadYAML reads a catalog of the form
//
//	tables:
//	  - name: Users
//	    filters:
//	      adults: "(user) => user.age >= 18"
func LoadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loadError(ErrCodeNotFound, "catalog not found: %s", path)
		}
		return nil, loadError(ErrCodeLoadFailed, "reading catalog: %v", err)
	}

	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadError(ErrCodeLoadFailed, "parsing YAML: %v", err)
	}

	b := newBuilder(path)
	for i, t := range doc.Tables {
		if strings.TrimSpace(t.Name) == "" {
			return nil, loadError(ErrCodeInvalidTable, "tables[%d]: missing name", i)
		}
		if len(t.Filters) == 0 {
			return nil, loadError(ErrCodeInvalidTable, "table %s: no filters", t.Name)
		}
		for name, src := range t.Filters {
			if strings.TrimSpace(src) == "" {
				return nil, loadError(ErrCodeInvalidEntry, "filter %s.%s: empty source", t.Name, name)
			}
			if err := b.add(Entry{Table: t.Name, Name: name, Source: src}); err != nil {
				return nil, err
			}
		}
	}
	return b.build()
}
