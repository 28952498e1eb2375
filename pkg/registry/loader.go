package registry

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/schema"
)

type documentFile struct {
	Module string                   `json:"module" yaml:"module"`
	Forms  map[string]schema.Schema `json:"forms" yaml:"forms"`
}

// LoadFS builds a registry from every JSON/YAML document in fsys. Each
// document declares one module and its forms:
//
//	module: lab-tests
//	forms:
//	  test:
//	    title: Lab test
//	    sections: [...]
func LoadFS(fsys fs.FS, opts ...Option) (*Registry, error) {
	r := New(opts...)
	if err := r.LoadFS(fsys); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFS adds every document in fsys to r. When fsys is nil nothing is
// loaded.
func (r *Registry) LoadFS(fsys fs.FS) error {
	if fsys == nil {
		return nil
	}
	return fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("registry: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		module := strings.TrimSpace(doc.Module)
		if module == "" {
			return fmt.Errorf("registry: file %s declares no module", path)
		}

		forms := make([]string, 0, len(doc.Forms))
		for name := range doc.Forms {
			forms = append(forms, name)
		}
		sort.Strings(forms)
		for _, name := range forms {
			s := doc.Forms[name]
			if err := r.Register(module, name, &s); err != nil {
				return fmt.Errorf("%w (file %s)", err, path)
			}
		}
		return nil
	})
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("registry: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("registry: parse %s: %w", source, err)
	}
	return doc, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
