package html

import (
	"bytes"
	"fmt"
	"io/fs"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// templates wraps a pongo2 set with a parse cache. Execution holds the read
// lock because pongo2 sets are not documented as safe for concurrent parsing.
type templates struct {
	mu    sync.RWMutex
	set   *pongo2.TemplateSet
	cache map[string]*pongo2.Template
}

func newTemplates(files ...fs.FS) *templates {
	loaders := make([]pongo2.TemplateLoader, 0, len(files))
	for _, f := range files {
		if f != nil {
			loaders = append(loaders, pongo2.NewFSLoader(f))
		}
	}
	return &templates{
		set:   pongo2.NewSet("formengine", loaders...),
		cache: make(map[string]*pongo2.Template),
	}
}

func (t *templates) render(name string, data pongo2.Context) (string, error) {
	tmpl, err := t.get(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	t.mu.RLock()
	err = tmpl.ExecuteWriter(data, &buf)
	t.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("html renderer: execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

func (t *templates) get(name string) (*pongo2.Template, error) {
	t.mu.RLock()
	if tmpl, ok := t.cache[name]; ok {
		t.mu.RUnlock()
		return tmpl, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if tmpl, ok := t.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := t.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("html renderer: load template %q: %w", name, err)
	}
	t.cache[name] = tmpl
	return tmpl, nil
}
