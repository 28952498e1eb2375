package html

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// DecodeManifest reads a go-theme manifest from YAML or JSON.
func DecodeManifest(data []byte) (*theme.Manifest, error) {
	var manifest theme.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("html renderer: decode theme manifest: %w", err)
	}
	if strings.TrimSpace(manifest.Name) == "" {
		return nil, fmt.Errorf("html renderer: theme manifest has no name")
	}
	return &manifest, nil
}

// ThemeConfig flattens manifest and one of its variants into renderer
// configuration. Variant tokens, templates and asset files override the base
// manifest; every token becomes a --<token> CSS custom property.
func ThemeConfig(manifest *theme.Manifest, variant string) *theme.RendererConfig {
	if manifest == nil {
		return nil
	}

	tokens := copyStringMap(manifest.Tokens)
	partials := copyStringMap(manifest.Templates)
	prefix := manifest.Assets.Prefix
	files := copyStringMap(manifest.Assets.Files)

	if v, ok := manifest.Variants[variant]; ok {
		tokens = mergeStringMaps(tokens, v.Tokens)
		partials = mergeStringMaps(partials, v.Templates)
		files = mergeStringMaps(files, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    manifest.Name,
		Variant:  variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file := files[key]
			if file == "" {
				return ""
			}
			if prefix == "" {
				return file
			}
			return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
		},
	}
}

// SelectTheme resolves name/variant through selector.
func SelectTheme(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("html renderer: select theme %q: %w", name, err)
	}
	if selection == nil {
		return nil, nil
	}
	return ThemeConfig(selection.Manifest, selection.Variant), nil
}

// ErrUnknownTheme reports a theme or variant name no manifest declares.
var ErrUnknownTheme = errors.New("html renderer: unknown theme")

// Themes selects among a fixed set of manifests. Empty names resolve to the
// defaults given to NewThemes.
type Themes struct {
	manifests      map[string]*theme.Manifest
	defaultName    string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Themes)(nil)

// NewThemes indexes manifests by name. The first manifest is the default
// when defaultName is empty.
func NewThemes(defaultName, defaultVariant string, manifests ...*theme.Manifest) (*Themes, error) {
	t := &Themes{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultName:    defaultName,
		defaultVariant: defaultVariant,
	}
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if _, dup := t.manifests[manifest.Name]; dup {
			return nil, fmt.Errorf("html renderer: theme %q registered twice", manifest.Name)
		}
		t.manifests[manifest.Name] = manifest
		if t.defaultName == "" {
			t.defaultName = manifest.Name
		}
	}
	if _, ok := t.manifests[t.defaultName]; t.defaultName != "" && !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTheme, t.defaultName)
	}
	return t, nil
}

// Select implements theme.ThemeSelector.
func (t *Themes) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = t.defaultName
		if variant == "" {
			variant = t.defaultVariant
		}
	}
	manifest, ok := t.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w variant %q of %q", ErrUnknownTheme, variant, name)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Names lists the registered themes.
func (t *Themes) Names() []string {
	names := make([]string, 0, len(t.manifests))
	for name := range t.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func mergeStringMaps(base, overlay map[string]string) map[string]string {
	if len(overlay) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(overlay))
	}
	for key, value := range overlay {
		base[key] = value
	}
	return base
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(".fe-form {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(strings.NewReplacer("<", "", ">", "", ";", "", "}", "").Replace(vars[key]))
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
