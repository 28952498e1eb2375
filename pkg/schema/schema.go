package schema

// Fields returns every field across all sections in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	var out []Field
	for _, section := range s.Sections {
		out = append(out, section.Fields...)
	}
	return out
}

// Field returns the first field declared with name. Duplicate names alias, so
// later declarations are shadowed here.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, section := range s.Sections {
		for _, field := range section.Fields {
			if field.Name == name {
				return field, true
			}
		}
	}
	return Field{}, false
}

// Section returns the section with the given id.
func (s *Schema) Section(id string) (Section, bool) {
	if s == nil {
		return Section{}, false
	}
	for _, section := range s.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// Defaults collects the declared default values keyed by field name. Fields
// without a default are omitted.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any)
	for _, field := range s.Fields() {
		if field.Default == nil {
			continue
		}
		if _, seen := out[field.Name]; seen {
			continue
		}
		out[field.Name] = field.Default
	}
	return out
}

// Labels returns the action captions with defaults applied.
func (s *Schema) Labels() ActionLabels {
	if s == nil {
		return ActionLabels{}.Resolved()
	}
	return s.Actions.Resolved()
}

// Bind attaches fn as the custom check of every field whose validation
// references ref. It returns the number of fields bound.
func (s *Schema) Bind(ref string, fn CustomFunc) int {
	if s == nil || ref == "" {
		return 0
	}
	bound := 0
	for si := range s.Sections {
		fields := s.Sections[si].Fields
		for fi := range fields {
			v := fields[fi].Validation
			if v == nil || v.CustomRef != ref {
				continue
			}
			v.Custom = fn
			bound++
		}
	}
	return bound
}

// CustomRefs lists the distinct custom validator references in first-seen
// order.
func (s *Schema) CustomRefs() []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, field := range s.Fields() {
		if field.Validation == nil || field.Validation.CustomRef == "" {
			continue
		}
		ref := field.Validation.CustomRef
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

// Clone returns a deep copy of the declaration tree. Default and option values
// are shared since they are treated as immutable.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Sections = make([]Section, len(s.Sections))
	for i, section := range s.Sections {
		cp := section
		if section.Expanded != nil {
			expanded := *section.Expanded
			cp.Expanded = &expanded
		}
		cp.Fields = make([]Field, len(section.Fields))
		for j, field := range section.Fields {
			cp.Fields[j] = field.clone()
		}
		out.Sections[i] = cp
	}
	return &out
}

func (f Field) clone() Field {
	out := f
	if f.Options != nil {
		out.Options = append([]Option(nil), f.Options...)
	}
	if f.Validation != nil {
		v := *f.Validation
		out.Validation = &v
	}
	if f.Conditional != nil {
		c := *f.Conditional
		out.Conditional = &c
	}
	if f.Step != nil {
		step := *f.Step
		out.Step = &step
	}
	return out
}
