package geodict

import "sort"

// Override is an operator-authored partial record for one entity.
type Override struct {
	Names   map[string]string // locale -> replacement display name
	Aliases []string          // raw aliases to add
}

// Patch is an optional override document for one category.
type Patch struct {
	Overrides   map[string]Override // entity reference -> override
	CodeAliases map[string]string   // alias -> target reference
}

// Empty reports whether the patch changes nothing.
func (p *Patch) Empty() bool {
	return p == nil || (len(p.Overrides) == 0 && len(p.CodeAliases) == 0)
}

// ParsePatch validates a patch document for c. An absent document is an
// empty patch. Flat categories accept code_aliases; other categories
// reject them because their index keeps every claimant.
func ParsePatch(c *Category, doc *Node, path string) (*Patch, error) {
	p := &Patch{Overrides: map[string]Override{}, CodeAliases: map[string]string{}}
	if doc.IsAbsent() {
		return p, nil
	}
	if doc.Kind != Mapping {
		return nil, malformed(c.Name, path, "patch must be a mapping at the root")
	}

	overrides := doc.Get("overrides")
	switch overrides.Kind {
	case Absent:
	case Mapping:
		for i, ref := range overrides.Keys {
			o, err := overrideFromNode(c, path, ref, overrides.Items[i])
			if err != nil {
				return nil, err
			}
			p.Overrides[ref] = o
		}
	default:
		return nil, malformed(c.Name, path, "overrides must be a mapping")
	}

	codeAliases := doc.Get("code_aliases")
	switch codeAliases.Kind {
	case Absent:
	case Mapping:
		if c.Shape != ShapeFlat && len(codeAliases.Keys) > 0 {
			return nil, malformed(c.Name, path, "code_aliases is only supported for %s-index categories", ShapeFlat)
		}
		for i, alias := range codeAliases.Keys {
			target := codeAliases.Items[i]
			if target.Kind != Scalar || target.Value == "" {
				return nil, malformed(c.Name, path, "code_aliases[%q] must be a non-empty string", alias)
			}
			p.CodeAliases[alias] = target.Value
		}
	default:
		return nil, malformed(c.Name, path, "code_aliases must be a mapping")
	}
	return p, nil
}

func overrideFromNode(c *Category, path, ref string, n *Node) (Override, error) {
	o := Override{Names: map[string]string{}}
	if n.IsAbsent() {
		return o, nil
	}
	if n.Kind != Mapping {
		return o, malformed(c.Name, path, "overrides[%q] must be a mapping", ref)
	}
	for _, locale := range c.Locales {
		field := n.Get(c.nameField(locale))
		switch field.Kind {
		case Absent:
		case Scalar:
			o.Names[locale] = field.Value
		default:
			return o, malformed(c.Name, path, "overrides[%q].%s must be a string", ref, c.nameField(locale))
		}
	}
	aliases, err := n.Get("aliases").Strings()
	if err != nil {
		return o, malformed(c.Name, path, "overrides[%q].aliases: %v", ref, err)
	}
	o.Aliases = aliases
	return o, nil
}

// ApplyOverrides returns a frozen copy of table with overrides applied.
// A non-empty override name replaces the base name; empty or missing
// names leave it alone. Override aliases are unioned with the Add rule.
// References not present in table are returned in ignored, sorted; a
// patch never creates entities.
func ApplyOverrides(table *EntityTable, overrides map[string]Override) (patched *EntityTable, ignored []string) {
	patched = NewEntityTable(table.Category)
	for _, e := range table.Entities() {
		o, ok := overrides[e.Ref()]
		if !ok {
			// Unchanged entities are shared; both tables are frozen.
			patched.byRef[e.Ref()] = e
			continue
		}
		pe := e.clone()
		for locale, name := range o.Names {
			if name != "" {
				pe.Names[locale] = name
			}
		}
		pe.Aliases.Union(o.Aliases)
		patched.byRef[pe.Ref()] = pe
	}
	for ref := range overrides {
		if table.ByRef(ref) == nil {
			ignored = append(ignored, ref)
		}
	}
	sort.Strings(ignored)
	return patched.Freeze(), ignored
}
