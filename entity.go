package geodict

import (
	"sort"
	"strings"
)

// Entity is one named thing in a category.
type Entity struct {
	Scope    string            // country code for scoped categories
	Key      string            // unique within the category (or scope)
	Names    map[string]string // locale -> display name
	Attrs    map[string]string // extra serialized fields, e.g. cc, flag
	Aliases  *AliasSet
	Location *Location
}

// Ref returns the canonical reference: "<scope>.<key>" for scoped
// entities, the bare key otherwise.
func (e *Entity) Ref() string {
	if e.Scope == "" {
		return e.Key
	}
	return e.Scope + "." + e.Key
}

// Name returns the display name for locale.
func (e *Entity) Name(locale string) string { return e.Names[locale] }

func (e *Entity) clone() *Entity {
	c := &Entity{
		Scope:    e.Scope,
		Key:      e.Key,
		Names:    make(map[string]string, len(e.Names)),
		Attrs:    make(map[string]string, len(e.Attrs)),
		Aliases:  e.Aliases.Clone(),
		Location: e.Location,
	}
	for k, v := range e.Names {
		c.Names[k] = v
	}
	for k, v := range e.Attrs {
		c.Attrs[k] = v
	}
	return c
}

// EntityTable holds all entities of one category. It is filled with Put,
// then frozen; a frozen table never changes.
type EntityTable struct {
	Category *Category

	byRef  map[string]*Entity
	frozen bool
}

// NewEntityTable returns an empty table for c.
func NewEntityTable(c *Category) *EntityTable {
	return &EntityTable{Category: c, byRef: make(map[string]*Entity)}
}

// Put adds e. It fails if an entity with the same reference exists and
// panics if the table is frozen.
func (t *EntityTable) Put(e *Entity) error {
	if t.frozen {
		panic("geodict: Put on frozen EntityTable")
	}
	ref := e.Ref()
	if _, ok := t.byRef[ref]; ok {
		return malformed(t.Category.Name, "", "duplicate entity %q", ref)
	}
	t.byRef[ref] = e
	return nil
}

// Freeze makes the table read-only and returns it.
func (t *EntityTable) Freeze() *EntityTable {
	t.frozen = true
	return t
}

// Frozen reports whether Freeze has been called.
func (t *EntityTable) Frozen() bool { return t.frozen }

// Len returns the number of entities.
func (t *EntityTable) Len() int { return len(t.byRef) }

// ByRef returns the entity with canonical reference ref, or nil.
func (t *EntityTable) ByRef(ref string) *Entity { return t.byRef[ref] }

// Entities returns all entities ordered by scope, then key.
func (t *EntityTable) Entities() []*Entity {
	out := make([]*Entity, 0, len(t.byRef))
	for _, e := range t.byRef {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Scopes returns the distinct scopes in sorted order.
func (t *EntityTable) Scopes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.byRef {
		if !seen[e.Scope] {
			seen[e.Scope] = true
			out = append(out, e.Scope)
		}
	}
	sort.Strings(out)
	return out
}

// BuildTable converts a parsed source document into a frozen table for c.
// The document must hold a mapping under c.Section; flat categories map
// keys to entity records, scoped categories nest them under country codes.
func BuildTable(c *Category, doc *Node, path string) (*EntityTable, error) {
	if doc.IsAbsent() || doc.Kind != Mapping || doc.Get(c.Section).Kind != Mapping {
		return nil, malformed(c.Name, path, "document must contain a %q mapping at the root", c.Section)
	}
	section := doc.Get(c.Section)
	t := NewEntityTable(c)

	if !c.Scoped {
		for i, key := range section.Keys {
			e, err := entityFromNode(c, path, "", key, section.Items[i])
			if err != nil {
				return nil, err
			}
			if err := t.Put(e); err != nil {
				return nil, err
			}
		}
		return t.Freeze(), nil
	}

	for i, scope := range section.Keys {
		entries := section.Items[i]
		if entries.IsAbsent() {
			continue
		}
		if entries.Kind != Mapping {
			return nil, malformed(c.Name, path, "%s: expected a mapping of entities, got %s", scope, entries.Kind)
		}
		for j, key := range entries.Keys {
			e, err := entityFromNode(c, path, scope, key, entries.Items[j])
			if err != nil {
				return nil, err
			}
			if err := t.Put(e); err != nil {
				return nil, err
			}
		}
	}
	return t.Freeze(), nil
}

// entityFromNode builds one entity from its source record. A null record
// yields an entity carrying only its key.
func entityFromNode(c *Category, path, scope, key string, info *Node) (*Entity, error) {
	where := key
	if scope != "" {
		where = scope + "." + key
	}
	if strings.TrimSpace(key) == "" {
		return nil, malformed(c.Name, path, "empty entity key under %q", scope)
	}
	if !info.IsAbsent() && info.Kind != Mapping {
		return nil, malformed(c.Name, path, "%s: expected a mapping, got %s", where, info.Kind)
	}

	e := &Entity{
		Scope: scope,
		Key:   key,
		Names: make(map[string]string, len(c.Locales)),
		Attrs: map[string]string{},
	}
	for _, locale := range c.Locales {
		field := info.Get(c.nameField(locale))
		switch field.Kind {
		case Absent:
			e.Names[locale] = key
		case Scalar:
			e.Names[locale] = field.Value
		default:
			return nil, malformed(c.Name, path, "%s: %s must be a string", where, c.nameField(locale))
		}
	}

	raw, err := info.Get("aliases").Strings()
	if err != nil {
		return nil, malformed(c.Name, path, "%s: aliases: %v", where, err)
	}
	e.Aliases = NewAliasSet(raw...)
	e.Aliases.Add(key)
	if c.NamesAsAliases {
		for _, locale := range c.Locales {
			e.Aliases.AddIdentity(e.Names[locale])
		}
	}

	if c.Locations && (info.Has("lat") || info.Has("lng")) {
		loc, err := parseLocation(info.Get("lat").String(), info.Get("lng").String())
		if err != nil {
			return nil, malformed(c.Name, path, "%s: %v", where, err)
		}
		e.Location = loc
	}
	return e, nil
}
