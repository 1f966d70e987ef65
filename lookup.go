package geodict

import "sort"

// Dictionary is a read-only, in-memory view of one built category,
// loaded from a bundle or assembled from a build result.
type Dictionary struct {
	Category string
	Version  string
	Shape    string

	entities map[string]BundleEntity
	index    map[string][]string
}

func newDictionary(p bundlePayload) *Dictionary {
	d := &Dictionary{
		Category: p.Category,
		Version:  p.Version,
		Shape:    p.Shape,
		entities: make(map[string]BundleEntity, len(p.Entities)),
		index:    p.Index,
	}
	if d.index == nil {
		d.index = map[string][]string{}
	}
	for _, e := range p.Entities {
		d.entities[e.Ref] = e
	}
	return d
}

// NewDictionary assembles a Dictionary from a table and its final index.
func NewDictionary(table *EntityTable, x *ReverseIndex, version string) *Dictionary {
	return newDictionary(newBundlePayload(table, x, version))
}

// Lookup resolves free text to the references claiming it. The
// case-normalized form is tried first, then the compacted form. Matching
// is exact; there is no fuzzy fallback. A flat dictionary answers with the
// single reference its alias index artifact holds.
func (d *Dictionary) Lookup(text string) []string {
	if refs, ok := d.index[NormalizeCase(text)]; ok {
		return d.resolve(refs)
	}
	if c := Compact(text); c != "" {
		if refs, ok := d.index[c]; ok {
			return d.resolve(refs)
		}
	}
	return nil
}

// Claims returns every reference claiming alias, including those a flat
// dictionary collapses away in Lookup.
func (d *Dictionary) Claims(alias string) []string {
	return d.index[NormalizeCase(alias)]
}

func (d *Dictionary) resolve(refs []string) []string {
	if d.Shape == ShapeFlat.String() && len(refs) > 1 {
		return refs[:1:1]
	}
	return refs
}

// Entity returns the entity with canonical reference ref.
func (d *Dictionary) Entity(ref string) (BundleEntity, bool) {
	e, ok := d.entities[ref]
	return e, ok
}

// Len returns the number of entities.
func (d *Dictionary) Len() int { return len(d.entities) }

// Aliases returns the number of distinct aliases.
func (d *Dictionary) Aliases() int { return len(d.index) }

// Refs returns every entity reference in sorted order.
func (d *Dictionary) Refs() []string {
	out := make([]string, 0, len(d.entities))
	for ref := range d.entities {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}
