package geodict

import "fmt"

// IndexShape selects how an alias index artifact represents its buckets.
type IndexShape int

const (
	// ShapeFlat maps every alias to exactly one reference. Conflicts the
	// code-alias overlay does not settle collapse to the lexically
	// smallest reference and are still reported.
	ShapeFlat IndexShape = iota

	// ShapeList maps every alias to a sorted list of references.
	ShapeList

	// ShapeMixed maps an alias to a single reference, or to a sorted list
	// when the bucket is a conflict.
	ShapeMixed
)

func (s IndexShape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeList:
		return "list"
	case ShapeMixed:
		return "mixed"
	default:
		return fmt.Sprintf("IndexShape(%d)", int(s))
	}
}

// Category describes one kind of entity and how its dictionary is built.
type Category struct {
	Name    string // category name, e.g. "cities"
	Section string // required top-level key of the source document

	// Scoped categories nest entities under a country code; their
	// canonical reference is "<country>.<key>".
	Scoped bool

	// Display names are read from and written to NamePrefix+locale fields,
	// e.g. name_en, display_zh.
	NamePrefix string
	Locales    []string

	// NamesAsAliases adds each display name to the entity's aliases.
	NamesAsAliases bool

	// FromReference categories are built from country reference data
	// instead of a source document.
	FromReference bool

	// Locations enables optional lat/lng fields on entities.
	Locations bool

	Shape        IndexShape
	EntitiesFile string
	IndexFile    string
}

// Predefined categories.
var (
	Countries = &Category{
		Name:           "countries",
		Section:        "countries",
		NamePrefix:     "name_",
		Locales:        []string{"en", "zh"},
		NamesAsAliases: true,
		FromReference:  true,
		Shape:          ShapeFlat,
		EntitiesFile:   "countries.json",
		IndexFile:      "country_alias_map.json",
	}
	Cities = &Category{
		Name:         "cities",
		Section:      "cities",
		Scoped:       true,
		NamePrefix:   "name_",
		Locales:      []string{"en", "zh"},
		Locations:    true,
		Shape:        ShapeList,
		EntitiesFile: "cities.json",
		IndexFile:    "city_alias_map.json",
	}
	Lines = &Category{
		Name:         "lines",
		Section:      "lines",
		NamePrefix:   "display_",
		Locales:      []string{"en", "zh"},
		Shape:        ShapeMixed,
		EntitiesFile: "lines.json",
		IndexFile:    "line_alias_map.json",
	}
	Tags = &Category{
		Name:         "tags",
		Section:      "tags",
		NamePrefix:   "display_",
		Locales:      []string{"en", "zh"},
		Shape:        ShapeMixed,
		EntitiesFile: "tags.json",
		IndexFile:    "tag_alias_map.json",
	}
)

// Categories returns the predefined categories in build order.
func Categories() []*Category {
	return []*Category{Countries, Cities, Lines, Tags}
}

// CategoryByName returns the predefined category called name.
func CategoryByName(name string) (*Category, bool) {
	for _, c := range Categories() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// PatchName is the source document name of the category's patch.
func (c *Category) PatchName() string { return c.Name + "_patch" }

// nameField returns the serialized field name of a locale's display name.
func (c *Category) nameField(locale string) string { return c.NamePrefix + locale }
