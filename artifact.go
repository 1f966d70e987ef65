package geodict

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// Artifact is one rendered output file.
type Artifact struct {
	Name string
	Data []byte
}

// Digest returns the hex BLAKE3-256 digest of the artifact bytes.
func (a Artifact) Digest() string {
	sum := blake3.Sum256(a.Data)
	return hex.EncodeToString(sum[:])
}

// encodeJSON renders v as indented JSON with sorted object keys, no HTML
// escaping and a trailing newline. Equal values always give equal bytes.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// entityRecord is the serialized form of one entity.
func entityRecord(c *Category, e *Entity) map[string]any {
	rec := map[string]any{"aliases": e.Aliases.Sorted()}
	for _, locale := range c.Locales {
		rec[c.nameField(locale)] = e.Names[locale]
	}
	for k, v := range e.Attrs {
		rec[k] = v
	}
	if e.Location != nil {
		rec["s2_cell"] = e.Location.CellToken()
		rec["geohash"] = e.Location.Geohash()
	}
	return rec
}

// renderEntities returns the entity artifact value: key -> record for flat
// categories, scope -> key -> record for scoped ones.
func renderEntities(table *EntityTable) map[string]any {
	c := table.Category
	out := make(map[string]any)
	for _, e := range table.Entities() {
		if !c.Scoped {
			out[e.Key] = entityRecord(c, e)
			continue
		}
		scope, ok := out[e.Scope].(map[string]any)
		if !ok {
			scope = make(map[string]any)
			out[e.Scope] = scope
		}
		scope[e.Key] = entityRecord(c, e)
	}
	return out
}

// renderIndex returns the alias index artifact value in the given shape.
// For ShapeFlat, multi-reference buckets collapse to their smallest
// reference and are returned in collapsed.
func renderIndex(x *ReverseIndex, shape IndexShape) (out map[string]any, collapsed []Conflict) {
	out = make(map[string]any, x.Len())
	for _, alias := range x.Aliases() {
		refs := x.Refs(alias)
		switch {
		case shape == ShapeList:
			out[alias] = refs
		case len(refs) == 1:
			out[alias] = refs[0]
		case shape == ShapeFlat:
			out[alias] = refs[0]
			collapsed = append(collapsed, Conflict{Alias: alias, Refs: refs})
		default:
			out[alias] = refs
		}
	}
	return out, collapsed
}

// writeArtifacts writes every artifact into dir, or none of them. All
// files are staged as temporaries first and renamed into place only once
// every temporary has been written. Existing files are hard-linked aside
// before the renames so that a failed rename can restore them.
func writeArtifacts(dir string, artifacts []Artifact) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	temps := make([]string, 0, len(artifacts))
	backups := make([]string, len(artifacts))
	renamed := 0
	success := false
	defer func() {
		if !success {
			for i := 0; i < renamed; i++ {
				dst := filepath.Join(dir, artifacts[i].Name)
				if backups[i] != "" {
					os.Rename(backups[i], dst)
				} else {
					os.Remove(dst)
				}
			}
			for _, tmp := range temps[renamed:] {
				os.Remove(tmp)
			}
		}
		for _, b := range backups {
			if b != "" {
				os.Remove(b)
			}
		}
	}()

	for _, a := range artifacts {
		tmp, err := writeTemp(dir, a)
		if err != nil {
			return err
		}
		temps = append(temps, tmp)
	}

	for i, a := range artifacts {
		dst := filepath.Join(dir, a.Name)
		if fi, err := os.Lstat(dst); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		backup := temps[i] + ".old"
		if err := os.Link(dst, backup); err != nil {
			return fmt.Errorf("keeping previous %s: %w", a.Name, err)
		}
		backups[i] = backup
	}

	for i, a := range artifacts {
		if err := os.Rename(temps[i], filepath.Join(dir, a.Name)); err != nil {
			return fmt.Errorf("renaming %s: %w", a.Name, err)
		}
		renamed++
	}
	success = true
	return nil
}

func writeTemp(dir string, a Artifact) (string, error) {
	f, err := os.CreateTemp(dir, "."+a.Name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file for %s: %w", a.Name, err)
	}
	path := f.Name()
	if _, err := f.Write(a.Data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", a.Name, err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("setting mode of %s: %w", a.Name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing %s: %w", a.Name, err)
	}
	return path, nil
}
