package geodict

import (
	"strings"

	"golang.org/x/mod/semver"
)

// FileStats is the free-form statistics record of one artifact.
type FileStats map[string]any

// VersionRecord is the metadata shared by every builder run: the dictionary
// version and one statistics entry per artifact file. Field order matches
// sorted JSON keys.
type VersionRecord struct {
	Files   map[string]FileStats `json:"files"`
	Version string               `json:"version"`

	// Stored file entries that are not objects, and stored top-level keys
	// other than files and version. Both are written back unchanged.
	otherFiles map[string]any
	extra      map[string]any
}

// recordFromDocument reads a decoded version.json object. Entries that do
// not have the expected shape are kept aside rather than rejected.
func recordFromDocument(doc map[string]any) *VersionRecord {
	r := &VersionRecord{Files: map[string]FileStats{}}
	for key, v := range doc {
		switch key {
		case "version":
			// A version that is not a string compares as absent.
			if s, ok := v.(string); ok {
				r.Version = s
			}
			continue
		case "files":
			if files, ok := v.(map[string]any); ok {
				for name, entry := range files {
					if m, ok := entry.(map[string]any); ok {
						r.Files[name] = FileStats(m)
						continue
					}
					if r.otherFiles == nil {
						r.otherFiles = map[string]any{}
					}
					r.otherFiles[name] = entry
				}
			}
			continue
		}
		if r.extra == nil {
			r.extra = map[string]any{}
		}
		r.extra[key] = v
	}
	return r
}

// document returns r as the JSON object stored in version.json.
func (r VersionRecord) document() map[string]any {
	files := make(map[string]any, len(r.Files)+len(r.otherFiles))
	for name, v := range r.otherFiles {
		files[name] = v
	}
	for name, st := range r.Files {
		files[name] = st
	}
	doc := make(map[string]any, len(r.extra)+2)
	for k, v := range r.extra {
		doc[k] = v
	}
	doc["files"] = files
	doc["version"] = r.Version
	return doc
}

// canonicalSemver returns v with a leading "v" when it is valid semantic
// versioning, or "" otherwise.
func canonicalSemver(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// CompareVersions orders two version strings. When both are semantic
// versions (with or without a leading "v") they compare by precedence,
// so build metadata is ignored; otherwise they compare lexically.
func CompareVersions(a, b string) int {
	if sa, sb := canonicalSemver(a), canonicalSemver(b); sa != "" && sb != "" {
		return semver.Compare(sa, sb)
	}
	return strings.Compare(a, b)
}

// MergeVersion folds this run's version and per-artifact statistics into
// existing, which may be nil. The stored version is replaced only by a
// strictly newer one. Files are merged per key: entries in stats replace
// entries with the same name, all other entries are kept. existing is not
// modified, and merging the same input twice gives the same record.
func MergeVersion(existing *VersionRecord, newVersion string, stats map[string]FileStats) VersionRecord {
	out := VersionRecord{Version: newVersion, Files: map[string]FileStats{}}
	if existing != nil {
		if existing.Version != "" && CompareVersions(newVersion, existing.Version) <= 0 {
			out.Version = existing.Version
		}
		for name, s := range existing.Files {
			out.Files[name] = s
		}
		for name, v := range existing.otherFiles {
			if _, replaced := stats[name]; !replaced {
				if out.otherFiles == nil {
					out.otherFiles = map[string]any{}
				}
				out.otherFiles[name] = v
			}
		}
		for k, v := range existing.extra {
			if out.extra == nil {
				out.extra = map[string]any{}
			}
			out.extra[k] = v
		}
	}
	for name, s := range stats {
		out.Files[name] = s
	}
	return out
}
