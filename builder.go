package geodict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// summaryLimit is how many overwrites and conflicts a summary lists before
// eliding the rest.
const summaryLimit = 5

// Builder turns source documents into dictionary artifacts. Each target
// (a category or a keyword file) is built independently; a failed target
// writes nothing and does not affect the others.
type Builder struct {
	cfg Config
	log *slog.Logger

	refOnce sync.Once
	ref     *CountryReference
	refErr  error
}

// NewBuilder returns a Builder configured by opts over DefaultConfig.
func NewBuilder(opts ...Option) (*Builder, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	b := &Builder{cfg: *cfg, log: cfg.Logger}
	if b.log == nil {
		b.log = slog.New(slog.DiscardHandler)
	}
	return b, nil
}

// Config returns a copy of the builder's configuration.
func (b *Builder) Config() Config { return b.cfg }

// BuildResult is the outcome of building one target.
type BuildResult struct {
	Target    string
	Artifacts []Artifact
	Stats     map[string]FileStats

	Entities int
	Aliases  int

	Conflicts  []Conflict  // every multi-reference bucket of the final index
	Collapsed  []Conflict  // conflicts a flat index reduced to one reference
	Overwrites []Overwrite // code aliases that replaced a different mapping
	NearMisses []NearMiss
	Ignored    []string // override references matching no entity

	// Dictionary is the built category as a lookup structure; nil for
	// keyword targets.
	Dictionary *Dictionary
}

// Targets returns every buildable target name in build order.
func Targets() []string {
	var out []string
	for _, c := range Categories() {
		out = append(out, c.Name)
	}
	return append(out, KeywordFiles...)
}

func isKeywordFile(name string) bool {
	for _, k := range KeywordFiles {
		if k == name {
			return true
		}
	}
	return false
}

// Build renders the artifacts of target in memory without writing them.
func (b *Builder) Build(ctx context.Context, target string) (*BuildResult, error) {
	if c, ok := CategoryByName(target); ok {
		return b.buildCategory(ctx, c)
	}
	if isKeywordFile(target) {
		return b.buildKeywords(target)
	}
	return nil, fmt.Errorf("unknown target %q (want one of %s)", target, strings.Join(Targets(), ", "))
}

// Run builds target, writes its artifacts and merges its statistics into
// version.json. Nothing is written when the build fails.
func (b *Builder) Run(ctx context.Context, target string) (*BuildResult, error) {
	res, err := b.Build(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := writeArtifacts(b.cfg.OutputDir, res.Artifacts); err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}

	store := &VersionStore{Path: filepath.Join(b.cfg.OutputDir, VersionFile), Lock: b.cfg.Lock}
	rec, corrupt, err := store.Update(b.cfg.Version, res.Stats)
	if corrupt {
		b.log.Warn("existing version record is unreadable, starting fresh", "path", store.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: updating version record: %w", target, err)
	}
	b.logSummary(res, rec.Version)
	return res, nil
}

// RunAll runs every target in order and returns the results of those that
// succeeded along with the joined errors of those that did not.
func (b *Builder) RunAll(ctx context.Context, targets []string) ([]*BuildResult, error) {
	if len(targets) == 0 {
		targets = Targets()
	}
	var results []*BuildResult
	var errs []error
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := b.Run(ctx, t)
		if err != nil {
			b.log.Error("build failed", "target", t, "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (b *Builder) reference(ctx context.Context) (*CountryReference, error) {
	if b.cfg.CountryData != nil {
		return b.cfg.CountryData, nil
	}
	b.refOnce.Do(func() {
		b.ref, b.refErr = LoadCountryReference(ctx, b.cfg.HTTPClient, b.cfg.Reference)
	})
	return b.ref, b.refErr
}

// baseTable builds the unpatched entity table of c.
func (b *Builder) baseTable(ctx context.Context, c *Category) (*EntityTable, error) {
	if c.FromReference {
		ref, err := b.reference(ctx)
		if err != nil {
			return nil, &SourceError{Category: c.Name, Err: fmt.Errorf("%w: country reference: %v", ErrMissingSource, err)}
		}
		return CountriesTable(ref), nil
	}
	doc, path, err := loadSource(c.Name, b.cfg.SourcesDir, c.Name)
	if err != nil {
		return nil, err
	}
	return BuildTable(c, doc, path)
}

// loadPatch reads the optional patch document of c.
func (b *Builder) loadPatch(c *Category) (*Patch, error) {
	doc, path, err := loadSource(c.Name, b.cfg.SourcesDir, c.PatchName())
	if errors.Is(err, ErrMissingSource) {
		return ParsePatch(c, nil, "")
	}
	if err != nil {
		return nil, err
	}
	return ParsePatch(c, doc, path)
}

func (b *Builder) buildCategory(ctx context.Context, c *Category) (*BuildResult, error) {
	base, err := b.baseTable(ctx, c)
	if err != nil {
		return nil, err
	}
	patch, err := b.loadPatch(c)
	if err != nil {
		return nil, err
	}

	table, ignored := ApplyOverrides(base, patch.Overrides)
	x := BuildIndex(table)
	overwrites := ApplyCodeAliases(x, patch.CodeAliases)

	entities, err := encodeJSON(renderEntities(table))
	if err != nil {
		return nil, fmt.Errorf("%s: encoding entities: %w", c.Name, err)
	}
	indexValue, collapsed := renderIndex(x, c.Shape)
	index, err := encodeJSON(indexValue)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding alias index: %w", c.Name, err)
	}

	res := &BuildResult{
		Target:     c.Name,
		Artifacts:  []Artifact{{Name: c.EntitiesFile, Data: entities}, {Name: c.IndexFile, Data: index}},
		Entities:   table.Len(),
		Aliases:    x.Len(),
		Conflicts:  x.Conflicts(),
		Collapsed:  collapsed,
		Overwrites: overwrites,
		NearMisses: x.NearMisses(b.cfg.NearMissDistance),
		Ignored:    ignored,
		Dictionary: NewDictionary(table, x, b.cfg.Version),
	}

	entityStats := FileStats{c.Name: table.Len()}
	if c.Scoped {
		entityStats["countries"] = len(table.Scopes())
	}
	res.Stats = map[string]FileStats{
		c.EntitiesFile: entityStats,
		c.IndexFile:    {"aliases": x.Len(), "conflicts": len(res.Conflicts)},
	}

	if b.cfg.Bundle {
		comp, err := ParseCompression(b.cfg.Compression)
		if err != nil {
			return nil, err
		}
		data, err := EncodeBundle(table, x, b.cfg.Version, comp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		name := c.Name + ".bundle"
		res.Artifacts = append(res.Artifacts, Artifact{Name: name, Data: data})
		res.Stats[name] = FileStats{"entities": table.Len(), "aliases": x.Len(), "compression": Compression(data[4]).String()}
	}

	for _, a := range res.Artifacts {
		res.Stats[a.Name]["blake3"] = a.Digest()
	}
	return res, nil
}

func (b *Builder) buildKeywords(name string) (*BuildResult, error) {
	doc, path, err := loadSource(name, b.cfg.SourcesDir, name)
	if err != nil {
		return nil, err
	}
	a, patterns, err := BuildKeywords(name, doc, path)
	if err != nil {
		return nil, err
	}
	return &BuildResult{
		Target:    name,
		Artifacts: []Artifact{a},
		Stats:     map[string]FileStats{a.Name: {"patterns": len(patterns), "blake3": a.Digest()}},
		Entities:  len(patterns),
	}, nil
}

func (b *Builder) logSummary(res *BuildResult, version string) {
	for _, a := range res.Artifacts {
		b.log.Info("generated", "file", filepath.Join(b.cfg.OutputDir, a.Name), "bytes", len(a.Data))
	}
	b.log.Info("built", "target", res.Target, "entities", res.Entities, "aliases", res.Aliases,
		"conflicts", len(res.Conflicts), "version", version)

	for _, ref := range res.Ignored {
		b.log.Warn("override matches no entity", "target", res.Target, "ref", ref)
	}
	for i, cf := range res.Conflicts {
		if i == summaryLimit {
			b.log.Warn(fmt.Sprintf("... and %d more conflicts", len(res.Conflicts)-summaryLimit), "target", res.Target)
			break
		}
		b.log.Warn("alias conflict", "target", res.Target, "alias", cf.Alias, "refs", strings.Join(cf.Refs, ","))
	}
	for _, cf := range res.Collapsed {
		b.log.Debug("conflict collapsed", "target", res.Target, "alias", cf.Alias, "kept", cf.Refs[0])
	}
	for i, o := range res.Overwrites {
		if i == summaryLimit {
			b.log.Warn(fmt.Sprintf("... and %d more overwrites", len(res.Overwrites)-summaryLimit), "target", res.Target)
			break
		}
		b.log.Warn("alias overwritten by patch", "target", res.Target, "overwrite", o.String())
	}
	for _, nm := range res.NearMisses {
		b.log.Info("near-miss aliases", "target", res.Target, "a", nm.A, "b", nm.B, "distance", nm.Distance)
	}
}
