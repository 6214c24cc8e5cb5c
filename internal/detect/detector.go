// Package detect finds duplicate records and scraped navigation artifacts in
// a catalog. Detection only reports; it never modifies the catalog.
package detect

import (
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

// Options configures detection.
type Options struct {
	// Threshold is the similarity a name pair must strictly exceed to be a
	// fuzzy duplicate. Values outside (0, 1] fall back to DefaultThreshold.
	Threshold float64
	// Fuzzy enables the O(n²) name similarity pass.
	Fuzzy bool

	MinNameLen int
	MaxNameLen int
	MaxWords   int
	// MaxCapsLen flags all-caps names with more letters than this. 0 disables.
	MaxCapsLen int

	Denylist     []string
	GenericWords []string
}

// DefaultOptions returns the detection settings used when config is silent.
func DefaultOptions() Options {
	return Options{
		Threshold:    DefaultThreshold,
		Fuzzy:        true,
		MinNameLen:   2,
		MaxNameLen:   60,
		MaxWords:     8,
		MaxCapsLen:   15,
		Denylist:     DefaultDenylist,
		GenericWords: DefaultGenericWords,
	}
}

// Detector holds compiled detection settings.
type Detector struct {
	opts     Options
	denylist map[string]bool
	generic  map[string]bool
}

// New creates a Detector. Empty lists fall back to the defaults.
func New(opts Options) *Detector {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultThreshold
	}
	if len(opts.Denylist) == 0 {
		opts.Denylist = DefaultDenylist
	}
	if len(opts.GenericWords) == 0 {
		opts.GenericWords = DefaultGenericWords
	}
	return &Detector{
		opts:     opts,
		denylist: keySet(opts.Denylist),
		generic:  keySet(opts.GenericWords),
	}
}

// Threshold returns the effective fuzzy threshold.
func (d *Detector) Threshold() float64 {
	return d.opts.Threshold
}

// IsDuplicate reports whether two names would be flagged as the same tool.
func (d *Detector) IsDuplicate(a, b string) (float64, bool) {
	ka, kb := Key(a), Key(b)
	sim := similarity(ka, kb)
	if ka == kb {
		return sim, ka != ""
	}
	return sim, d.opts.Fuzzy && sim > d.opts.Threshold
}

// accepted is a record that passed the artifact and duplicate checks.
type accepted struct {
	index int
	id    string
	name  string
}

// Detect scans the catalog in order. Artifacts are checked first and never
// become the kept side of a pair. Every other record is compared against
// the records accepted before it: exact id, name or slug (case-folded)
// first, then the most similar fuzzy name match, earliest on ties.
func (d *Detector) Detect(cat model.Catalog) model.DetectReport {
	report := model.DetectReport{
		Duplicates: []model.DuplicatePair{},
		Artifacts:  []model.Artifact{},
	}

	var seen []accepted
	byID := make(map[string]int)
	byName := make(map[string]int)
	bySlug := make(map[string]int)

	for i, r := range cat {
		if reason := d.artifactReason(r.Name); reason != "" {
			report.Artifacts = append(report.Artifacts, model.Artifact{
				Index: i, ID: r.ID, Name: r.Name, Reason: reason,
			})
			zap.L().Debug("detect: artifact", zap.Int("index", i), zap.String("id", r.ID), zap.String("reason", reason))
			continue
		}

		cur := accepted{index: i, id: Key(r.ID), name: Key(r.Name)}
		slug := Key(r.Slug)

		if pair, ok := d.exact(cat, cur, slug, byID, byName, bySlug); ok {
			report.Duplicates = append(report.Duplicates, pair)
			zap.L().Debug("detect: exact duplicate",
				zap.Int("dropped_index", i), zap.Int("kept_index", pair.KeptIndex), zap.String("match", string(pair.Match)))
			continue
		}

		if d.opts.Fuzzy {
			if pair, ok := d.fuzzy(cat, cur, seen); ok {
				report.Duplicates = append(report.Duplicates, pair)
				zap.L().Debug("detect: fuzzy duplicate",
					zap.Int("dropped_index", i), zap.Int("kept_index", pair.KeptIndex), zap.Float64("similarity", pair.Similarity))
				continue
			}
		}

		seen = append(seen, cur)
		if cur.id != "" {
			byID[cur.id] = i
		}
		if cur.name != "" {
			byName[cur.name] = i
		}
		if slug != "" {
			bySlug[slug] = i
		}
	}

	zap.L().Info("detect: scan complete",
		zap.Int("records", len(cat)),
		zap.Int("artifacts", len(report.Artifacts)),
		zap.Int("duplicates", len(report.Duplicates)),
	)
	return report
}

func (d *Detector) exact(cat model.Catalog, cur accepted, slug string, byID, byName, bySlug map[string]int) (model.DuplicatePair, bool) {
	checks := []struct {
		key   string
		index map[string]int
		match model.MatchKind
	}{
		{cur.id, byID, model.MatchExactID},
		{cur.name, byName, model.MatchExactName},
		{slug, bySlug, model.MatchExactSlug},
	}
	for _, c := range checks {
		if c.key == "" {
			continue
		}
		if kept, ok := c.index[c.key]; ok {
			return d.pair(cat, kept, cur.index, similarity(Key(cat[kept].Name), cur.name), c.match), true
		}
	}
	return model.DuplicatePair{}, false
}

func (d *Detector) fuzzy(cat model.Catalog, cur accepted, seen []accepted) (model.DuplicatePair, bool) {
	if cur.name == "" {
		return model.DuplicatePair{}, false
	}
	best, bestSim := -1, 0.0
	for _, prev := range seen {
		if prev.name == "" {
			continue
		}
		sim := similarity(prev.name, cur.name)
		if sim > d.opts.Threshold && sim > bestSim {
			best, bestSim = prev.index, sim
		}
	}
	if best < 0 {
		return model.DuplicatePair{}, false
	}
	return d.pair(cat, best, cur.index, bestSim, model.MatchFuzzyName), true
}

func (d *Detector) pair(cat model.Catalog, kept, dropped int, sim float64, match model.MatchKind) model.DuplicatePair {
	return model.DuplicatePair{
		KeptIndex:    kept,
		KeptID:       cat[kept].ID,
		DroppedIndex: dropped,
		DroppedID:    cat[dropped].ID,
		Similarity:   sim,
		Match:        match,
	}
}
