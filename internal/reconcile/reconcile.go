// Package reconcile merges classifier and detector decisions into the catalog
// and runs the end-to-end reconciliation pipeline.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

// ErrInvariant is returned when a reconciled catalog would break id/slug
// uniqueness or leave a record without a category.
var ErrInvariant = eris.New("catalog invariant violated")

// Reconcile applies classifications to every kept record, removes flagged
// artifacts and the later side of each duplicate pair. The input catalog is
// not modified. Every input record ends up either in the output or in
// report.Removed.
func Reconcile(cat model.Catalog, classes []model.Classification, det model.DetectReport) (model.Catalog, model.ChangeReport, error) {
	if len(classes) != len(cat) {
		return nil, model.ChangeReport{}, eris.Errorf("reconcile: %d classifications for %d records", len(classes), len(cat))
	}

	report := model.ChangeReport{
		Reclassified: []model.Reclassification{},
		Removed:      []model.Removal{},
		Duplicates:   []model.DuplicateResolution{},
		Warnings:     []model.Warning{},
		Categories:   []model.CategoryCount{},
	}
	removed := make(map[int]bool, len(det.Artifacts)+len(det.Duplicates))

	for _, a := range det.Artifacts {
		if a.Index < 0 || a.Index >= len(cat) {
			return nil, model.ChangeReport{}, eris.Errorf("reconcile: artifact index %d out of range", a.Index)
		}
		if removed[a.Index] {
			continue
		}
		removed[a.Index] = true
		r := cat[a.Index]
		report.Removed = append(report.Removed, model.Removal{
			ID: r.ID, Name: r.Name, Kind: model.RemovalArtifact, Reason: a.Reason,
		})
		zap.L().Info("reconcile: removed artifact",
			zap.String("id", r.ID), zap.String("name", r.Name), zap.String("reason", a.Reason))
	}

	for _, p := range det.Duplicates {
		kept, dropped := p.KeptIndex, p.DroppedIndex
		if kept < 0 || kept >= len(cat) || dropped < 0 || dropped >= len(cat) || kept == dropped {
			return nil, model.ChangeReport{}, eris.Errorf("reconcile: invalid duplicate pair %d/%d", kept, dropped)
		}
		// Earliest record wins regardless of how the pair was reported.
		if dropped < kept {
			kept, dropped = dropped, kept
		}
		if removed[dropped] {
			continue
		}
		removed[dropped] = true

		k, d := cat[kept], cat[dropped]
		report.Duplicates = append(report.Duplicates, model.DuplicateResolution{
			KeptID: k.ID, KeptName: k.Name, DroppedID: d.ID, DroppedName: d.Name,
			Similarity: p.Similarity, Match: p.Match,
		})
		report.Removed = append(report.Removed, model.Removal{
			ID: d.ID, Name: d.Name, Kind: model.RemovalDuplicate,
			Reason: fmt.Sprintf("%s duplicate of %s (%q, similarity %.3f)", p.Match, k.ID, k.Name, p.Similarity),
		})
		zap.L().Info("reconcile: removed duplicate",
			zap.String("kept_id", k.ID), zap.String("dropped_id", d.ID),
			zap.String("match", string(p.Match)), zap.Float64("similarity", p.Similarity))
	}

	out := make(model.Catalog, 0, len(cat)-len(removed))
	counts := make(map[string]int)
	for i, r := range cat {
		if removed[i] {
			continue
		}
		rec := r.Clone()
		cl := classes[i]
		if rec.Category != cl.Category {
			report.Reclassified = append(report.Reclassified, model.Reclassification{
				ID: rec.ID, Name: rec.Name, From: rec.Category, To: cl.Category,
				Source: cl.Source, Keyword: cl.Keyword,
			})
			rec.Category = cl.Category
		}
		counts[rec.Category]++
		out = append(out, rec)
	}

	for name, n := range counts {
		report.Categories = append(report.Categories, model.CategoryCount{Category: name, Count: n})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})

	report.Counts = model.ReportCounts{
		Input:        len(cat),
		Output:       len(out),
		Reclassified: len(report.Reclassified),
		Removed:      len(report.Removed),
		Artifacts:    len(report.Removed) - len(report.Duplicates),
		Duplicates:   len(report.Duplicates),
	}
	return out, report, nil
}

// AddWarnings appends warnings to the report and updates its count.
func AddWarnings(report *model.ChangeReport, ws ...model.Warning) {
	report.Warnings = append(report.Warnings, ws...)
	report.Counts.Warnings = len(report.Warnings)
}

// Validate checks the post-reconcile catalog invariants: unique id, unique
// slug (both case-insensitive) and a non-empty category on every record.
func Validate(cat model.Catalog) error {
	ids := make(map[string]int, len(cat))
	slugs := make(map[string]int, len(cat))
	for i, r := range cat {
		if strings.TrimSpace(r.Category) == "" {
			return eris.Wrapf(ErrInvariant, "record %d (%s) has no category", i, r.ID)
		}
		id := strings.ToLower(r.ID)
		if prev, ok := ids[id]; ok {
			return eris.Wrapf(ErrInvariant, "records %d and %d share id %q", prev, i, r.ID)
		}
		ids[id] = i
		slug := strings.ToLower(r.Slug)
		if prev, ok := slugs[slug]; ok {
			return eris.Wrapf(ErrInvariant, "records %d and %d share slug %q", prev, i, r.Slug)
		}
		slugs[slug] = i
	}
	return nil
}
