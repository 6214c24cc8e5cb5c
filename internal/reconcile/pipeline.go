package reconcile

import (
	"context"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/catalog"
	"github.com/aitools-hub/catalog-cli/internal/classify"
	"github.com/aitools-hub/catalog-cli/internal/detect"
	"github.com/aitools-hub/catalog-cli/internal/model"
	"github.com/aitools-hub/catalog-cli/internal/normalize"
	"github.com/aitools-hub/catalog-cli/internal/store"
)

// Options describes one reconciliation run.
type Options struct {
	InputPath string
	// OutputPath defaults to InputPath. In a dry run the catalog is only
	// written when OutputPath is set.
	OutputPath   string
	ReportPath   string
	TaxonomyPath string
	DryRun       bool
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string
	Catalog    model.Catalog
	Report     model.ChangeReport
	WrittenTo  string
	ReportPath string // set once the change report is in place
	Phases     []model.PhaseResult
}

// Pipeline runs load, normalize, classify, detect, reconcile and write in
// sequence over one catalog.
type Pipeline struct {
	fs         afero.Fs
	loader     *catalog.Loader
	classifier *classify.Classifier
	detector   *detect.Detector
	store      store.Store
}

// New creates a Pipeline. st may be nil to skip run history.
func New(fs afero.Fs, loader *catalog.Loader, cl *classify.Classifier, det *detect.Detector, st store.Store) *Pipeline {
	return &Pipeline{
		fs:         fs,
		loader:     loader,
		classifier: cl,
		detector:   det,
		store:      st,
	}
}

// Run executes one reconciliation. Fatal errors abort before anything is
// written; the catalog file is only ever replaced by an atomic rename.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("input", opts.InputPath), zap.Bool("dry_run", opts.DryRun))
	log.Info("pipeline: starting reconciliation")

	target := opts.OutputPath
	if target == "" && !opts.DryRun {
		target = opts.InputPath
	}

	result := &Result{}

	var run *model.Run
	if p.store != nil && !opts.DryRun {
		var err error
		run, err = p.store.CreateRun(ctx, model.RunInput{
			InputPath:    opts.InputPath,
			OutputPath:   target,
			TaxonomyPath: opts.TaxonomyPath,
			DryRun:       opts.DryRun,
			Threshold:    p.detector.Threshold(),
		})
		if err != nil {
			log.Warn("pipeline: run history unavailable; run not recorded", zap.Error(err))
			run = nil
		} else {
			result.RunID = run.ID
			log = log.With(zap.String("run_id", run.ID))
		}
	}

	fail := func(err error) (*Result, error) {
		if run != nil {
			if ferr := p.store.FailRun(ctx, run.ID, err.Error()); ferr != nil {
				log.Warn("pipeline: failed to record run failure", zap.Error(ferr))
			}
		}
		return nil, err
	}

	trackPhase := func(name string, fn func() (map[string]any, error)) error {
		var phase *model.RunPhase
		if run != nil {
			var perr error
			if phase, perr = p.store.CreatePhase(ctx, run.ID, name); perr != nil {
				log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(perr))
			}
		}

		start := time.Now()
		meta, err := fn()
		pr := model.PhaseResult{
			Name:     name,
			Status:   model.PhaseStatusComplete,
			Duration: time.Since(start).Milliseconds(),
			Metadata: meta,
		}
		if err != nil {
			pr.Status = model.PhaseStatusFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration), zap.Error(err))
		} else {
			log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration))
		}

		if phase != nil {
			if cerr := p.store.CompletePhase(ctx, phase.ID, &pr); cerr != nil {
				log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(cerr))
			}
		}
		result.Phases = append(result.Phases, pr)
		return err
	}

	var (
		loaded   model.Catalog
		warnings []model.Warning
		classes  []model.Classification
		det      model.DetectReport
		out      model.Catalog
		report   model.ChangeReport
	)

	if err := trackPhase("load", func() (map[string]any, error) {
		cat, ws, err := p.loader.Load(opts.InputPath)
		if err != nil {
			return nil, err
		}
		loaded = cat
		warnings = append(warnings, ws...)
		return map[string]any{"records": len(cat), "warnings": len(ws)}, nil
	}); err != nil {
		return fail(err)
	}

	if err := trackPhase("normalize", func() (map[string]any, error) {
		changed := 0
		for i, r := range loaded {
			res := normalize.Record(i, r)
			if res.Changed {
				changed++
			}
			loaded[i] = res.Record
			warnings = append(warnings, res.Warnings...)
		}
		return map[string]any{"changed": changed}, nil
	}); err != nil {
		return fail(err)
	}

	if err := trackPhase("classify", func() (map[string]any, error) {
		var ws []model.Warning
		classes, ws = p.classifier.All(loaded)
		warnings = append(warnings, ws...)
		return map[string]any{"ambiguous": len(ws)}, nil
	}); err != nil {
		return fail(err)
	}

	if err := trackPhase("detect", func() (map[string]any, error) {
		det = p.detector.Detect(loaded)
		return map[string]any{"artifacts": len(det.Artifacts), "duplicates": len(det.Duplicates)}, nil
	}); err != nil {
		return fail(err)
	}

	if err := trackPhase("reconcile", func() (map[string]any, error) {
		var err error
		out, report, err = Reconcile(loaded, classes, det)
		if err != nil {
			return nil, err
		}
		AddWarnings(&report, warnings...)
		if err := Validate(out); err != nil {
			return nil, err
		}
		return map[string]any{"output": len(out), "removed": report.Counts.Removed}, nil
	}); err != nil {
		return fail(err)
	}

	result.Catalog = out
	result.Report = report

	// The report is staged before the catalog is replaced so a bad report
	// path fails the run with the input untouched.
	var staged *StagedReport
	if opts.ReportPath != "" {
		if err := trackPhase("report", func() (map[string]any, error) {
			var err error
			staged, err = StageReport(p.fs, opts.ReportPath, report)
			return map[string]any{"path": opts.ReportPath}, err
		}); err != nil {
			return fail(err)
		}
	}

	if err := trackPhase("write", func() (map[string]any, error) {
		if target == "" {
			log.Info("pipeline: dry run, catalog not written")
			return map[string]any{"skipped": true}, nil
		}
		if err := catalog.WriteAtomic(p.fs, target, out); err != nil {
			return nil, err
		}
		result.WrittenTo = target
		return map[string]any{"path": target}, nil
	}); err != nil {
		if staged != nil {
			staged.Discard()
		}
		return fail(err)
	}

	if staged != nil {
		if err := staged.Commit(); err != nil {
			log.Warn("pipeline: catalog written but report could not be moved into place", zap.Error(err))
		} else {
			result.ReportPath = opts.ReportPath
		}
	}

	if run != nil {
		if err := p.store.CompleteRun(ctx, run.ID, &report); err != nil {
			log.Warn("pipeline: failed to record run completion", zap.Error(err))
		}
	}

	log.Info("pipeline: reconciliation complete",
		zap.Int("input", report.Counts.Input),
		zap.Int("output", report.Counts.Output),
		zap.Int("reclassified", report.Counts.Reclassified),
		zap.Int("removed", report.Counts.Removed),
		zap.Int("warnings", report.Counts.Warnings),
	)
	return result, nil
}
