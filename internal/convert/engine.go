// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert is the conversion engine: it validates requests, stages
// them into a private workspace, dispatches to the selected strategy or PDF
// operation, and packages the result.
package convert

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/docconv/internal/formats"
	"github.com/pdiddy/docconv/internal/imaging"
	"github.com/pdiddy/docconv/internal/packager"
	"github.com/pdiddy/docconv/internal/pdfops"
	"github.com/pdiddy/docconv/internal/workspace"
	"github.com/pdiddy/docconv/pkg/types"
)

// DefaultQueueTimeout bounds how long a request waits for a free slot.
const DefaultQueueTimeout = 30 * time.Second

// stagingWorkers caps parallel writes of merge inputs.
const stagingWorkers = 4

// Backend runs the external tools behind the tool-backed strategies.
// tool.Toolbox is the production implementation.
type Backend interface {
	Invoke(ctx context.Context, strategy types.Strategy, input, outDir string, target types.Format) ([]string, error)
	Compress(ctx context.Context, input, output string, profile types.CompressionProfile) error
}

// Recorder receives one entry per finished request.
type Recorder interface {
	Record(ctx context.Context, e types.HistoryEntry) error
}

// Service is the request/response contract shared by the in-process engine
// and the remote HTTP client.
type Service interface {
	Convert(ctx context.Context, req types.ConversionRequest) (*types.Outcome, error)
	Merge(ctx context.Context, req types.MergeRequest) (*types.Outcome, error)
	Split(ctx context.Context, req types.SplitRequest) (*types.Outcome, error)
	Compress(ctx context.Context, req types.CompressRequest) (*types.Outcome, error)
	Formats(ctx context.Context) (map[string][]string, error)
}

// Engine executes conversion and PDF requests. It holds no per-request
// state; concurrent calls share only the slot limiter.
type Engine struct {
	policy       *formats.Policy
	backend      Backend
	scratch      string
	slots        chan struct{}
	queueTimeout time.Duration
	log          logrus.FieldLogger
	history      Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithHistory records every finished request to r.
func WithHistory(r Recorder) Option {
	return func(e *Engine) { e.history = r }
}

// New builds an Engine. cfg.MaxConcurrent <= 0 disables the slot limiter.
func New(cfg types.EngineConfig, backend Backend, opts ...Option) *Engine {
	e := &Engine{
		policy:       formats.NewPolicy(cfg),
		backend:      backend,
		scratch:      cfg.ScratchDir,
		queueTimeout: cfg.QueueTimeout,
		log:          logrus.StandardLogger(),
	}
	if cfg.MaxConcurrent > 0 {
		e.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	if e.queueTimeout <= 0 {
		e.queueTimeout = DefaultQueueTimeout
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// MaxUploadBytes returns the per-file size limit.
func (e *Engine) MaxUploadBytes() int64 { return e.policy.MaxBytes() }

// Formats returns the capability table keyed by source extension.
func (e *Engine) Formats(context.Context) (map[string][]string, error) {
	return formats.Table(), nil
}

// Convert turns req.Source into req.Target. Validation runs in a fixed
// order (extension, size, capability) before anything is written to disk.
func (e *Engine) Convert(ctx context.Context, req types.ConversionRequest) (out *types.Outcome, err error) {
	rec := e.begin(ctx, types.OpConvert, req.Source)
	rec.entry.TargetFormat = req.Target
	defer func() { rec.finish(out, err) }()

	src, err := e.policy.CheckUpload(req.Source)
	if err != nil {
		return nil, err
	}
	if err := e.policy.CheckTarget(req.Target); err != nil {
		return nil, err
	}
	strategy, err := formats.Select(src, req.Target)
	if err != nil {
		return nil, err
	}
	rec.entry.Strategy = strategy
	rec.log = rec.log.WithField("strategy", strategy)

	if src.IsImage() {
		if _, err := imaging.CheckDimensions(bytes.NewReader(req.Source.Data), e.policy.MaxPixels()); err != nil {
			return nil, err
		}
	}

	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = workspace.Run(e.scratch, rec.log, func(ws *workspace.Workspace) error {
		input, err := ws.WriteInput(req.Source.Data, req.Source.Filename)
		if err != nil {
			return err
		}
		outDir, err := ws.OutputDir()
		if err != nil {
			return err
		}
		files, err := e.dispatch(ctx, strategy, input, outDir, req.Target)
		if err != nil {
			return err
		}
		out, err = packager.Package(files, req.Target,
			packager.ConvertedName(req.Source, req.Target), packager.PagesArchiveName(req.Source))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) dispatch(ctx context.Context, strategy types.Strategy, input, outDir string, target types.Format) ([]string, error) {
	switch strategy {
	case types.StrategyImageConvert:
		out := filepath.Join(outDir, "converted."+string(target))
		if err := imaging.ConvertFile(input, out, target, e.policy.MaxPixels()); err != nil {
			return nil, err
		}
		return []string{out}, nil

	case types.StrategyImageToPDF:
		out := filepath.Join(outDir, "converted.pdf")
		if err := pdfops.ImagesToPDF([]string{input}, out, e.policy.MaxPixels()); err != nil {
			return nil, err
		}
		return []string{out}, nil

	case types.StrategyPDFToOffice, types.StrategyPDFToImage:
		if _, err := pdfops.PageCount(input); err != nil {
			return nil, err
		}
	}
	return e.backend.Invoke(ctx, strategy, input, outDir, target)
}

// Merge concatenates req.Inputs in order into one PDF.
func (e *Engine) Merge(ctx context.Context, req types.MergeRequest) (out *types.Outcome, err error) {
	var first types.Upload
	if len(req.Inputs) > 0 {
		first = req.Inputs[0]
	}
	rec := e.begin(ctx, types.OpMerge, first)
	rec.entry.TargetFormat = types.FormatPDF
	rec.entry.InputFiles = len(req.Inputs)
	var total int64
	for _, in := range req.Inputs {
		total += int64(len(in.Data))
	}
	rec.entry.InputBytes = total
	defer func() { rec.finish(out, err) }()

	if len(req.Inputs) < 2 {
		return nil, types.Errorf(types.ErrInvalidRequest, "merge needs at least 2 files, got %d", len(req.Inputs))
	}
	for _, in := range req.Inputs {
		if err := e.checkPDF(in); err != nil {
			return nil, err
		}
	}
	if err := e.policy.CheckSize(total); err != nil {
		return nil, err
	}

	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = workspace.Run(e.scratch, rec.log, func(ws *workspace.Workspace) error {
		paths := make([]string, len(req.Inputs))
		p := pool.New().WithErrors().WithFirstError().WithMaxGoroutines(stagingWorkers)
		for i, in := range req.Inputs {
			p.Go(func() error {
				path, err := ws.WriteInput(in.Data, in.Filename)
				paths[i] = path
				return err
			})
		}
		if err := p.Wait(); err != nil {
			return err
		}

		merged := ws.Path(packager.MergedName)
		if err := pdfops.Merge(ctx, paths, merged); err != nil {
			return err
		}
		out, err = packager.Package([]string{merged}, types.FormatPDF, packager.MergedName, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Split extracts each range of req.Ranges into its own PDF. Ranges are
// checked against the page count before any page is extracted.
func (e *Engine) Split(ctx context.Context, req types.SplitRequest) (out *types.Outcome, err error) {
	rec := e.begin(ctx, types.OpSplit, req.Input)
	rec.entry.TargetFormat = types.FormatPDF
	defer func() { rec.finish(out, err) }()

	if err := e.checkPDF(req.Input); err != nil {
		return nil, err
	}
	if _, err := pdfops.ParseRangeSyntax(req.Ranges); err != nil {
		return nil, err
	}

	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = workspace.Run(e.scratch, rec.log, func(ws *workspace.Workspace) error {
		input, err := ws.WriteInput(req.Input.Data, req.Input.Filename)
		if err != nil {
			return err
		}
		total, err := pdfops.PageCount(input)
		if err != nil {
			return err
		}
		ranges, err := pdfops.ParseRanges(req.Ranges, total)
		if err != nil {
			return err
		}
		outDir, err := ws.OutputDir()
		if err != nil {
			return err
		}
		files, err := pdfops.Split(ctx, input, ranges, outDir)
		if err != nil {
			return err
		}
		out, err = packager.Package(files, types.FormatPDF,
			packager.SplitName(req.Input, ranges[0].String()), packager.SplitArchiveName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Compress recompresses req.Input with the profile of req.Quality. The
// result is never larger than the input.
func (e *Engine) Compress(ctx context.Context, req types.CompressRequest) (out *types.Outcome, err error) {
	rec := e.begin(ctx, types.OpCompress, req.Input)
	rec.entry.TargetFormat = types.FormatPDF
	rec.entry.Strategy = types.StrategyPDFCompress
	defer func() { rec.finish(out, err) }()

	quality, err := types.ParseQuality(string(req.Quality))
	if err != nil {
		return nil, err
	}
	rec.log = rec.log.WithField("quality", quality)
	if err := e.checkPDF(req.Input); err != nil {
		return nil, err
	}

	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	err = workspace.Run(e.scratch, rec.log, func(ws *workspace.Workspace) error {
		input, err := ws.WriteInput(req.Input.Data, req.Input.Filename)
		if err != nil {
			return err
		}
		if _, err := pdfops.PageCount(input); err != nil {
			return err
		}
		chosen, err := pdfops.Compress(ctx, e.backend, input, ws.Path("compressed.pdf"), quality)
		if err != nil {
			return err
		}
		out, err = packager.Package([]string{chosen}, types.FormatPDF, packager.CompressedName(req.Input), "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkPDF applies the upload policy and requires a .pdf extension.
func (e *Engine) checkPDF(u types.Upload) error {
	f, err := e.policy.CheckUpload(u)
	if err != nil {
		return err
	}
	if f != types.FormatPDF {
		return types.Errorf(types.ErrUnsupportedExtension, "only PDF files are accepted, got .%s", f)
	}
	return nil
}

// acquire waits for a free execution slot. It fails with Busy when none
// frees up within the queue timeout.
func (e *Engine) acquire(ctx context.Context) (func(), error) {
	if e.slots == nil {
		return func() {}, nil
	}
	select {
	case e.slots <- struct{}{}:
		return func() { <-e.slots }, nil
	default:
	}

	timer := time.NewTimer(e.queueTimeout)
	defer timer.Stop()
	select {
	case e.slots <- struct{}{}:
		return func() { <-e.slots }, nil
	case <-ctx.Done():
		return nil, types.WrapError(types.ErrCanceled, ctx.Err(), "request canceled")
	case <-timer.C:
		return nil, types.Errorf(types.ErrBusy, "server is busy, try again later")
	}
}

// record tracks one request for logging and history.
type record struct {
	engine *Engine
	ctx    context.Context
	start  time.Time
	entry  types.HistoryEntry
	log    logrus.FieldLogger
}

func (e *Engine) begin(ctx context.Context, op types.Operation, in types.Upload) *record {
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return &record{
		engine: e,
		ctx:    ctx,
		start:  time.Now(),
		entry: types.HistoryEntry{
			ID:           id,
			Operation:    op,
			SourceFormat: in.Format(),
			InputFiles:   1,
			InputBytes:   int64(len(in.Data)),
		},
		log: e.log.WithFields(logrus.Fields{
			"request_id": id,
			"operation":  op,
		}),
	}
}

func (r *record) finish(out *types.Outcome, err error) {
	r.entry.Duration = time.Since(r.start)
	log := r.log.WithFields(logrus.Fields{
		"duration":    r.entry.Duration,
		"input_bytes": r.entry.InputBytes,
	})

	if err != nil {
		kind := types.KindOf(err)
		r.entry.Status = types.StatusError
		r.entry.ErrorKind = kind
		log = log.WithField("kind", kind).WithError(err)
		if kind.IsValidation() || kind == types.ErrCanceled {
			log.Info("request rejected")
		} else {
			log.Warn("request failed")
		}
	} else {
		r.entry.Status = types.StatusSuccess
		r.entry.OutputBytes = int64(len(out.Payload))
		log.WithField("output_bytes", r.entry.OutputBytes).Info("request completed")
	}

	if r.engine.history == nil {
		return
	}
	ctx := context.WithoutCancel(r.ctx)
	if herr := r.engine.history.Record(ctx, r.entry); herr != nil {
		r.log.WithError(herr).Error("recording history failed")
	}
}
