// File: pkg/bundle/pipeline.go
package bundle

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is a step of the extraction-and-merge pipeline.
type State string

// Pipeline states, in the order a run passes through them.
const (
	StateStart          State = "START"
	StateFetched        State = "FETCHED"
	StateExtractedOuter State = "EXTRACTED_OUTER"
	StateExtractedInner State = "EXTRACTED_INNER"
	StateLocated        State = "LOCATED"
	StateFiltered       State = "FILTERED"
	StateMerged         State = "MERGED"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// Puller fetches a named bundle from a remote device into a local directory.
type Puller interface {
	Pull(ctx context.Context, name, localDir string) (string, error)
}

// Pipeline extracts a bundle into its working directory and merges the
// selected fragments. A Pipeline runs one bundle at a time; concurrent runs
// must use distinct working directories.
type Pipeline struct {
	cfg   *config
	state State
}

// New creates a pipeline configured by opts.
func New(opts ...Option) *Pipeline {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Pipeline{cfg: cfg, state: StateStart}
}

// State returns the state the last run reached.
func (p *Pipeline) State() State {
	return p.state
}

// WorkDir returns the working directory entries are extracted into.
func (p *Pipeline) WorkDir() string {
	return p.cfg.workDir
}

// RunRemote pulls name through puller into the working directory, then runs the pipeline on it.
func (p *Pipeline) RunRemote(ctx context.Context, puller Puller, name string) (*MergeResult, error) {
	p.state = StateStart
	logger := p.cfg.logger

	if err := ensureDirectory(p.cfg.workDir, logger); err != nil {
		return nil, p.fail(err, StateFetched)
	}
	local, err := puller.Pull(ctx, name, p.cfg.workDir)
	if err != nil {
		return nil, p.fail(err, StateFetched)
	}
	p.advance(StateFetched, zap.String("bundle", local))
	return p.run(ctx, NewBundle(local))
}

// Run extracts and merges the local bundle b.
func (p *Pipeline) Run(ctx context.Context, b Bundle) (*MergeResult, error) {
	p.state = StateStart
	return p.run(ctx, b)
}

func (p *Pipeline) run(ctx context.Context, b Bundle) (*MergeResult, error) {
	startTime := time.Now()
	logger := p.cfg.logger.With(zap.String("bundle", b.Path))
	logger.Info("Starting extraction", zap.String("workDir", p.cfg.workDir))

	outer, err := Decompress(ctx, b.Path, p.cfg.workDir, logger)
	if err != nil {
		return nil, p.fail(err, StateExtractedOuter)
	}
	p.advance(StateExtractedOuter, zap.Int("files", len(outer)))

	entries, sources, err := p.extractInner(ctx, b, outer)
	if err != nil {
		return nil, p.fail(err, StateExtractedInner)
	}
	if p.cfg.purge {
		if err := Purge(sources, logger); err != nil {
			return nil, p.fail(err, StateExtractedInner)
		}
		entries = withoutPaths(entries, sources)
	}
	p.advance(StateExtractedInner, zap.Int("entries", len(entries)))

	tokens, locatorFound, err := p.locate(entries)
	if err != nil {
		return nil, p.fail(err, StateLocated)
	}
	p.advance(StateLocated, zap.Bool("locatorFound", locatorFound), zap.Int("tokens", len(tokens)))

	if p.cfg.sortFallback {
		entries = append([]ExtractedEntry(nil), entries...)
		SortEntries(entries)
	}
	filter := Filter{
		Pattern:        CompilePattern(p.cfg.filter),
		LocatorName:    p.cfg.locatorName,
		IncludeLocator: p.cfg.includeLocator,
	}
	selected := filter.SelectAndOrder(entries, tokens)
	outputPath := p.outputPath(b)
	if err := checkOutputCollision(selected, outputPath); err != nil {
		return nil, p.fail(err, StateFiltered)
	}
	binaries := p.inspect(selected)
	p.advance(StateFiltered, zap.String("filter", p.cfg.filter), zap.Int("selected", len(selected)))
	if len(selected) == 0 {
		logger.Warn("No fragments matched the filter; writing an empty output", zap.String("filter", p.cfg.filter))
	}

	result, err := Merge(selected, outputPath, p.cfg.separator, logger)
	if err != nil {
		return nil, p.fail(err, StateMerged)
	}
	result.Bundle = b.Path
	result.LocatorFound = locatorFound
	result.BinaryEntries = binaries
	p.advance(StateMerged, zap.String("output", result.OutputPath), zap.Int64("bytes", result.TotalBytes))

	p.advance(StateDone, zap.Duration("elapsed", time.Since(startTime)))
	return result, nil
}

// extractInner decompresses every compressed path of outer one more level,
// in parallel, and returns all entries in archive order together with the
// compressed sources that were expanded.
func (p *Pipeline) extractInner(ctx context.Context, b Bundle, outer []string) ([]ExtractedEntry, []string, error) {
	produced := make([][]string, len(outer))
	expanded := make([]bool, len(outer))
	seen := make(map[string]bool, len(outer))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.workers)
	for i, path := range outer {
		if !IsCompressed(path) || seen[path] {
			continue
		}
		seen[path] = true
		expanded[i] = true
		workerLogger := p.cfg.logger.With(zap.Int("fragment", i))
		g.Go(func() error {
			out, err := Decompress(gctx, path, filepath.Dir(path), workerLogger)
			if err != nil {
				return err
			}
			produced[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var entries []ExtractedEntry
	var sources []string
	for i, path := range outer {
		compressed := IsCompressed(path)
		if compressed && !expanded[i] {
			// Repeated tar member; its final content was expanded at the first occurrence.
			continue
		}
		e, err := p.entry(b, path, compressed)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, e)
		if !compressed {
			continue
		}
		sources = append(sources, path)
		for _, inner := range produced[i] {
			e, err := p.entry(b, inner, IsCompressed(inner))
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, e)
		}
	}
	return entries, sources, nil
}

func (p *Pipeline) entry(b Bundle, path string, compressed bool) (ExtractedEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ExtractedEntry{}, ioFailure(err, "stat", path)
	}
	root, err := filepath.Abs(p.cfg.workDir)
	if err != nil {
		return ExtractedEntry{}, ioFailure(err, "resolve", p.cfg.workDir)
	}
	return ExtractedEntry{
		Path:       path,
		RelPath:    relativeTo(root, path),
		Bundle:     b.Path,
		Compressed: compressed,
		Size:       info.Size(),
	}, nil
}

// locate parses the locator among entries. A missing locator is not an error.
func (p *Pipeline) locate(entries []ExtractedEntry) ([]string, bool, error) {
	logger := p.cfg.logger
	locator, ok := findLocator(entries, p.cfg.locatorName)
	if !ok {
		logger.Warn("Locator not found; using enumeration order", zap.String("locator", p.cfg.locatorName))
		return nil, false, nil
	}

	tokens, err := ParseLocator(locator.Path)
	if errors.GetCode(err) == CodeMissingLocator {
		logger.Warn("Locator disappeared; using enumeration order", zap.String("locator", locator.Path))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return tokens, true, nil
}

// inspect counts selected entries that look binary. Their content is merged regardless.
func (p *Pipeline) inspect(selected []ExtractedEntry) int {
	count := 0
	for _, e := range selected {
		binary, err := looksBinary(e.Path)
		if err != nil {
			p.cfg.logger.Debug("Could not inspect fragment", zap.String("entry", e.RelPath), zap.Error(err))
			continue
		}
		if binary {
			count++
			p.cfg.logger.Warn("Fragment looks binary", zap.String("entry", e.RelPath))
		}
	}
	return count
}

func (p *Pipeline) outputPath(b Bundle) string {
	name := p.cfg.outputName
	if name == "" {
		name = OutputName(b, p.cfg.outputSuffix)
	}
	if filepath.IsAbs(name) {
		return name
	}
	dir := p.cfg.outputDir
	if dir == "" {
		dir = p.cfg.workDir
	}
	return filepath.Join(dir, name)
}

// checkOutputCollision rejects an output path that would truncate one of the selected entries.
func checkOutputCollision(selected []ExtractedEntry, outputPath string) error {
	outAbs, err := filepath.Abs(outputPath)
	if err != nil {
		return ioFailure(err, "resolve", outputPath)
	}
	for _, e := range selected {
		entryAbs, err := filepath.Abs(e.Path)
		if err != nil {
			return ioFailure(err, "resolve", e.Path)
		}
		if entryAbs == outAbs {
			return errors.WithContext(
				errors.Newf(CodeIOFailure, "output %s would overwrite selected fragment %s", outputPath, e.RelPath),
				ctxPath, outputPath)
		}
	}
	return nil
}

func (p *Pipeline) advance(next State, fields ...zap.Field) {
	p.state = next
	p.cfg.logger.Info("Pipeline stage complete", append([]zap.Field{zap.String("stage", string(next))}, fields...)...)
}

func (p *Pipeline) fail(err error, stage State) error {
	p.state = StateFailed
	p.cfg.logger.Error("Pipeline failed",
		zap.String("stage", string(stage)),
		zap.String("code", string(errors.GetCode(err))),
		zap.Error(err))
	return withStage(err, stage)
}

func withoutPaths(entries []ExtractedEntry, paths []string) []ExtractedEntry {
	drop := make(map[string]bool, len(paths))
	for _, p := range paths {
		drop[p] = true
	}
	out := entries[:0:0]
	for _, e := range entries {
		if !drop[e.Path] {
			out = append(out, e)
		}
	}
	return out
}
