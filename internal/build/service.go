package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bookbuilder/internal/config"
	"git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/git"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
	"git.home.luguber.info/inful/bookbuilder/internal/manifest"
	"git.home.luguber.info/inful/bookbuilder/internal/metrics"
	"git.home.luguber.info/inful/bookbuilder/internal/observability"
)

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Request contains all inputs required to execute a build.
type Request struct {
	Config *config.Config
}

// Result contains the outcome of a build execution.
type Result struct {
	ID        string
	Status    Status
	OutputDir string
	Languages []LanguageResult
	Manifest  *manifest.BuildManifest
	// Website is the path of the generated index page, empty when the
	// book declares no website template.
	Website string
	// Hash identifies the outputs; Unchanged is set when the replaced build
	// had the same hash.
	Hash      string
	Unchanged bool
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Service executes builds.
type Service struct {
	recorder metrics.Recorder
	fetcher  fetcherFactory
	now      func() time.Time
}

// NewService creates a build service that clones repositories with go-git.
func NewService() *Service {
	return &Service{
		recorder: metrics.NoopRecorder{},
		fetcher:  gitFetcher,
		now:      time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Run executes a complete build.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{ID: uuid.NewString(), StartTime: s.now(), Status: StatusFailed}
	ctx = observability.WithBuildID(ctx, result.ID)

	err := s.run(ctx, req, result)
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	s.recorder.ObserveBuildDuration(result.Duration)

	switch {
	case err == nil:
		result.Status = StatusSuccess
		observability.InfoContext(ctx, "Build finished",
			slog.String("output", result.OutputDir),
			slog.Int("languages", len(result.Languages)),
			logfields.Since(result.StartTime))
	case stderrors.Is(err, context.Canceled):
		result.Status = StatusCancelled
	}
	s.recorder.IncBuildOutcome(string(result.Status))
	return result, err
}

func (s *Service) run(ctx context.Context, req Request, result *Result) (err error) {
	sess, err := stage(ctx, s.recorder, "prepare", func(ctx context.Context) (*session, error) {
		return s.open(ctx, req.Config)
	})
	if err != nil {
		return err
	}
	defer sess.close()

	out, err := filepath.Abs(req.Config.Output)
	if err != nil {
		return errors.ConfigError("invalid output directory").WithCause(err).WithContext("path", req.Config.Output).Build()
	}
	result.OutputDir = out
	previous, err := stage(ctx, s.recorder, "clean", func(context.Context) (*manifest.BuildManifest, error) {
		return prepareOutput(out)
	})
	if err != nil {
		return err
	}

	// From here on the directory is ours: a failed build still leaves a
	// manifest so the next build may clear it.
	defer func() {
		status := StatusSuccess
		switch {
		case stderrors.Is(err, context.Canceled):
			status = StatusCancelled
		case err != nil:
			status = StatusFailed
		}
		m := sess.manifest(result, status, s.now())
		if werr := m.Write(filepath.Join(out, manifest.FileName)); werr != nil && err == nil {
			err = werr
			return
		}
		result.Manifest = m
		if err == nil {
			result.Hash, result.Unchanged = compareOutputs(ctx, m, previous)
		}
	}()

	langs, err := stage(ctx, s.recorder, "expand", func(ctx context.Context) ([]LanguageResult, error) {
		return s.runPasses(ctx, sess, out, req.Config.IsConcurrent())
	})
	result.Languages = langs
	if err != nil {
		return err
	}

	_, err = stage(ctx, s.recorder, "website", func(ctx context.Context) (struct{}, error) {
		path, err := sess.buildWebsite(ctx, out, langs)
		result.Website = path
		return struct{}{}, err
	})
	return err
}

// stage runs fn with stage logging and metrics.
func stage[T any](ctx context.Context, rec metrics.Recorder, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	v, err := fn(ctx)
	rec.ObserveStageDuration(name, time.Since(start))
	switch {
	case err == nil:
		rec.IncStageResult(name, metrics.ResultSuccess)
		observability.DebugContext(ctx, "Stage finished", logfields.Since(start))
	case stderrors.Is(err, context.Canceled):
		rec.IncStageResult(name, metrics.ResultCanceled)
	default:
		rec.IncStageResult(name, metrics.ResultFatal)
		observability.ErrorContext(ctx, "Stage failed", logfields.Error(err))
	}
	return v, err
}

// runPasses expands every language, in parallel when concurrent is set.
// Languages are independent: a failing pass does not stop the others. The
// results of the passes that succeeded are returned together with the joined
// errors of the ones that did not.
func (s *Service) runPasses(ctx context.Context, sess *session, out string, concurrent bool) ([]LanguageResult, error) {
	results := make([]LanguageResult, len(sess.langs))
	errs := make([]error, len(sess.langs))
	run := func(i int) {
		d := sess.langs[i]
		lctx := observability.WithLang(ctx, d.ID)
		results[i], errs[i] = sess.pass(lctx, d, out)
		if errs[i] != nil {
			observability.ErrorContext(lctx, "Language pass failed", logfields.Error(errs[i]))
		}
	}

	if concurrent && len(sess.langs) > 1 {
		var wg sync.WaitGroup
		for i := range sess.langs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				run(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range sess.langs {
			run(i)
		}
	}

	var (
		done     []LanguageResult
		failed   []error
		canceled error
	)
	for i, err := range errs {
		switch {
		case err == nil:
			done = append(done, results[i])
		case stderrors.Is(err, context.Canceled):
			if canceled == nil {
				canceled = err
			}
		default:
			failed = append(failed, err)
		}
	}
	switch {
	case len(failed) == 1:
		return done, failed[0]
	case len(failed) > 1:
		return done, stderrors.Join(failed...)
	case canceled != nil:
		return done, canceled
	}
	return done, nil
}

// prepareOutput makes out an empty directory and returns the manifest of
// the build it replaced, if any. An existing directory is only cleared when
// it holds such a manifest.
func prepareOutput(out string) (*manifest.BuildManifest, error) {
	var previous *manifest.BuildManifest
	entries, err := os.ReadDir(out)
	switch {
	case stderrors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, errors.FileSystemError("cannot read output directory").WithCause(err).WithContext("path", out).Build()
	case len(entries) == 0:
	default:
		if previous, err = manifest.Read(filepath.Join(out, manifest.FileName)); err != nil {
			return nil, errors.FileSystemError("output directory is not empty and holds no earlier build").
				WithCause(err).WithContext("path", out).Build()
		}
		if err := os.RemoveAll(out); err != nil {
			return nil, errors.FileSystemError("cannot clear output directory").WithCause(err).WithContext("path", out).Build()
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return nil, errors.FileSystemError("cannot create output directory").WithCause(err).WithContext("path", out).Build()
	}
	return previous, nil
}

// compareOutputs hashes m and reports whether a successful previous build
// produced the same outputs.
func compareOutputs(ctx context.Context, m, previous *manifest.BuildManifest) (string, bool) {
	hash, err := m.Hash()
	if err != nil {
		observability.WarnContext(ctx, "Cannot hash manifest", logfields.Error(err))
		return "", false
	}
	if previous == nil || previous.Status != string(StatusSuccess) {
		return hash, false
	}
	if prev, err := previous.Hash(); err == nil && prev == hash {
		observability.InfoContext(ctx, "Outputs unchanged", slog.String("previous_build", previous.ID))
		return hash, true
	}
	return hash, false
}

func (sess *session) manifest(result *Result, status Status, now time.Time) *manifest.BuildManifest {
	m := &manifest.BuildManifest{
		ID:        result.ID,
		Timestamp: result.StartTime.UTC(),
		Status:    string(status),
		Duration:  now.Sub(result.StartTime).Milliseconds(),
		Inputs:    manifest.Inputs{Root: sess.root, Input: sess.relative(sess.input)},
	}
	if snap, ok, err := git.Detect(sess.root); err == nil && ok {
		m.Inputs.Project = &manifest.RepoInput{Name: snap.Name(), URL: snap.BaseURL(), Commit: snap.Commit, Date: snap.Date}
	}
	for _, l := range result.Languages {
		m.Languages = append(m.Languages, l.manifestEntry())
	}
	for _, snap := range sess.cache.Snapshots() {
		m.Repositories = append(m.Repositories, manifest.RepoInput{
			Name: snap.Mnemonic, URL: snap.URL, Commit: snap.Commit, Date: snap.Date,
		})
	}
	return m
}
