package render

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/staticrender/internal/config"
	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
	"git.home.luguber.info/inful/staticrender/internal/logfields"
	"git.home.luguber.info/inful/staticrender/internal/metrics"
	"git.home.luguber.info/inful/staticrender/internal/observability"
	"git.home.luguber.info/inful/staticrender/internal/rendercache"
)

// Status is the outcome of one page task.
type Status string

const (
	StatusWritten Status = "written"
	StatusCached  Status = "cached"
	StatusFailed  Status = "failed"
)

// PageResult reports one page task.
type PageResult struct {
	Key      string
	Route    string
	Output   string
	Status   Status
	Err      error
	Duration time.Duration
}

// Summary joins the results of all page tasks of one trigger, ordered by
// page key.
type Summary struct {
	Pages   []PageResult
	Written int
	Cached  int
	Failed  int
}

// Failures returns the failed page results.
func (s Summary) Failures() []PageResult {
	var out []PageResult
	for _, p := range s.Pages {
		if p.Status == StatusFailed {
			out = append(out, p)
		}
	}
	return out
}

// Err joins page errors into one error, or nil when every page succeeded.
func (s Summary) Err() error {
	failures := s.Failures()
	if len(failures) == 0 {
		return nil
	}
	routes := make([]string, 0, len(failures))
	for _, f := range failures {
		routes = append(routes, f.Route)
	}
	return foundationerrors.RenderError(fmt.Sprintf("%d of %d pages failed to render: %s",
		len(failures), len(s.Pages), strings.Join(routes, ", "))).
		WithContext("failed", len(failures)).
		Build()
}

// Pipeline renders pages of a loaded module into OutputDir.
type Pipeline struct {
	OutputDir   string
	Cache       *rendercache.Cache
	Writer      FileWriter
	Logger      *slog.Logger
	Recorder    metrics.Recorder
	Concurrency int
}

// NewPipeline returns a Pipeline writing to outputDir through the OS with a
// fresh cache.
func NewPipeline(outputDir string) *Pipeline {
	return &Pipeline{
		OutputDir: outputDir,
		Cache:     rendercache.New(),
		Writer:    OSWriter{},
		Logger:    observability.PluginLogger(nil),
		Recorder:  metrics.NoopRecorder{},
	}
}

// WithRecorder sets the metrics recorder.
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline {
	if r != nil {
		p.Recorder = r
	}
	return p
}

// WithLogger sets the logger; messages are tagged with the plugin prefix.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	p.Logger = observability.PluginLogger(l)
	return p
}

// RenderAll renders every page concurrently and waits for all of them.
// It never fails as a whole; inspect the Summary for page failures.
func (p *Pipeline) RenderAll(ctx context.Context, m *Module, pages map[string]config.PageDescriptor) Summary {
	opts := config.Options{Pages: pages}
	keys := opts.PageKeys()
	results := make([]PageResult, len(keys))
	if len(keys) == 0 {
		return Summary{}
	}

	concurrency := p.Concurrency
	if concurrency < 1 || concurrency > len(keys) {
		concurrency = len(keys)
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = p.RenderPage(ctx, m, key, pages[key])
		}(i, key)
	}
	wg.Wait()

	s := Summary{Pages: results}
	for _, r := range results {
		switch r.Status {
		case StatusWritten:
			s.Written++
		case StatusCached:
			s.Cached++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// RenderPage renders one page. Every failure, including a panic inside
// module code, is contained in the returned PageResult.
func (p *Pipeline) RenderPage(ctx context.Context, m *Module, key string, page config.PageDescriptor) (res PageResult) {
	start := time.Now()
	ctx = observability.WithPage(ctx, key)
	res = PageResult{Key: key, Route: page.Path, Output: filepath.Join(p.OutputDir, key+".html")}
	logger := p.logger().With(logfields.Route(page.Path))

	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusFailed
			res.Err = foundationerrors.RenderError(fmt.Sprintf("panic while rendering: %v", r)).
				WithContext("route", page.Path).
				Build()
		}
		res.Duration = time.Since(start)
		if res.Status == StatusFailed {
			logger.ErrorContext(ctx,
				fmt.Sprintf("An error occurred while trying to statically render the route %s", page.Path),
				logfields.Error(res.Err))
		}
		p.record(res)
	}()

	markup, err := p.renderMarkup(ctx, m, page)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		return res
	}

	if p.Cache != nil && p.Cache.ShouldSkip(page.Path, markup) {
		logger.InfoContext(ctx, fmt.Sprintf("Using the static render cache for %s", page.Path))
		res.Status = StatusCached
		return res
	}

	if err := p.writer().WriteFile(res.Output, []byte(markup)); err != nil {
		res.Status = StatusFailed
		res.Err = foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "write rendered page").
			WithContext("output", res.Output).
			Build()
		return res
	}
	if p.Cache != nil {
		p.Cache.Record(page.Path, markup)
	}
	logger.InfoContext(ctx, fmt.Sprintf("Statically rendered %s to: %s", page.Path, res.Output),
		logfields.Output(res.Output))
	res.Status = StatusWritten
	return res
}

// renderMarkup produces the wrapped markup for page.
func (p *Pipeline) renderMarkup(ctx context.Context, m *Module, page config.PageDescriptor) (string, error) {
	if page.Path == "" {
		return "", foundationerrors.ConfigError("`path` is a mandatory field for `pages` entries").Build()
	}
	if err := m.validate(); err != nil {
		return "", err
	}

	el, err := m.RouterToElement(ctx, m.Router(page.Path, page.Locals))
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryRender, "build root element").Build()
	}
	el, err = resolve(ctx, el)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryRender, "resolve root element").Build()
	}

	markup, err := m.Renderer.RenderToString(ctx, el)
	if err != nil {
		return "", foundationerrors.WrapError(err, foundationerrors.CategoryRender, "render to string").Build()
	}
	if strings.TrimSpace(markup) == "" {
		return "", foundationerrors.RenderError(fmt.Sprintf("Outputted markup for %s was blank!", page.Path)).Build()
	}
	return Wrap(m.RootID, markup), nil
}

// Wrap places markup inside the container element the client hydrates.
func Wrap(rootID, markup string) string {
	return `<div id="` + html.EscapeString(rootID) + `">` + markup + `</div>`
}

// resolve awaits Deferred elements until a concrete element remains.
func resolve(ctx context.Context, el Element) (Element, error) {
	for {
		d, ok := el.(Deferred)
		if !ok {
			return el, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := d.Await(ctx)
		if err != nil {
			return nil, err
		}
		el = next
	}
}

func (p *Pipeline) record(res PageResult) {
	r := p.Recorder
	if r == nil {
		return
	}
	r.ObservePageDuration(res.Duration)
	switch res.Status {
	case StatusWritten:
		r.IncPageResult(metrics.PageWritten)
	case StatusCached:
		r.IncPageResult(metrics.PageCached)
	case StatusFailed:
		r.IncPageResult(metrics.PageFailed)
	}
}

func (p *Pipeline) logger() *slog.Logger {
	return observability.PluginLogger(p.Logger)
}

func (p *Pipeline) writer() FileWriter {
	if p.Writer == nil {
		return OSWriter{}
	}
	return p.Writer
}
