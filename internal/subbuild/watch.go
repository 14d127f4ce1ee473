package subbuild

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/staticrender/internal/config"
	"git.home.luguber.info/inful/staticrender/internal/engine"
	"git.home.luguber.info/inful/staticrender/internal/observability"
)

type watchState int

const (
	stateIdle watchState = iota
	stateStarting
	stateWatching
)

// WatchSession owns the single sub-build watcher of a watch run and the
// callback its completions are delivered to. The callback is rebound on
// every incremental trigger; a completion already in flight is delivered to
// whichever callback is current when it finishes, and is logged under that
// trigger's build id.
type WatchSession struct {
	runner *Runner

	mu           sync.Mutex
	state        watchState
	watching     engine.Watching
	current      Callback
	logCtx       observability.LogContext
	closePending bool
	cancel       context.CancelFunc
	starts       int
}

// NewWatchSession returns an idle session for runner.
func NewWatchSession(r *Runner) *WatchSession {
	return &WatchSession{runner: r}
}

// Trigger handles an incremental trigger. The first call starts the
// watcher and binds done as the current callback; done is then called by
// the watcher's completions. Later calls only rebind and return done(nil)
// at once.
func (s *WatchSession) Trigger(ctx context.Context, primary *config.BuildConfig, done Callback) {
	s.mu.Lock()
	if s.state != stateIdle {
		s.current = done
		s.logCtx = observability.GetContext(ctx)
		s.mu.Unlock()
		done(nil)
		return
	}
	s.state = stateStarting
	s.current = done
	s.logCtx = observability.GetContext(ctx)
	s.starts++
	s.mu.Unlock()

	cfg, artifact, err := s.runner.Prepare(primary)
	if err != nil {
		s.reset()
		s.runner.finish(ModeWatch, err, done)
		return
	}

	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w, err := s.runner.Engine.Watch(cfg, engine.WatchOptions{}, func(res *engine.Result, buildErr error) {
		s.runner.Complete(s.completionContext(wctx), ModeWatch, artifact, res, buildErr, s.Dispatch)
	})
	if err != nil {
		cancel()
		s.reset()
		s.runner.finish(ModeWatch, err, done)
		return
	}

	s.mu.Lock()
	if s.closePending {
		s.mu.Unlock()
		cancel()
		_ = w.Close()
		s.reset()
		return
	}
	s.state = stateWatching
	s.watching = w
	s.cancel = cancel
	s.mu.Unlock()
	s.runner.recorder().SetWatchActive(true)
}

// Rebind makes done the callback for subsequent completions.
func (s *WatchSession) Rebind(done Callback) {
	s.mu.Lock()
	s.current = done
	s.mu.Unlock()
}

// completionContext carries the log context of the latest trigger.
func (s *WatchSession) completionContext(ctx context.Context) context.Context {
	s.mu.Lock()
	lc := s.logCtx
	s.mu.Unlock()
	return observability.WithTrigger(observability.WithBuildID(ctx, lc.BuildID), lc.Trigger)
}

// Current returns the bound callback.
func (s *WatchSession) Current() Callback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatch delivers a completion to the current callback.
func (s *WatchSession) Dispatch(err error) {
	if cb := s.Current(); cb != nil {
		cb(err)
	}
}

// Active reports whether a watcher is running or starting.
func (s *WatchSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != stateIdle
}

// Starts returns how many watchers the session has started.
func (s *WatchSession) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// Close stops the watcher and returns the session to idle. Closing an idle
// session only logs a warning.
func (s *WatchSession) Close() error {
	s.mu.Lock()
	switch s.state {
	case stateIdle:
		s.mu.Unlock()
		s.runner.logger().Warn("Was expecting to have a `watchHook` to close")
		return nil
	case stateStarting:
		s.closePending = true
		s.mu.Unlock()
		return nil
	}
	w, cancel := s.watching, s.cancel
	s.mu.Unlock()

	err := w.Close()
	cancel()
	s.reset()
	return err
}

func (s *WatchSession) reset() {
	s.mu.Lock()
	wasWatching := s.state == stateWatching
	s.state = stateIdle
	s.watching = nil
	s.cancel = nil
	s.closePending = false
	s.mu.Unlock()
	if wasWatching {
		s.runner.recorder().SetWatchActive(false)
	}
}
