package rendertest

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/staticrender/internal/render"
)

// Loader hands out Module for every artifact path it is asked to load.
type Loader struct {
	Module *Module
	Err    error

	mu    sync.Mutex
	paths []string
}

func (l *Loader) Load(ctx context.Context, path string) (*render.Module, error) {
	l.mu.Lock()
	l.paths = append(l.paths, path)
	l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	m := l.Module
	if m == nil {
		m = &Module{}
		l.Module = m
	}
	return m.Build(), nil
}

// Paths returns the artifact paths loaded so far.
func (l *Loader) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}
