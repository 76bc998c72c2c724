package theme

import (
	"errors"
	"log/slog"
)

var (
	// ErrAlreadyPooled is returned when a style is released twice.
	ErrAlreadyPooled = errors.New("style already released to pool")
	// ErrForeignStyle is returned when a style is released to a pool that did
	// not create it.
	ErrForeignStyle = errors.New("style does not belong to this pool")
)

// StylePool recycles message styles so showing a message does not allocate a
// new one each time. Acquired styles always start from the palette's base
// colors. Not safe for concurrent use.
type StylePool struct {
	palette *Palette
	logger  *slog.Logger

	free    []*Style
	created int
}

// NewStylePool creates an empty pool for the palette.
func NewStylePool(palette *Palette, logger *slog.Logger) *StylePool {
	if palette == nil {
		palette = DefaultPalette()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StylePool{
		palette: palette,
		logger:  logger,
	}
}

// Palette returns the palette new styles are created from.
func (p *StylePool) Palette() *Palette {
	return p.palette
}

// Acquire returns a style with base colors, reusing a released one if any.
func (p *StylePool) Acquire() *Style {
	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		s.pooled = false
		s.Reset()
		return s
	}

	p.created++
	p.logger.Debug("created style", "created", p.created)
	return newStyle(p, p.palette)
}

// Release returns a style to the pool. Releasing the same style twice without
// acquiring it in between is an error.
func (p *StylePool) Release(s *Style) error {
	if s == nil {
		return nil
	}
	if s.owner != p {
		return ErrForeignStyle
	}
	if s.pooled {
		return ErrAlreadyPooled
	}
	s.pooled = true
	p.free = append(p.free, s)
	return nil
}

// Drain disposes every pooled style exactly once and empties the pool.
// It returns the number of styles disposed. Styles still held by callers are
// untouched and may be released afterwards.
func (p *StylePool) Drain() int {
	n := len(p.free)
	for i, s := range p.free {
		s.disposed = true
		p.free[i] = nil
	}
	p.free = p.free[:0]
	if n > 0 {
		p.logger.Debug("drained style pool", "disposed", n)
	}
	return n
}

// Len returns the number of styles waiting in the pool.
func (p *StylePool) Len() int {
	return len(p.free)
}

// Created returns how many styles the pool has allocated in total.
func (p *StylePool) Created() int {
	return p.created
}

// Disposed reports whether the style was disposed by Drain.
func (s *Style) Disposed() bool {
	return s.disposed
}
