// Package item implements the view/edit cycle shared by every content item:
// a local draft is edited, then either saved (becoming the new baseline) or
// discarded in favour of the last persisted baseline.
package item

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNotEditing is returned when a draft operation is attempted in view mode.
	ErrNotEditing = errors.New("item is not being edited")
	// ErrStale is returned by Save when a newer save of the same record was
	// started before this one finished. Its outcome is ignored.
	ErrStale = errors.New("save superseded by a newer one")
	// ErrSaveInFlight is returned by Save on a record that was never stored
	// while its first save is still running.
	ErrSaveInFlight = errors.New("first save still in progress")
)

// Mode is the editor state.
type Mode int

const (
	ModeView Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "view"
}

// Saver persists a draft and returns the record as stored by the server.
type Saver[T any] interface {
	Save(ctx context.Context, draft T) (T, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc[T any] func(ctx context.Context, draft T) (T, error)

func (f SaverFunc[T]) Save(ctx context.Context, draft T) (T, error) {
	return f(ctx, draft)
}

// Option configures an Editor.
type Option[T any] func(*Editor[T])

// WithClone sets the function used to copy records so that draft edits never
// leak into the baseline. Needed when T holds slices or maps.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(e *Editor[T]) { e.clone = clone }
}

// WithSequencer shares a sequencer between editors of the same records.
func WithSequencer[T any](s *Sequencer) Option[T] {
	return func(e *Editor[T]) { e.seq = s }
}

// OnDelete registers the callback fired when an unsaved record is cancelled.
func OnDelete[T any](fn func(T)) Option[T] {
	return func(e *Editor[T]) { e.onDelete = fn }
}

// WithKey derives the record key from a stored record. After a successful
// save the editor switches to that key, so a placeholder key is only used
// until the record exists on the server.
func WithKey[T any](keyOf func(T) string) Option[T] {
	return func(e *Editor[T]) { e.keyOf = keyOf }
}

// WithLogger sets the logger.
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(e *Editor[T]) { e.logger = l }
}

// Editor holds the baseline and draft copies of one record.
type Editor[T any] struct {
	mu        sync.Mutex
	key       string
	baseline  T
	draft     T
	mode      Mode
	persisted bool
	waiting   int
	lastErr   string

	saver    Saver[T]
	seq      *Sequencer
	clone    func(T) T
	keyOf    func(T) string
	onDelete func(T)
	logger   *zap.Logger
}

// New creates an editor in view mode. persisted is false for placeholders
// that only exist locally until their first save.
func New[T any](key string, baseline T, persisted bool, saver Saver[T], opts ...Option[T]) *Editor[T] {
	e := &Editor[T]{
		key:       key,
		baseline:  baseline,
		persisted: persisted,
		saver:     saver,
		clone:     func(v T) T { return v },
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seq == nil {
		e.seq = NewSequencer()
	}
	return e
}

// Key returns the sequencing key currently used for the record.
func (e *Editor[T]) Key() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.key
}

func (e *Editor[T]) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Baseline returns a copy of the last persisted record.
func (e *Editor[T]) Baseline() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clone(e.baseline)
}

// Draft returns a copy of the draft, or of the baseline in view mode.
func (e *Editor[T]) Draft() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeEditing {
		return e.clone(e.draft)
	}
	return e.clone(e.baseline)
}

func (e *Editor[T]) Persisted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persisted
}

// Waiting reports whether a save is in flight.
func (e *Editor[T]) Waiting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waiting > 0
}

// LastError is the message of the last failed save, or "".
func (e *Editor[T]) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// BeginEdit switches to edit mode with a fresh draft. Calling it while
// already editing keeps the current draft.
func (e *Editor[T]) BeginEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeEditing {
		return
	}
	e.draft = e.clone(e.baseline)
	e.mode = ModeEditing
	e.lastErr = ""
}

// Update mutates the draft.
func (e *Editor[T]) Update(fn func(draft *T)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	fn(&e.draft)
	return nil
}

// Save sends the draft. On success the stored record becomes the baseline;
// on failure the draft is dropped and the baseline restored. Either way the
// editor returns to view mode, unless a newer save of the same record has
// been started meanwhile, in which case ErrStale is returned and nothing
// changes. A record that was never stored accepts one save at a time.
func (e *Editor[T]) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.mode != ModeEditing {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if !e.persisted && e.waiting > 0 {
		e.mu.Unlock()
		return ErrSaveInFlight
	}
	draft := e.clone(e.draft)
	key := e.key
	seq := e.seq.Next(key)
	e.waiting++
	e.mu.Unlock()

	saved, err := e.saver.Save(ctx, draft)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.waiting--

	if !e.seq.Current(key, seq) {
		e.logger.Debug("discarding stale save", zap.String("key", key), zap.Uint64("seq", seq))
		return ErrStale
	}

	e.mode = ModeView
	e.draft = e.clone(e.baseline)
	if err != nil {
		e.lastErr = err.Error()
		e.logger.Warn("save failed, restoring baseline", zap.String("key", e.key), zap.Error(err))
		return fmt.Errorf("save %s: %w", e.key, err)
	}

	e.baseline = e.clone(saved)
	e.persisted = true
	e.lastErr = ""
	if e.keyOf != nil {
		if k := e.keyOf(saved); k != "" && k != key {
			e.seq.Forget(key)
			e.key = k
		}
	}
	return nil
}

// Cancel drops the draft and returns to view mode. Cancelling a record that
// was never saved fires the OnDelete callback so the placeholder can be
// removed. It reports whether the record was discarded.
func (e *Editor[T]) Cancel() bool {
	e.mu.Lock()
	e.mode = ModeView
	e.draft = e.clone(e.baseline)
	e.lastErr = ""
	discard := !e.persisted
	baseline := e.clone(e.baseline)
	onDelete := e.onDelete
	e.mu.Unlock()

	if discard && onDelete != nil {
		onDelete(baseline)
	}
	return discard
}
