package mask

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"
)

// DefaultSaveInterval is the minimum time between two saves when Options
// leaves SaveInterval unset.
const DefaultSaveInterval = 5 * time.Second

// Options configures a new Editor.
type Options struct {
	// Width and Height size the buffer in pixels.
	Width  int
	Height int

	// SaveInterval is the minimum time between two serializations. Zero
	// means DefaultSaveInterval.
	SaveInterval time.Duration

	// Brush is the initial brush. The zero value means DefaultBrush().
	Brush BrushConfig

	// Logger receives diagnostics. Nil means log.Default().
	Logger *log.Logger

	// Debug enables per-save diagnostics, including skipped saves.
	Debug bool
}

// Editor is the controller that owns the mask buffer, the brush, the stroke
// queue and the edit state, and schedules saves after every change.
type Editor struct {
	mu      sync.Mutex
	buf     *Buffer // nil once closed
	state   stateMachine
	brush   BrushConfig
	pending stroke
	saves   int

	sink   Sink
	saver  *Scheduler
	encode func(image.Image) ([]byte, error)

	logger *log.Logger
	debug  bool
}

// New creates an editor with an opaque black buffer in the Clean state.
// sink may be nil, in which case saves still run and reset the state but
// the encoded mask is discarded.
func New(opts Options, sink Sink) (*Editor, error) {
	return newEditor(opts, sink, realAfterFunc)
}

func newEditor(opts Options, sink Sink, after afterFunc) (*Editor, error) {
	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid mask size %dx%d", opts.Width, opts.Height)
	}
	if opts.Brush == (BrushConfig{}) {
		opts.Brush = DefaultBrush()
	}
	if err := opts.Brush.Validate(); err != nil {
		return nil, err
	}
	if opts.SaveInterval == 0 {
		opts.SaveInterval = DefaultSaveInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	e := &Editor{
		buf:    NewBuffer(opts.Width, opts.Height),
		brush:  opts.Brush,
		sink:   sink,
		encode: EncodePNG,
		logger: opts.Logger,
		debug:  opts.Debug,
	}
	e.saver = newSchedulerWithAfterFunc(opts.SaveInterval, e.save, after)
	return e, nil
}

// ApplyFlood remaps every pixel with the named transform, marks the editor
// Dirty and schedules a save. Points queued by a stroke in progress are drawn
// first, so the flood covers them and the queue is left empty.
func (e *Editor) ApplyFlood(mode FloodMode) error {
	fn, err := mode.Func()
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.buf == nil {
		e.mu.Unlock()
		return ErrSurfaceUnavailable
	}
	e.flushLocked()
	Flood(e.buf, fn)
	e.state.touch()
	e.mu.Unlock()

	e.saver.Trigger()
	return nil
}

// BeginStroke handles pointer-down. The editor enters Painting from any
// state and p becomes the first queued point of a fresh stroke. Points still
// queued by an unfinished stroke are drawn before the new one starts.
func (e *Editor) BeginStroke(p Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf == nil {
		return ErrSurfaceUnavailable
	}
	e.flushLocked()
	e.pending.take()
	e.state.begin()
	e.pending.add(p)
	return nil
}

// ExtendStroke handles pointer-move. Points are queued only while Painting;
// the return value reports whether they were.
func (e *Editor) ExtendStroke(points ...Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf == nil || !e.state.painting() {
		return false
	}
	e.pending.add(points...)
	return true
}

// FlushStroke draws every queued point of the current stroke and empties the
// queue. It returns the number of circles drawn. The state stays Painting.
func (e *Editor) FlushStroke() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked()
}

func (e *Editor) flushLocked() int {
	if e.buf == nil || !e.state.painting() || e.pending.len() == 0 {
		return 0
	}
	points := e.pending.take()
	for _, p := range points {
		DrawCircle(e.buf, p, e.brush)
	}
	return len(points)
}

// EndStroke handles pointer-up, pointer-leave and pointer-out. When a stroke
// is in progress its remaining points are drawn, the editor becomes Dirty
// and a save is scheduled. It reports whether a stroke was finished.
func (e *Editor) EndStroke() bool {
	e.mu.Lock()
	e.flushLocked()
	finished := e.buf != nil && e.state.finish()
	e.mu.Unlock()

	if finished {
		e.saver.Trigger()
	}
	return finished
}

// Click draws a single circle at p right away, then marks the editor Dirty
// and schedules a save. A stroke in progress has its queued points drawn
// first and ends there.
func (e *Editor) Click(p Point) error {
	e.mu.Lock()
	if e.buf == nil {
		e.mu.Unlock()
		return ErrSurfaceUnavailable
	}
	e.flushLocked()
	DrawCircle(e.buf, p, e.brush)
	e.state.touch()
	e.mu.Unlock()

	e.saver.Trigger()
	return nil
}

// SetBrush replaces the brush. The buffer is not affected, but the points
// still queued for the current stroke will be drawn with the new brush.
func (e *Editor) SetBrush(cfg BrushConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.brush = cfg
	e.mu.Unlock()
	return nil
}

// Brush returns the current brush.
func (e *Editor) Brush() BrushConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brush
}

// DrawSource writes img into the buffer at the origin, replacing whatever
// lies under its footprint. The edit state is left as it was and no save
// is scheduled.
func (e *Editor) DrawSource(img image.Image) error {
	if img == nil {
		return errors.New("nil source image")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf == nil {
		return ErrSurfaceUnavailable
	}
	e.buf.DrawImage(img)
	return nil
}

// State returns the current edit state.
func (e *Editor) State() EditState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.state
}

// Size returns the buffer dimensions.
func (e *Editor) Size() (width, height int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf == nil {
		return 0, 0, ErrSurfaceUnavailable
	}
	return e.buf.Width(), e.buf.Height(), nil
}

// At returns the sample at (x,y).
func (e *Editor) At(x, y int) (Sample, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf == nil {
		return Sample{}, ErrSurfaceUnavailable
	}
	if !e.buf.Contains(x, y) {
		return Sample{}, fmt.Errorf("coordinates (%d,%d) outside mask bounds", x, y)
	}
	return e.buf.At(x, y), nil
}

// Snapshot returns a copy of the buffer that the caller may keep.
func (e *Editor) Snapshot() (*image.NRGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buf == nil {
		return nil, ErrSurfaceUnavailable
	}
	return e.buf.Clone(), nil
}

// PendingPoints returns the number of queued stroke points.
func (e *Editor) PendingPoints() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.len()
}

// Saves returns the number of successful saves.
func (e *Editor) Saves() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saves
}

// SavePending reports whether a save is scheduled but has not run yet.
func (e *Editor) SavePending() bool {
	return e.saver.Pending()
}

// SaveInterval returns the minimum time between saves.
func (e *Editor) SaveInterval() time.Duration {
	return e.saver.Interval()
}

// Close releases the buffer. A save that was already scheduled still fires
// and is dropped with a diagnostic. Every later operation that needs the
// buffer returns ErrSurfaceUnavailable.
func (e *Editor) Close() {
	e.mu.Lock()
	e.buf = nil
	e.pending.take()
	e.mu.Unlock()
}

// save is the scheduler callback. Failures stop here: they are logged and
// never propagate onto the timer goroutine.
func (e *Editor) save() {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("mask save panicked: %v", r)
		}
	}()

	e.debugf("starting mask save")
	blob, ok, err := e.serialize()
	if err != nil {
		e.logger.Printf("mask save dropped: %v", err)
		return
	}
	if !ok {
		e.debugf("attempting to save a clean mask")
		return
	}
	e.debugf("finishing mask save #%d (%d bytes)", blob.Seq, len(blob.Data))

	if e.sink != nil {
		e.sink(blob)
	}
}

// serialize encodes the buffer under the lock and marks the editor Clean.
// ok is false when there was nothing to save.
func (e *Editor) serialize() (blob Blob, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.buf == nil {
		return Blob{}, false, fmt.Errorf("mask surface no longer exists: %w", ErrSurfaceUnavailable)
	}
	if e.state.state == Clean {
		return Blob{}, false, nil
	}

	data, err := e.encode(e.buf.img)
	if err != nil {
		return Blob{}, false, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	if len(data) == 0 {
		return Blob{}, false, fmt.Errorf("%w: empty encoding", ErrSerializationFailed)
	}

	e.state.saved()
	e.saves++
	return Blob{
		Data:     data,
		MimeType: MimeType,
		Width:    e.buf.Width(),
		Height:   e.buf.Height(),
		Seq:      e.saves,
	}, true, nil
}

func (e *Editor) debugf(format string, args ...interface{}) {
	if e.debug {
		e.logger.Printf(format, args...)
	}
}
