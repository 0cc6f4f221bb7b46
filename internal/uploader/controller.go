package uploader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultErrorDismiss is how long an error message stays visible.
const DefaultErrorDismiss = 5 * time.Second

type State int

const (
	Idle State = iota
	Previewing
	Loading
	Results
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Previewing:
		return "previewing"
	case Loading:
		return "loading"
	case Results:
		return "results"
	default:
		return "unknown"
	}
}

// View renders controller state. Implementations must not call back into the
// Controller from these methods.
type View interface {
	ShowIdle()
	ShowPreview(p Preview)
	ShowLoading()
	ShowResults(p Preview, r Rendering)
	ShowError(message string)
	HideError()
}

type Predictor interface {
	Predict(ctx context.Context, file *SelectedFile) (*PredictionResult, error)
}

// Controller drives the select, preview, submit and render cycle. It holds at
// most one selected file and one result; both are dropped on every new
// selection or clear.
type Controller struct {
	mu           sync.Mutex
	predictor    Predictor
	view         View
	logger       zerolog.Logger
	errorDismiss time.Duration

	state   State
	file    *SelectedFile
	preview Preview
	result  *PredictionResult
	// cycle changes on every select and clear so a late response for a
	// replaced file is dropped.
	cycle      uint64
	errorTimer *time.Timer
	errorSeq   uint64
}

type Option func(*Controller)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithErrorDismiss sets how long error messages stay visible. Zero or less
// keeps them until the next transition.
func WithErrorDismiss(d time.Duration) Option {
	return func(c *Controller) {
		c.errorDismiss = d
	}
}

func NewController(predictor Predictor, view View, opts ...Option) *Controller {
	c := &Controller{
		predictor:    predictor,
		view:         view,
		logger:       zerolog.Nop(),
		errorDismiss: DefaultErrorDismiss,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.view.ShowIdle()
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the last successful prediction while in the Results state.
func (c *Controller) Result() *PredictionResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// SelectFile validates file and, if it is acceptable, shows its preview.
// Rejected files leave the state untouched.
func (c *Controller) SelectFile(file *SelectedFile) error {
	if file == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Loading {
		return ErrBusy
	}
	if err := file.Validate(); err != nil {
		c.showError(err)
		return err
	}

	c.file = file
	c.result = nil
	c.preview = newPreview(file)
	c.cycle++
	c.state = Previewing
	c.logger.Debug().Str("file", file.Name).Int64("size", file.Size).Msg("file selected")

	c.view.ShowPreview(c.preview)
	c.hideError()
	return nil
}

// ClearSelection drops the file and any result and returns to Idle.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.file = nil
	c.result = nil
	c.preview = Preview{}
	c.cycle++
	c.state = Idle

	c.view.ShowIdle()
	c.hideError()
}

// Submit sends the selected file for prediction and blocks until the request
// completes. Failures are shown as error messages and the preview is restored.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == Loading {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.file == nil {
		c.showError(ErrNoFileSelected)
		c.mu.Unlock()
		return ErrNoFileSelected
	}

	file, cycle := c.file, c.cycle
	c.state = Loading
	c.result = nil
	c.view.ShowLoading()
	c.hideError()
	c.mu.Unlock()

	result, err := c.predictor.Predict(ctx, file)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cycle != c.cycle {
		c.logger.Debug().Msg("dropping prediction for a replaced selection")
		return ErrSelectionChanged
	}

	if err != nil {
		c.state = Previewing
		c.view.ShowPreview(c.preview)
		c.showError(err)

		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			c.logger.Warn().Err(err).Msg("prediction failed")
		} else {
			c.logger.Debug().Err(err).Msg("prediction failed")
		}
		return err
	}

	c.result = result
	c.state = Results
	c.view.ShowResults(c.preview, Render(result))
	return nil
}

// showError displays the message for err and schedules its dismissal. A newer
// message restarts the timer. Callers hold c.mu.
func (c *Controller) showError(err error) {
	if c.errorTimer != nil {
		c.errorTimer.Stop()
		c.errorTimer = nil
	}
	c.errorSeq++
	c.view.ShowError(Message(err))

	if c.errorDismiss <= 0 {
		return
	}
	seq := c.errorSeq
	c.errorTimer = time.AfterFunc(c.errorDismiss, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if seq != c.errorSeq {
			return
		}
		c.errorTimer = nil
		c.view.HideError()
	})
}

// hideError clears any visible message. Callers hold c.mu.
func (c *Controller) hideError() {
	if c.errorTimer != nil {
		c.errorTimer.Stop()
		c.errorTimer = nil
	}
	c.errorSeq++
	c.view.HideError()
}
