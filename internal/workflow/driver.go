package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"deckhand/internal/logging"
	"deckhand/internal/mpc"
	"deckhand/internal/order"
	"deckhand/internal/sequencer"
	"deckhand/internal/services"
)

// Designer is the slice of the designer client the workflow drives:
// navigation, order options, and face paging. internal/mpc's Client
// satisfies it.
type Designer interface {
	Navigate(url string) error
	SelectStock(stock string) error
	SelectBracket(bracket int) error
	SelectFoil() error
	OpenDesigner(ctx context.Context, quantity int, mode mpc.ImageMode) error
	PageToBacks(ctx context.Context, mode mpc.ImageMode) error
}

// FaceSequencer drains one face's delivery queue against the session.
type FaceSequencer interface {
	Drain(ctx context.Context, collection *order.CardImageCollection) (sequencer.Result, error)
}

// Downloader starts background fetching for the given collections and
// reports completion on the returned channel.
type Downloader interface {
	Start(ctx context.Context, collections ...*order.CardImageCollection) <-chan struct{}
}

// Notifier receives run lifecycle events. internal/notifications' Service
// satisfies it.
type Notifier interface {
	RunStarted(ctx context.Context, images int) error
	RunCompleted(ctx context.Context, placed, skipped int, duration time.Duration) error
	RunFailed(ctx context.Context, runErr error, state string) error
}

// Summary reports one completed run.
type Summary struct {
	Fronts   sequencer.Result
	Backs    sequencer.Result
	Duration time.Duration
}

// Placed returns the total images placed across both faces.
func (s Summary) Placed() int { return s.Fronts.Placed + s.Backs.Placed }

// Skipped returns the total images skipped across both faces.
func (s Summary) Skipped() int { return s.Fronts.Skipped + s.Backs.Skipped }

// Driver owns the run's workflow state and walks it forward through the
// fixed sequence of session operations. It is the single writer of the
// state and the single issuer of session commands; it must not be shared
// across goroutines.
type Driver struct {
	designer   Designer
	seq        FaceSequencer
	downloader Downloader
	notifier   Notifier
	ord        *order.Order
	startURL   string
	logger     *slog.Logger

	mu     sync.Mutex
	state  State
	action string
}

// New constructs a driver in the initialising state.
func New(designer Designer, seq FaceSequencer, downloader Downloader, notifier Notifier, ord *order.Order, startURL string, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Driver{
		designer:   designer,
		seq:        seq,
		downloader: downloader,
		notifier:   notifier,
		ord:        ord,
		startURL:   startURL,
		logger:     logging.WithComponent(logger, "workflow"),
		state:      StateInitialising,
		action:     "starting",
	}
}

// Status returns the current state and action label.
func (d *Driver) Status() (State, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.action
}

// ImageModeFor picks the designer's image mode for a face. A back face
// with exactly one image repeats it across every slot; everything else
// gets one image per slot.
func ImageModeFor(face order.Face, count int) mpc.ImageMode {
	if face == order.FaceBack && count == 1 {
		return mpc.ModeSame
	}
	return mpc.ModeDifferent
}

// Run executes the whole workflow: start downloads for both faces, open
// the site, configure the order, then fill fronts and backs in turn. The
// sequencer blocks on each face's queue, so Run returns only once every
// image has been placed or skipped, or on the first fatal error.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	if err := d.notifier.RunStarted(ctx, d.ord.Count()); err != nil {
		d.logger.Warn("run-started notification failed", logging.Error(err))
	}

	d.downloader.Start(ctx, d.ord.Fronts, d.ord.Backs)

	summary, err := d.fill(ctx)
	summary.Duration = time.Since(started)
	if err != nil {
		state, _ := d.Status()
		if nerr := d.notifier.RunFailed(ctx, err, state.String()); nerr != nil {
			d.logger.Warn("run-failed notification failed", logging.Error(nerr))
		}
		return summary, err
	}

	if nerr := d.notifier.RunCompleted(ctx, summary.Placed(), summary.Skipped(), summary.Duration); nerr != nil {
		d.logger.Warn("run-completed notification failed", logging.Error(nerr))
	}
	return summary, nil
}

func (d *Driver) fill(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := d.Initialise(); err != nil {
		return summary, err
	}
	if err := d.DefineOrder(); err != nil {
		return summary, err
	}

	fronts, err := d.InsertFronts(ctx)
	summary.Fronts = fronts
	if err != nil {
		return summary, err
	}

	backs, err := d.InsertBacks(ctx)
	summary.Backs = backs
	return summary, err
}

// Initialise opens the blank-card page. Entry state: initialising.
func (d *Driver) Initialise() error {
	if err := d.requireState("initialise", StateInitialising); err != nil {
		return err
	}
	if err := d.designer.Navigate(d.startURL); err != nil {
		return services.Wrap(services.ErrSession, "workflow", "initialise", "opening start page", err)
	}
	d.transition(StateDefiningOrder, "configuring order options")
	return nil
}

// DefineOrder applies the order's stock, bracket, and foil selections.
// Entry state: defining_order.
func (d *Driver) DefineOrder() error {
	if err := d.requireState("define order", StateDefiningOrder); err != nil {
		return err
	}
	details := d.ord.Details
	if err := d.designer.SelectStock(details.Stock); err != nil {
		return services.Wrap(services.ErrSession, "workflow", "define order", fmt.Sprintf("selecting stock %q", details.Stock), err)
	}
	if err := d.designer.SelectBracket(details.Bracket); err != nil {
		return services.Wrap(services.ErrSession, "workflow", "define order", fmt.Sprintf("selecting bracket %d", details.Bracket), err)
	}
	if details.Foil {
		if err := d.designer.SelectFoil(); err != nil {
			return services.Wrap(services.ErrSession, "workflow", "define order", "selecting foil finish", err)
		}
	}
	d.transition(StatePagingToFronts, "opening designer for fronts")
	return nil
}

// InsertFronts opens the designer with the order's quantity and front
// image mode, then drains the front collection. Entry state:
// paging_to_fronts.
func (d *Driver) InsertFronts(ctx context.Context) (sequencer.Result, error) {
	var result sequencer.Result
	if err := d.requireState("insert fronts", StatePagingToFronts); err != nil {
		return result, err
	}

	mode := ImageModeFor(order.FaceFront, d.ord.Fronts.Count())
	if err := d.designer.OpenDesigner(ctx, d.ord.Details.Quantity, mode); err != nil {
		return result, services.Wrap(services.ErrSession, "workflow", "insert fronts", "opening designer", err)
	}
	d.transition(StateInsertingFronts, "placing front images")

	result, err := d.seq.Drain(ctx, d.ord.Fronts)
	if err != nil {
		return result, err
	}
	d.transition(StatePagingToBacks, "paging to backs")
	return result, nil
}

// InsertBacks pages the designer to the back face with its image mode,
// then drains the back collection. Entry state: paging_to_backs.
func (d *Driver) InsertBacks(ctx context.Context) (sequencer.Result, error) {
	var result sequencer.Result
	if err := d.requireState("insert backs", StatePagingToBacks); err != nil {
		return result, err
	}

	mode := ImageModeFor(order.FaceBack, d.ord.Backs.Count())
	if err := d.designer.PageToBacks(ctx, mode); err != nil {
		return result, services.Wrap(services.ErrSession, "workflow", "insert backs", "paging to back face", err)
	}
	d.transition(StateInsertingBacks, "placing back images")

	result, err := d.seq.Drain(ctx, d.ord.Backs)
	if err != nil {
		return result, err
	}
	d.transition(StatePagingToReview, "order filled, awaiting review")
	return result, nil
}

// requireState checks an operation's entry state without mutating
// anything; a mismatch is fatal to the run.
func (d *Driver) requireState(operation string, want State) error {
	d.mu.Lock()
	current := d.state
	d.mu.Unlock()
	if current != want {
		return services.Wrap(services.ErrStateMismatch, "workflow", operation,
			fmt.Sprintf("requires state %s, currently %s", want, current), nil)
	}
	return nil
}

// transition is the single mutation point for workflow state.
func (d *Driver) transition(to State, action string) {
	d.mu.Lock()
	from := d.state
	d.state = to
	d.action = action
	d.mu.Unlock()
	d.logger.Info("state transition",
		logging.String("from", from.String()),
		logging.String(logging.FieldState, to.String()),
		logging.String("action", action),
	)
}
