package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/bobby-s-dev/fireguard/internal/services"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrSubmissionInFlight is returned when Submit is called while another
// submission has not finished.
var ErrSubmissionInFlight = errors.New("a forecast submission is already in progress")

type ForecastResolver interface {
	Resolve(ctx context.Context, input models.ForecastInput) models.Resolution
}

type LastForecastStore interface {
	SaveLast(ctx context.Context, input models.ForecastInput) error
	LoadLast(ctx context.Context) (models.ForecastInput, bool, error)
}

// Dashboard owns the view state and drives it through Reduce.
type Dashboard struct {
	resolver      ForecastResolver
	store         LastForecastStore
	clock         clockwork.Clock
	toastDuration time.Duration
	logger        *zap.Logger

	mu       sync.Mutex
	state    ViewState
	inFlight bool
}

func New(resolver ForecastResolver, store LastForecastStore, clock clockwork.Clock, toastDuration time.Duration, logger *zap.Logger) *Dashboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Dashboard{
		resolver:      resolver,
		store:         store,
		clock:         clock,
		toastDuration: toastDuration,
		logger:        logger,
		state:         InitialState(),
	}
}

func (d *Dashboard) State() ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dashboard) Navigate(section Section) ViewState {
	return d.apply(Navigate{Section: section})
}

// Submit validates the form, saves the input, and resolves a forecast.
// Validation errors are returned as *services.ValidationError.
func (d *Dashboard) Submit(ctx context.Context, form services.FormValues) (ViewState, error) {
	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()
		return d.State(), ErrSubmissionInFlight
	}
	d.inFlight = true
	d.state = Reduce(d.state, SubmitStarted{})
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}()

	// Field errors are shown as-is; GenericFailure is for flow failures.
	input, err := services.ParseForecastInput(form)
	if err != nil {
		return d.apply(SubmitFailed{Message: err.Error()}), err
	}

	if err := d.store.SaveLast(ctx, input); err != nil {
		d.logger.Error("Failed to persist forecast input", zap.Error(err))
		return d.apply(SubmitFailed{Message: GenericFailure}), fmt.Errorf("submitting forecast: %w", err)
	}

	resolution := d.resolver.Resolve(ctx, input)
	if resolution.Degraded() {
		d.logger.Info("Forecast served from local estimate",
			zap.String("region", string(input.Region)),
			zap.Error(resolution.Reason))
	}

	state := d.apply(SubmitResolved{Input: input, Resolution: resolution})
	d.scheduleToastExpiry(state.ToastSeq())
	return state, nil
}

// SaveReport persists the input currently on display again. It reports
// false without touching the store when there is nothing to save.
func (d *Dashboard) SaveReport(ctx context.Context) (ViewState, bool, error) {
	current := d.State()
	if current.Input == nil {
		return current, false, nil
	}

	if err := d.store.SaveLast(ctx, *current.Input); err != nil {
		d.logger.Error("Failed to save report", zap.Error(err))
		return current, false, fmt.Errorf("saving report: %w", err)
	}

	state := d.apply(ReportSaved{})
	d.scheduleToastExpiry(state.ToastSeq())
	return state, true, nil
}

// Restore reloads the last saved input, if any, and resolves it again.
func (d *Dashboard) Restore(ctx context.Context) (bool, error) {
	input, ok, err := d.store.LoadLast(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	resolution := d.resolver.Resolve(ctx, input)
	d.apply(RestoreLoaded{Input: input, Resolution: resolution})

	d.logger.Info("Restored last forecast",
		zap.String("region", string(input.Region)),
		zap.Int("year", input.Year),
		zap.String("source", string(resolution.Source)))
	return true, nil
}

func (d *Dashboard) apply(event Event) ViewState {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = Reduce(d.state, event)
	return d.state
}

func (d *Dashboard) scheduleToastExpiry(seq int) {
	if d.toastDuration <= 0 {
		return
	}
	d.clock.AfterFunc(d.toastDuration, func() {
		d.apply(ToastExpired{Seq: seq})
	})
}
