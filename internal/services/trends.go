package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/bobby-s-dev/fireguard/internal/observability"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type TrendClient interface {
	ForecastLossARIMA(ctx context.Context) ([]float64, error)
	ForecastLossLSTM(ctx context.Context) ([]float64, error)
}

// TrendService polls the time-series loss forecasts and keeps them cached.
type TrendService struct {
	client  TrendClient
	cache   *TrendCache
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *zap.Logger

	mu          sync.RWMutex
	lastRefresh time.Time
}

func NewTrendService(client TrendClient, cache *TrendCache, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *TrendService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TrendService{
		client:  client,
		cache:   cache,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Refresh fetches both models concurrently. Successful models are cached
// even when the other fails; the returned error joins every failure.
func (s *TrendService) Refresh(ctx context.Context) error {
	fetchers := map[models.TrendModel]func(context.Context) ([]float64, error){
		models.TrendARIMA: s.client.ForecastLossARIMA,
		models.TrendLSTM:  s.client.ForecastLossLSTM,
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for model, fetch := range fetchers {
		wg.Add(1)
		go func(model models.TrendModel, fetch func(context.Context) ([]float64, error)) {
			defer wg.Done()

			values, err := fetch(ctx)
			s.metrics.ObserveTrendRefresh(string(model), err)
			if err != nil {
				s.logger.Warn("Failed to refresh trend forecast",
					zap.String("model", string(model)),
					zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", model, err))
				mu.Unlock()
				return
			}

			s.cache.Set(&models.TrendForecast{
				Model:     model,
				Values:    values,
				FetchedAt: s.clock.Now(),
			})
		}(model, fetch)
	}

	wg.Wait()

	s.mu.Lock()
	s.lastRefresh = s.clock.Now()
	s.mu.Unlock()

	return errors.Join(errs...)
}

func (s *TrendService) Latest(model models.TrendModel) (*models.TrendForecast, bool) {
	return s.cache.Get(model)
}

func (s *TrendService) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

func (s *TrendService) GetStats() map[string]interface{} {
	stats := s.cache.GetStats()
	stats["last_refresh"] = s.LastRefresh()
	return stats
}
