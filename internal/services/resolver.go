package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/bobby-s-dev/fireguard/internal/observability"
	"go.uber.org/zap"
)

var (
	// ErrIncompleteResponse means a prediction body lacked a required non-zero field.
	ErrIncompleteResponse = errors.New("incomplete prediction response")
	// ErrShaping means the remote values could not be turned into a result.
	ErrShaping = errors.New("cannot shape remote prediction")
)

// Remote loss split across categories.
const (
	propertyShare = 0.6
	businessShare = 0.2
	tourismShare  = 0.15
	healthShare   = 0.05
)

type Predictor interface {
	PredictLoss(ctx context.Context, features models.FeatureVector) (*models.LossPrediction, error)
	PredictFSI(ctx context.Context, features models.FeatureVector) (*models.SeverityPrediction, error)
}

// Resolver turns a forecast input into a result, preferring the remote
// predictor and degrading to EstimateLocally on any failure.
type Resolver struct {
	predictor Predictor
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewResolver builds a resolver. A nil predictor always resolves locally.
func NewResolver(predictor Predictor, metrics *observability.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{
		predictor: predictor,
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve never fails: the returned Resolution is either remote or a
// fallback carrying the reason the remote path was abandoned.
func (r *Resolver) Resolve(ctx context.Context, input models.ForecastInput) models.Resolution {
	resolution := r.resolve(ctx, input)
	r.metrics.ObserveForecast(string(resolution.Source))
	return resolution
}

func (r *Resolver) resolve(ctx context.Context, input models.ForecastInput) models.Resolution {
	if r.predictor == nil {
		return fallback(input, errors.New("no predictor configured"))
	}

	features := MapFeatures(input)
	startTime := time.Now()

	var (
		wg       sync.WaitGroup
		loss     *models.LossPrediction
		severity *models.SeverityPrediction
		lossErr  error
		fsiErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		loss, lossErr = r.predictor.PredictLoss(ctx, features)
	}()
	go func() {
		defer wg.Done()
		severity, fsiErr = r.predictor.PredictFSI(ctx, features)
	}()
	wg.Wait()

	if err := errors.Join(lossErr, fsiErr); err != nil {
		r.logger.Warn("Remote prediction failed, using local estimate",
			zap.String("region", string(input.Region)),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err))
		return fallback(input, err)
	}

	result, err := ShapeRemote(input, loss, severity)
	if err != nil {
		r.logger.Warn("Unusable remote prediction, using local estimate",
			zap.String("region", string(input.Region)),
			zap.Error(err))
		return fallback(input, err)
	}

	r.logger.Debug("Remote prediction resolved",
		zap.String("region", string(input.Region)),
		zap.Int64("total_loss", result.TotalLoss),
		zap.Float64("fsi", result.PredictedFSI),
		zap.Duration("duration", time.Since(startTime)))

	return models.Resolution{Result: result, Source: models.SourceRemote}
}

func fallback(input models.ForecastInput, reason error) models.Resolution {
	return models.Resolution{
		Result: EstimateLocally(input),
		Source: models.SourceFallback,
		Reason: reason,
	}
}

// ShapeRemote splits the remote total across categories and attaches the
// severity-based recovery strategy. Both required fields must be present
// and non-zero.
func ShapeRemote(input models.ForecastInput, loss *models.LossPrediction, severity *models.SeverityPrediction) (models.ForecastResult, error) {
	if loss == nil || loss.PredictedEconomicLossUSD == nil || *loss.PredictedEconomicLossUSD == 0 {
		return models.ForecastResult{}, fmt.Errorf("%w: predicted_economic_loss_usd missing", ErrIncompleteResponse)
	}
	if severity == nil || severity.PredictedFSI == nil || *severity.PredictedFSI == 0 {
		return models.ForecastResult{}, fmt.Errorf("%w: predicted_fsi missing", ErrIncompleteResponse)
	}

	rounded := roundHalfUp(*loss.PredictedEconomicLossUSD)
	if math.IsNaN(rounded) || rounded < 0 || rounded >= math.MaxInt64 {
		return models.ForecastResult{}, fmt.Errorf("%w: loss %v out of range", ErrShaping, *loss.PredictedEconomicLossUSD)
	}

	total := int64(rounded)
	totalF := float64(total)
	property := int64(roundHalfUp(float64(totalF * propertyShare)))
	business := int64(roundHalfUp(float64(totalF * businessShare)))
	tourism := int64(roundHalfUp(float64(totalF * tourismShare)))
	health := int64(roundHalfUp(float64(totalF * healthShare)))
	fsi := *severity.PredictedFSI

	return models.ForecastResult{
		TotalLoss:          total,
		PropertyDamage:     property,
		BusinessDisruption: business,
		TourismLoss:        tourism,
		HealthCosts:        health,
		PredictedFSI:       fsi,
		RecoveryStrategy: models.RecoveryStrategy{
			Text: severity.SuggestedResponse,
			Tags: RecoveryTags(fsi, input.FireRisk),
		},
		ChartData: buildChartData(property, business, tourism, health),
	}, nil
}
