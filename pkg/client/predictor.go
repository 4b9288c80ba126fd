package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/bobby-s-dev/fireguard/internal/observability"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	endpointPredictLoss = "/predict-loss"
	endpointPredictFSI  = "/predict-fsi"
	endpointARIMA       = "/forecast-loss-arima"
	endpointLSTM        = "/forecast-loss-lstm"
)

// ErrRemote is returned when the predictor answers 2xx with an error body.
var ErrRemote = errors.New("predictor returned an error")

// PredictorClient talks to the wildfire loss and severity prediction API.
// Predictions and trend forecasts use separate circuit breakers so a broken
// trend model never trips the forecast path.
type PredictorClient struct {
	predictions *BaseClient
	trends      *BaseClient
	baseURL     string
	metrics     *observability.Metrics
}

type arimaResponse struct {
	Forecast []float64 `json:"forecast_next_6_months_usd"`
	Error    string    `json:"error,omitempty"`
}

type lstmResponse struct {
	Forecast []float64 `json:"forecast"`
	Error    string    `json:"error,omitempty"`
}

func NewPredictorClient(baseURL string, config ClientConfig, metrics *observability.Metrics, logger *zap.Logger) *PredictorClient {
	return &PredictorClient{
		predictions: NewBaseClient("predictor", config, logger),
		trends:      NewBaseClient("predictor-trends", config, logger),
		baseURL:     strings.TrimRight(baseURL, "/"),
		metrics:     metrics,
	}
}

// PredictionBreakerState reports the breaker guarding the prediction endpoints.
func (c *PredictorClient) PredictionBreakerState() gobreaker.State {
	return c.predictions.BreakerState()
}

// TrendBreakerState reports the breaker guarding the trend endpoints.
func (c *PredictorClient) TrendBreakerState() gobreaker.State {
	return c.trends.BreakerState()
}

// PredictLoss asks the predictor for the total economic loss in USD.
func (c *PredictorClient) PredictLoss(ctx context.Context, features models.FeatureVector) (*models.LossPrediction, error) {
	var response models.LossPrediction
	if err := c.post(ctx, endpointPredictLoss, features, &response); err != nil {
		return nil, fmt.Errorf("failed to predict economic loss: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("failed to predict economic loss: %w: %s", ErrRemote, response.Error)
	}
	return &response, nil
}

// PredictFSI asks the predictor for the fire severity index and a suggested response.
func (c *PredictorClient) PredictFSI(ctx context.Context, features models.FeatureVector) (*models.SeverityPrediction, error) {
	var response models.SeverityPrediction
	if err := c.post(ctx, endpointPredictFSI, features, &response); err != nil {
		return nil, fmt.Errorf("failed to predict fire severity: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("failed to predict fire severity: %w: %s", ErrRemote, response.Error)
	}
	return &response, nil
}

// ForecastLossARIMA returns the next six months of forecast losses.
func (c *PredictorClient) ForecastLossARIMA(ctx context.Context) ([]float64, error) {
	var response arimaResponse
	if err := c.get(ctx, endpointARIMA, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch ARIMA forecast: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("failed to fetch ARIMA forecast: %w: %s", ErrRemote, response.Error)
	}
	return response.Forecast, nil
}

func (c *PredictorClient) ForecastLossLSTM(ctx context.Context) ([]float64, error) {
	var response lstmResponse
	if err := c.get(ctx, endpointLSTM, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch LSTM forecast: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("failed to fetch LSTM forecast: %w: %s", ErrRemote, response.Error)
	}
	return response.Forecast, nil
}

func (c *PredictorClient) post(ctx context.Context, endpoint string, features models.FeatureVector, out any) (err error) {
	started := time.Now()
	defer func() { c.metrics.ObservePredictor(endpoint, started, err) }()

	data, err := c.predictions.PostJSONWithRetry(ctx, c.baseURL+endpoint, models.PredictionRequest{Features: features})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *PredictorClient) get(ctx context.Context, endpoint string, out any) (err error) {
	started := time.Now()
	defer func() { c.metrics.ObservePredictor(endpoint, started, err) }()

	data, err := c.trends.GetWithRetry(ctx, c.baseURL+endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
