package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/bobby-s-dev/fireguard/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var testFeatures = models.FeatureVector{
	Region:              models.RegionArizona,
	Year:                2025,
	FireRiskLevel:       3,
	PopulationDensity:   2,
	VegetationDensity:   2,
	AverageTemperature:  25,
	PreviousFireHistory: 1,
	WindSpeed:           10,
	Humidity:            40,
}

func testClient(baseURL string, cfg ClientConfig) *PredictorClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 100
	}
	return NewPredictorClient(baseURL, cfg, observability.NewMetricsForTesting(), zap.NewNop())
}

func TestPredictLoss_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict-loss", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		features := body["features"]
		assert.Equal(t, "Arizona", features["Region"])
		assert.Equal(t, 2025.0, features["Year"])
		assert.Equal(t, 3.0, features["FireRiskLevel"])
		assert.Equal(t, 40.0, features["Humidity"])

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"predicted_economic_loss_usd": 21128827.55}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/", ClientConfig{})
	loss, err := c.PredictLoss(context.Background(), testFeatures)
	require.NoError(t, err)
	require.NotNil(t, loss.PredictedEconomicLossUSD)
	assert.Equal(t, 21128827.55, *loss.PredictedEconomicLossUSD)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.PredictorRequests.WithLabelValues("/predict-loss", "success")))
}

func TestPredictFSI_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict-fsi", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"predicted_fsi": 8, "suggested_response": "Full Emergency Response + Evacuation"}`))
	}))
	defer srv.Close()

	fsi, err := testClient(srv.URL, ClientConfig{}).PredictFSI(context.Background(), testFeatures)
	require.NoError(t, err)
	require.NotNil(t, fsi.PredictedFSI)
	assert.Equal(t, 8.0, *fsi.PredictedFSI)
	assert.Equal(t, "Full Emergency Response + Evacuation", fsi.SuggestedResponse)
}

func TestPredictFSI_MissingFieldIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"suggested_response": "Monitor Only"}`))
	}))
	defer srv.Close()

	fsi, err := testClient(srv.URL, ClientConfig{}).PredictFSI(context.Background(), testFeatures)
	require.NoError(t, err)
	assert.Nil(t, fsi.PredictedFSI)
}

func TestPredictLoss_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "feature names mismatch"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, ClientConfig{}).PredictLoss(context.Background(), testFeatures)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "feature names mismatch")
}

func TestPredictLoss_ServerErrorIsNotRetriedByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, ClientConfig{})
	_, err := c.PredictLoss(context.Background(), testFeatures)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.PredictorRequests.WithLabelValues("/predict-loss", "error")))
}

func TestPredictLoss_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"predicted_economic_loss_usd": 42}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, ClientConfig{MaxRetries: 2, RetryDelay: time.Millisecond, Multiplier: 1})
	loss, err := c.PredictLoss(context.Background(), testFeatures)
	require.NoError(t, err)
	assert.Equal(t, 42.0, *loss.PredictedEconomicLossUSD)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPredictLoss_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv.URL, ClientConfig{MaxRetries: 3, RetryDelay: time.Millisecond, Multiplier: 1})
	_, err := c.PredictLoss(context.Background(), testFeatures)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPredictLoss_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, ClientConfig{Timeout: 50 * time.Millisecond}).PredictLoss(context.Background(), testFeatures)
	require.Error(t, err)
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL, ClientConfig{Threshold: 3, BreakerTimeout: time.Minute})
	for i := 0; i < 3; i++ {
		_, err := c.PredictFSI(context.Background(), testFeatures)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.PredictionBreakerState())

	_, err := c.PredictFSI(context.Background(), testFeatures)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), calls.Load())
}

func TestForecastLossTrends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set(headerContentType, contentTypeJSON)
		switch r.URL.Path {
		case "/forecast-loss-arima":
			_, _ = w.Write([]byte(`{"forecast_next_6_months_usd": [1.5, 2.5, 3.5, 4.5, 5.5, 6.5]}`))
		case "/forecast-loss-lstm":
			_, _ = w.Write([]byte(`{"forecast": [10, 20, 30, 40, 50, 60]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, ClientConfig{})

	arima, err := c.ForecastLossARIMA(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5}, arima)

	lstm, err := c.ForecastLossLSTM(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30, 40, 50, 60}, lstm)
}

func TestForecastLossLSTM_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "not enough history"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, ClientConfig{}).ForecastLossLSTM(context.Background())
	assert.ErrorIs(t, err, ErrRemote)
}

func TestTrendFailuresDoNotTripPredictionBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		switch r.URL.Path {
		case "/predict-loss":
			_, _ = w.Write([]byte(`{"predicted_economic_loss_usd": 250000}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, ClientConfig{Threshold: 3, BreakerTimeout: time.Minute})
	for i := 0; i < 3; i++ {
		_, err := c.ForecastLossARIMA(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.TrendBreakerState())
	assert.Equal(t, gobreaker.StateClosed, c.PredictionBreakerState())

	loss, err := c.PredictLoss(context.Background(), testFeatures)
	require.NoError(t, err)
	assert.Equal(t, 250000.0, *loss.PredictedEconomicLossUSD)
}

func TestHalfOpenBreakerAdmitsBothPredictions(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		switch r.URL.Path {
		case "/predict-loss":
			_, _ = w.Write([]byte(`{"predicted_economic_loss_usd": 1000}`))
		case "/predict-fsi":
			_, _ = w.Write([]byte(`{"predicted_fsi": 4, "suggested_response": "Monitor"}`))
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, ClientConfig{Threshold: 3, BreakerTimeout: 50 * time.Millisecond})
	for i := 0; i < 3; i++ {
		_, _ = c.PredictLoss(context.Background(), testFeatures)
	}
	require.Equal(t, gobreaker.StateOpen, c.PredictionBreakerState())

	healthy.Store(true)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, gobreaker.StateHalfOpen, c.PredictionBreakerState())

	var lossErr, fsiErr error
	done := make(chan struct{}, 2)
	go func() {
		_, lossErr = c.PredictLoss(context.Background(), testFeatures)
		done <- struct{}{}
	}()
	go func() {
		_, fsiErr = c.PredictFSI(context.Background(), testFeatures)
		done <- struct{}{}
	}()
	<-done
	<-done

	assert.NoError(t, lossErr)
	assert.NoError(t, fsiErr)
	assert.Equal(t, gobreaker.StateClosed, c.PredictionBreakerState())
}
