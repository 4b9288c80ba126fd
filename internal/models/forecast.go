package models

import (
	"time"
)

type Region string

const (
	RegionCalifornia Region = "California"
	RegionOregon     Region = "Oregon"
	RegionWashington Region = "Washington"
	RegionColorado   Region = "Colorado"
	RegionArizona    Region = "Arizona"
	RegionNevada     Region = "Nevada"
	RegionIdaho      Region = "Idaho"
	RegionMontana    Region = "Montana"
)

// Regions lists the regions offered by the forecast form, in display order.
var Regions = []Region{
	RegionCalifornia,
	RegionOregon,
	RegionWashington,
	RegionColorado,
	RegionArizona,
	RegionNevada,
	RegionIdaho,
	RegionMontana,
}

type FireRisk string

const (
	FireRiskLow     FireRisk = "Low"
	FireRiskMedium  FireRisk = "Medium"
	FireRiskHigh    FireRisk = "High"
	FireRiskExtreme FireRisk = "Extreme"
)

var FireRisks = []FireRisk{FireRiskLow, FireRiskMedium, FireRiskHigh, FireRiskExtreme}

type PopulationDensity string

const (
	PopulationLow    PopulationDensity = "Low"
	PopulationMedium PopulationDensity = "Medium"
	PopulationHigh   PopulationDensity = "High"
)

var PopulationDensities = []PopulationDensity{PopulationLow, PopulationMedium, PopulationHigh}

const (
	MinForecastYear = 2024
	MaxForecastYear = 2030
)

// ForecastInput is the set of parameters submitted from the forecast form.
type ForecastInput struct {
	Region            Region            `json:"region"`
	Year              int               `json:"year"`
	FireRisk          FireRisk          `json:"fireRisk"`
	PopulationDensity PopulationDensity `json:"populationDensity"`
}

// FeatureVector is the payload the remote predictor expects under "features".
type FeatureVector struct {
	Region              Region `json:"Region"`
	Year                int    `json:"Year"`
	FireRiskLevel       int    `json:"FireRiskLevel"`
	PopulationDensity   int    `json:"PopulationDensity"`
	VegetationDensity   int    `json:"VegetationDensity"`
	AverageTemperature  int    `json:"AverageTemperature"`
	PreviousFireHistory int    `json:"PreviousFireHistory"`
	WindSpeed           int    `json:"WindSpeed"`
	Humidity            int    `json:"Humidity"`
}

type PredictionRequest struct {
	Features FeatureVector `json:"features"`
}

// LossPrediction is the decoded /predict-loss body. Nil means the field was absent.
type LossPrediction struct {
	PredictedEconomicLossUSD *float64 `json:"predicted_economic_loss_usd"`
	Error                    string   `json:"error,omitempty"`
}

// SeverityPrediction is the decoded /predict-fsi body.
type SeverityPrediction struct {
	PredictedFSI      *float64 `json:"predicted_fsi"`
	SuggestedResponse string   `json:"suggested_response"`
	Error             string   `json:"error,omitempty"`
}

type RecoveryStrategy struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

type ChartBar struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

// ForecastResult is the display model shown on the results page.
type ForecastResult struct {
	TotalLoss          int64            `json:"totalLoss"`
	PropertyDamage     int64            `json:"propertyDamage"`
	BusinessDisruption int64            `json:"businessDisruption"`
	TourismLoss        int64            `json:"tourismLoss"`
	HealthCosts        int64            `json:"healthCosts"`
	PredictedFSI       float64          `json:"predictedFSI"`
	RecoveryStrategy   RecoveryStrategy `json:"recoveryStrategy"`
	ChartData          []ChartBar       `json:"chartData"`
}

type ResultSource string

const (
	SourceRemote   ResultSource = "remote"
	SourceFallback ResultSource = "fallback"
)

// Resolution pairs a result with where it came from. Reason is set only
// for fallback results and explains why the remote prediction was discarded.
type Resolution struct {
	Result ForecastResult
	Source ResultSource
	Reason error
}

func (r Resolution) Degraded() bool {
	return r.Source == SourceFallback
}

type TrendModel string

const (
	TrendARIMA TrendModel = "arima"
	TrendLSTM  TrendModel = "lstm"
)

// TrendForecast holds six monthly loss values forecast by a time-series model.
type TrendForecast struct {
	Model     TrendModel `json:"model"`
	Values    []float64  `json:"values"`
	FetchedAt time.Time  `json:"fetched_at"`
}
