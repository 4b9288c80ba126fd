package services

import (
	"math"

	"github.com/bobby-s-dev/fireguard/internal/models"
)

type regionBaseCosts struct {
	Property int64
	Business int64
	Tourism  int64
	Health   int64
}

var baseLossByRegion = map[models.Region]regionBaseCosts{
	models.RegionCalifornia: {Property: 300000, Business: 100000, Tourism: 75000, Health: 25000},
	models.RegionOregon:     {Property: 150000, Business: 50000, Tourism: 30000, Health: 20000},
	models.RegionWashington: {Property: 200000, Business: 75000, Tourism: 50000, Health: 25000},
	models.RegionColorado:   {Property: 160000, Business: 55000, Tourism: 40000, Health: 20000},
	models.RegionArizona:    {Property: 180000, Business: 70000, Tourism: 50000, Health: 20000},
	models.RegionNevada:     {Property: 130000, Business: 40000, Tourism: 35000, Health: 15000},
	models.RegionIdaho:      {Property: 110000, Business: 30000, Tourism: 25000, Health: 15000},
	models.RegionMontana:    {Property: 120000, Business: 35000, Tourism: 30000, Health: 15000},
}

var riskMultipliers = map[models.FireRisk]float64{
	models.FireRiskLow:     0.8,
	models.FireRiskMedium:  1.5,
	models.FireRiskHigh:    2.5,
	models.FireRiskExtreme: 4.0,
}

var populationMultipliers = map[models.PopulationDensity]float64{
	models.PopulationLow:    0.8,
	models.PopulationMedium: 1.0,
	models.PopulationHigh:   1.3,
}

var severityByRisk = map[models.FireRisk]float64{
	models.FireRiskLow:     3,
	models.FireRiskMedium:  5,
	models.FireRiskHigh:    7,
	models.FireRiskExtreme: 9,
}

var strategyByRisk = map[models.FireRisk]models.RecoveryStrategy{
	models.FireRiskLow:     {Text: "Minimal intervention needed.", Tags: []string{"Monitoring", "Prevention"}},
	models.FireRiskMedium:  {Text: "Targeted planning recommended.", Tags: []string{"Preparedness", "Planning"}},
	models.FireRiskHigh:    {Text: "Comprehensive recovery required.", Tags: []string{"Federal Support", "Business Grants"}},
	models.FireRiskExtreme: {Text: "Urgent intervention required.", Tags: []string{"Emergency Funds", "Redevelopment"}},
}

var defaultStrategy = models.RecoveryStrategy{
	Text: "Standard monitoring and preparation recommended.",
	Tags: []string{"Monitoring", "Prevention", "Education"},
}

const (
	defaultRiskMultiplier       = 1.5
	defaultPopulationMultiplier = 1.0
	defaultSeverity             = 5.0
	baseYear                    = 2024
	yearlyGrowth                = 0.05
)

// EstimateLocally computes a forecast from the static regional tables.
// It never fails; unknown regions use California's costs.
func EstimateLocally(input models.ForecastInput) models.ForecastResult {
	base, ok := baseLossByRegion[input.Region]
	if !ok {
		base = baseLossByRegion[models.RegionCalifornia]
	}

	riskMult, ok := riskMultipliers[input.FireRisk]
	if !ok {
		riskMult = defaultRiskMultiplier
	}

	popMult, ok := populationMultipliers[input.PopulationDensity]
	if !ok {
		popMult = defaultPopulationMultiplier
	}

	yearFactor := YearFactor(input.Year)

	// Tourism is not scaled by population density.
	property := scaleCost(base.Property, riskMult, popMult, yearFactor)
	business := scaleCost(base.Business, riskMult, popMult, yearFactor)
	tourism := scaleCost(base.Tourism, riskMult, 1, yearFactor)
	health := scaleCost(base.Health, riskMult, popMult, yearFactor)

	fsi, ok := severityByRisk[input.FireRisk]
	if !ok {
		fsi = defaultSeverity
	}

	strategy, ok := strategyByRisk[input.FireRisk]
	if !ok {
		strategy = defaultStrategy
	}

	return models.ForecastResult{
		TotalLoss:          property + business + tourism + health,
		PropertyDamage:     property,
		BusinessDisruption: business,
		TourismLoss:        tourism,
		HealthCosts:        health,
		PredictedFSI:       fsi,
		RecoveryStrategy:   cloneStrategy(strategy),
		ChartData:          buildChartData(property, business, tourism, health),
	}
}

// YearFactor grows losses by 5% for every year past 2024.
func YearFactor(year int) float64 {
	return 1 + float64(float64(year-baseYear)*yearlyGrowth)
}

// scaleCost multiplies left to right and rounds once. The explicit
// conversions keep each product rounded to float64 before the next step.
func scaleCost(base int64, riskMult, popMult, yearFactor float64) int64 {
	v := float64(float64(base) * riskMult)
	v = float64(v * popMult)
	v = float64(v * yearFactor)
	return int64(roundHalfUp(v))
}

// RecoveryTags picks the tag set for a remote prediction. The first matching
// branch wins. This vocabulary differs from the local strategy table.
func RecoveryTags(fsi float64, risk models.FireRisk) []string {
	switch {
	case fsi >= 8 || risk == models.FireRiskExtreme:
		return []string{"Emergency Funds", "Evacuation", "Federal Support"}
	case fsi >= 6 || risk == models.FireRiskHigh:
		return []string{"Federal Support", "Business Grants", "Community Resources"}
	case fsi >= 4 || risk == models.FireRiskMedium:
		return []string{"Preparedness", "Planning", "Community Support"}
	default:
		return []string{"Monitoring", "Prevention", "Education"}
	}
}

func buildChartData(property, business, tourism, health int64) []models.ChartBar {
	return []models.ChartBar{
		{Label: "Property", Value: property, Color: "#1e5631"},
		{Label: "Business", Value: business, Color: "#1e88e5"},
		{Label: "Tourism", Value: tourism, Color: "#ff6b35"},
		{Label: "Health", Value: health, Color: "#ffd166"},
	}
}

func cloneStrategy(s models.RecoveryStrategy) models.RecoveryStrategy {
	tags := make([]string, len(s.Tags))
	copy(tags, s.Tags)
	return models.RecoveryStrategy{Text: s.Text, Tags: tags}
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
