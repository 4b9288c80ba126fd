package services

import (
	"github.com/bobby-s-dev/fireguard/internal/models"
)

// Placeholder values the loss and severity models were trained with.
const (
	defaultVegetationDensity   = 2
	defaultAverageTemperature  = 25
	defaultPreviousFireHistory = 1
	defaultWindSpeed           = 10
	defaultHumidity            = 40
)

var riskLevelCodes = map[models.FireRisk]int{
	models.FireRiskLow:     1,
	models.FireRiskMedium:  2,
	models.FireRiskHigh:    3,
	models.FireRiskExtreme: 4,
}

var populationDensityCodes = map[models.PopulationDensity]int{
	models.PopulationLow:    1,
	models.PopulationMedium: 2,
	models.PopulationHigh:   3,
}

// MapFeatures encodes a forecast input as the predictor's feature vector.
// Unrecognised risk or density values map to 1.
func MapFeatures(input models.ForecastInput) models.FeatureVector {
	return models.FeatureVector{
		Region:              input.Region,
		Year:                input.Year,
		FireRiskLevel:       RiskLevelCode(input.FireRisk),
		PopulationDensity:   PopulationDensityCode(input.PopulationDensity),
		VegetationDensity:   defaultVegetationDensity,
		AverageTemperature:  defaultAverageTemperature,
		PreviousFireHistory: defaultPreviousFireHistory,
		WindSpeed:           defaultWindSpeed,
		Humidity:            defaultHumidity,
	}
}

func RiskLevelCode(risk models.FireRisk) int {
	if code, ok := riskLevelCodes[risk]; ok {
		return code
	}
	return 1
}

func PopulationDensityCode(density models.PopulationDensity) int {
	if code, ok := populationDensityCodes[density]; ok {
		return code
	}
	return 1
}
