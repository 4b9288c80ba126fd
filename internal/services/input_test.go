package services

import (
	"errors"
	"testing"

	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForecastInput_Valid(t *testing.T) {
	input, err := ParseForecastInput(FormValues{
		Region:            "Colorado",
		Year:              " 2028 ",
		FireRisk:          "Extreme",
		PopulationDensity: "Low",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ForecastInput{
		Region:            models.RegionColorado,
		Year:              2028,
		FireRisk:          models.FireRiskExtreme,
		PopulationDensity: models.PopulationLow,
	}, input)
}

func TestParseForecastInput_ReportsEveryField(t *testing.T) {
	_, err := ParseForecastInput(FormValues{
		Region:            "Texas",
		Year:              "next year",
		FireRisk:          "Severe",
		PopulationDensity: "Crowded",
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	fields := make([]string, 0, len(validationErr.Fields))
	for _, f := range validationErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"region", "year", "fireRisk", "populationDensity"}, fields)
	assert.Contains(t, err.Error(), "Texas")
}

func TestParseForecastInput_YearRange(t *testing.T) {
	for _, year := range []string{"2023", "2031"} {
		t.Run(year, func(t *testing.T) {
			_, err := ParseForecastInput(FormValues{Region: "Oregon", Year: year, FireRisk: "Low", PopulationDensity: "Low"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "between 2024 and 2030")
		})
	}

	for _, year := range []string{"2024", "2030"} {
		t.Run(year, func(t *testing.T) {
			_, err := ParseForecastInput(FormValues{Region: "Oregon", Year: year, FireRisk: "Low", PopulationDensity: "Low"})
			assert.NoError(t, err)
		})
	}
}

func TestParseForecastInput_EnumsAreCaseSensitive(t *testing.T) {
	_, err := ParseForecastInput(FormValues{Region: "oregon", Year: "2024", FireRisk: "low", PopulationDensity: "Low"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
	assert.Contains(t, err.Error(), "fireRisk")
}
