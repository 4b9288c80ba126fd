package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/fireguard/internal/models"
)

// FormValues carries the raw, unvalidated fields of the forecast form.
type FormValues struct {
	Region            string
	Year              string
	FireRisk          string
	PopulationDensity string
}

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid forecast input: " + strings.Join(parts, "; ")
}

// ParseForecastInput validates raw form values and returns the forecast input.
func ParseForecastInput(form FormValues) (models.ForecastInput, error) {
	var fields []FieldError

	region := models.Region(strings.TrimSpace(form.Region))
	if !slices.Contains(models.Regions, region) {
		fields = append(fields, FieldError{Field: "region", Message: fmt.Sprintf("unknown region %q", form.Region)})
	}

	year, err := strconv.Atoi(strings.TrimSpace(form.Year))
	switch {
	case err != nil:
		fields = append(fields, FieldError{Field: "year", Message: fmt.Sprintf("%q is not a year", form.Year)})
	case year < models.MinForecastYear || year > models.MaxForecastYear:
		fields = append(fields, FieldError{
			Field:   "year",
			Message: fmt.Sprintf("must be between %d and %d", models.MinForecastYear, models.MaxForecastYear),
		})
	}

	risk := models.FireRisk(strings.TrimSpace(form.FireRisk))
	if !slices.Contains(models.FireRisks, risk) {
		fields = append(fields, FieldError{Field: "fireRisk", Message: fmt.Sprintf("unknown fire risk %q", form.FireRisk)})
	}

	density := models.PopulationDensity(strings.TrimSpace(form.PopulationDensity))
	if !slices.Contains(models.PopulationDensities, density) {
		fields = append(fields, FieldError{
			Field:   "populationDensity",
			Message: fmt.Sprintf("unknown population density %q", form.PopulationDensity),
		})
	}

	if len(fields) > 0 {
		return models.ForecastInput{}, &ValidationError{Fields: fields}
	}

	return models.ForecastInput{
		Region:            region,
		Year:              year,
		FireRisk:          risk,
		PopulationDensity: density,
	}, nil
}
