package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bobby-s-dev/fireguard/internal/models"
)

// LastForecastKey is the key the last submitted forecast input is kept under.
const LastForecastKey = "fireGuardForecastData"

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KeyValueStore persists raw JSON documents by key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// ForecastRepository saves and restores the last forecast input.
type ForecastRepository struct {
	kv KeyValueStore
}

func NewForecastRepository(kv KeyValueStore) *ForecastRepository {
	return &ForecastRepository{kv: kv}
}

func (r *ForecastRepository) SaveLast(ctx context.Context, input models.ForecastInput) error {
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encoding forecast input: %w", err)
	}
	if err := r.kv.Put(ctx, LastForecastKey, data); err != nil {
		return fmt.Errorf("saving last forecast: %w", err)
	}
	return nil
}

// LoadLast returns the last saved input. ok is false when nothing was saved.
func (r *ForecastRepository) LoadLast(ctx context.Context) (input models.ForecastInput, ok bool, err error) {
	data, err := r.kv.Get(ctx, LastForecastKey)
	if errors.Is(err, ErrNotFound) {
		return models.ForecastInput{}, false, nil
	}
	if err != nil {
		return models.ForecastInput{}, false, fmt.Errorf("loading last forecast: %w", err)
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return models.ForecastInput{}, false, fmt.Errorf("decoding last forecast: %w", err)
	}
	return input, true, nil
}
