package collector

import (
	"context"
	"errors"
	"fmt"

	"IntradayScreener/internal/model"
)

// Lookback bounds accepted by every fetcher, in calendar days.
const (
	MinLookbackDays = 1
	MaxLookbackDays = 10
)

var (
	// ErrNoData means the provider returned no usable candles.
	ErrNoData = errors.New("no data")
	// ErrLookbackRange means lookbackDays is outside MinLookbackDays..MaxLookbackDays.
	ErrLookbackRange = fmt.Errorf("lookback must be between %d and %d days", MinLookbackDays, MaxLookbackDays)
)

// Fetcher retrieves intraday candles for one symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, interval model.Interval, lookbackDays int) (*model.Series, error)
	Name() string
}

// ValidateLookback returns ErrLookbackRange for days outside the supported window.
func ValidateLookback(days int) error {
	if days < MinLookbackDays || days > MaxLookbackDays {
		return fmt.Errorf("%w: got %d", ErrLookbackRange, days)
	}
	return nil
}

func checkRequest(symbol string, interval model.Interval, lookbackDays int) error {
	if symbol == "" {
		return errors.New("empty symbol")
	}
	if _, err := model.ParseInterval(string(interval)); err != nil {
		return err
	}
	return ValidateLookback(lookbackDays)
}
