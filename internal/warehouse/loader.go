package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrUnknownDataset = errors.New("unknown dataset")

// Datasets served by the Loader.
const (
	DatasetHourly   = "hourly"
	DatasetWeather  = "weather"
	DatasetStations = "stations"
)

// Datasets lists the dataset names in display order.
var Datasets = []string{DatasetHourly, DatasetWeather, DatasetStations}

// Source runs the underlying aggregations. *Queries implements it.
type Source interface {
	HourlyTrips(ctx context.Context) ([]HourlyTrips, error)
	WeatherTrips(ctx context.Context) ([]WeatherTrips, error)
	TopStations(ctx context.Context) ([]StationTrips, error)
}

// Loader serves dashboard tables through a TTL cache.
type Loader struct {
	source Source
	cache  *Cache
}

// NewLoader creates a Loader. A nil cache gets a default one.
func NewLoader(source Source, cache *Cache) *Loader {
	if cache == nil {
		cache = NewCache(DefaultCacheTTL, nil)
	}
	return &Loader{source: source, cache: cache}
}

// Hourly returns the hourly trip table.
func (l *Loader) Hourly(ctx context.Context) (Table, error) {
	return l.cache.Get(ctx, DatasetHourly, func(ctx context.Context) (Table, error) {
		rows, err := l.source.HourlyTrips(ctx)
		if err != nil {
			return Table{}, err
		}
		return HourlyTable(rows), nil
	})
}

// Weather returns the trips-by-weather table.
func (l *Loader) Weather(ctx context.Context) (Table, error) {
	return l.cache.Get(ctx, DatasetWeather, func(ctx context.Context) (Table, error) {
		rows, err := l.source.WeatherTrips(ctx)
		if err != nil {
			return Table{}, err
		}
		return WeatherTable(rows), nil
	})
}

// Stations returns the station popularity table. Stations without
// coordinates are dropped.
func (l *Loader) Stations(ctx context.Context) (Table, error) {
	return l.cache.Get(ctx, DatasetStations, func(ctx context.Context) (Table, error) {
		rows, err := l.source.TopStations(ctx)
		if err != nil {
			return Table{}, err
		}
		kept := DropMissingCoordinates(rows)
		if dropped := len(rows) - len(kept); dropped > 0 {
			log.Debug().Int("dropped", dropped).Msg("stations without coordinates")
		}
		return StationTable(kept), nil
	})
}

// Load returns a dataset by name (case-insensitive).
func (l *Loader) Load(ctx context.Context, dataset string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(dataset)) {
	case DatasetHourly:
		return l.Hourly(ctx)
	case DatasetWeather:
		return l.Weather(ctx)
	case DatasetStations:
		return l.Stations(ctx)
	default:
		return Table{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDataset, dataset, strings.Join(Datasets, ", "))
	}
}
