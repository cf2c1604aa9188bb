package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// StationLimit caps the station popularity query.
const StationLimit = 100

// HourlyTrips is one hour of trip activity.
type HourlyTrips struct {
	Hour            time.Time       `bun:"hour"`
	NumTrips        int64           `bun:"num_trips"`
	AvgDurationMins sql.NullFloat64 `bun:"avg_duration_mins"`
}

// WeatherTrips counts trips started under one weather condition.
type WeatherTrips struct {
	Conditions string `bun:"conditions"`
	NumTrips   int64  `bun:"num_trips"`
}

// StationTrips counts trips leaving one start station.
type StationTrips struct {
	StartStationName string          `bun:"start_station_name"`
	NumTrips         int64           `bun:"num_trips"`
	Lat              sql.NullFloat64 `bun:"lat"`
	Lon              sql.NullFloat64 `bun:"lon"`
}

// Queries runs the three fixed aggregations.
type Queries struct {
	db           bun.IDB
	tripsTable   string
	weatherTable string
}

// NewQueries creates Queries over the given tables. Empty names fall back to
// trips and weather_observations.
func NewQueries(db bun.IDB, tripsTable, weatherTable string) *Queries {
	if tripsTable == "" {
		tripsTable = "trips"
	}
	if weatherTable == "" {
		weatherTable = "weather_observations"
	}
	return &Queries{db: db, tripsTable: tripsTable, weatherTable: weatherTable}
}

func (q *Queries) hourlyQuery() *bun.RawQuery {
	return q.db.NewRaw(`SELECT date_trunc('hour', starttime) AS hour,
	count(*) AS num_trips,
	avg(tripduration)::float8 / 60 AS avg_duration_mins
FROM ?
GROUP BY 1
ORDER BY 1`, bun.Ident(q.tripsTable))
}

func (q *Queries) weatherQuery() *bun.RawQuery {
	return q.db.NewRaw(`SELECT w.conditions AS conditions,
	count(*) AS num_trips
FROM ? AS t
LEFT OUTER JOIN ? AS w
	ON date_trunc('hour', w.observation_time) = date_trunc('hour', t.starttime)
WHERE w.conditions IS NOT NULL
GROUP BY 1
ORDER BY 2 DESC`, bun.Ident(q.tripsTable), bun.Ident(q.weatherTable))
}

func (q *Queries) stationQuery() *bun.RawQuery {
	return q.db.NewRaw(`SELECT start_station_name,
	count(*) AS num_trips,
	avg(start_station_latitude)::float8 AS lat,
	avg(start_station_longitude)::float8 AS lon
FROM ?
GROUP BY 1
ORDER BY 2 DESC
LIMIT ?`, bun.Ident(q.tripsTable), StationLimit)
}

// HourlyTrips returns trip counts and average duration per hour, oldest first.
func (q *Queries) HourlyTrips(ctx context.Context) ([]HourlyTrips, error) {
	var rows []HourlyTrips
	if err := q.hourlyQuery().Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: hourly trips: %w", ErrQueryFailed, err)
	}
	log.Debug().Int("rows", len(rows)).Msg("loaded hourly trips")
	return rows, nil
}

// WeatherTrips returns trip counts per known weather condition, busiest first.
func (q *Queries) WeatherTrips(ctx context.Context) ([]WeatherTrips, error) {
	var rows []WeatherTrips
	if err := q.weatherQuery().Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: weather trips: %w", ErrQueryFailed, err)
	}
	log.Debug().Int("rows", len(rows)).Msg("loaded weather trips")
	return rows, nil
}

// TopStations returns the most used start stations with their average position.
func (q *Queries) TopStations(ctx context.Context) ([]StationTrips, error) {
	var rows []StationTrips
	if err := q.stationQuery().Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: top stations: %w", ErrQueryFailed, err)
	}
	log.Debug().Int("rows", len(rows)).Msg("loaded top stations")
	return rows, nil
}
