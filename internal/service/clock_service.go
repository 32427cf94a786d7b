package service

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Clock abstracts the ambient wall clock so access-window checks can be
// tested with fixed instants.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// TimezoneResolver interprets stored naive timestamps as wall-clock readings
// in a named IANA timezone.
type TimezoneResolver interface {
	ResolveLocation(timezone string) *time.Location
	NowIn(timezone string, clock Clock) time.Time
	Interpret(naive time.Time, timezone string) time.Time
	Validate(timezone string) error
}

type timezoneResolver struct{}

func NewTimezoneResolver() TimezoneResolver {
	return timezoneResolver{}
}

// ResolveLocation loads the named timezone. An unrecognized name falls back
// to UTC with a warning instead of failing the request; admin input is
// validated separately at time-slot creation.
func (timezoneResolver) ResolveLocation(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", timezone).Msg("Unrecognized timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}

func (r timezoneResolver) NowIn(timezone string, clock Clock) time.Time {
	return clock.Now().In(r.ResolveLocation(timezone))
}

// Interpret treats the naive value as a wall-clock reading in the given
// timezone, not UTC. The wall-clock fields are rebuilt in the resolved
// location rather than string round-tripped, which keeps DST transitions
// correct.
func (r timezoneResolver) Interpret(naive time.Time, timezone string) time.Time {
	loc := r.ResolveLocation(timezone)
	return time.Date(
		naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), naive.Nanosecond(),
		loc,
	)
}

func (timezoneResolver) Validate(timezone string) error {
	_, err := time.LoadLocation(timezone)
	return err
}
