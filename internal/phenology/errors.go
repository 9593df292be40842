package phenology

import "errors"

// Input validation errors
var (
	ErrEmptyObservations    = errors.New("no NDVI observations within the season")
	ErrNDVIOutOfRange       = errors.New("NDVI observation outside [0,1]")
	ErrDuplicateObservation = errors.New("duplicate NDVI observation timestamp")
	ErrInvalidSeason        = errors.New("sowing date must be before harvest date")
	ErrWeatherGap           = errors.New("weather table has a missing date")
)

// ErrUnknownMethod is returned for FVC or interpolation method names that are not recognised
var ErrUnknownMethod = errors.New("unknown method")
