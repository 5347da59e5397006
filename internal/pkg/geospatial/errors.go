package geospatial

import "errors"

var (
	// ErrDegenerateInput is returned by the rectangle fitter when the point set
	// has fewer than 3 distinct points or encloses no area.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrInvalidCoordinate is returned for latitudes outside [-90, 90],
	// longitudes outside [-180, 180] and non-finite values.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidZoom is returned for zoom levels outside [0, MaxZoom].
	ErrInvalidZoom = errors.New("invalid zoom")

	// ErrFrameMismatch is returned when pixel points from different frames are mixed.
	ErrFrameMismatch = errors.New("pixel frame mismatch")
)
