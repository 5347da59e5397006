package http

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/core/usecases"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// MeasureResponse is the JSON body of GET /v1/measure. Measured fields are
// null when the fallback box was drawn.
type MeasureResponse struct {
	LengthM        *float64           `json:"length_m"`
	WidthM         *float64           `json:"width_m"`
	LengthFt       *float64           `json:"length_ft"`
	WidthFt        *float64           `json:"width_ft"`
	AngleDeg       *float64           `json:"angle_deg"`
	Source         string             `json:"source"`
	Model          string             `json:"model"`
	Zoom           int                `json:"zoom"`
	Fallback       bool               `json:"fallback"`
	FallbackReason string             `json:"fallback_reason,omitempty"`
	Rect           []geospatial.Point `json:"rect"`
	FallbackBox    []geospatial.Point `json:"fallback_box,omitempty"`
	ImageBase64    string             `json:"image_base64"`
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v *float64, scale float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := roundTo(*v*scale, places)
	return &r
}

// NewMeasureResponse converts a result for the wire.
func NewMeasureResponse(res *domain.MeasureResult) MeasureResponse {
	est := res.Estimate
	out := MeasureResponse{
		LengthM:        roundPtr(res.LengthM(), 1, 2),
		WidthM:         roundPtr(res.WidthM(), 1, 2),
		LengthFt:       roundPtr(res.LengthM(), domain.FeetPerMeter, 1),
		WidthFt:        roundPtr(res.WidthM(), domain.FeetPerMeter, 1),
		Source:         res.Source,
		Model:          est.Model.String(),
		Zoom:           est.Frame.Zoom,
		Fallback:       est.IsFallback(),
		FallbackReason: est.FallbackReason,
		FallbackBox:    est.Fallback,
		ImageBase64:    base64.StdEncoding.EncodeToString(res.Image),
	}
	if est.Rect != nil {
		out.Rect = est.Rect.Corners[:]
		angle := roundTo(est.Rect.Angle, 2)
		out.AngleDeg = &angle
	}
	return out
}

// parseCoordinate reads a required float query parameter.
func parseCoordinate(c *fiber.Ctx, names ...string) (float64, bool) {
	for _, n := range names {
		raw := c.Query(n)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// parseMeasureRequest reads lat, lng (or lon) and the optional model.
func parseMeasureRequest(c *fiber.Ctx) (usecases.MeasureRequest, string) {
	lat, okLat := parseCoordinate(c, "lat")
	lng, okLng := parseCoordinate(c, "lng", "lon")
	if !okLat || !okLng {
		return usecases.MeasureRequest{}, "lat and lng are required numeric query parameters"
	}

	req := usecases.MeasureRequest{Point: domain.GeoPoint{Lat: lat, Lon: lng}}
	if m := c.Query("model"); m != "" {
		model, err := geospatial.ParseDistanceModel(m)
		if err != nil {
			return usecases.MeasureRequest{}, "model must be great_circle or local_scale"
		}
		req.Model = &model
	}
	return req, ""
}

// MeasureHandler measures the building at ?lat=&lng= and returns the
// dimensions together with the annotated image.
func MeasureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, msg := parseMeasureRequest(c)
		if msg != "" {
			return errBadRequest(c, msg)
		}

		res, err := deps.Measure.Measure(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(NewMeasureResponse(res))
	}
}

// MeasureImageHandler returns only the annotated PNG.
func MeasureImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, msg := parseMeasureRequest(c)
		if msg != "" {
			return errBadRequest(c, msg)
		}

		res, err := deps.Measure.Measure(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Set("X-Footprint-Source", res.Source)
		c.Type("png")
		return c.Send(res.Image)
	}
}
