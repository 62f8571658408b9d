package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/dispatch"
	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/service"
)

const (
	// defaultSearchWindowMinutes is the departure window when the query
	// names a time but no window.
	defaultSearchWindowMinutes = 30

	// defaultProximityRadiusM is the proximity radius when the query
	// names a point but no radius.
	defaultProximityRadiusM = 3000.0
)

// DispatchHandler handles HTTP requests for driver-side trip search.
type DispatchHandler struct {
	dispatchService *service.DispatchService
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(dispatchService *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatchService: dispatchService}
}

// SearchResult is one ranked trip in a search response.
type SearchResult struct {
	Trip            TripResponse `json:"trip"`
	ExpectedEarning float64      `json:"expected_earning"`
}

// Search handles GET /v1/dispatch/search
//
// Query parameters, all optional: depart_around (RFC3339), window_minutes,
// origin_lat/origin_lng/origin_radius_m, dest_lat/dest_lng/dest_radius_m,
// max_price_per_seat, min_seats, sort (departure|earning|distance|seats),
// driver_lat/driver_lng.
func (h *DispatchHandler) Search(c *gin.Context) {
	var filter dispatch.Filter

	if raw := c.Query("depart_around"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid depart_around, expected RFC3339"})
			return
		}
		filter.DepartAround = &at
		filter.WindowMinutes = defaultSearchWindowMinutes
		if w, ok := intQuery(c, "window_minutes"); ok {
			filter.WindowMinutes = w
		}
	}

	if p, ok := pointQuery(c, "origin_lat", "origin_lng"); ok {
		filter.OriginNear = p
		filter.OriginRadiusM = defaultProximityRadiusM
		if r, ok := floatQuery(c, "origin_radius_m"); ok {
			filter.OriginRadiusM = r
		}
	}

	if p, ok := pointQuery(c, "dest_lat", "dest_lng"); ok {
		filter.DestinationNear = p
		filter.DestinationRadiusM = defaultProximityRadiusM
		if r, ok := floatQuery(c, "dest_radius_m"); ok {
			filter.DestinationRadiusM = r
		}
	}

	if v, ok := floatQuery(c, "max_price_per_seat"); ok {
		price := domain.MoneyFromFloat(v)
		filter.MaxPricePerSeat = &price
	}

	if v, ok := intQuery(c, "min_seats"); ok {
		filter.MinSeats = v
	}

	driverLoc, _ := pointQuery(c, "driver_lat", "driver_lng")

	trips, err := h.dispatchService.Search(c.Request.Context(), service.SearchRequest{
		Filter:         filter,
		SortBy:         dispatch.Sort(c.Query("sort")),
		DriverLocation: driverLoc,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]SearchResult, 0, len(trips))
	for _, trip := range trips {
		response = append(response, SearchResult{
			Trip:            toTripResponse(trip),
			ExpectedEarning: h.dispatchService.ExpectedEarning(trip).Float64(),
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// intQuery parses an integer query parameter.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// floatQuery parses a float query parameter.
func floatQuery(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// pointQuery parses a lat/lng query parameter pair. Both must be present.
func pointQuery(c *gin.Context, latName, lngName string) (*geo.Point, bool) {
	lat, latOK := floatQuery(c, latName)
	lng, lngOK := floatQuery(c, lngName)
	if !latOK || !lngOK {
		return nil, false
	}
	return &geo.Point{Lat: lat, Lng: lng}, true
}
