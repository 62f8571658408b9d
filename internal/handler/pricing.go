package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/service"
)

// PricingHandler handles HTTP requests for fare quotes and demand levels.
type PricingHandler struct {
	pricingService *service.PricingService
	surgeService   *service.SurgeService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(pricingService *service.PricingService, surgeService *service.SurgeService) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		surgeService:   surgeService,
	}
}

// QuoteRequest is the HTTP request body for a fare quote.
type QuoteRequest struct {
	OriginLat      float64 `json:"origin_lat"`
	OriginLng      float64 `json:"origin_lng"`
	DestinationLat float64 `json:"destination_lat"`
	DestinationLng float64 `json:"destination_lng"`
	DepartureTime  string  `json:"departure_time,omitempty"`
	Seats          int     `json:"seats"`
	Tier           string  `json:"tier,omitempty"`
	WithSurge      bool    `json:"with_surge,omitempty"`
}

// QuoteResponse is the HTTP response for a fare quote.
type QuoteResponse struct {
	Base           float64 `json:"base"`
	TierMultiplier float64 `json:"tier_multiplier"`
	TimeMultiplier float64 `json:"time_multiplier"`
	TimeReason     string  `json:"time_reason"`
	Total          float64 `json:"total"`
	PerSeat        float64 `json:"per_seat"`
	Commission     float64 `json:"commission"`
	InsuranceFee   float64 `json:"insurance_fee"`
	DriverEarning  float64 `json:"driver_earning"`
	Seats          int     `json:"seats"`
	DistanceKm     float64 `json:"distance_km"`
	ETAMinutes     int     `json:"eta_minutes"`
}

// SurgeResponse is the HTTP response for a demand reading.
type SurgeResponse struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Demand     int     `json:"demand"`
	Supply     int     `json:"supply"`
	Multiplier float64 `json:"multiplier"`
}

// Quote handles POST /v1/pricing/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	svcReq := service.QuoteRequest{
		Origin:      geo.Point{Lat: req.OriginLat, Lng: req.OriginLng},
		Destination: geo.Point{Lat: req.DestinationLat, Lng: req.DestinationLng},
		Seats:       req.Seats,
		Tier:        domain.VehicleTier(req.Tier),
		WithSurge:   req.WithSurge,
	}
	if req.DepartureTime != "" {
		departure, err := time.Parse(time.RFC3339, req.DepartureTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid departure_time, expected RFC3339"})
			return
		}
		svcReq.DepartureTime = departure
	}

	quote, err := h.pricingService.Quote(c.Request.Context(), svcReq)
	if err != nil {
		respondError(c, err)
		return
	}

	b := quote.Breakdown
	respondJSON(c, http.StatusOK, QuoteResponse{
		Base:           b.Base.Float64(),
		TierMultiplier: b.TierMultiplier,
		TimeMultiplier: b.TimeMultiplier,
		TimeReason:     string(b.TimeReason),
		Total:          b.Total.Float64(),
		PerSeat:        b.PerSeat.Float64(),
		Commission:     b.Commission.Float64(),
		InsuranceFee:   b.InsuranceFee.Float64(),
		DriverEarning:  b.DriverEarning.Float64(),
		Seats:          b.Seats,
		DistanceKm:     quote.DistanceKm,
		ETAMinutes:     quote.ETAMinutes,
	})
}

// Surge handles GET /v1/pricing/surge
func (h *PricingHandler) Surge(c *gin.Context) {
	p, ok := pointQuery(c, "lat", "lng")
	if !ok || !p.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng are required"})
		return
	}

	reading := h.surgeService.Read(c.Request.Context(), *p)

	respondJSON(c, http.StatusOK, SurgeResponse{
		Lat:        p.Lat,
		Lng:        p.Lng,
		Demand:     reading.Demand,
		Supply:     reading.Supply,
		Multiplier: reading.Multiplier,
	})
}
