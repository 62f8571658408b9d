package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/geo"
	"rideshare/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService    *service.TripService
	receiptService *service.ReceiptService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, receiptService *service.ReceiptService) *TripHandler {
	return &TripHandler{
		tripService:    tripService,
		receiptService: receiptService,
	}
}

// CreateTripRequest is the HTTP request body for publishing a trip.
type CreateTripRequest struct {
	PassengerID      string  `json:"passenger_id"`
	PassengerName    string  `json:"passenger_name,omitempty"`
	PassengerPhone   string  `json:"passenger_phone,omitempty"`
	OriginLabel      string  `json:"origin_label,omitempty"`
	OriginLat        float64 `json:"origin_lat"`
	OriginLng        float64 `json:"origin_lng"`
	DestinationLabel string  `json:"destination_label,omitempty"`
	DestinationLat   float64 `json:"destination_lat"`
	DestinationLng   float64 `json:"destination_lng"`
	DepartureTime    string  `json:"departure_time"`
	Seats            int     `json:"seats"`
	PricePerSeat     float64 `json:"price_per_seat"`
	Notes            string  `json:"notes,omitempty"`
}

// AcceptTripRequest is the HTTP request body for accepting a trip.
type AcceptTripRequest struct {
	DriverID    string   `json:"driver_id"`
	DriverName  string   `json:"driver_name,omitempty"`
	DriverPhone string   `json:"driver_phone,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
}

// StartTripRequest is the HTTP request body for starting a trip.
type StartTripRequest struct {
	DriverID string `json:"driver_id"`
}

// CompleteTripRequest is the HTTP request body for completing a trip.
type CompleteTripRequest struct {
	DriverID string `json:"driver_id"`
}

// CancelTripRequest is the HTTP request body for cancelling a trip.
type CancelTripRequest struct {
	CancelledBy string `json:"cancelled_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// TripLocationRequest is the HTTP request body for reporting the
// assigned driver's position on a trip.
type TripLocationRequest struct {
	DriverID string  `json:"driver_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	At       string  `json:"at,omitempty"`
}

// DriverInfo contains assigned driver details in a response.
type DriverInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// LocationInfo contains a timestamped position in a response.
type LocationInfo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	At  string  `json:"at"`
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID               string        `json:"id"`
	PassengerID      string        `json:"passenger_id"`
	PassengerName    string        `json:"passenger_name,omitempty"`
	PassengerPhone   string        `json:"passenger_phone,omitempty"`
	Driver           *DriverInfo   `json:"driver,omitempty"`
	OriginLabel      string        `json:"origin_label,omitempty"`
	OriginLat        float64       `json:"origin_lat"`
	OriginLng        float64       `json:"origin_lng"`
	DestinationLabel string        `json:"destination_label,omitempty"`
	DestinationLat   float64       `json:"destination_lat"`
	DestinationLng   float64       `json:"destination_lng"`
	DepartureTime    string        `json:"departure_time"`
	Seats            int           `json:"seats"`
	PricePerSeat     float64       `json:"price_per_seat"`
	TotalCost        float64       `json:"total_cost"`
	Notes            string        `json:"notes,omitempty"`
	DriverLocation   *LocationInfo `json:"driver_location,omitempty"`
	Status           string        `json:"status"`
	CancelReason     string        `json:"cancel_reason,omitempty"`
	CreatedAt        string        `json:"created_at"`
	UpdatedAt        string        `json:"updated_at"`
}

// SettlementResponse is the HTTP response for completing a trip.
type SettlementResponse struct {
	Trip          TripResponse `json:"trip"`
	Earning       *EntryInfo   `json:"earning,omitempty"`
	Commission    float64      `json:"commission"`
	InsuranceFee  float64      `json:"insurance_fee"`
	DriverEarning float64      `json:"driver_earning"`
}

// PayTripResponse is the HTTP response for paying for a trip.
type PayTripResponse struct {
	Trip    TripResponse `json:"trip"`
	Payment *EntryInfo   `json:"payment,omitempty"`
}

// ReceiptResponse is the HTTP representation of a trip receipt.
type ReceiptResponse struct {
	TripID           string  `json:"trip_id"`
	PassengerID      string  `json:"passenger_id"`
	DriverID         string  `json:"driver_id,omitempty"`
	OriginLabel      string  `json:"origin_label,omitempty"`
	DestinationLabel string  `json:"destination_label,omitempty"`
	DepartureTime    string  `json:"departure_time"`
	Seats            int     `json:"seats"`
	PricePerSeat     float64 `json:"price_per_seat"`
	Total            float64 `json:"total"`
	Commission       float64 `json:"commission"`
	InsuranceFee     float64 `json:"insurance_fee"`
	DriverEarning    float64 `json:"driver_earning"`
	DistanceKm       float64 `json:"distance_km"`
	CompletedAt      string  `json:"completed_at"`
	Text             string  `json:"text"`
}

// toTripResponse converts a domain trip into its HTTP representation.
func toTripResponse(t *domain.Trip) TripResponse {
	resp := TripResponse{
		ID:               t.ID,
		PassengerID:      t.PassengerID,
		PassengerName:    t.PassengerName,
		PassengerPhone:   t.PassengerPhone,
		OriginLabel:      t.Origin.Label,
		OriginLat:        t.Origin.Point.Lat,
		OriginLng:        t.Origin.Point.Lng,
		DestinationLabel: t.Destination.Label,
		DestinationLat:   t.Destination.Point.Lat,
		DestinationLng:   t.Destination.Point.Lng,
		DepartureTime:    t.DepartureTime.Format("2006-01-02T15:04:05Z07:00"),
		Seats:            t.Seats,
		PricePerSeat:     t.PricePerSeat.Float64(),
		TotalCost:        t.TotalCost.Float64(),
		Notes:            t.Notes,
		Status:           string(t.Status),
		CancelReason:     t.CancelReason,
		CreatedAt:        t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:        t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if t.Driver != nil {
		resp.Driver = &DriverInfo{
			ID:    t.Driver.ID,
			Name:  t.Driver.Name,
			Phone: t.Driver.Phone,
		}
	}

	if t.DriverLocation != nil {
		resp.DriverLocation = &LocationInfo{
			Lat: t.DriverLocation.Point.Lat,
			Lng: t.DriverLocation.Point.Lng,
			At:  t.DriverLocation.At.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	return resp
}

// Create handles POST /v1/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	departure, err := time.Parse(time.RFC3339, req.DepartureTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid departure_time, expected RFC3339"})
		return
	}

	trip, err := h.tripService.Create(c.Request.Context(), service.CreateTripRequest{
		PassengerID:      req.PassengerID,
		PassengerName:    req.PassengerName,
		PassengerPhone:   req.PassengerPhone,
		OriginLabel:      req.OriginLabel,
		Origin:           geo.Point{Lat: req.OriginLat, Lng: req.OriginLng},
		DestinationLabel: req.DestinationLabel,
		Destination:      geo.Point{Lat: req.DestinationLat, Lng: req.DestinationLng},
		DepartureTime:    departure,
		Seats:            req.Seats,
		PricePerSeat:     domain.MoneyFromFloat(req.PricePerSeat),
		Notes:            req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// Get handles GET /v1/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetOpen handles GET /v1/trips/open
func (h *TripHandler) GetOpen(c *gin.Context) {
	trips, err := h.tripService.ListOpen(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, response)
}

// Accept handles POST /v1/trips/:id/accept
func (h *TripHandler) Accept(c *gin.Context) {
	var req AcceptTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	svcReq := service.AcceptTripRequest{
		TripID:      c.Param("id"),
		DriverID:    req.DriverID,
		DriverName:  req.DriverName,
		DriverPhone: req.DriverPhone,
	}
	if req.Lat != nil && req.Lng != nil {
		svcReq.DriverLocation = &geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	}

	trip, err := h.tripService.Accept(c.Request.Context(), svcReq)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Pay handles POST /v1/trips/:id/pay
func (h *TripHandler) Pay(c *gin.Context) {
	result, err := h.tripService.Pay(c.Request.Context(), service.PayTripRequest{
		TripID: c.Param("id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := PayTripResponse{Trip: toTripResponse(result.Trip)}
	if result.Payment != nil {
		info := toEntryInfo(result.Payment)
		response.Payment = &info
	}

	respondJSON(c, http.StatusOK, response)
}

// Start handles POST /v1/trips/:id/start
func (h *TripHandler) Start(c *gin.Context) {
	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.Start(c.Request.Context(), service.StartTripRequest{
		TripID:   c.Param("id"),
		DriverID: req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// Complete handles POST /v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	var req CompleteTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.tripService.Complete(c.Request.Context(), service.CompleteTripRequest{
		TripID:   c.Param("id"),
		DriverID: req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := SettlementResponse{
		Trip:          toTripResponse(result.Trip),
		Commission:    result.Commission.Float64(),
		InsuranceFee:  result.InsuranceFee.Float64(),
		DriverEarning: result.DriverEarning.Float64(),
	}
	if result.Earning != nil {
		info := toEntryInfo(result.Earning)
		response.Earning = &info
	}

	respondJSON(c, http.StatusOK, response)
}

// Receipt handles GET /v1/trips/:id/receipt
func (h *TripHandler) Receipt(c *gin.Context) {
	receipt, err := h.receiptService.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ReceiptResponse{
		TripID:           receipt.TripID,
		PassengerID:      receipt.PassengerID,
		DriverID:         receipt.DriverID,
		OriginLabel:      receipt.OriginLabel,
		DestinationLabel: receipt.DestinationLabel,
		DepartureTime:    receipt.DepartureTime.Format("2006-01-02T15:04:05Z07:00"),
		Seats:            receipt.Seats,
		PricePerSeat:     receipt.PricePerSeat.Float64(),
		Total:            receipt.Total.Float64(),
		Commission:       receipt.Commission.Float64(),
		InsuranceFee:     receipt.InsuranceFee.Float64(),
		DriverEarning:    receipt.DriverEarning.Float64(),
		DistanceKm:       receipt.DistanceKm,
		CompletedAt:      receipt.CompletedAt.Format("2006-01-02T15:04:05Z07:00"),
		Text:             h.receiptService.Format(receipt),
	})
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	trip, err := h.tripService.Cancel(c.Request.Context(), service.CancelTripRequest{
		TripID:      c.Param("id"),
		CancelledBy: req.CancelledBy,
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// UpdateLocation handles POST /v1/trips/:id/location
func (h *TripHandler) UpdateLocation(c *gin.Context) {
	var req TripLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	svcReq := service.UpdateTripLocationRequest{
		TripID:   c.Param("id"),
		DriverID: req.DriverID,
		Location: geo.Point{Lat: req.Lat, Lng: req.Lng},
	}
	if req.At != "" {
		at, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid at, expected RFC3339"})
			return
		}
		svcReq.At = at
	}

	trip, err := h.tripService.UpdateDriverLocation(c.Request.Context(), svcReq)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}
