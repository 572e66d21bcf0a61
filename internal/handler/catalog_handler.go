package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campus-shuttle/service-shuttle/internal/application"
	"github.com/campus-shuttle/service-shuttle/internal/platform/response"
)

// CatalogHandler serves stops, routes, transfer points and itinerary search.
type CatalogHandler struct {
	service *application.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers the public catalog routes. limits run before the
// itinerary endpoints.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, limits ...gin.HandlerFunc) {
	v1 := r.Group("/api/v1")
	{
		v1.GET("/stops", h.ListStops)
		v1.GET("/stops/nearby", h.NearbyStops)
		v1.GET("/routes", h.ListRoutes)
		v1.GET("/routes/:id", h.GetRoute)
		v1.GET("/transfer-points", h.ListTransferPoints)
	}

	itineraries := v1.Group("/itineraries")
	itineraries.Use(limits...)
	{
		itineraries.GET("", h.SearchItineraries)
		itineraries.GET("/optimal-transfer", h.OptimalTransfer)
		itineraries.GET("/best", h.BestRoute)
	}
}

// ListStops handles GET /api/v1/stops.
func (h *CatalogHandler) ListStops(c *gin.Context) {
	stops, err := h.service.ListStops(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stops)
}

// NearbyStops handles GET /api/v1/stops/nearby?lat=&lon=&limit=.
func (h *CatalogHandler) NearbyStops(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		response.BadRequest(c, "lat must be a number between -90 and 90")
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		response.BadRequest(c, "lon must be a number between -180 and 180")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	stops, err := h.service.NearbyStops(c.Request.Context(), lat, lon, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stops)
}

// ListRoutes handles GET /api/v1/routes.
func (h *CatalogHandler) ListRoutes(c *gin.Context) {
	routes, err := h.service.ListRoutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, routes)
}

// GetRoute handles GET /api/v1/routes/:id.
func (h *CatalogHandler) GetRoute(c *gin.Context) {
	routeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid route ID")
		return
	}

	route, err := h.service.GetRoute(c.Request.Context(), routeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, route)
}

// ListTransferPoints handles GET /api/v1/transfer-points.
func (h *CatalogHandler) ListTransferPoints(c *gin.Context) {
	tps, err := h.service.ListTransferPoints(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tps)
}

// SearchItineraries handles GET /api/v1/itineraries?origin=&destination=&strategy=.
func (h *CatalogHandler) SearchItineraries(c *gin.Context) {
	origin, destination, ok := parseEndpoints(c)
	if !ok {
		return
	}

	result, err := h.service.SearchItineraries(c.Request.Context(), application.SearchItinerariesRequest{
		Origin:      origin,
		Destination: destination,
		Strategy:    c.Query("strategy"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// OptimalTransfer handles GET /api/v1/itineraries/optimal-transfer. Data is
// null when no registered transfer connects the stops.
func (h *CatalogHandler) OptimalTransfer(c *gin.Context) {
	origin, destination, ok := parseEndpoints(c)
	if !ok {
		return
	}

	result, err := h.service.OptimalTransfer(c.Request.Context(), origin, destination)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// BestRoute handles GET /api/v1/itineraries/best.
func (h *CatalogHandler) BestRoute(c *gin.Context) {
	origin, destination, ok := parseEndpoints(c)
	if !ok {
		return
	}

	result, err := h.service.BestRoute(c.Request.Context(), origin, destination)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func parseEndpoints(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	origin, err := uuid.Parse(c.Query("origin"))
	if err != nil {
		response.BadRequest(c, "invalid origin stop ID")
		return uuid.Nil, uuid.Nil, false
	}
	destination, err := uuid.Parse(c.Query("destination"))
	if err != nil {
		response.BadRequest(c, "invalid destination stop ID")
		return uuid.Nil, uuid.Nil, false
	}
	return origin, destination, true
}
