package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/comparaprecios/backend/internal/domain"
	"github.com/comparaprecios/backend/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	prices *usecase.PriceService
	logger zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(prices *usecase.PriceService, logger zerolog.Logger) *Handler {
	return &Handler{
		prices: prices,
		logger: logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "comparaprecios-backend",
		"version": Version,
	})
}

// Compare handles GET /compare/:name
func (h *Handler) Compare(c *gin.Context) {
	result, err := h.prices.Compare(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompareAll handles GET /compare-all
func (h *Handler) CompareAll(c *gin.Context) {
	results, err := h.prices.CompareAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// CompareList handles POST /compare-list
func (h *Handler) CompareList(c *gin.Context) {
	var request domain.CompareListRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.prices.CompareList(c.Request.Context(), &request)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchNames handles GET /names/:prefix
func (h *Handler) SearchNames(c *gin.Context) {
	names, err := h.prices.SearchNames(c.Request.Context(), c.Param("prefix"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// ListListings handles GET /listings?prefix=
func (h *Handler) ListListings(c *gin.Context) {
	listings, err := h.prices.SearchListings(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// CreateListing handles POST /listings
func (h *Handler) CreateListing(c *gin.Context) {
	var request domain.CreateListingRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	listing, err := h.prices.AddListing(c.Request.Context(), &request)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// DeleteListing handles DELETE /listings/:id
func (h *Handler) DeleteListing(c *gin.Context) {
	if err := h.prices.DeleteListing(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportListings handles POST /listings/import with a multipart "file" field
func (h *Handler) ImportListings(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	imported, err := h.prices.ImportListings(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

// respondError maps domain errors to status codes; anything unrecognised is a logged 500
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": errorMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrReadOnlyCatalog):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage hides wrapped storage details behind the catalog sentinel
func errorMessage(err error) string {
	if errors.Is(err, domain.ErrCatalogUnavailable) {
		return domain.ErrCatalogUnavailable.Error()
	}
	return strings.TrimSpace(err.Error())
}
