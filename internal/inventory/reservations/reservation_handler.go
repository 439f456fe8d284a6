package reservations

import (
	"context"
	"net/http"

	"semprejoias/internal/middleware"
	"semprejoias/internal/store"
	"semprejoias/pkg/models"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest, actor models.Actor) (*CreateReservationResult, error)
	DeleteReservation(ctx context.Context, id string, actor models.Actor) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter store.Filter) ([]models.Reservation, error)
}

type ReservationHandler struct {
	service Service
	logger  *zap.Logger
}

func NewReservationHandler(s Service, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{service: s, logger: logger}
}

func (h *ReservationHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/reservations", h.CreateReservation)
	router.GET("/reservations", h.ListReservations)
	router.GET("/reservations/:id", h.GetReservation)
	router.DELETE("/reservations/:id", h.DeleteReservation)
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.service.CreateReservation(c.Request.Context(), req, security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to create reservation", err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *ReservationHandler) ListReservations(c *gin.Context) {
	var filter store.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	reservations, err := h.service.ListReservations(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to fetch reservations", err)
		return
	}

	c.JSON(http.StatusOK, reservations)
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	reservation, err := h.service.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to fetch reservation", err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.DeleteReservation(c.Request.Context(), id, security.ActorFromContext(c)); err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to delete reservation", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted successfully"})
}
