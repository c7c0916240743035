package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/viniciusfeitosa/europython2018/pkg/cqrs"
	"github.com/viniciusfeitosa/europython2018/pkg/middleware"
	"github.com/viniciusfeitosa/europython2018/pkg/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// CommandService defines the write-path surface the HTTP layer needs.
type CommandService interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest, correlationID string) (models.User, error)
}

// QueryService defines the read-path surface the HTTP layer needs.
type QueryService interface {
	GetUser(ctx context.Context, id string) (models.UserView, error)
	GetAllUsers(ctx context.Context, page, limit int) ([]models.UserView, error)
	GetUsersByPermission(ctx context.Context, permission string) (models.PermissionGroupView, error)
}

// UserHandler handles user-related HTTP requests. Writes go to the command
// service, reads to the query service; the two never meet here.
type UserHandler struct {
	Commands CommandService
	Queries  QueryService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(commands CommandService, queries QueryService) *UserHandler {
	return &UserHandler{Commands: commands, Queries: queries}
}

// CreateUser godoc
// @Summary      Create a new user
// @Description  Persists a user and publishes user.created (and, with a permission, permission.user_related) events
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateUserRequest  true  "Create user request"
// @Success      201      {object}  models.User
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      503      {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	log.Printf("[API] CreateUser correlation_id=%s", correlationID)

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Commands.CreateUser(c.Request.Context(), req, correlationID)
	if err != nil {
		log.Printf("[API] Error creating user: %v correlation_id=%s", err, correlationID)
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	log.Printf("[API] User created: id=%s email=%s correlation_id=%s", user.ID, user.Email, correlationID)
	c.JSON(http.StatusCreated, user)
}

// GetUser godoc
// @Summary      Get a user by ID
// @Description  Returns the projected user view; 404 while projection lags
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  models.UserView
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")

	view, err := h.Queries.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListUsers godoc
// @Summary      List user views
// @Description  Returns one offset-based page of projected user views
// @Tags         users
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 10)"
// @Success      200    {array}   models.UserView
// @Failure      400    {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	page := intQuery(c, "page", defaultPage)
	limit := intQuery(c, "limit", defaultLimit)

	views, err := h.Queries.GetAllUsers(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, views)
}

// GetUsersByPermission godoc
// @Summary      Get the users holding a permission
// @Description  Returns the projected permission group with embedded user snapshots
// @Tags         permissions
// @Produce      json
// @Param        permission  path      string  true  "Permission name"
// @Success      200         {object}  models.PermissionGroupView
// @Failure      404         {object}  map[string]string
// @Router       /permissions/{permission}/users [get]
func (h *UserHandler) GetUsersByPermission(c *gin.Context) {
	permission := c.Param("permission")

	group, err := h.Queries.GetUsersByPermission(c.Request.Context(), permission)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, group)
}

// errorStatus maps the shared error taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, cqrs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, cqrs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cqrs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, cqrs.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
