package demo

import (
	"net/http"
	"strconv"
	"time"

	"gormscope"

	"github.com/labstack/echo/v4"
)

// Server holds the HTTP handlers for the user API.
// Every handler works inside the request scope opened by gormscope.Middleware,
// so writes are committed (or rolled back) when the request finishes.
type Server struct {
	db *gormscope.DB
}

// NewServer creates the HTTP server over a scope-managed database handle.
func NewServer(db *gormscope.DB) *Server {
	return &Server{db: db}
}

// RegisterRoutes mounts the user API onto the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)
	e.GET("/api/v1/users", s.GetUsers)
	e.POST("/api/v1/users", s.CreateUser)
	e.GET("/api/v1/users/:id", s.GetUser)
	e.DELETE("/api/v1/users/:id", s.DeleteUser)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// GetUsers handles GET /api/v1/users - retrieves all users.
func (s *Server) GetUsers(ctx echo.Context) error {
	var users []User
	err := s.db.Scalars(ctx.Request().Context(), &users,
		gormscope.Stmt("SELECT * FROM users ORDER BY id"))
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve users",
		})
	}

	return ctx.JSON(http.StatusOK, users)
}

// CreateUser handles POST /api/v1/users - creates a new user.
func (s *Server) CreateUser(ctx echo.Context) error {
	var user User
	if err := ctx.Bind(&user); err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if user.Username == "" {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Username is required",
		})
	}

	user.ID = 0
	user.LastSeenAt = time.Now().UTC()

	// The request scope owns the commit, so a later handler failure would
	// roll this insert back together with everything else in the request.
	reqCtx := ctx.Request().Context()
	if err := s.db.Session(reqCtx).Create(reqCtx, &user); err != nil {
		return ctx.JSON(http.StatusConflict, errorResponse{
			Code:    http.StatusConflict,
			Message: "Failed to create user",
		})
	}

	return ctx.JSON(http.StatusCreated, user)
}

// GetUser handles GET /api/v1/users/:id - retrieves a single user.
func (s *Server) GetUser(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid user id",
		})
	}

	reqCtx := ctx.Request().Context()
	user := User{ID: uint(id)}
	found, err := s.db.Session(reqCtx).Get(reqCtx, &user)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve user",
		})
	}
	if !found {
		return ctx.JSON(http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: "User not found",
		})
	}

	return ctx.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /api/v1/users/:id - removes a user.
func (s *Server) DeleteUser(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid user id",
		})
	}

	reqCtx := ctx.Request().Context()
	user := User{ID: uint(id)}
	found, err := s.db.Session(reqCtx).Get(reqCtx, &user)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve user",
		})
	}
	if !found {
		return ctx.JSON(http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: "User not found",
		})
	}

	if err := s.db.Session(reqCtx).Delete(reqCtx, &user); err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to delete user",
		})
	}

	return ctx.NoContent(http.StatusNoContent)
}
