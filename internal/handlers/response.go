package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/healthtracker/healthtracker/internal/middleware"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/logger"
)

var notFoundErrors = []error{
	services.ErrUserNotFound,
	services.ErrPostNotFound,
	services.ErrCommentNotFound,
	services.ErrFriendshipNotFound,
	services.ErrLikeNotFound,
	services.ErrMessageNotFound,
	services.ErrWorkoutNotFound,
	services.ErrExerciseNotFound,
	services.ErrGoalNotFound,
	services.ErrNullPage,
	// exercise already linked is reported as 404 for client compatibility
	services.ErrExerciseAlreadyInWorkout,
}

var badRequestErrors = []error{
	services.ErrLikeAlreadyExists,
	services.ErrGoalTypeNotFound,
	services.ErrInvalidPage,
	services.ErrSelfFriendship,
	services.ErrEmptyMessage,
}

func errorStatus(err error) int {
	for _, kind := range notFoundErrors {
		if errors.Is(err, kind) {
			return http.StatusNotFound
		}
	}
	for _, kind := range badRequestErrors {
		if errors.Is(err, kind) {
			return http.StatusBadRequest
		}
	}

	var writeErr *repository.WriteError
	switch {
	case errors.Is(err, services.ErrFriendshipAlreadyExists), errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &writeErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status of its kind. Unknown errors are
// logged and hidden behind a generic message.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	status := errorStatus(err)

	var writeErr *repository.WriteError
	switch {
	case status == http.StatusInternalServerError:
		log.WithError(err).WithField("path", c.FullPath()).Error("Unhandled request error")
		c.JSON(status, gin.H{"error": "Internal server error"})
	case errors.As(err, &writeErr):
		log.WithError(err).Warn("Database write rejected")
		c.JSON(status, gin.H{"error": "Database error", "detail": writeErr.Err.Error()})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// uintParam reads a positive id from the path.
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func uintQuery(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// pageQuery reads page and size query parameters. Missing values fall back
// to page 1 and defaultSize; range checks are left to the services.
func pageQuery(c *gin.Context, pageKey, sizeKey string, defaultSize int) (int, int, bool) {
	page, size := 1, defaultSize
	if v := c.Query(pageKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid %s", pageKey))
			return 0, 0, false
		}
		page = n
	}
	if v := c.Query(sizeKey); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid %s", sizeKey))
			return 0, 0, false
		}
		size = n
	}
	return page, size, true
}

// actingAs rejects requests that act on behalf of someone other than the
// authenticated user.
func actingAs(c *gin.Context, log *logger.Logger, userID uint) bool {
	if middleware.GetUserID(c) != userID {
		writeError(c, log, services.ErrForbidden)
		return false
	}
	return true
}
