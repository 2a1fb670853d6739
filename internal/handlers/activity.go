package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/pkg/logger"
)

type ActivityHandler struct {
	activityService *services.ActivityService
	logger          *logger.Logger
}

func NewActivityHandler(activityService *services.ActivityService, logger *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

func (h *ActivityHandler) CreateWorkout(c *gin.Context) {
	var req services.CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !actingAs(c, h.logger, req.UserID) {
		return
	}

	workout, err := h.activityService.CreateWorkout(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, workout)
}

func (h *ActivityHandler) GetWorkout(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	workout, err := h.activityService.GetWorkout(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, workout)
}

func (h *ActivityHandler) DeleteWorkout(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	workout, err := h.activityService.GetWorkout(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !actingAs(c, h.logger, workout.UserID) {
		return
	}

	if err := h.activityService.DeleteWorkout(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ActivityHandler) AddExerciseToWorkout(c *gin.Context) {
	workoutID, ok := uintQuery(c, "workoutId")
	if !ok {
		return
	}
	exerciseID, ok := uintQuery(c, "exerciseId")
	if !ok {
		return
	}

	workout, err := h.activityService.GetWorkout(c.Request.Context(), workoutID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !actingAs(c, h.logger, workout.UserID) {
		return
	}

	if err := h.activityService.AddExerciseToWorkout(c.Request.Context(), workoutID, exerciseID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exercise added to workout"})
}

func (h *ActivityHandler) CreateExercise(c *gin.Context) {
	var req services.CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exercise, err := h.activityService.CreateExercise(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, exercise)
}

func (h *ActivityHandler) GetExercise(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	exercise, err := h.activityService.GetExercise(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, exercise)
}

func (h *ActivityHandler) CreateGoalType(c *gin.Context) {
	var req services.CreateGoalTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goalType, err := h.activityService.CreateGoalType(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, goalType)
}

func (h *ActivityHandler) CreateGoal(c *gin.Context) {
	var req services.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !actingAs(c, h.logger, req.UserID) {
		return
	}

	goal, err := h.activityService.CreateGoal(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, goal)
}

func (h *ActivityHandler) GetGoal(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	goal, err := h.activityService.GetGoal(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

func (h *ActivityHandler) GetUserGoals(c *gin.Context) {
	userID, ok := uintParam(c, "userId")
	if !ok {
		return
	}

	goals, err := h.activityService.GetUserGoals(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, goals)
}
