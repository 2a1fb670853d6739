package services

import (
	"context"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/logger"
)

// ActivityService 运动记录与目标管理
type ActivityService struct {
	workoutRepo  *repository.WorkoutRepository
	exerciseRepo *repository.ExerciseRepository
	goalRepo     *repository.GoalRepository
	userRepo     *repository.UserRepository
	logger       *logger.Logger
}

func NewActivityService(
	workoutRepo *repository.WorkoutRepository,
	exerciseRepo *repository.ExerciseRepository,
	goalRepo *repository.GoalRepository,
	userRepo *repository.UserRepository,
	logger *logger.Logger,
) *ActivityService {
	return &ActivityService{
		workoutRepo:  workoutRepo,
		exerciseRepo: exerciseRepo,
		goalRepo:     goalRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

type CreateWorkoutRequest struct {
	UserID      uint       `json:"userId" binding:"required"`
	WorkoutType string     `json:"workoutType" binding:"required,max=255"`
	Duration    *int       `json:"duration" binding:"omitempty,min=0"`
	Done        bool       `json:"done"`
	Date        *time.Time `json:"date"`
}

type CreateExerciseRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

type CreateGoalRequest struct {
	UserID      uint       `json:"userId" binding:"required"`
	GoalTypeID  uint       `json:"goalTypeId" binding:"required"`
	TargetValue float64    `json:"targetValue"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
}

type CreateGoalTypeRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

func (s *ActivityService) CreateWorkout(ctx context.Context, req *CreateWorkoutRequest) (*models.Workout, error) {
	if err := requireUsers(ctx, s.userRepo, req.UserID); err != nil {
		return nil, err
	}

	workout := &models.Workout{
		UserID:      req.UserID,
		WorkoutType: req.WorkoutType,
		Duration:    req.Duration,
		Done:        req.Done,
		Date:        req.Date,
		Exercises:   []models.Exercise{},
	}
	if err := s.workoutRepo.Create(ctx, workout); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":    workout.UserID,
		"workout_id": workout.ID,
	}).Info("Workout created")
	return workout, nil
}

func (s *ActivityService) GetWorkout(ctx context.Context, id uint) (*models.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workout == nil {
		return nil, notFound(ErrWorkoutNotFound, id)
	}
	return workout, nil
}

func (s *ActivityService) DeleteWorkout(ctx context.Context, id uint) error {
	workout, err := s.GetWorkout(ctx, id)
	if err != nil {
		return err
	}
	if err := s.workoutRepo.Delete(ctx, workout); err != nil {
		return err
	}

	s.logger.WithField("workout_id", id).Info("Workout deleted")
	return nil
}

// AddExerciseToWorkout reports a missing workout before a missing exercise.
func (s *ActivityService) AddExerciseToWorkout(ctx context.Context, workoutID, exerciseID uint) error {
	workout, err := s.GetWorkout(ctx, workoutID)
	if err != nil {
		return err
	}

	exercise, err := s.GetExercise(ctx, exerciseID)
	if err != nil {
		return err
	}

	linked, err := s.workoutRepo.HasExercise(ctx, workout.ID, exercise.ID)
	if err != nil {
		return err
	}
	if linked {
		return ErrExerciseAlreadyInWorkout
	}

	if err := s.workoutRepo.AddExercise(ctx, workout, exercise); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"workout_id":  workoutID,
		"exercise_id": exerciseID,
	}).Info("Exercise added to workout")
	return nil
}

func (s *ActivityService) CreateExercise(ctx context.Context, req *CreateExerciseRequest) (*models.Exercise, error) {
	exercise := &models.Exercise{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.exerciseRepo.Create(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

func (s *ActivityService) GetExercise(ctx context.Context, id uint) (*models.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exercise == nil {
		return nil, notFound(ErrExerciseNotFound, id)
	}
	return exercise, nil
}

func (s *ActivityService) CreateGoalType(ctx context.Context, req *CreateGoalTypeRequest) (*models.GoalType, error) {
	goalType := &models.GoalType{Name: req.Name}
	if err := s.goalRepo.CreateType(ctx, goalType); err != nil {
		return nil, err
	}
	return goalType, nil
}

func (s *ActivityService) CreateGoal(ctx context.Context, req *CreateGoalRequest) (*models.Goal, error) {
	if err := requireUsers(ctx, s.userRepo, req.UserID); err != nil {
		return nil, err
	}

	goalType, err := s.goalRepo.GetTypeByID(ctx, req.GoalTypeID)
	if err != nil {
		return nil, err
	}
	if goalType == nil {
		return nil, notFound(ErrGoalTypeNotFound, req.GoalTypeID)
	}

	goal := &models.Goal{
		UserID:      req.UserID,
		GoalTypeID:  goalType.ID,
		TargetValue: req.TargetValue,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.goalRepo.Create(ctx, goal); err != nil {
		return nil, err
	}
	goal.GoalType = *goalType

	s.logger.WithFields(map[string]interface{}{
		"user_id": goal.UserID,
		"goal_id": goal.ID,
	}).Info("Goal created")
	return goal, nil
}

func (s *ActivityService) GetGoal(ctx context.Context, id uint) (*models.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, notFound(ErrGoalNotFound, id)
	}
	return goal, nil
}

func (s *ActivityService) GetUserGoals(ctx context.Context, userID uint) ([]models.Goal, error) {
	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	return s.goalRepo.GetByUserID(ctx, userID)
}
