package repository

import (
	"context"
	"fmt"

	"github.com/healthtracker/healthtracker/internal/models"
	"gorm.io/gorm"
)

type WorkoutRepository struct {
	db *gorm.DB
}

func NewWorkoutRepository(db *gorm.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) Create(ctx context.Context, workout *models.Workout) error {
	if err := r.db.WithContext(ctx).Omit("Exercises").Create(workout).Error; err != nil {
		return writeErr("create workout", err)
	}
	return nil
}

func (r *WorkoutRepository) GetByID(ctx context.Context, id uint) (*models.Workout, error) {
	var workout models.Workout
	if err := r.db.WithContext(ctx).
		Preload("Exercises").
		First(&workout, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workout: %w", err)
	}
	return &workout, nil
}

// Delete clears the exercise links before removing the workout.
func (r *WorkoutRepository) Delete(ctx context.Context, workout *models.Workout) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(workout).Association("Exercises").Clear(); err != nil {
			return writeErr("clear workout exercises", err)
		}
		if err := tx.Delete(&models.Workout{}, workout.ID).Error; err != nil {
			return writeErr("delete workout", err)
		}
		return nil
	})
}

func (r *WorkoutRepository) HasExercise(ctx context.Context, workoutID, exerciseID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("workout_exercises").
		Where("workout_id = ? AND exercise_id = ?", workoutID, exerciseID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check workout exercise: %w", err)
	}
	return count > 0, nil
}

func (r *WorkoutRepository) AddExercise(ctx context.Context, workout *models.Workout, exercise *models.Exercise) error {
	if err := r.db.WithContext(ctx).Model(workout).Association("Exercises").Append(exercise); err != nil {
		return writeErr("add exercise to workout", err)
	}
	return nil
}

type ExerciseRepository struct {
	db *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise *models.Exercise) error {
	if err := r.db.WithContext(ctx).Create(exercise).Error; err != nil {
		return writeErr("create exercise", err)
	}
	return nil
}

func (r *ExerciseRepository) GetByID(ctx context.Context, id uint) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := r.db.WithContext(ctx).First(&exercise, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}
	return &exercise, nil
}

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	if err := r.db.WithContext(ctx).Omit("GoalType").Create(goal).Error; err != nil {
		return writeErr("create goal", err)
	}
	return nil
}

func (r *GoalRepository) GetByID(ctx context.Context, id uint) (*models.Goal, error) {
	var goal models.Goal
	if err := r.db.WithContext(ctx).
		Preload("GoalType").
		First(&goal, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &goal, nil
}

func (r *GoalRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Goal, error) {
	goals := make([]models.Goal, 0)
	if err := r.db.WithContext(ctx).
		Preload("GoalType").
		Where("user_id = ?", userID).
		Order("id").
		Find(&goals).Error; err != nil {
		return nil, fmt.Errorf("failed to get goals by user: %w", err)
	}
	return goals, nil
}

func (r *GoalRepository) CreateType(ctx context.Context, goalType *models.GoalType) error {
	if err := r.db.WithContext(ctx).Create(goalType).Error; err != nil {
		return writeErr("create goal type", err)
	}
	return nil
}

func (r *GoalRepository) GetTypeByID(ctx context.Context, id uint) (*models.GoalType, error) {
	var goalType models.GoalType
	if err := r.db.WithContext(ctx).First(&goalType, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get goal type: %w", err)
	}
	return &goalType, nil
}
