package models

import (
	"time"
)

type Exercise struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"size:255;not null"`
	Description string `json:"description" gorm:"type:text"`
}

type Workout struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"userId" gorm:"not null;index"`
	WorkoutType string     `json:"workoutType" gorm:"size:255;not null"`
	Duration    *int       `json:"duration"`
	Done        bool       `json:"done"`
	Date        *time.Time `json:"date"`

	User      User       `json:"-" gorm:"foreignKey:UserID"`
	Exercises []Exercise `json:"exercises" gorm:"many2many:workout_exercises"`
}

type GoalType struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:255;not null"`
}

type Goal struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"userId" gorm:"not null;index"`
	GoalTypeID  uint       `json:"goalTypeId" gorm:"not null"`
	TargetValue float64    `json:"targetValue"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`

	User     User     `json:"-" gorm:"foreignKey:UserID"`
	GoalType GoalType `json:"goalType" gorm:"foreignKey:GoalTypeID"`
}

func (Exercise) TableName() string {
	return "exercises"
}

func (Workout) TableName() string {
	return "workouts"
}

func (GoalType) TableName() string {
	return "goal_types"
}

func (Goal) TableName() string {
	return "goals"
}
