package services

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrLikeNotFound       = errors.New("like not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrWorkoutNotFound    = errors.New("workout not found")
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrGoalNotFound       = errors.New("goal not found")
	ErrGoalTypeNotFound   = errors.New("goal type not found")

	ErrFriendshipAlreadyExists  = errors.New("friendship already exists")
	ErrLikeAlreadyExists        = errors.New("like already exists")
	ErrExerciseAlreadyInWorkout = errors.New("exercise already exists in workout")
	ErrEmailTaken               = errors.New("email already exists")

	// ErrNullPage covers both "past the last page" and "nothing to show".
	ErrNullPage = errors.New("page is empty")

	ErrInvalidPage        = errors.New("invalid page number or page size")
	ErrSelfFriendship     = errors.New("cannot befriend yourself")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmptyMessage       = errors.New("message text is empty")
	ErrForbidden          = errors.New("not allowed to act for another user")
)

func notFound(kind error, id uint) error {
	return fmt.Errorf("%w: %d", kind, id)
}
