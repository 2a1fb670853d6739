package models

import (
	"time"
)

type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserName       string     `json:"userName" gorm:"size:100;not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string     `json:"-" gorm:"not null"`
	FirstName      string     `json:"firstName" gorm:"size:100"`
	LastName       string     `json:"lastName" gorm:"size:100"`
	PhoneNumber    string     `json:"phoneNumber" gorm:"size:32"`
	DateOfBirth    *time.Time `json:"dateOfBirth"`
	ProfilePicture string     `json:"profilePicture"`
	DateOfCreate   time.Time  `json:"dateOfCreate"`
}

// FriendshipStatus values are persisted as integers; do not reorder.
type FriendshipStatus int

const (
	FriendshipRequested FriendshipStatus = iota
	FriendshipAccepted
	FriendshipDeclined
)

func (s FriendshipStatus) String() string {
	switch s {
	case FriendshipRequested:
		return "Requested"
	case FriendshipAccepted:
		return "Accepted"
	case FriendshipDeclined:
		return "Declined"
	default:
		return "Unknown"
	}
}

// Friendship is one directed edge. A resolved relationship is stored as two
// rows, one per direction, both carrying the same status.
type Friendship struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"userId" gorm:"not null;uniqueIndex:idx_friendship_pair"`
	FriendID  uint             `json:"friendId" gorm:"not null;uniqueIndex:idx_friendship_pair;index"`
	Status    FriendshipStatus `json:"status" gorm:"not null"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt *time.Time       `json:"updatedAt" gorm:"autoUpdateTime:false"`

	User   User `json:"-" gorm:"foreignKey:UserID"`
	Friend User `json:"-" gorm:"foreignKey:FriendID"`
}

func (User) TableName() string {
	return "users"
}

func (Friendship) TableName() string {
	return "friendships"
}
