package models

import (
	"time"
)

type Post struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"userId" gorm:"not null;index"`
	Content      string    `json:"content" gorm:"size:2500;not null"`
	ImageURL     *string   `json:"imageUrl"`
	DateOfCreate time.Time `json:"dateOfCreate" gorm:"index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// Comment forms a tree through ParentCommentID. Nothing cascades at the
// database level; subtrees are removed by the repository.
type Comment struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	PostID          uint      `json:"postId" gorm:"not null;index"`
	UserID          uint      `json:"userId" gorm:"not null;index"`
	ParentCommentID *uint     `json:"parentCommentId" gorm:"index"`
	Content         string    `json:"content" gorm:"size:1000;not null"`
	DateOfCreate    time.Time `json:"dateOfCreate"`

	User User `json:"-" gorm:"foreignKey:UserID"`
	Post Post `json:"-" gorm:"foreignKey:PostID"`
}

type Like struct {
	UserID uint `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	PostID uint `json:"postId" gorm:"primaryKey;autoIncrement:false;index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
	Post Post `json:"-" gorm:"foreignKey:PostID"`
}

type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserIDFrom uint      `json:"userIdFrom" gorm:"not null;index:idx_message_direction"`
	UserIDTo   uint      `json:"userIdTo" gorm:"not null;index:idx_message_direction"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	SendTime   time.Time `json:"sendTime" gorm:"index"`
	IsReaded   bool      `json:"isReaded" gorm:"not null;default:false"`
}

func (Post) TableName() string {
	return "posts"
}

func (Like) TableName() string {
	return "likes"
}

func (Comment) TableName() string {
	return "comments"
}

func (Message) TableName() string {
	return "messages"
}
