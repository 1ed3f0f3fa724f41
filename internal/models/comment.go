package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	BaseModel
	ProjectID uuid.UUID  `json:"projectID" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `json:"userID" gorm:"type:uuid;not null;index"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	ParentID  *uuid.UUID `json:"parentID,omitempty" gorm:"type:uuid;index"`
	Edited    bool       `json:"edited" gorm:"not null;default:false"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`

	User    User      `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
	Parent  *Comment  `json:"-" gorm:"foreignKey:ParentID"`
	Replies []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
}

func (Comment) TableName() string {
	return "comments"
}
