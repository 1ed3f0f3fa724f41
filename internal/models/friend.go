package models

import "github.com/google/uuid"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directional proposal to establish a friendship.
// Accepted and rejected are terminal; only pending rows can be resolved.
type FriendRequest struct {
	BaseModel
	SenderID   uuid.UUID           `json:"senderID" gorm:"type:uuid;not null;index"`
	ReceiverID uuid.UUID           `json:"receiverID" gorm:"type:uuid;not null;index"`
	Status     FriendRequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	Sender   User `json:"sender,omitempty" gorm:"foreignKey:SenderID;references:ID"`
	Receiver User `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID;references:ID"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Friendship is one direction of a symmetric edge. Rows are always
// created and deleted in mirrored pairs inside a single transaction.
type Friendship struct {
	BaseModel
	UserID   uuid.UUID `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_friend"`
	FriendID uuid.UUID `json:"friendID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_friend"`

	Friend User `json:"friend,omitempty" gorm:"foreignKey:FriendID;references:ID"`
}

func (Friendship) TableName() string {
	return "friendships"
}
