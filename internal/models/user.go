package models

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

type User struct {
	BaseModel
	Username     string   `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	AvatarURL    *string  `json:"avatarURL,omitempty" gorm:"type:text"`

	Projects         []Project       `json:"-" gorm:"foreignKey:OwnerID"`
	Memberships      []ProjectMember `json:"-" gorm:"foreignKey:UserID"`
	Friendships      []Friendship    `json:"-" gorm:"foreignKey:UserID"`
	ReceivedRequests []FriendRequest `json:"-" gorm:"foreignKey:ReceiverID"`
}
