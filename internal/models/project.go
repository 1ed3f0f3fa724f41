package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	BaseModel
	Name           string     `json:"name" gorm:"type:varchar(150);not null"`
	Description    *string    `json:"description,omitempty" gorm:"type:text"`
	OwnerID        uuid.UUID  `json:"ownerID" gorm:"type:uuid;not null;index"`
	CheckedOutByID *uuid.UUID `json:"checkedOutByID,omitempty" gorm:"type:uuid"`
	SessionChanges ChangeSet  `json:"sessionChanges" gorm:"type:jsonb;serializer:json"`

	Owner    User            `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Members  []ProjectMember `json:"members,omitempty" gorm:"foreignKey:ProjectID"`
	Files    []ProjectFile   `json:"-" gorm:"foreignKey:ProjectID"`
	Checkins []Checkin       `json:"-" gorm:"foreignKey:ProjectID"`
	Comments []Comment       `json:"-" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}

type ProjectMemberRole string

const (
	MemberRoleAdmin        ProjectMemberRole = "admin"
	MemberRoleCollaborator ProjectMemberRole = "collaborator"
	MemberRoleViewer       ProjectMemberRole = "viewer"
)

type ProjectMember struct {
	BaseModel
	ProjectID uuid.UUID         `json:"projectID" gorm:"type:uuid;not null;index;uniqueIndex:idx_project_user"`
	UserID    uuid.UUID         `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_project_user"`
	Role      ProjectMemberRole `json:"role" gorm:"type:varchar(20);not null;default:'viewer'"`
	JoinedAt  time.Time         `json:"joinedAt" gorm:"not null"`

	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
	Project Project `json:"-" gorm:"foreignKey:ProjectID;references:ID"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

// ChangeSet is the per-project ledger of file names touched since the
// last checkin. A name lives in at most one of the three lists.
type ChangeSet struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// Record notes an operation on name, dropping any earlier entry for the
// same name so the latest operation wins.
func (c *ChangeSet) Record(kind ChangeKind, name string) {
	c.Added = removeName(c.Added, name)
	c.Modified = removeName(c.Modified, name)
	c.Deleted = removeName(c.Deleted, name)

	switch kind {
	case ChangeAdded:
		c.Added = append(c.Added, name)
	case ChangeModified:
		c.Modified = append(c.Modified, name)
	case ChangeDeleted:
		c.Deleted = append(c.Deleted, name)
	}
}

func (c *ChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

func removeName(names []string, name string) []string {
	filtered := names[:0]
	for _, n := range names {
		if n != name {
			filtered = append(filtered, n)
		}
	}
	return filtered
}
