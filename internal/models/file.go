package models

import "github.com/google/uuid"

type FileEntryType string

const (
	EntryTypeFile   FileEntryType = "file"
	EntryTypeFolder FileEntryType = "folder"
)

// ProjectFile is one entry in a project's virtual tree. Hierarchy is
// implied by the Path string ("/", "/src", "/src/util"); folders carry
// no object in storage. Uniqueness is scoped per (project, path, name,
// type), so a file and a folder may share a name at the same level.
type ProjectFile struct {
	BaseModel
	ProjectID   uuid.UUID     `json:"projectID" gorm:"type:uuid;not null;index;index:idx_project_path"`
	Name        string        `json:"name" gorm:"type:varchar(255);not null"`
	Path        string        `json:"path" gorm:"type:text;not null;index:idx_project_path"`
	Type        FileEntryType `json:"type" gorm:"type:varchar(10);not null"`
	MimeType    string        `json:"mimeType" gorm:"type:varchar(255);not null;default:''"`
	Size        int64         `json:"size" gorm:"not null;default:0"`
	StoragePath string        `json:"-" gorm:"type:text;not null;default:''"`
	CreatedByID uuid.UUID     `json:"createdByID" gorm:"type:uuid;not null"`

	CreatedBy User `json:"createdBy,omitempty" gorm:"foreignKey:CreatedByID;references:ID"`
}

func (ProjectFile) TableName() string {
	return "project_files"
}

func (f *ProjectFile) IsFolder() bool {
	return f.Type == EntryTypeFolder
}

// FullPath is the path of entries nested directly inside this folder.
func (f *ProjectFile) FullPath() string {
	if f.Path == "/" {
		return "/" + f.Name
	}
	return f.Path + "/" + f.Name
}
