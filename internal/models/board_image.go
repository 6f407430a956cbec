package models

import "time"

// BoardImage references a media blob pinned to a project's board. The blob
// itself lives in external object storage under PublicID.
type BoardImage struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	ProjectID  uint64    `gorm:"not null;index" json:"project_id"`
	URL        string    `gorm:"type:varchar(1024);not null" json:"url"`
	PublicID   string    `gorm:"type:varchar(255);not null" json:"public_id"`
	UploadedBy uint64    `gorm:"not null" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
