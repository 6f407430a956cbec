package models

import (
	"time"
)

type Task struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	ProjectID uint64     `gorm:"not null;index" json:"project_id"`
	CreatorID uint64     `gorm:"not null" json:"creator_id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Completed bool       `gorm:"not null;default:false;index" json:"completed"`
	Priority  Priority   `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Due       *time.Time `json:"due"`
	// Order is the project scoped sort key. Duplicates are possible under
	// concurrent appends; ties are broken by creation time.
	Order     int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Creator User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}
