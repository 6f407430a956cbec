package models

import (
	"time"

	"gorm.io/gorm"
)

type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"

	DefaultSideMenuColor = "rgba(255, 255, 255, 1)"
)

func (m ThemeMode) Valid() bool {
	return m == ThemeLight || m == ThemeDark
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"type:varchar(255);not null" json:"full_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`

	// Profile
	BirthMonth    string    `gorm:"type:varchar(20);not null;default:''" json:"birth_month"`
	BirthDay      string    `gorm:"type:varchar(10);not null;default:''" json:"birth_day"`
	BirthYear     string    `gorm:"type:varchar(10);not null;default:''" json:"birth_year"`
	Gender        string    `gorm:"type:varchar(50);not null;default:''" json:"gender"`
	SideMenuColor string    `gorm:"type:varchar(50);not null;default:'rgba(255, 255, 255, 1)'" json:"side_menu_color"`
	ThemeMode     ThemeMode `gorm:"type:varchar(10);not null;default:'light'" json:"theme_mode"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Projects []UserProject `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate fills the UI preferences the database default cannot express
// portably.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.SideMenuColor == "" {
		u.SideMenuColor = DefaultSideMenuColor
	}
	if u.ThemeMode == "" {
		u.ThemeMode = ThemeLight
	}
	return nil
}

// ProjectIDs returns the IDs of the loaded project back-references.
func (u *User) ProjectIDs() []uint64 {
	ids := make([]uint64, len(u.Projects))
	for i, p := range u.Projects {
		ids[i] = p.ProjectID
	}
	return ids
}
