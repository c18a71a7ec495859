package model

import "time"

// Category groups chores by area of the house (kitchen, yard, pets, etc.).
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	FamilyID  uint   `gorm:"index:idx_family_category_name,unique"`
	Name      string `gorm:"index:idx_family_category_name,unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:CategoryID"`
}
