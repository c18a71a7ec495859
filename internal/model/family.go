package model

import "time"

// Family is the tenant every chore and member belongs to.
type Family struct {
	ID         uint `gorm:"primaryKey"`
	Name       string
	Timezone   string
	InviteCode string `gorm:"uniqueIndex"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Members    []Member `gorm:"foreignKey:FamilyID"`
}

// Location returns the family's time zone, UTC when unset or unknown.
func (f Family) Location() *time.Location {
	if f.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Member stores Telegram user metadata for one family member.
type Member struct {
	ID         uint  `gorm:"primaryKey"`
	FamilyID   uint  `gorm:"index"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	IsParent   bool `gorm:"default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DisplayName is the shortest readable name for the member.
func (m Member) DisplayName() string {
	switch {
	case m.FirstName != "":
		return m.FirstName
	case m.Username != "":
		return "@" + m.Username
	default:
		return "member"
	}
}
