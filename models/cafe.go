package models

import "time"

// Cafe is the tenant boundary: it owns users and orders, never products.
type Cafe struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"uniqueIndex;not null"`
	APIKey string `gorm:"column:api_key;uniqueIndex"`
}

func (c *Cafe) TableName() string {
	return "cafes"
}

// CafeUser is a login account belonging to a cafe. Accounts are created by
// provisioning; the API only ever reads them.
type CafeUser struct {
	ID           uint   `gorm:"primaryKey"`
	CafeID       uint   `gorm:"not null;index"`
	Cafe         Cafe   `gorm:"foreignKey:CafeID"`
	Login        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Phone        string
	IsAdmin      bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

func (u *CafeUser) TableName() string {
	return "cafe_users"
}
