package models

import "gorm.io/gorm"

// User is a back-office staff account.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag, never serialized
	Role       string `json:"role" gorm:"type:varchar(30)" validate:"omitempty,oneof=admin manager staff"`
	gorm.Model        // CreatedAt, UpdatedAt, DeletedAt
}
