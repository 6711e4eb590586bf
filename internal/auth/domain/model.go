// Package domain contains core types for the user account service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is a local account keyed by the provider's stable subject id.
type User struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ExternalID string       `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	Provider   string       `gorm:"column:provider;type:text;not null"`
	Name       string       `gorm:"column:name;type:text"`
	Email      string       `gorm:"column:email;type:text"`
	ProfileURL string       `gorm:"column:profile_url;type:text"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
