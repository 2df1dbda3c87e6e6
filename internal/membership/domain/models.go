package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// StatusActive is the only status that marks a membership as current.
const StatusActive = "Active"

type Membership struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	CreatedAt   *time.Time `gorm:"column:created_at" json:"created_at,omitempty"`
	LastRenewal *time.Time `gorm:"column:last_renewal" json:"last_renewal,omitempty"`
	Status      string     `gorm:"column:status" json:"status"`
}

func (Membership) TableName() string { return "memberships" }

func (m Membership) IsActive() bool {
	return m.Status == StatusActive
}

type Repository interface {
	// ListForMetrics returns every membership ordered by creation time.
	ListForMetrics(ctx context.Context, db *gorm.DB) ([]Membership, error)
}
