package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Keyset is the (created_at, id) position after which a page starts.
type Keyset struct {
	CreatedAt time.Time
	ID        string
}

type Repository interface {
	ListPeople(ctx context.Context, db *gorm.DB, after *Keyset, limit int) ([]*PersonRow, error)
	ListMembershipContacts(ctx context.Context, db *gorm.DB) ([]MembershipContact, error)
	ListPersonContacts(ctx context.Context, db *gorm.DB) ([]PersonContact, error)
}
