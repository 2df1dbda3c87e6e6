package repository

import (
	"context"
	"fmt"

	"github.com/smallbiznis/civicdash/internal/people/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const listPeopleSQL = `SELECT p.id AS id,
		p.full_name AS full_name,
		p.email AS email,
		p.address AS address,
		p.household_id AS household_id,
		p.membership_id AS membership_id,
		m.id AS joined_membership_id,
		m.tier AS membership_tier,
		m.status AS membership_status,
		m.last_renewal AS membership_last_renewal,
		p.created_at AS created_at
	FROM people p
	LEFT JOIN memberships m ON m.id = p.membership_id`

func (r *repo) ListPeople(ctx context.Context, db *gorm.DB, after *domain.Keyset, limit int) ([]*domain.PersonRow, error) {
	var rows []*domain.PersonRow
	var err error
	if after != nil {
		err = db.WithContext(ctx).Raw(
			listPeopleSQL+`
	WHERE p.created_at > ? OR (p.created_at = ? AND p.id > ?)
	ORDER BY p.created_at ASC, p.id ASC
	LIMIT ?`,
			after.CreatedAt, after.CreatedAt, after.ID, limit,
		).Scan(&rows).Error
	} else {
		err = db.WithContext(ctx).Raw(
			listPeopleSQL+`
	ORDER BY p.created_at ASC, p.id ASC
	LIMIT ?`,
			limit,
		).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return rows, nil
}

func (r *repo) ListMembershipContacts(ctx context.Context, db *gorm.DB) ([]domain.MembershipContact, error) {
	var rows []domain.MembershipContact
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_email, tier, last_renewal
		 FROM memberships
		 WHERE customer_email IS NOT NULL
		 ORDER BY id ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list membership contacts: %w", err)
	}
	return rows, nil
}

func (r *repo) ListPersonContacts(ctx context.Context, db *gorm.DB) ([]domain.PersonContact, error) {
	var rows []domain.PersonContact
	err := db.WithContext(ctx).Raw(
		`SELECT full_name, email
		 FROM people
		 WHERE email IS NOT NULL
		 ORDER BY created_at ASC, id ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list person contacts: %w", err)
	}
	return rows, nil
}
