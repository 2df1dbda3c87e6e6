package repository

import (
	"context"
	"fmt"

	"github.com/smallbiznis/civicdash/internal/membership/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListForMetrics(ctx context.Context, db *gorm.DB) ([]domain.Membership, error) {
	var memberships []domain.Membership
	err := db.WithContext(ctx).Raw(
		`SELECT id, created_at, last_renewal, status
		 FROM memberships
		 ORDER BY created_at ASC, id ASC`,
	).Scan(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return memberships, nil
}
