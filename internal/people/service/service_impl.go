package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/smallbiznis/civicdash/internal/people/domain"
	"github.com/smallbiznis/civicdash/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB `optional:"true"`
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("people.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListPeople(ctx context.Context, req domain.ListPeopleRequest) (domain.ListPeopleResponse, error) {
	if s.db == nil {
		return domain.ListPeopleResponse{}, domain.ErrDirectoryNotConfigured
	}

	page := pagination.Pagination{PageToken: strings.TrimSpace(req.PageToken), PageSize: req.PageSize}.Normalize()

	var after *domain.Keyset
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return domain.ListPeopleResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := cursor.CreatedAtTime()
		if err != nil {
			return domain.ListPeopleResponse{}, domain.ErrInvalidPageToken
		}
		after = &domain.Keyset{CreatedAt: createdAt.UTC(), ID: cursor.ID}
	}

	rows, err := s.repo.ListPeople(ctx, s.db, after, page.PageSize+1)
	if err != nil {
		return domain.ListPeopleResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(rows, page.PageSize, func(row *domain.PersonRow) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        row.ID,
			CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			s.log.Warn("encode page token", zap.Error(err))
			return ""
		}
		return token
	})
	if len(rows) > page.PageSize {
		rows = rows[:page.PageSize]
	}

	people := make([]domain.Person, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		people = append(people, toPerson(row))
	}

	resp := domain.ListPeopleResponse{People: people}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// ListDuplicateMemberships groups memberships by normalised customer email and
// reports every email held by more than one membership, sorted by email.
func (s *Service) ListDuplicateMemberships(ctx context.Context) (domain.ListDuplicateMembershipsResponse, error) {
	if s.db == nil {
		return domain.ListDuplicateMembershipsResponse{}, domain.ErrDirectoryNotConfigured
	}

	memberships, err := s.repo.ListMembershipContacts(ctx, s.db)
	if err != nil {
		return domain.ListDuplicateMembershipsResponse{}, err
	}
	contacts, err := s.repo.ListPersonContacts(ctx, s.db)
	if err != nil {
		return domain.ListDuplicateMembershipsResponse{}, err
	}

	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if email := normalizeEmail(c.Email); email != "" {
			names[email] = strings.TrimSpace(c.FullName)
		}
	}

	return domain.ListDuplicateMembershipsResponse{
		Duplicates: groupDuplicates(memberships, names),
	}, nil
}

type emailGroup struct {
	count     int
	tierOrder []string
	renewals  map[string]*time.Time
}

func groupDuplicates(memberships []domain.MembershipContact, names map[string]string) []domain.DuplicateMembership {
	groups := make(map[string]*emailGroup)
	for _, m := range memberships {
		email := normalizeEmail(m.CustomerEmail)
		if email == "" {
			continue
		}
		g, ok := groups[email]
		if !ok {
			g = &emailGroup{renewals: make(map[string]*time.Time)}
			groups[email] = g
		}
		g.count++

		if m.Tier == nil || *m.Tier == "" {
			continue
		}
		tier := *m.Tier
		existing, seen := g.renewals[tier]
		if !seen {
			g.tierOrder = append(g.tierOrder, tier)
		}
		if existing == nil || (m.LastRenewal != nil && m.LastRenewal.After(*existing)) {
			g.renewals[tier] = m.LastRenewal
		}
	}

	out := make([]domain.DuplicateMembership, 0)
	for email, g := range groups {
		if g.count < 2 {
			continue
		}
		tiers := make([]domain.TierRenewal, 0, len(g.tierOrder))
		for _, tier := range g.tierOrder {
			tiers = append(tiers, domain.TierRenewal{Tier: tier, LastRenewal: g.renewals[tier]})
		}
		out = append(out, domain.DuplicateMembership{
			Email:           email,
			PersonName:      names[email],
			MembershipCount: g.count,
			Tiers:           tiers,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toPerson(row *domain.PersonRow) domain.Person {
	p := domain.Person{
		ID:               row.ID,
		Name:             row.FullName,
		Email:            deref(row.Email),
		Address:          deref(row.Address),
		HouseholdID:      deref(row.HouseholdID),
		MembershipID:     deref(row.MembershipID),
		MembershipTier:   deref(row.MembershipTier),
		MembershipStatus: deref(row.MembershipStatus),
		LastRenewal:      row.MembershipLastRenewal,
		CreatedAt:        row.CreatedAt,
	}
	if p.MembershipID == "" {
		p.MembershipID = deref(row.JoinedMembershipID)
	}
	return p
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
