package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/civicdash/pkg/db/pagination"
)

var ErrInvalidPageToken = pagination.ErrInvalidPageToken

var ErrDirectoryNotConfigured = errors.New("people_directory_not_configured")

type ListPeopleRequest struct {
	PageToken string
	PageSize  int
}

type ListPeopleResponse struct {
	pagination.PageInfo
	People []Person `json:"people"`
}

type ListDuplicateMembershipsResponse struct {
	Duplicates []DuplicateMembership `json:"duplicates"`
}

type Service interface {
	ListPeople(ctx context.Context, req ListPeopleRequest) (ListPeopleResponse, error)
	ListDuplicateMemberships(ctx context.Context) (ListDuplicateMembershipsResponse, error)
}
