package domain

import (
	"time"
)

// Person is a directory entry joined with the membership it references.
type Person struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Address          string     `json:"address"`
	HouseholdID      string     `json:"householdId,omitempty"`
	MembershipID     string     `json:"membershipId,omitempty"`
	MembershipTier   string     `json:"membershipTier,omitempty"`
	MembershipStatus string     `json:"membershipStatus,omitempty"`
	LastRenewal      *time.Time `json:"lastRenewal,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// PersonRow is the flat shape read from the people/memberships join.
type PersonRow struct {
	ID                    string
	FullName              string
	Email                 *string
	Address               *string
	HouseholdID           *string
	MembershipID          *string
	JoinedMembershipID    *string
	MembershipTier        *string
	MembershipStatus      *string
	MembershipLastRenewal *time.Time
	CreatedAt             time.Time
}

// MembershipContact is a membership carrying a customer email.
type MembershipContact struct {
	ID            string
	CustomerEmail string
	Tier          *string
	LastRenewal   *time.Time
}

type PersonContact struct {
	FullName string
	Email    string
}

type TierRenewal struct {
	Tier        string     `json:"tier"`
	LastRenewal *time.Time `json:"lastRenewal,omitempty"`
}

// DuplicateMembership groups memberships sharing one normalised email.
type DuplicateMembership struct {
	Email           string        `json:"email"`
	PersonName      string        `json:"personName,omitempty"`
	MembershipCount int           `json:"membershipCount"`
	Tiers           []TierRenewal `json:"tiers"`
}
