package property

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrPropertyNotFound = errors.New("property: not found")
	ErrTitleRequired    = errors.New("property: title is required")
	ErrLandlordRequired = errors.New("property: landlord id is required")
	ErrInvalidMode      = errors.New("property: rental mode must be DAILY or MONTHLY")
	ErrAddressRequired  = errors.New("property: address must be provided")
)

type PropertyID string
type LandlordID string

// RentalMode selects the commitment type a property accepts. The two modes
// are mutually exclusive; switching modes while active commitments exist is a
// pre-condition violation, not something this core arbitrates.
type RentalMode string

const (
	ModeDaily   RentalMode = "DAILY"
	ModeMonthly RentalMode = "MONTHLY"
)

func ParseMode(raw string) (RentalMode, error) {
	switch RentalMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case ModeDaily:
		return ModeDaily, nil
	case ModeMonthly:
		return ModeMonthly, nil
	default:
		return "", ErrInvalidMode
	}
}

type Address struct {
	Line1   string
	Line2   string
	City    string
	Country string
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

type Property struct {
	ID               PropertyID
	Landlord         LandlordID
	Title            string
	Description      string
	Address          Address
	Mode             RentalMode
	NightlyRateCents int64
	MonthlyRentCents int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
}

// Lookup is the narrow collaborator the availability engine needs.
type Lookup interface {
	RentalMode(ctx context.Context, id PropertyID) (RentalMode, error)
}

type Repository interface {
	Lookup
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	Save(ctx context.Context, p *Property) error
}

type CreateParams struct {
	ID               PropertyID
	Landlord         LandlordID
	Title            string
	Description      string
	Address          Address
	Mode             RentalMode
	NightlyRateCents int64
	MonthlyRentCents int64
	Now              time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("property: id is required")
	}
	if strings.TrimSpace(string(params.Landlord)) == "" {
		return nil, ErrLandlordRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !params.Address.Valid() {
		return nil, ErrAddressRequired
	}
	if params.Mode != ModeDaily && params.Mode != ModeMonthly {
		return nil, ErrInvalidMode
	}
	now := params.Now.UTC()
	return &Property{
		ID:               params.ID,
		Landlord:         params.Landlord,
		Title:            params.Title,
		Description:      params.Description,
		Address:          params.Address,
		Mode:             params.Mode,
		NightlyRateCents: params.NightlyRateCents,
		MonthlyRentCents: params.MonthlyRentCents,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
