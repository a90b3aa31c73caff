package rental

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
	"rentcore/internal/domain/shared/events"
)

var (
	ErrRequestNotFound = errors.New("rental: request not found")
	ErrUserRequired    = errors.New("rental: user id required")
	ErrInvalidMonths   = errors.New("rental: lease duration months must be positive")
	ErrNotPending      = errors.New("rental: request already resolved")
)

type RequestID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusWithdrawn Status = "WITHDRAWN"
)

// Request is a prospective tenant's application for an annual lease. It is a
// four-state machine: PENDING is the only non-terminal state and nothing ever
// re-enters it.
type Request struct {
	ID                  RequestID
	PropertyID          property.PropertyID
	UserID              string
	Start               time.Time
	End                 time.Time
	LeaseDurationMonths int
	Status              Status
	RequestedAt         time.Time
	LandlordResponse    string
	RespondedAt         time.Time
	Version             int64
	events.EventRecorder
}

// Store is the rental-request collaborator contract. The overlap finders may
// over-fetch; callers re-apply the overlap predicate on proposed ranges.
type Store interface {
	ByID(ctx context.Context, id RequestID) (*Request, error)
	FindApprovedOverlapping(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) ([]*Request, error)
	FindPendingOverlapping(ctx context.Context, propertyID property.PropertyID, r daterange.DateRange) ([]*Request, error)
	FindLatestApproved(ctx context.Context, userID string, propertyID property.PropertyID) (*Request, error)
	Create(ctx context.Context, req *Request) error
	Save(ctx context.Context, req *Request) error
}

func (r *Request) ProposedRange() daterange.DateRange {
	return daterange.DateRange{Start: r.Start, End: r.End}
}

type CreateParams struct {
	ID                  RequestID
	PropertyID          property.PropertyID
	UserID              string
	Start               time.Time
	End                 time.Time
	LeaseDurationMonths int
	Now                 time.Time
}

func New(params CreateParams) (*Request, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, ErrUserRequired
	}
	if params.LeaseDurationMonths <= 0 {
		return nil, ErrInvalidMonths
	}
	dr, err := daterange.New(daterange.Day(params.Start), daterange.Day(params.End))
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	req := &Request{
		ID:                  params.ID,
		PropertyID:          params.PropertyID,
		UserID:              params.UserID,
		Start:               dr.Start,
		End:                 dr.End,
		LeaseDurationMonths: params.LeaseDurationMonths,
		Status:              StatusPending,
		RequestedAt:         now,
	}
	req.Record(RequestSubmitted{RequestID: req.ID, PropertyID: req.PropertyID, UserID: req.UserID, Range: dr, Months: req.LeaseDurationMonths, At: now})
	return req, nil
}

func (r *Request) Approve(note string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusApproved
	r.LandlordResponse = note
	r.RespondedAt = now.UTC()
	r.Record(RequestApproved{RequestID: r.ID, PropertyID: r.PropertyID, UserID: r.UserID, Note: note, At: r.RespondedAt})
	return nil
}

func (r *Request) Reject(note string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusRejected
	r.LandlordResponse = note
	r.RespondedAt = now.UTC()
	r.Record(RequestRejected{RequestID: r.ID, PropertyID: r.PropertyID, UserID: r.UserID, Note: note, At: r.RespondedAt})
	return nil
}

func (r *Request) Withdraw(now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusWithdrawn
	r.RespondedAt = now.UTC()
	r.Record(RequestWithdrawn{RequestID: r.ID, PropertyID: r.PropertyID, UserID: r.UserID, At: r.RespondedAt})
	return nil
}
