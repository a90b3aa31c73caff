package rental

import (
	"time"

	"rentcore/internal/domain/property"
	"rentcore/internal/domain/shared/daterange"
)

type RequestSubmitted struct {
	RequestID  RequestID
	PropertyID property.PropertyID
	UserID     string
	Range      daterange.DateRange
	Months     int
	At         time.Time
}

func (e RequestSubmitted) EventName() string     { return "rental.request_submitted" }
func (e RequestSubmitted) AggregateID() string   { return string(e.RequestID) }
func (e RequestSubmitted) OccurredAt() time.Time { return e.At }

type RequestApproved struct {
	RequestID  RequestID
	PropertyID property.PropertyID
	UserID     string
	Note       string
	At         time.Time
}

func (e RequestApproved) EventName() string     { return "rental.request_approved" }
func (e RequestApproved) AggregateID() string   { return string(e.RequestID) }
func (e RequestApproved) OccurredAt() time.Time { return e.At }

type RequestRejected struct {
	RequestID  RequestID
	PropertyID property.PropertyID
	UserID     string
	Note       string
	At         time.Time
}

func (e RequestRejected) EventName() string     { return "rental.request_rejected" }
func (e RequestRejected) AggregateID() string   { return string(e.RequestID) }
func (e RequestRejected) OccurredAt() time.Time { return e.At }

type RequestWithdrawn struct {
	RequestID  RequestID
	PropertyID property.PropertyID
	UserID     string
	At         time.Time
}

func (e RequestWithdrawn) EventName() string     { return "rental.request_withdrawn" }
func (e RequestWithdrawn) AggregateID() string   { return string(e.RequestID) }
func (e RequestWithdrawn) OccurredAt() time.Time { return e.At }
