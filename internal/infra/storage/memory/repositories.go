package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "rentcore/internal/domain/availability"
	domainbooking "rentcore/internal/domain/booking"
	domainlease "rentcore/internal/domain/lease"
	domainproperty "rentcore/internal/domain/property"
	domainrental "rentcore/internal/domain/rental"
	"rentcore/internal/domain/shared/daterange"
)

// PropertyRepository is an in-memory implementation for the default profile
// and tests.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.PropertyID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.PropertyID]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.PropertyID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrPropertyNotFound
	}
	return p, nil
}

func (r *PropertyRepository) RentalMode(ctx context.Context, id domainproperty.PropertyID) (domainproperty.RentalMode, error) {
	p, err := r.ByID(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Mode, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

var _ domainproperty.Repository = (*PropertyRepository)(nil)

// BookingStore keeps bookings in memory. FindOverlapping filters cancelled
// bookings and pre-applies the overlap predicate on effective ranges.
type BookingStore struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (s *BookingStore) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingStore) FindOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainbooking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range s.items {
		if b.PropertyID != propertyID || b.Status == domainbooking.StatusCancelled {
			continue
		}
		if b.EffectiveRange().Overlaps(r) {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start.Before(matches[j].Start) })
	return matches, nil
}

func (s *BookingStore) Create(ctx context.Context, b *domainbooking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[b.ID] = b
	return nil
}

func (s *BookingStore) Save(ctx context.Context, b *domainbooking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[b.ID] = b
	return nil
}

var _ domainbooking.Store = (*BookingStore)(nil)

// RequestStore keeps rental requests in memory.
type RequestStore struct {
	mu    sync.RWMutex
	items map[domainrental.RequestID]*domainrental.Request
}

func NewRequestStore() *RequestStore {
	return &RequestStore{items: make(map[domainrental.RequestID]*domainrental.Request)}
}

func (s *RequestStore) ByID(ctx context.Context, id domainrental.RequestID) (*domainrental.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.items[id]
	if !ok {
		return nil, domainrental.ErrRequestNotFound
	}
	return req, nil
}

func (s *RequestStore) FindApprovedOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainrental.Request, error) {
	return s.findOverlapping(propertyID, r, domainrental.StatusApproved), nil
}

func (s *RequestStore) FindPendingOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainrental.Request, error) {
	return s.findOverlapping(propertyID, r, domainrental.StatusPending), nil
}

func (s *RequestStore) findOverlapping(propertyID domainproperty.PropertyID, r daterange.DateRange, status domainrental.Status) []*domainrental.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*domainrental.Request, 0)
	for _, req := range s.items {
		if req.PropertyID != propertyID || req.Status != status {
			continue
		}
		if req.ProposedRange().Overlaps(r) {
			matches = append(matches, req)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Start.Before(matches[j].Start) })
	return matches
}

// FindLatestApproved picks the most recent approved request for the pair,
// ordered by request date and then by response date.
func (s *RequestStore) FindLatestApproved(ctx context.Context, userID string, propertyID domainproperty.PropertyID) (*domainrental.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domainrental.Request
	for _, req := range s.items {
		if req.PropertyID != propertyID || req.UserID != userID || req.Status != domainrental.StatusApproved {
			continue
		}
		if latest == nil || moreRecent(req, latest) {
			latest = req
		}
	}
	if latest == nil {
		return nil, domainrental.ErrRequestNotFound
	}
	return latest, nil
}

func moreRecent(a, b *domainrental.Request) bool {
	if !a.RequestedAt.Equal(b.RequestedAt) {
		return a.RequestedAt.After(b.RequestedAt)
	}
	return a.RespondedAt.After(b.RespondedAt)
}

func (s *RequestStore) Create(ctx context.Context, req *domainrental.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[req.ID] = req
	return nil
}

func (s *RequestStore) Save(ctx context.Context, req *domainrental.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[req.ID] = req
	return nil
}

var _ domainrental.Store = (*RequestStore)(nil)

// TenantStore keeps lease records in memory.
type TenantStore struct {
	mu    sync.RWMutex
	items map[domainlease.TenantID]*domainlease.Tenant
}

func NewTenantStore() *TenantStore {
	return &TenantStore{items: make(map[domainlease.TenantID]*domainlease.Tenant)}
}

func (s *TenantStore) ByID(ctx context.Context, id domainlease.TenantID) (*domainlease.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[id]
	if !ok {
		return nil, domainlease.ErrTenantNotFound
	}
	return t, nil
}

func (s *TenantStore) FindActiveByProperty(ctx context.Context, propertyID domainproperty.PropertyID) ([]*domainlease.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*domainlease.Tenant, 0)
	for _, t := range s.items {
		if t.PropertyID == propertyID && t.Status == domainlease.TenantActive {
			matches = append(matches, t)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].LeaseStart.Before(matches[j].LeaseStart) })
	return matches, nil
}

func (s *TenantStore) FindActiveByUserAndProperty(ctx context.Context, userID string, propertyID domainproperty.PropertyID) (*domainlease.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.items {
		if t.UserID == userID && t.PropertyID == propertyID && t.Status == domainlease.TenantActive {
			return t, nil
		}
	}
	return nil, domainlease.ErrTenantNotFound
}

func (s *TenantStore) ListActive(ctx context.Context) ([]*domainlease.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*domainlease.Tenant, 0, len(s.items))
	for _, t := range s.items {
		if t.Status == domainlease.TenantActive {
			matches = append(matches, t)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].LeaseStart.Before(matches[j].LeaseStart) })
	return matches, nil
}

func (s *TenantStore) Create(ctx context.Context, t *domainlease.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[t.ID] = t
	return nil
}

func (s *TenantStore) Save(ctx context.Context, t *domainlease.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[t.ID] = t
	return nil
}

var _ domainlease.TenantStore = (*TenantStore)(nil)

// BlockedStore keeps landlord blocks in memory.
type BlockedStore struct {
	mu    sync.RWMutex
	items map[domainavailability.BlockedPeriodID]*domainavailability.BlockedPeriod
}

func NewBlockedStore() *BlockedStore {
	return &BlockedStore{items: make(map[domainavailability.BlockedPeriodID]*domainavailability.BlockedPeriod)}
}

func (s *BlockedStore) FindOverlapping(ctx context.Context, propertyID domainproperty.PropertyID, r daterange.DateRange) ([]*domainavailability.BlockedPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*domainavailability.BlockedPeriod, 0)
	for _, bp := range s.items {
		if bp.PropertyID != propertyID {
			continue
		}
		if bp.Range.Overlaps(r) {
			matches = append(matches, bp)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Range.Start.Before(matches[j].Range.Start) })
	return matches, nil
}

func (s *BlockedStore) Create(ctx context.Context, bp *domainavailability.BlockedPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[bp.ID] = bp
	return nil
}

var _ domainavailability.BlockedPeriodStore = (*BlockedStore)(nil)
