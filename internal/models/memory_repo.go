package models

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

var errMemoryAuthUnsupported = errors.New("password login is not available with the memory store")

// MemoryRepo keeps every record in process memory. It backs STORE_DRIVER=memory
// and the tests, and can be told to fail writes.
type MemoryRepo struct {
	mu        sync.RWMutex
	events    map[uuid.UUID]*Event
	attendees map[AttendeeKey]Attendee
	shops     map[uuid.UUID]*Shop
	users     map[uuid.UUID]*User

	putFailures int
	putErr      error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		events:    make(map[uuid.UUID]*Event),
		attendees: make(map[AttendeeKey]Attendee),
		shops:     make(map[uuid.UUID]*Shop),
		users:     make(map[uuid.UUID]*User),
	}
}

// FailNextPuts makes the next n PutEvent calls return err without writing.
func (m *MemoryRepo) FailNextPuts(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putFailures = n
	m.putErr = err
}

func (m *MemoryRepo) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ev, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev.Clone(), nil
}

func (m *MemoryRepo) ListEvents(ctx context.Context) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) PutEvent(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putFailures > 0 {
		m.putFailures--
		return m.putErr
	}
	m.events[event.ID] = event.Clone()
	return nil
}

func (m *MemoryRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.events, id)
	return nil
}

func (m *MemoryRepo) AddAttendee(ctx context.Context, attendee Attendee) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := attendee.Key()
	if _, ok := m.attendees[key]; ok {
		return false, nil
	}
	if attendee.JoinedAt.IsZero() {
		attendee.JoinedAt = time.Now()
	}
	m.attendees[key] = attendee
	return true, nil
}

func (m *MemoryRepo) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := AttendeeKey{EventID: eventID, UserID: userID}
	if _, ok := m.attendees[key]; !ok {
		return false, nil
	}
	delete(m.attendees, key)
	return true, nil
}

func (m *MemoryRepo) IsAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.attendees[AttendeeKey{EventID: eventID, UserID: userID}]
	return ok, nil
}

func (m *MemoryRepo) GetAttendee(ctx context.Context, eventID, userID uuid.UUID) (Attendee, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.attendees[AttendeeKey{EventID: eventID, UserID: userID}]
	return a, ok, nil
}

func (m *MemoryRepo) ListAttendees(ctx context.Context, eventID uuid.UUID, limit int) ([]Attendee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Attendee, 0)
	for key, a := range m.attendees {
		if key.EventID == eventID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.After(out[j].JoinedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) EventsAttendedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]uuid.UUID, 0)
	for key := range m.attendees {
		if key.UserID == userID {
			out = append(out, key.EventID)
		}
	}
	return out, nil
}

func (m *MemoryRepo) DeleteAttendees(ctx context.Context, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.attendees {
		if key.EventID == eventID {
			delete(m.attendees, key)
		}
	}
	return nil
}

// CountAttendees scans the membership set. Only tests use it, to check the
// incrementally maintained counter against the real cardinality.
func (m *MemoryRepo) CountAttendees(eventID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for key := range m.attendees {
		if key.EventID == eventID {
			n++
		}
	}
	return n
}

func (m *MemoryRepo) PutShop(shop *Shop) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *shop
	m.shops[shop.ID] = &c
}

func (m *MemoryRepo) GetShop(ctx context.Context, id uuid.UUID) (*Shop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.shops[id]
	if !ok {
		return nil, ErrShopNotFound
	}
	c := *s
	return &c, nil
}

func (m *MemoryRepo) ListShops(ctx context.Context, offset, limit int) ([]*Shop, int, error) {
	if err := checkShopPage(offset, limit); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Shop, 0, len(m.shops))
	for _, s := range m.shops {
		c := *s
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := len(all)
	if offset >= total {
		return []*Shop{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MemoryRepo) ListShopIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0)
	for _, s := range m.shops {
		if s.OwnerID == ownerID {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func (m *MemoryRepo) ShopNames(ctx context.Context) (map[uuid.UUID]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make(map[uuid.UUID]string, len(m.shops))
	for id, s := range m.shops {
		names[id] = s.Name
	}
	return names, nil
}

func (m *MemoryRepo) PutUser(user *User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *user
	m.users[user.ID] = &c
}

func (m *MemoryRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *MemoryRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	return nil, errMemoryAuthUnsupported
}

func (m *MemoryRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	return nil, errMemoryAuthUnsupported
}
