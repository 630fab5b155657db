package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	_ "modernc.org/sqlite"
)

var errSqliteAuthUnsupported = errors.New("password login is not available with the sqlite store")

// SqliteRepo keeps events, attendees, shops and profiles in one SQLite file.
// It backs STORE_DRIVER=sqlite for single-node deployments.
type SqliteRepo struct {
	db *sql.DB
}

// NewSqliteRepo opens dsn and creates the schema if needed.
func NewSqliteRepo(ctx context.Context, dsn string) (*SqliteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer avoids "database is locked" under concurrent writes
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &SqliteRepo{db: db}
	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (s *SqliteRepo) Close() error {
	return s.db.Close()
}

func (s *SqliteRepo) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SqliteRepo) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS shops (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		slug TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		images TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		event_type TEXT NOT NULL,
		start_date_time TEXT NOT NULL,
		end_date_time TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		ticket_url TEXT NOT NULL DEFAULT '',
		cover_image_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
		is_published INTEGER NOT NULL DEFAULT 0,
		submitted_by TEXT NOT NULL,
		attendee_count INTEGER NOT NULL DEFAULT 0 CHECK (attendee_count >= 0),
		recent_attendees TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event_attendees (
		event_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		joined_at TEXT NOT NULL,
		PRIMARY KEY (event_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_event_attendees_user ON event_attendees (user_id);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		fullname TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const sqliteEventColumns = `id, shop_id, title, description, event_type, start_date_time, end_date_time,
	location, ticket_url, cover_image_url, status, is_published, submitted_by, attendee_count,
	recent_attendees, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var (
		ev                        Event
		id, shopID, submittedBy   string
		eventType, status, recent string
		published                 int
		createdAt, updatedAt      string
	)
	if err := row.Scan(&id, &shopID, &ev.Title, &ev.Description, &eventType, &ev.StartDateTime, &ev.EndDateTime,
		&ev.Location, &ev.TicketURL, &ev.CoverImageURL, &status, &published, &submittedBy, &ev.AttendeeCount,
		&recent, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if ev.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", id, err)
	}
	if ev.ShopID, err = uuid.Parse(shopID); err != nil {
		return nil, fmt.Errorf("invalid shop id %q: %w", shopID, err)
	}
	if submittedBy != "" {
		if ev.SubmittedBy, err = uuid.Parse(submittedBy); err != nil {
			return nil, fmt.Errorf("invalid submitter id %q: %w", submittedBy, err)
		}
	}
	ev.EventType = EventType(eventType)
	ev.Status = EventStatus(status)
	ev.IsPublished = published != 0
	if err := json.Unmarshal([]byte(recent), &ev.RecentAttendees); err != nil {
		return nil, fmt.Errorf("invalid recent attendees for %s: %w", id, err)
	}
	ev.CreatedAt = parseStamp(createdAt)
	ev.UpdatedAt = parseStamp(updatedAt)
	return &ev, nil
}

// fixed width so stamps sort as text
const sqliteStampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatStamp(t time.Time) string {
	return t.UTC().Format(sqliteStampLayout)
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *SqliteRepo) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteEventColumns+` FROM events WHERE id = ?`, id.String())
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

func (s *SqliteRepo) ListEvents(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteEventColumns+` FROM events ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SqliteRepo) PutEvent(ctx context.Context, event *Event) error {
	recent := event.RecentAttendees
	if recent == nil {
		recent = []AttendeeSummary{}
	}
	recentJSON, err := json.Marshal(recent)
	if err != nil {
		return fmt.Errorf("failed to encode recent attendees: %w", err)
	}
	published := 0
	if event.IsPublished {
		published = 1
	}
	submittedBy := ""
	if event.SubmittedBy != uuid.Nil {
		submittedBy = event.SubmittedBy.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (`+sqliteEventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shop_id = excluded.shop_id,
			title = excluded.title,
			description = excluded.description,
			event_type = excluded.event_type,
			start_date_time = excluded.start_date_time,
			end_date_time = excluded.end_date_time,
			location = excluded.location,
			ticket_url = excluded.ticket_url,
			cover_image_url = excluded.cover_image_url,
			status = excluded.status,
			is_published = excluded.is_published,
			submitted_by = excluded.submitted_by,
			attendee_count = excluded.attendee_count,
			recent_attendees = excluded.recent_attendees,
			updated_at = excluded.updated_at
	`, event.ID.String(), event.ShopID.String(), event.Title, event.Description, string(event.EventType),
		event.StartDateTime, event.EndDateTime, event.Location, event.TicketURL, event.CoverImageURL,
		string(event.Status), published, submittedBy, event.AttendeeCount, string(recentJSON),
		formatStamp(event.CreatedAt), formatStamp(event.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func (s *SqliteRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (s *SqliteRepo) AddAttendee(ctx context.Context, attendee Attendee) (bool, error) {
	joinedAt := attendee.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO event_attendees (event_id, user_id, avatar_url, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id, user_id) DO NOTHING
	`, attendee.EventID.String(), attendee.UserID.String(), attendee.AvatarURL, formatStamp(joinedAt))
	if err != nil {
		return false, fmt.Errorf("failed to add attendee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SqliteRepo) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ? AND user_id = ?`,
		eventID.String(), userID.String())
	if err != nil {
		return false, fmt.Errorf("failed to remove attendee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SqliteRepo) IsAttendee(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM event_attendees WHERE event_id = ? AND user_id = ?`,
		eventID.String(), userID.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check attendee: %w", err)
	}
	return true, nil
}

func (s *SqliteRepo) GetAttendee(ctx context.Context, eventID, userID uuid.UUID) (Attendee, bool, error) {
	a := Attendee{EventID: eventID, UserID: userID}
	var joinedAt string
	err := s.db.QueryRowContext(ctx, `SELECT avatar_url, joined_at FROM event_attendees WHERE event_id = ? AND user_id = ?`,
		eventID.String(), userID.String()).Scan(&a.AvatarURL, &joinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Attendee{}, false, nil
	}
	if err != nil {
		return Attendee{}, false, fmt.Errorf("failed to get attendee: %w", err)
	}
	a.JoinedAt = parseStamp(joinedAt)
	return a, true, nil
}

func (s *SqliteRepo) ListAttendees(ctx context.Context, eventID uuid.UUID, limit int) ([]Attendee, error) {
	query := `SELECT user_id, avatar_url, joined_at FROM event_attendees WHERE event_id = ? ORDER BY joined_at DESC`
	args := []any{eventID.String()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}
	defer rows.Close()

	out := make([]Attendee, 0)
	for rows.Next() {
		var userID, joinedAt string
		a := Attendee{EventID: eventID}
		if err := rows.Scan(&userID, &a.AvatarURL, &joinedAt); err != nil {
			return nil, err
		}
		if a.UserID, err = uuid.Parse(userID); err != nil {
			return nil, fmt.Errorf("invalid attendee id %q: %w", userID, err)
		}
		a.JoinedAt = parseStamp(joinedAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SqliteRepo) EventsAttendedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id FROM event_attendees WHERE user_id = ?`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list attended events: %w", err)
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SqliteRepo) DeleteAttendees(ctx context.Context, eventID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ?`, eventID.String()); err != nil {
		return fmt.Errorf("failed to delete attendees: %w", err)
	}
	return nil
}

// PutShop inserts or replaces a shop. Used to seed a local database.
func (s *SqliteRepo) PutShop(ctx context.Context, shop *Shop) error {
	now := time.Now()
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = now
	}
	if shop.UpdatedAt.IsZero() {
		shop.UpdatedAt = now
	}
	images := shop.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("failed to encode shop images: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO shops (`+sqliteShopColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, shop.ID.String(), shop.OwnerID.String(), shop.Name, shop.Slug, shop.Description, shop.Category,
		shop.Location, shop.Region, string(imagesJSON), formatStamp(shop.CreatedAt), formatStamp(shop.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

const sqliteShopColumns = `id, owner_id, name, slug, description, category, location, region, images, created_at, updated_at`

func scanShop(row rowScanner) (*Shop, error) {
	var (
		shop                 Shop
		id, ownerID, images  string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &ownerID, &shop.Name, &shop.Slug, &shop.Description, &shop.Category,
		&shop.Location, &shop.Region, &images, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &shop.Images); err != nil {
		return nil, fmt.Errorf("invalid images for shop %s: %w", id, err)
	}
	var err error
	if shop.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid shop id %q: %w", id, err)
	}
	shop.OwnerID, _ = uuid.Parse(ownerID)
	shop.CreatedAt = parseStamp(createdAt)
	shop.UpdatedAt = parseStamp(updatedAt)
	return &shop, nil
}

func (s *SqliteRepo) GetShop(ctx context.Context, id uuid.UUID) (*Shop, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteShopColumns+` FROM shops WHERE id = ?`, id.String())
	shop, err := scanShop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return shop, nil
}

func (s *SqliteRepo) ListShops(ctx context.Context, offset, limit int) ([]*Shop, int, error) {
	if err := checkShopPage(offset, limit); err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shops`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shops: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteShopColumns+` FROM shops ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shops: %w", err)
	}
	defer rows.Close()

	shops := make([]*Shop, 0)
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, 0, err
		}
		shops = append(shops, shop)
	}
	return shops, total, rows.Err()
}

func (s *SqliteRepo) ListShopIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM shops WHERE owner_id = ?`, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list owned shops: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

func (s *SqliteRepo) ShopNames(ctx context.Context) (map[uuid.UUID]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM shops`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop names: %w", err)
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string)
	for rows.Next() {
		var raw, name string
		if err := rows.Scan(&raw, &name); err != nil {
			return nil, err
		}
		if id, err := uuid.Parse(raw); err == nil {
			names[id] = name
		}
	}
	return names, rows.Err()
}

// PutUser inserts or replaces a profile. Used to seed a local database.
func (s *SqliteRepo) PutUser(ctx context.Context, user *User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO profiles (id, username, fullname, email, role, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID.String(), user.Username, user.FullName, user.Email, user.Role, user.AvatarURL,
		formatStamp(user.CreatedAt), formatStamp(user.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *SqliteRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	var (
		u                    User
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT username, fullname, email, role, avatar_url, created_at, updated_at FROM profiles WHERE id = ?
	`, id.String()).Scan(&u.Username, &u.FullName, &u.Email, &u.Role, &u.AvatarURL, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	u.ID = id
	u.CreatedAt = parseStamp(createdAt)
	u.UpdatedAt = parseStamp(updatedAt)
	return &u, nil
}

func (s *SqliteRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	return nil, errSqliteAuthUnsupported
}

func (s *SqliteRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	return nil, errSqliteAuthUnsupported
}
