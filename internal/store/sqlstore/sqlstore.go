// Package sqlstore implements store.Store over database/sql for PostgreSQL
// (lib/pq) and SQLite (modernc.org/sqlite). Timestamps are stored as epoch
// milliseconds and visited locations as a JSON array so both dialects share
// one schema.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/AnshRaj112/travelstory-backend/internal/models"
	"github.com/AnshRaj112/travelstory-backend/internal/store"
)

// foldFunc lowercases with Go's Unicode rules; SQLite's built-in lower()
// only folds ASCII.
const foldFunc = "unicode_lower"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, fold); err != nil {
		panic(err)
	}
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// ParseDialect maps a STORE_DRIVER value to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	}
	return 0, fmt.Errorf("unsupported sql driver %q", driver)
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ store.Store = (*Store)(nil)

// New applies the schema and returns a store over db.
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	s := &Store{db: db, dialect: dialect}
	if err := s.applySchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_on BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS travel_stories (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		story TEXT NOT NULL,
		visited_location TEXT NOT NULL DEFAULT '[]',
		is_favourite BOOLEAN NOT NULL DEFAULT FALSE,
		created_on BIGINT NOT NULL,
		image_url TEXT NOT NULL,
		visited_date BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_travel_stories_user_favourite ON travel_stories(user_id, is_favourite DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_travel_stories_user_visited ON travel_stories(user_id, visited_date)`,
}

func (s *Store) applySchema() error {
	for _, query := range schema {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

const (
	userColumns  = "id, full_name, email, password_hash, created_on"
	storyColumns = "id, user_id, title, story, visited_location, is_favourite, created_on, image_url, visited_date"
	storyOrder   = " ORDER BY is_favourite DESC, created_on ASC"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedOn.IsZero() {
		user.CreatedOn = time.Now().UTC()
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`),
		id, user.FullName, user.Email, user.Password, user.CreatedOn.UnixMilli())
	if err != nil {
		if s.isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	user.ID = id
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	return scanUser(row)
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_on ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CreateStory(ctx context.Context, story *models.TravelStory) error {
	if story.CreatedOn.IsZero() {
		story.CreatedOn = time.Now().UTC()
	}
	if story.VisitedLocation == nil {
		story.VisitedLocation = []string{}
	}
	locations, err := json.Marshal(story.VisitedLocation)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO travel_stories (`+storyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, story.UserID, story.Title, story.Story, string(locations), story.IsFavourite,
		story.CreatedOn.UnixMilli(), story.ImageURL, story.VisitedDate.UnixMilli())
	if err != nil {
		return err
	}
	story.ID = id
	return nil
}

func (s *Store) ListStories(ctx context.Context, owner string) ([]models.TravelStory, error) {
	return s.queryStories(ctx, `SELECT `+storyColumns+` FROM travel_stories WHERE user_id = ?`+storyOrder, owner)
}

func (s *Store) UpdateStory(ctx context.Context, owner, id string, fields models.StoryFields) (models.TravelStory, error) {
	if fields.VisitedLocation == nil {
		fields.VisitedLocation = []string{}
	}
	locations, err := json.Marshal(fields.VisitedLocation)
	if err != nil {
		return models.TravelStory{}, err
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`UPDATE travel_stories
		SET title = ?, story = ?, visited_location = ?, image_url = ?, visited_date = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+storyColumns),
		fields.Title, fields.Story, string(locations), fields.ImageURL, fields.VisitedDate.UnixMilli(), id, owner)
	return scanStory(row)
}

func (s *Store) SetFavourite(ctx context.Context, owner, id string, favourite bool) (models.TravelStory, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`UPDATE travel_stories SET is_favourite = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+storyColumns), favourite, id, owner)
	return scanStory(row)
}

func (s *Store) DeleteStory(ctx context.Context, owner, id string) (models.TravelStory, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`DELETE FROM travel_stories WHERE id = ? AND user_id = ? RETURNING `+storyColumns), id, owner)
	return scanStory(row)
}

// SearchStories is a literal, case-insensitive substring match over title,
// story and each visited location.
func (s *Store) SearchStories(ctx context.Context, owner, query string) ([]models.TravelStory, error) {
	needle := strings.ToLower(query)
	var q string
	switch s.dialect {
	case Postgres:
		q = `SELECT ` + storyColumns + ` FROM travel_stories
			WHERE user_id = ? AND (
				strpos(lower(title), ?) > 0 OR
				strpos(lower(story), ?) > 0 OR
				EXISTS (SELECT 1 FROM json_array_elements_text(visited_location::json) AS loc(value) WHERE strpos(lower(loc.value), ?) > 0)
			)` + storyOrder
	default:
		q = `SELECT ` + storyColumns + ` FROM travel_stories
			WHERE user_id = ? AND (
				instr(`+foldFunc+`(title), ?) > 0 OR
				instr(`+foldFunc+`(story), ?) > 0 OR
				EXISTS (SELECT 1 FROM json_each(travel_stories.visited_location) AS loc WHERE instr(`+foldFunc+`(loc.value), ?) > 0)
			)` + storyOrder
	}
	return s.queryStories(ctx, q, owner, needle, needle, needle)
}

func (s *Store) FilterStoriesByDate(ctx context.Context, owner string, r store.DateRange) ([]models.TravelStory, error) {
	return s.queryStories(ctx, `SELECT `+storyColumns+` FROM travel_stories
		WHERE user_id = ? AND visited_date >= ? AND visited_date <= ?`+storyOrder,
		owner, r.Start.UnixMilli(), r.End.UnixMilli())
}

func (s *Store) queryStories(ctx context.Context, query string, args ...any) ([]models.TravelStory, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stories := []models.TravelStory{}
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var createdOn int64
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &createdOn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, store.ErrNotFound
		}
		return models.User{}, err
	}
	u.CreatedOn = time.UnixMilli(createdOn).UTC()
	return u, nil
}

func scanStory(row scanner) (models.TravelStory, error) {
	var st models.TravelStory
	var locations string
	var createdOn, visitedDate int64
	err := row.Scan(&st.ID, &st.UserID, &st.Title, &st.Story, &locations, &st.IsFavourite, &createdOn, &st.ImageURL, &visitedDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TravelStory{}, store.ErrNotFound
		}
		return models.TravelStory{}, err
	}
	if err := json.Unmarshal([]byte(locations), &st.VisitedLocation); err != nil {
		return models.TravelStory{}, fmt.Errorf("decode visited_location: %w", err)
	}
	if st.VisitedLocation == nil {
		st.VisitedLocation = []string{}
	}
	st.CreatedOn = time.UnixMilli(createdOn).UTC()
	st.VisitedDate = time.UnixMilli(visitedDate).UTC()
	return st, nil
}
