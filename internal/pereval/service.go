package pereval

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzv/fstr-api/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

const cacheTTL = 5 * time.Minute

type Service struct {
	db    db.Pool
	cache *redis.Client
}

// NewService wires the store and an optional record cache. A nil cache
// client disables caching.
func NewService(pool db.Pool, cache *redis.Client) *Service {
	return &Service{db: pool, cache: cache}
}

// parsed holds a submission after every field has been coerced. All parsing
// happens before the transaction opens so a bad payload writes nothing.
type parsed struct {
	fullName string
	email    string
	phone    string
	coords   Coords
	addTime  time.Time
	images   []Image
}

func (s *Service) parseSubmission(req SubmitRequest) (parsed, error) {
	var p parsed

	p.fullName = req.User.FullName()
	p.email = NormalizeEmail(req.User.Email)
	p.phone = strings.TrimSpace(req.User.Phone)

	lat, err := strconv.ParseFloat(strings.TrimSpace(req.Coords.Latitude), 64)
	if err != nil {
		return parsed{}, newValidationError("coords.latitude must be a number")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(req.Coords.Longitude), 64)
	if err != nil {
		return parsed{}, newValidationError("coords.longitude must be a number")
	}
	height, err := strconv.Atoi(strings.TrimSpace(req.Coords.Height))
	if err != nil {
		return parsed{}, newValidationError("coords.height must be an integer")
	}
	p.coords = Coords{Latitude: lat, Longitude: lon, Height: height}

	p.addTime, err = parseAddTime(strings.TrimSpace(req.AddTime))
	if err != nil {
		return parsed{}, err
	}

	if len(req.Images) == 0 {
		return parsed{}, newValidationError("images must not be empty")
	}
	p.images = make([]Image, 0, len(req.Images))
	for _, img := range req.Images {
		data, err := base64.StdEncoding.Strict().DecodeString(img.Data)
		if err != nil {
			return parsed{}, newValidationError("image %q is not valid base64", img.Title)
		}
		p.images = append(p.images, Image{Title: img.Title, Data: data})
	}
	return p, nil
}

// reconcileSubmitter finds a submitter by normalized email or creates one.
// Stored name/phone are overwritten when they differ, last write wins.
func (s *Service) reconcileSubmitter(ctx context.Context, q db.Querier, fullName, email, phone string) (int64, error) {
	var (
		id              int64
		curName, curPho string
	)
	err := q.QueryRow(ctx, `
		SELECT id, full_name, phone FROM users WHERE email=$1
	`, email).Scan(&id, &curName, &curPho)
	switch {
	case err == nil:
		if curName != fullName || curPho != phone {
			if _, err := q.Exec(ctx, `
				UPDATE users SET full_name=$2, phone=$3 WHERE id=$1
			`, id, fullName, phone); err != nil {
				return 0, err
			}
		}
		return id, nil
	case errors.Is(err, pgx.ErrNoRows):
		if err := q.QueryRow(ctx, `
			INSERT INTO users (full_name, email, phone)
			VALUES ($1,$2,$3)
			RETURNING id
		`, fullName, email, phone).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	default:
		return 0, err
	}
}

// CreateRecord assembles submitter, coords, levels, the pass record and its
// images inside one transaction and returns the new record id.
func (s *Service) CreateRecord(ctx context.Context, req SubmitRequest) (int64, error) {
	p, err := s.parseSubmission(req)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	userID, err := s.reconcileSubmitter(ctx, tx, p.fullName, p.email, p.phone)
	if err != nil {
		return 0, err
	}

	var coordsID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO coords (latitude, longitude, height)
		VALUES ($1,$2,$3)
		RETURNING id
	`, p.coords.Latitude, p.coords.Longitude, p.coords.Height).Scan(&coordsID); err != nil {
		return 0, err
	}

	var levelsID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO levels (winter, summer, autumn, spring)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, req.Level.Winter, req.Level.Summer, req.Level.Autumn, req.Level.Spring).Scan(&levelsID); err != nil {
		return 0, err
	}

	var recordID int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO pereval (beauty_title, title, other_titles, connect, add_time,
		                     user_id, coords_id, levels_id, status, moderator_note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'')
		RETURNING id
	`, req.BeautyTitle, req.Title, req.OtherTitles, req.Connect, p.addTime,
		userID, coordsID, levelsID, string(StatusNew)).Scan(&recordID); err != nil {
		return 0, err
	}

	if err := insertImages(ctx, tx, recordID, p.images); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return recordID, nil
}

func insertImages(ctx context.Context, q db.Querier, recordID int64, images []Image) error {
	for _, img := range images {
		if _, err := q.Exec(ctx, `
			INSERT INTO images (pereval_id, title, data)
			VALUES ($1,$2,$3)
		`, recordID, img.Title, img.Data); err != nil {
			return err
		}
	}
	return nil
}

const recordSelect = `
	SELECT p.id, p.beauty_title, p.title, p.other_titles, p.connect, p.add_time,
	       p.status, p.moderator_note,
	       u.id, u.full_name, u.email, u.phone,
	       c.id, c.latitude, c.longitude, c.height,
	       l.id, l.winter, l.summer, l.autumn, l.spring
	FROM pereval p
	JOIN users u ON u.id = p.user_id
	JOIN coords c ON c.id = p.coords_id
	JOIN levels l ON l.id = p.levels_id
`

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec    Record
		status string
	)
	err := row.Scan(
		&rec.ID, &rec.BeautyTitle, &rec.Title, &rec.OtherTitles, &rec.Connect, &rec.AddTime,
		&status, &rec.ModeratorNote,
		&rec.User.ID, &rec.User.FullName, &rec.User.Email, &rec.User.Phone,
		&rec.Coords.ID, &rec.Coords.Latitude, &rec.Coords.Longitude, &rec.Coords.Height,
		&rec.Level.ID, &rec.Level.Winter, &rec.Level.Summer, &rec.Level.Autumn, &rec.Level.Spring,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Status, err = ParseStatus(status)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) loadImages(ctx context.Context, q db.Querier, recordID int64) ([]Image, error) {
	rows, err := q.Query(ctx, `
		SELECT id, title, data FROM images WHERE pereval_id=$1 ORDER BY id
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.Title, &img.Data); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func cacheKey(id int64) string {
	return fmt.Sprintf("pereval:%d", id)
}

// GetRecord loads a record with all linked entities, serving repeated reads
// from the cache when one is configured.
func (s *Service) GetRecord(ctx context.Context, id int64) (Record, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey(id)).Bytes(); err == nil {
			var rec Record
			if err := json.Unmarshal(data, &rec); err == nil {
				return rec, nil
			}
		}
	}

	rec, err := scanRecord(s.db.QueryRow(ctx, recordSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	rec.Images, err = s.loadImages(ctx, s.db, id)
	if err != nil {
		return Record{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			s.cache.Set(ctx, cacheKey(id), data, cacheTTL)
		}
	}
	return rec, nil
}

// ListByEmail returns the records linked to a normalized submitter email,
// newest first.
func (s *Service) ListByEmail(ctx context.Context, email string) ([]Record, error) {
	rows, err := s.db.Query(ctx, recordSelect+`
		WHERE u.email = $1
		ORDER BY p.id DESC
	`, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		records[i].Images, err = s.loadImages(ctx, s.db, records[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// UpdateRecord replaces the mutable fields and the image set of a record
// that is still under status "new". Submitter identity must be unchanged.
func (s *Service) UpdateRecord(ctx context.Context, id int64, req SubmitRequest) error {
	p, err := s.parseSubmission(req)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		status             string
		curName, curEmail  string
		curPhone           string
		coordsID, levelsID int64
	)
	err = tx.QueryRow(ctx, `
		SELECT p.status, p.coords_id, p.levels_id, u.full_name, u.email, u.phone
		FROM pereval p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
		FOR UPDATE OF p
	`, id).Scan(&status, &coordsID, &levelsID, &curName, &curEmail, &curPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	cur, err := ParseStatus(status)
	if err != nil {
		return err
	}
	if cur != StatusNew {
		return &PolicyError{Field: "status", Reason: fmt.Sprintf("record is not editable while status is %q", cur)}
	}
	if p.email != curEmail {
		return &PolicyError{Field: "email", Reason: "submitter email cannot be changed"}
	}
	if p.phone != curPhone {
		return &PolicyError{Field: "phone", Reason: "submitter phone cannot be changed"}
	}
	if p.fullName != curName {
		return &PolicyError{Field: "name", Reason: "submitter name cannot be changed"}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE coords SET latitude=$2, longitude=$3, height=$4 WHERE id=$1
	`, coordsID, p.coords.Latitude, p.coords.Longitude, p.coords.Height); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE levels SET winter=$2, summer=$3, autumn=$4, spring=$5 WHERE id=$1
	`, levelsID, req.Level.Winter, req.Level.Summer, req.Level.Autumn, req.Level.Spring); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE pereval
		SET beauty_title=$2, title=$3, other_titles=$4, connect=$5, add_time=$6, updated_at=now()
		WHERE id=$1
	`, id, req.BeautyTitle, req.Title, req.OtherTitles, req.Connect, p.addTime); err != nil {
		return err
	}

	// Bulk replace: the whole old set goes, the whole new set lands, or the
	// transaction rolls back with the old set intact.
	if _, err := tx.Exec(ctx, `DELETE FROM images WHERE pereval_id=$1`, id); err != nil {
		return err
	}
	if err := insertImages(ctx, tx, id, p.images); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Del(ctx, cacheKey(id))
	}
	return nil
}
