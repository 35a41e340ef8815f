package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frameproof/frameproof/internal/domain/model"
)

// threadRow is the gorm row backing a thread. Shapes travel as a JSON
// column; they are opaque to queries and only read back whole.
type threadRow struct {
	ID        string `gorm:"primaryKey"`
	ClipID    string `gorm:"index"`
	Chip      int
	State     string
	TStartMS  int64
	TEndMS    *int64
	Shapes    string
	Round     int
	CreatedAt time.Time
}

type commentRow struct {
	ID          string `gorm:"primaryKey"`
	ThreadID    string `gorm:"index"`
	AuthorID    string
	Body        string
	Attachments string
	CreatedAt   time.Time
}

type clipRow struct {
	ClipID       string `gorm:"primaryKey"`
	Status       string
	ShareToken   string
	CurrentRound int
}

type roundRow struct {
	ClipID   string `gorm:"primaryKey"`
	Round    int    `gorm:"primaryKey;autoIncrement:false"`
	ClosedAt time.Time
	Threads  string
}

// SQLiteStore implements Persister on an embedded SQLite database.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (and migrates) the database at path. Use
// ":memory:" for an ephemeral store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrTransport, path, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&threadRow{}, &commentRow{}, &clipRow{}, &roundRow{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", ErrTransport, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) LoadThreads(ctx context.Context, clipID string) ([]model.Thread, error) {
	var rows []threadRow
	if err := s.db.WithContext(ctx).
		Where("clip_id = ?", clipID).
		Order("chip asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load threads: %w", ErrTransport, err)
	}

	threads := make([]model.Thread, 0, len(rows))
	for _, row := range rows {
		t, err := s.hydrateThread(ctx, row)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, nil
}

func (s *SQLiteStore) hydrateThread(ctx context.Context, row threadRow) (model.Thread, error) {
	t := model.Thread{
		ID:        row.ID,
		ClipID:    row.ClipID,
		Chip:      row.Chip,
		State:     model.ThreadState(row.State),
		TStartMS:  row.TStartMS,
		TEndMS:    row.TEndMS,
		Round:     row.Round,
		CreatedAt: row.CreatedAt,
	}
	if row.Shapes != "" {
		if err := json.Unmarshal([]byte(row.Shapes), &t.Shapes); err != nil {
			return model.Thread{}, fmt.Errorf("%w: decode shapes: %w", ErrValidation, err)
		}
	}

	var comments []commentRow
	if err := s.db.WithContext(ctx).
		Where("thread_id = ?", row.ID).
		Order("created_at asc").
		Find(&comments).Error; err != nil {
		return model.Thread{}, fmt.Errorf("%w: load comments: %w", ErrTransport, err)
	}
	t.Comments = make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		comment := model.Comment{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Body:      c.Body,
			CreatedAt: c.CreatedAt,
		}
		if c.Attachments != "" {
			if err := json.Unmarshal([]byte(c.Attachments), &comment.Attachments); err != nil {
				return model.Thread{}, fmt.Errorf("%w: decode attachments: %w", ErrValidation, err)
			}
		}
		t.Comments = append(t.Comments, comment)
	}
	return t, nil
}

func (s *SQLiteStore) InsertThread(ctx context.Context, thread model.Thread) error {
	if thread.ID == "" || thread.ClipID == "" {
		return fmt.Errorf("%w: thread id and clip id are required", ErrValidation)
	}
	shapes, err := json.Marshal(thread.Shapes)
	if err != nil {
		return fmt.Errorf("%w: encode shapes: %w", ErrValidation, err)
	}

	row := threadRow{
		ID:        thread.ID,
		ClipID:    thread.ClipID,
		Chip:      thread.Chip,
		State:     string(thread.State),
		TStartMS:  thread.TStartMS,
		TEndMS:    thread.TEndMS,
		Shapes:    string(shapes),
		Round:     thread.Round,
		CreatedAt: thread.CreatedAt,
	}

	// Thread plus first comments land in one transaction; a save is atomic.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, c := range thread.Comments {
			cRow, err := encodeComment(thread.ID, c)
			if err != nil {
				return err
			}
			if err := tx.Create(&cRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: insert thread: %w", ErrTransport, err)
	}
	return nil
}

func encodeComment(threadID string, c model.Comment) (commentRow, error) {
	attachments, err := json.Marshal(c.Attachments)
	if err != nil {
		return commentRow{}, fmt.Errorf("%w: encode attachments: %w", ErrValidation, err)
	}
	return commentRow{
		ID:          c.ID,
		ThreadID:    threadID,
		AuthorID:    c.AuthorID,
		Body:        c.Body,
		Attachments: string(attachments),
		CreatedAt:   c.CreatedAt,
	}, nil
}

func (s *SQLiteStore) InsertComment(ctx context.Context, threadID string, comment model.Comment) error {
	if err := s.requireThread(ctx, threadID); err != nil {
		return err
	}
	row, err := encodeComment(threadID, comment)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: insert comment: %w", ErrTransport, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateThreadState(ctx context.Context, threadID string, state model.ThreadState) error {
	res := s.db.WithContext(ctx).
		Model(&threadRow{}).
		Where("id = ?", threadID).
		Update("state", string(state))
	if res.Error != nil {
		return fmt.Errorf("%w: update state: %w", ErrTransport, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	return nil
}

func (s *SQLiteStore) UpdateThreadShapes(ctx context.Context, threadID string, shapes []model.Shape) error {
	encoded, err := json.Marshal(shapes)
	if err != nil {
		return fmt.Errorf("%w: encode shapes: %w", ErrValidation, err)
	}
	res := s.db.WithContext(ctx).
		Model(&threadRow{}).
		Where("id = ?", threadID).
		Update("shapes", string(encoded))
	if res.Error != nil {
		return fmt.Errorf("%w: update shapes: %w", ErrTransport, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	return nil
}

func (s *SQLiteStore) UpdateAssetStatus(ctx context.Context, clipID string, status model.AssetStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrValidation, status)
	}
	return s.upsertClip(ctx, clipID, map[string]interface{}{"status": string(status)})
}

func (s *SQLiteStore) ShareToken(ctx context.Context, clipID string) (string, error) {
	row, err := s.clip(ctx, clipID)
	if err != nil {
		return "", err
	}
	if row.ShareToken == "" {
		return "", fmt.Errorf("%w: share token for clip %s", ErrNotFound, clipID)
	}
	return row.ShareToken, nil
}

func (s *SQLiteStore) SaveShareToken(ctx context.Context, clipID, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty share token", ErrValidation)
	}
	return s.upsertClip(ctx, clipID, map[string]interface{}{"share_token": token})
}

func (s *SQLiteStore) CurrentRound(ctx context.Context, clipID string) (int, error) {
	row, err := s.clip(ctx, clipID)
	if errors.Is(err, ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if row.CurrentRound == 0 {
		return 1, nil
	}
	return row.CurrentRound, nil
}

func (s *SQLiteStore) CloseRound(ctx context.Context, clipID string, record model.RoundRecord, next int) error {
	threads, err := json.Marshal(record.Threads)
	if err != nil {
		return fmt.Errorf("%w: encode round threads: %w", ErrValidation, err)
	}
	row := roundRow{
		ClipID:   clipID,
		Round:    record.Round,
		ClosedAt: record.ClosedAt,
		Threads:  string(threads),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		// Frozen threads leave the current working set.
		ids := make([]string, 0, len(record.Threads))
		for _, t := range record.Threads {
			ids = append(ids, t.ID)
		}
		if len(ids) > 0 {
			if err := tx.Where("id IN ?", ids).Delete(&threadRow{}).Error; err != nil {
				return err
			}
		}
		return upsertClipTx(tx, clipID, map[string]interface{}{"current_round": next})
	})
	if err != nil {
		return fmt.Errorf("%w: close round: %w", ErrTransport, err)
	}
	return nil
}

func (s *SQLiteStore) RoundHistory(ctx context.Context, clipID string) ([]model.RoundRecord, error) {
	var rows []roundRow
	if err := s.db.WithContext(ctx).
		Where("clip_id = ?", clipID).
		Order("round asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load round history: %w", ErrTransport, err)
	}
	records := make([]model.RoundRecord, 0, len(rows))
	for _, row := range rows {
		rec := model.RoundRecord{Round: row.Round, ClosedAt: row.ClosedAt}
		if row.Threads != "" {
			if err := json.Unmarshal([]byte(row.Threads), &rec.Threads); err != nil {
				return nil, fmt.Errorf("%w: decode round threads: %w", ErrValidation, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SQLiteStore) requireThread(ctx context.Context, threadID string) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&threadRow{}).
		Where("id = ?", threadID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
	}
	return nil
}

func (s *SQLiteStore) clip(ctx context.Context, clipID string) (clipRow, error) {
	var row clipRow
	err := s.db.WithContext(ctx).First(&row, "clip_id = ?", clipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return clipRow{}, fmt.Errorf("%w: clip %s", ErrNotFound, clipID)
	}
	if err != nil {
		return clipRow{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return row, nil
}

func (s *SQLiteStore) upsertClip(ctx context.Context, clipID string, values map[string]interface{}) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertClipTx(tx, clipID, values)
	})
	if err != nil {
		return fmt.Errorf("%w: upsert clip: %w", ErrTransport, err)
	}
	return nil
}

func upsertClipTx(tx *gorm.DB, clipID string, values map[string]interface{}) error {
	var row clipRow
	err := tx.First(&row, "clip_id = ?", clipID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = clipRow{ClipID: clipID, Status: string(model.StatusInReview), CurrentRound: 1}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return tx.Model(&clipRow{}).Where("clip_id = ?", clipID).Updates(values).Error
}
