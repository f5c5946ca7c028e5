package usage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Event{})
}

// Insert is idempotent on the event id; redeliveries are no-ops.
func (r *Repo) Insert(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e).Error
}

func (r *Repo) Get(ctx context.Context, id string) (*Event, error) {
	var e Event
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// Recent returns events newest first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Event
	if err := r.db.WithContext(ctx).
		Order("at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountByMode(ctx context.Context) (map[Mode]int64, error) {
	var rows []struct {
		Mode  Mode
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&Event{}).
		Select("mode, count(*) as total").
		Group("mode").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[Mode]int64, len(rows))
	for _, row := range rows {
		out[row.Mode] = row.Total
	}
	return out, nil
}
