package prefs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one persisted preference row.
type Entry struct {
	Key       string `gorm:"column:pref_key;primaryKey;size:128"`
	IntValue  int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName overrides the gorm default.
func (Entry) TableName() string { return "player_prefs" }

// Gorm is a Store backed by any gorm dialect.
type Gorm struct {
	db *gorm.DB

	mu      sync.Mutex
	pending staged
}

// NewGorm creates the store and migrates its table.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if db == nil {
		return nil, errors.New("prefs: nil database")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrating player_prefs: %w", err)
	}
	return &Gorm{db: db, pending: newStaged()}, nil
}

func (g *Gorm) GetInt(key string, def int) (int, error) {
	g.mu.Lock()
	v, present, found := g.pending.lookup(key)
	g.mu.Unlock()
	if found {
		if present {
			return v, nil
		}
		return def, nil
	}

	var e Entry
	err := g.db.Where("pref_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("reading %s: %w", key, err)
	}
	return e.IntValue, nil
}

func (g *Gorm) SetInt(key string, value int) error {
	if err := validKey(key); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending.set(key, value)
	return nil
}

func (g *Gorm) DeleteKey(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending.del(key)
	return nil
}

func (g *Gorm) DeleteAll() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending.clear()
	return nil
}

// Save commits staged writes in one transaction. On failure the staged
// writes are kept so a later Save can retry them.
func (g *Gorm) Save() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.pending.dirty() {
		return nil
	}

	now := time.Now().UTC()
	err := g.db.Transaction(func(tx *gorm.DB) error {
		if g.pending.deleteAll {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error; err != nil {
				return fmt.Errorf("clearing prefs: %w", err)
			}
		}

		var upserts []Entry
		for k, v := range g.pending.values {
			if v == nil {
				if err := tx.Where("pref_key = ?", k).Delete(&Entry{}).Error; err != nil {
					return fmt.Errorf("deleting %s: %w", k, err)
				}
				continue
			}
			upserts = append(upserts, Entry{Key: k, IntValue: *v, UpdatedAt: now})
		}
		if len(upserts) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pref_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"int_value", "updated_at"}),
		}).Create(&upserts).Error
	})
	if err != nil {
		return err
	}

	g.pending.reset()
	return nil
}

// Close is a no-op; the database manager owns the connection.
func (g *Gorm) Close() error { return nil }
