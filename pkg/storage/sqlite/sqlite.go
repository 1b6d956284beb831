package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/achrilik/storefront/pkg/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type kvRecord struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (kvRecord) TableName() string {
	return "kv_entries"
}

// KV stores storefront state in a local SQLite database.
type KV struct {
	conn *gorm.DB
}

// New opens (or creates) the SQLite database at path and migrates the kv table.
func New(path string) (*KV, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := conn.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("migrating kv table: %w", err)
	}
	return &KV{conn: conn}, nil
}

func (k *KV) Get(ctx context.Context, key string) (string, error) {
	var record kvRecord
	err := k.conn.WithContext(ctx).First(&record, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return record.Value, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	record := kvRecord{Key: key, Value: value}
	return k.conn.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, UpdateAll: true}).
		Create(&record).Error
}

func (k *KV) Remove(ctx context.Context, key string) error {
	return k.conn.WithContext(ctx).Delete(&kvRecord{}, "key = ?", key).Error
}

func (k *KV) Close() error {
	sqlDB, err := k.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
