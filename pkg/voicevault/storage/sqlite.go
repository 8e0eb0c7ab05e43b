package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "voicevault.sqlite3"
const errCatalogNil = "catalog client is nil"

// Catalog is the persistent name->path registry. The connection is opened
// once and pooled; operations borrow from the pool.
type Catalog struct {
	DB *gorm.DB
	db *sql.DB
}

// Voice is one registered audio sample. Path is the unique key; Name is
// purely descriptive and carries no uniqueness constraint.
type Voice struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"index:idx_voice_name" json:"name"`
	Path      string `gorm:"uniqueIndex:idx_voice_path" json:"path"`
	CreatedAt time.Time
}

func NewCatalog() (*Catalog, error) {
	dbPath := os.Getenv("VOICE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewCatalogWithPath(dbPath)
}

func NewCatalogWithPath(dbPath string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Voice{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Catalog{DB: db, db: sqlDB}, nil
}

func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterVoice inserts a row for path unless one already exists. The bool
// reports whether a new row was created; re-registering a known path is a
// no-op, not an error.
func (c *Catalog) RegisterVoice(name, path string) (bool, error) {
	if c == nil || c.DB == nil {
		return false, errors.New(errCatalogNil)
	}

	var existing Voice
	err := c.DB.Where("path = ?", path).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("querying existing voice: %w", err)
	}

	voice := Voice{ID: uuid.NewString(), Name: name, Path: path}
	err = c.DB.Create(&voice).Error
	if err != nil {
		// A concurrent insert of the same path loses the race but is still
		// a successful no-op from the caller's point of view.
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "constraint failed") {
			return false, nil
		}
		return false, fmt.Errorf("creating voice: %w", err)
	}

	return true, nil
}

// IsRegistered reports whether path already has a catalog row.
func (c *Catalog) IsRegistered(path string) (bool, error) {
	if c == nil || c.DB == nil {
		return false, errors.New(errCatalogNil)
	}
	var count int64
	if err := c.DB.Model(&Voice{}).Where("path = ?", path).Count(&count).Error; err != nil {
		return false, fmt.Errorf("querying voice by path: %w", err)
	}
	return count > 0, nil
}

// ListVoices returns every catalog row.
func (c *Catalog) ListVoices() ([]Voice, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errCatalogNil)
	}
	var voices []Voice
	if err := c.DB.Order("created_at").Find(&voices).Error; err != nil {
		return nil, fmt.Errorf("listing voices: %w", err)
	}
	return voices, nil
}

// SearchByName returns rows whose name contains substr, unanchored. SQLite's
// default LIKE collation applies, which is case-insensitive for ASCII.
func (c *Catalog) SearchByName(substr string) ([]Voice, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errCatalogNil)
	}
	var voices []Voice
	if err := c.DB.Where("name LIKE ?", "%"+substr+"%").Find(&voices).Error; err != nil {
		return nil, fmt.Errorf("searching voices: %w", err)
	}
	return voices, nil
}

// CountVoices returns the number of catalog rows.
func (c *Catalog) CountVoices() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errCatalogNil)
	}
	var count int64
	if err := c.DB.Model(&Voice{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting voices: %w", err)
	}
	return count, nil
}

// ClearVoices removes every catalog row. File bytes on disk are untouched;
// the catalog owns only the path mapping.
func (c *Catalog) ClearVoices() error {
	if c == nil || c.DB == nil {
		return errors.New(errCatalogNil)
	}
	if err := c.DB.Where("1 = 1").Delete(&Voice{}).Error; err != nil {
		return fmt.Errorf("clearing voices: %w", err)
	}
	return nil
}
