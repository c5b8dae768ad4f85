// Package store writes ministores into the MySQL schema shared with the book
// platform.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"ministore/internal/logging"
)

// ErrBookNotFound is returned when no book has the requested slug.
var ErrBookNotFound = errors.New("book not found")

// Store wraps a gorm connection.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to MySQL with the given DSN.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	return OpenDialector(mysql.Open(dsn), logger)
}

// OpenDialector connects using any gorm dialector.
func OpenDialector(dialector gorm.Dialector, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger = logging.OrNop(logger)
	logger.Info("database connection established", zap.String("dialect", dialector.Name()))
	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.logger.Info("disconnected from the database")
	return sqlDB.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// CreateBook inserts a cliperest_book row and returns its id.
func (s *Store) CreateBook(ctx context.Context, book *Book) (uint64, error) {
	if err := s.db.WithContext(ctx).Create(book).Error; err != nil {
		return 0, fmt.Errorf("failed to create book: %w", err)
	}
	if book.ID == 0 {
		return 0, fmt.Errorf("failed to create book: no id returned")
	}
	s.logger.Debug("book inserted", zap.Uint64("book_id", book.ID), zap.String("slug", book.Slug))
	return book.ID, nil
}

// CreateClippings inserts all clippings in one statement and returns the
// number of inserted rows.
func (s *Store) CreateClippings(ctx context.Context, clippings []Clipping) (int64, error) {
	if len(clippings) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Create(&clippings)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to create clippings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SetClipCount updates numClips of a book.
func (s *Store) SetClipCount(ctx context.Context, bookID uint64, n int64) error {
	err := s.db.WithContext(ctx).Model(&Book{}).Where("id = ?", bookID).Update("numClips", n).Error
	if err != nil {
		return fmt.Errorf("failed to update numClips: %w", err)
	}
	return nil
}

// FindBookIDBySlug looks up the id of the book with the given slug.
func (s *Store) FindBookIDBySlug(ctx context.Context, slug string) (uint64, error) {
	var book Book
	err := s.db.WithContext(ctx).Select("id").Where("slug = ?", slug).Take(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: slug=%s", ErrBookNotFound, slug)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up book: %w", err)
	}
	return book.ID, nil
}

// EnsureCatalogTables creates the ministore tables when missing. The
// cliperest tables are never migrated from here.
func (s *Store) EnsureCatalogTables(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if s.db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	if err := db.AutoMigrate(&Ministore{}, &MinistoreItem{}, &MinistoreItemMap{}); err != nil {
		return fmt.Errorf("failed to ensure catalog tables: %w", err)
	}
	return nil
}

// UpsertItems inserts items, overwriting rows that already have the same id.
func (s *Store) UpsertItems(ctx context.Context, items []MinistoreItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "description", "url", "keywords", "language"}),
	}).Create(&items)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to upsert ministore items: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateMinistore inserts a ministores row.
func (s *Store) CreateMinistore(ctx context.Context, m *Ministore) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create ministore: %w", err)
	}
	return nil
}

// LinkItems attaches items to a ministore, ignoring links that already exist.
func (s *Store) LinkItems(ctx context.Context, links []MinistoreItemMap) error {
	if len(links) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	if err != nil {
		return fmt.Errorf("failed to link ministore items: %w", err)
	}
	return nil
}

// MinistoreItems returns the items of a ministore ordered by position.
func (s *Store) MinistoreItems(ctx context.Context, ministoreID string) ([]MinistoreItem, error) {
	var items []MinistoreItem
	err := s.db.WithContext(ctx).
		Table("ministore_items").
		Select("ministore_items.*").
		Joins("JOIN ministore_item_map ON ministore_item_map.item_id = ministore_items.id").
		Where("ministore_item_map.ministore_id = ?", ministoreID).
		Order("ministore_item_map.pos").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ministore items: %w", err)
	}
	return items, nil
}
