package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/animstudio/solution-engine/pkg/models"
)

// Store represents the GORM database connection backed by SQLite.
type Store struct {
	DB    *gorm.DB
	sqlDB *sql.DB
}

// Config holds database configuration.
type Config struct {
	Path     string          // SQLite database file path (":memory:" for tests)
	MaxConns int             // Maximum number of open connections (default: 4)
	LogLevel logger.LogLevel // GORM log level (logger.Silent for production)
}

// NewStore opens the SQLite database, configures the pool and runs
// migrations.
func NewStore(cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000", cfg.Path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:      logger.Default.LogMode(cfg.LogLevel),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// SQLite serializes writers; a small pool avoids lock contention.
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{DB: db, sqlDB: sqlDB}, nil
}

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: solutions table
		{
			ID: "001_solutions",
			Migrate: func(tx *gorm.DB) error {
				// AutoMigrate creates the table with all indexes from struct tags
				return tx.AutoMigrate(&SolutionRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("solutions")
			},
		},

		// Migration 002: ordered favorites table
		{
			ID: "002_favorites",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&FavoriteRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("favorites")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveSolution upserts a solution record keyed by ID.
func (s *Store) SaveSolution(ctx context.Context, sol *models.Solution) error {
	record := recordFromSolution(sol)
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("save solution %s: %w", sol.ID, err)
	}
	return nil
}

// DeleteSolution removes a solution record. Deleting an unknown ID is a
// no-op.
func (s *Store) DeleteSolution(ctx context.Context, id string) error {
	if err := s.DB.WithContext(ctx).Delete(&SolutionRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete solution %s: %w", id, err)
	}
	return nil
}

// LoadSolutions reads every solution record in creation order. Malformed
// records are skipped with a warning instead of failing the whole load,
// so one corrupt row cannot take the corpus down. Returns the loaded
// solutions and the number of skipped records.
func (s *Store) LoadSolutions(ctx context.Context) ([]*models.Solution, int, error) {
	var records []SolutionRecord
	err := s.DB.WithContext(ctx).
		Order("created_at_epoch ASC").
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("load solutions: %w", err)
	}

	solutions := make([]*models.Solution, 0, len(records))
	skipped := 0
	for i := range records {
		sol, err := records[i].ToSolution()
		if err != nil {
			skipped++
			log.Warn().
				Err(err).
				Str("solution_id", records[i].ID).
				Msg("Skipping malformed solution record")
			continue
		}
		solutions = append(solutions, sol)
	}

	return solutions, skipped, nil
}

// SaveFavorites replaces the persisted favorites list with the given
// ordered IDs.
func (s *Store) SaveFavorites(ctx context.Context, ids []string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&FavoriteRecord{}).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		records := make([]FavoriteRecord, len(ids))
		for i, id := range ids {
			records[i] = FavoriteRecord{SolutionID: id, Position: i}
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}

// LoadFavorites returns the persisted favorites in stored order.
func (s *Store) LoadFavorites(ctx context.Context) ([]string, error) {
	var records []FavoriteRecord
	err := s.DB.WithContext(ctx).
		Order("position ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.SolutionID
	}
	return ids, nil
}

// CountSolutions returns the number of persisted solution records.
func (s *Store) CountSolutions(ctx context.Context) (int64, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&SolutionRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count solutions: %w", err)
	}
	return count, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}
