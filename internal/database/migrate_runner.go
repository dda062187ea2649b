package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"recipebox/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog is the row written when a migration is applied.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// MigrationStatus pairs a known migration with whether it has been applied.
type MigrationStatus struct {
	Migration
	Applied bool
}

// AppliedVersions lists the versions recorded in migration_logs, creating the table if needed.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]int, error) {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&MigrationLog{}); err != nil {
		return nil, fmt.Errorf("failed to ensure migration_logs: %w", err)
	}
	versions := []int{}
	if err := db.Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to read migration_logs: %w", err)
	}
	return versions, nil
}

// ledger compares the embedded migrations with what the database has applied.
type ledger struct {
	all     []Migration
	applied map[int]bool
}

func readLedger(ctx context.Context, db *gorm.DB) (*ledger, error) {
	all, err := LoadMigrations()
	if err != nil {
		return nil, err
	}
	versions, err := AppliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := validateAppliedVersions(versions, all); err != nil {
		return nil, err
	}
	l := &ledger{all: all, applied: make(map[int]bool, len(versions))}
	for _, v := range versions {
		l.applied[v] = true
	}
	return l, nil
}

func (l *ledger) pending() []Migration {
	var out []Migration
	for _, m := range l.all {
		if !l.applied[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

func (l *ledger) find(version int) (Migration, bool) {
	i := slices.IndexFunc(l.all, func(m Migration) bool { return m.Version == version })
	if i < 0 {
		return Migration{}, false
	}
	return l.all[i], true
}

// Status reports every embedded migration and whether it has been applied.
func Status(ctx context.Context, db *gorm.DB) ([]MigrationStatus, error) {
	l, err := readLedger(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, len(l.all))
	for i, m := range l.all {
		out[i] = MigrationStatus{Migration: m, Applied: l.applied[m.Version]}
	}
	return out, nil
}

// RunMigrations applies pending migrations in version order, one transaction each.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	l, err := readLedger(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range l.pending() {
		middleware.Logger.InfoContext(ctx, "applying migration", slog.String("migration", m.String()))
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return fmt.Errorf("migration %s: %w", m, err)
			}
			return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RollbackMigration runs the down script of an applied migration and forgets it.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	l, err := readLedger(ctx, db)
	if err != nil {
		return err
	}
	m, ok := l.find(version)
	if !ok {
		return fmt.Errorf("migration version %d not found", version)
	}
	if !l.applied[version] {
		return fmt.Errorf("migration %s has not been applied", m)
	}

	middleware.Logger.InfoContext(ctx, "rolling back migration", slog.String("migration", m.String()))
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", m, err)
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
}

// validateAppliedVersions rejects a database that ran migrations this build does not know.
func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, v := range applied {
		known := slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == v })
		if !known {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("migration_logs has versions unknown to this build: %s", strings.Join(unknown, ", "))
}
