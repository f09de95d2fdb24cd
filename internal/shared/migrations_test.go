package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected storage and jobs migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		if migrations[0].Name != "create_storage" {
			t.Errorf("expected first migration name create_storage, got %q", migrations[0].Name)
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"storage", "jobs", "jobs_sequence"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		var count int
		db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		var newCount int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&newCount); err != nil {
			t.Fatalf("failed to query schema_migrations after rollback: %v", err)
		}
		if newCount != count-1 {
			t.Errorf("expected %d applied migrations after rollback, got %d", count-1, newCount)
		}

		if _, err := db.Exec("SELECT 1 FROM jobs LIMIT 1"); err == nil {
			t.Error("jobs table should be dropped by rollback")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		statuses, err := Migrations(db)
		if err != nil {
			t.Fatalf("Migrations() error = %v", err)
		}
		for _, s := range statuses {
			if !s.Applied {
				t.Errorf("migration %d (%s) should be applied", s.Version, s.Name)
			}
		}
	})

	t.Run("OpenDatabase migrates file database", func(t *testing.T) {
		path := t.TempDir() + "/nested/mazeed.db"
		db, err := OpenDatabase(DatabaseConfig{Path: path, MaxOpenConns: 2, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("OpenDatabase() error = %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("INSERT INTO storage (key, value) VALUES ('k', 'v')"); err != nil {
			t.Errorf("storage table should be writable: %v", err)
		}
	})
}
