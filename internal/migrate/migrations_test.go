package migrate_test

import (
	"context"
	"testing"

	"fieldline/internal/db"
	"fieldline/internal/migrate"
)

func TestMigrateIsIdempotent(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()

	v, err := migrate.Version(ctx, conn)
	if err != nil {
		t.Fatalf("version before migrate: %v", err)
	}
	if v != 0 {
		t.Fatalf("fresh database version = %d, want 0", v)
	}

	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	v, err = migrate.Version(ctx, conn)
	if err != nil {
		t.Fatalf("version after migrate: %v", err)
	}
	if v < 1 {
		t.Fatalf("migrated version = %d, want >= 1", v)
	}

	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	again, err := migrate.Version(ctx, conn)
	if err != nil {
		t.Fatalf("version after re-migrate: %v", err)
	}
	if again != v {
		t.Fatalf("re-migrate moved version %d -> %d", v, again)
	}
}
