package database

import (
	"context"
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	ctx := context.Background()

	var before int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&before); err != nil {
		t.Fatalf("count users: %v", err)
	}

	// Other test packages may share the database, so it is not cleared. Seed
	// only writes when the users table is empty.
	if err := Seed(ctx, db, "admin@inkpost.local", "admin123"); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db, "admin@inkpost.local", "admin123"); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	if before > 0 {
		return
	}

	var admins int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&admins); err != nil {
		t.Fatalf("count admin users: %v", err)
	}
	if admins < 1 {
		t.Errorf("expected at least 1 admin user, got %d", admins)
	}
}
