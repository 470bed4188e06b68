package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestUserIsAdmin verifies that IsAdmin returns true only for the admin role.
func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{name: "admin role", role: RoleAdmin, want: true},
		{name: "user role", role: RoleUser, want: false},
		{name: "empty role", role: Role(""), want: false},
		{name: "uppercase ADMIN", role: Role("ADMIN"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role}
			if got := u.IsAdmin(); got != tt.want {
				t.Errorf("User{Role: %q}.IsAdmin() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

// TestIdentityIsAdmin covers the nil (anonymous) identity.
func TestIdentityIsAdmin(t *testing.T) {
	var anon *Identity
	if anon.IsAdmin() {
		t.Error("nil identity must not be admin")
	}
	if !(&Identity{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin identity should be admin")
	}
	if (&Identity{Role: RoleUser}).IsAdmin() {
		t.Error("user identity should not be admin")
	}
}

// TestUserJSONOmitsPassword ensures the hash never leaves the process.
func TestUserJSONOmitsPassword(t *testing.T) {
	u := User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com", PasswordHash: "$2a$12$secret", Role: RoleUser}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "secret") || strings.Contains(string(b), "password") {
		t.Errorf("serialized user leaks password: %s", b)
	}
}
