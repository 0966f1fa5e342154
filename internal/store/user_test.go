package store

import "testing"

func TestUserCreateAndFind(t *testing.T) {
	db := testDB(t)
	users := NewUserStore(db)
	username := newTestUser(t, db)

	user, err := users.FindByUsername(username)
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != username {
		t.Errorf("Username = %q, want %q", user.Username, username)
	}
	if user.Plan != "free" {
		t.Errorf("Plan = %q, want free", user.Plan)
	}
	if user.PasswordHash == "secret123" {
		t.Error("password must be stored hashed")
	}
}

func TestUserFindMissing(t *testing.T) {
	db := testDB(t)
	users := NewUserStore(db)

	user, err := users.FindByUsername("does-not-exist")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for missing user, got %+v", user)
	}
}

func TestUserCheckPassword(t *testing.T) {
	db := testDB(t)
	users := NewUserStore(db)
	username := newTestUser(t, db)

	user, err := users.FindByUsername(username)
	if err != nil || user == nil {
		t.Fatalf("FindByUsername: %v", err)
	}

	if !users.CheckPassword(user, "secret123") {
		t.Error("correct password rejected")
	}
	if users.CheckPassword(user, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserDuplicateUsername(t *testing.T) {
	db := testDB(t)
	users := NewUserStore(db)
	username := newTestUser(t, db)

	if _, err := users.Create(username, "other@example.test", "pw", "free"); err == nil {
		t.Error("expected unique violation for duplicate username")
	}
}
