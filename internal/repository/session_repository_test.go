package repository

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nkalandia/chatlink/internal/session"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chatlink.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	if err := db.AutoMigrate(&SessionSlotModel{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestSaveAndLoad(t *testing.T) {
	store := NewSessionStore(testDB(t))

	saved := &session.Session{Username: "alice", Token: "tok123", ClientID: "cid-1"}
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for a saved session")
	}
	if loaded.Username != "alice" || loaded.Token != "tok123" || loaded.ClientID != "cid-1" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSaveOverwritesSlot(t *testing.T) {
	store := NewSessionStore(testDB(t))

	if err := store.Save(context.Background(), &session.Session{Username: "alice", Token: "old", ClientID: "cid-1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(context.Background(), &session.Session{Username: "alice", Token: "new", ClientID: "cid-2"}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Token != "new" || loaded.ClientID != "cid-2" {
		t.Errorf("loaded = %+v, want the overwritten slot", loaded)
	}
}

func TestLoadEmptySlot(t *testing.T) {
	store := NewSessionStore(testDB(t))

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("empty slot must load as nil, got %+v", loaded)
	}
}

func TestLoadIncompleteSlotIsNil(t *testing.T) {
	db := testDB(t)
	store := NewSessionStore(db)

	// A username without a token is not a usable identity.
	db.Create(&SessionSlotModel{Key: slotKeyUser, Value: "alice"})

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("incomplete slot must load as nil, got %+v", loaded)
	}
}

func TestClear(t *testing.T) {
	store := NewSessionStore(testDB(t))

	if err := store.Save(context.Background(), &session.Session{Username: "alice", Token: "tok", ClientID: "cid"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Errorf("cleared slot must load as nil, got %+v", loaded)
	}
}
