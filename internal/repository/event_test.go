/*
 *  Copyright (c) 2026, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"api-manager/src/internal/database"
	"api-manager/src/internal/model"
)

func setupTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	db := &database.DB{DB: sqlDB}
	createTestSchema(t, db)

	cleanup := func() {
		db.Close()
	}
	return db, cleanup
}

func createTestSchema(t *testing.T, db *database.DB) {
	t.Helper()

	schema := `
	CREATE TABLE apis (
		uuid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		description TEXT,
		lifecycle_state TEXT NOT NULL DEFAULT 'CREATED',
		deployment_state TEXT NOT NULL DEFAULT 'STOPPED',
		workflow_state TEXT DEFAULT 'DRAFT',
		definition TEXT,
		picture TEXT,
		deployed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		api_uuid TEXT NOT NULL,
		type TEXT NOT NULL,
		payload TEXT,
		properties TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX idx_events_api_type ON events(api_uuid, type);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}
}

func appendEvent(t *testing.T, repo EventRepository, id, apiID, eventType string, createdAt time.Time, properties map[string]string) {
	t.Helper()
	err := repo.Append(context.Background(), &model.Event{
		ID:         id,
		ApiID:      apiID,
		Type:       eventType,
		Payload:    []byte(`{"name":"orders","version":"1.0.0"}`),
		Properties: properties,
		CreatedAt:  createdAt,
	})
	if err != nil {
		t.Fatalf("failed to append event %s: %v", id, err)
	}
}

func TestEventRepoAppendAndFindLatest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEventRepo(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	appendEvent(t, repo, "ev-1", "api-1", "PUBLISH_API", base, map[string]string{"deployment_number": "1"})
	appendEvent(t, repo, "ev-2", "api-1", "START_API", base.Add(time.Minute), nil)
	appendEvent(t, repo, "ev-3", "api-1", "PUBLISH_API", base.Add(2*time.Minute), map[string]string{"deployment_number": "2"})
	appendEvent(t, repo, "ev-4", "api-2", "PUBLISH_API", base.Add(3*time.Minute), map[string]string{"deployment_number": "1"})

	latest, err := repo.FindLatestByTypes(context.Background(), "api-1", "PUBLISH_API")
	if err != nil {
		t.Fatalf("FindLatestByTypes() error = %v", err)
	}
	if latest == nil || latest.ID != "ev-3" {
		t.Fatalf("latest publish = %v, want ev-3", latest)
	}
	if got := latest.Properties["deployment_number"]; got != "2" {
		t.Fatalf("deployment_number = %q, want 2", got)
	}

	// Multiple types select across them.
	latest, err = repo.FindLatestByTypes(context.Background(), "api-1", "PUBLISH_API", "START_API")
	if err != nil {
		t.Fatalf("FindLatestByTypes() error = %v", err)
	}
	if latest == nil || latest.ID != "ev-3" {
		t.Fatalf("latest across types = %v, want ev-3", latest)
	}

	// No matching events is not an error.
	latest, err = repo.FindLatestByTypes(context.Background(), "api-1", "UNPUBLISH_API")
	if err != nil {
		t.Fatalf("FindLatestByTypes() error = %v", err)
	}
	if latest != nil {
		t.Fatalf("latest unpublish = %v, want nil", latest)
	}
}

func TestEventRepoFindLatestBreaksTiesByInsertionOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEventRepo(db)

	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	appendEvent(t, repo, "ev-1", "api-1", "PUBLISH_API", createdAt, nil)
	appendEvent(t, repo, "ev-2", "api-1", "PUBLISH_API", createdAt, nil)

	latest, err := repo.FindLatestByTypes(context.Background(), "api-1", "PUBLISH_API")
	if err != nil {
		t.Fatalf("FindLatestByTypes() error = %v", err)
	}
	if latest.ID != "ev-2" {
		t.Fatalf("latest = %s, want the later-inserted ev-2", latest.ID)
	}
}

func TestEventRepoFindAllOrdering(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEventRepo(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	appendEvent(t, repo, "ev-1", "api-1", "PUBLISH_API", base, nil)
	appendEvent(t, repo, "ev-2", "api-1", "STOP_API", base.Add(time.Minute), nil)
	appendEvent(t, repo, "ev-3", "api-1", "PUBLISH_API", base.Add(2*time.Minute), nil)

	publishes, err := repo.FindAllByType(context.Background(), "api-1", "PUBLISH_API")
	if err != nil {
		t.Fatalf("FindAllByType() error = %v", err)
	}
	if len(publishes) != 2 || publishes[0].ID != "ev-1" || publishes[1].ID != "ev-3" {
		t.Fatalf("publishes = %v, want [ev-1 ev-3] oldest first", publishes)
	}

	all, err := repo.FindAllByAPI(context.Background(), "api-1")
	if err != nil {
		t.Fatalf("FindAllByAPI() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("events = %d, want 3", len(all))
	}
	for i, want := range []string{"ev-1", "ev-2", "ev-3"} {
		if all[i].ID != want {
			t.Fatalf("event %d = %s, want %s", i, all[i].ID, want)
		}
	}
}

func TestEventRepoDeleteByAPI(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewEventRepo(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	appendEvent(t, repo, "ev-1", "api-1", "PUBLISH_API", base, nil)
	appendEvent(t, repo, "ev-2", "api-2", "PUBLISH_API", base, nil)

	if err := repo.DeleteByAPI(context.Background(), "api-1"); err != nil {
		t.Fatalf("DeleteByAPI() error = %v", err)
	}

	remaining, err := repo.FindAllByAPI(context.Background(), "api-1")
	if err != nil {
		t.Fatalf("FindAllByAPI() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("events of deleted api remain: %d", len(remaining))
	}

	other, err := repo.FindAllByAPI(context.Background(), "api-2")
	if err != nil {
		t.Fatalf("FindAllByAPI() error = %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("events of other api = %d, want 1", len(other))
	}
}
