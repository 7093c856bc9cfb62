/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
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
	"encoding/json"
	"fmt"
	"strings"

	"api-manager/src/internal/database"
	"api-manager/src/internal/model"
)

// EventRepo implements EventRepository on top of an append-only events table.
// The autoincrement id column records insertion order and breaks creation
// timestamp ties.
type EventRepo struct {
	db *database.DB
}

// NewEventRepo creates a new event repository
func NewEventRepo(db *database.DB) EventRepository {
	return &EventRepo{db: db}
}

// Append inserts a new deploy event. Events are never updated afterwards.
func (r *EventRepo) Append(ctx context.Context, event *model.Event) error {
	propertiesJSON, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("failed to serialize event properties: %w", err)
	}

	query := `
		INSERT INTO events (uuid, api_uuid, type, payload, properties, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), event.ID, event.ApiID,
		event.Type, string(event.Payload), string(propertiesJSON), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// FindLatestByTypes returns the single most recent event among the given
// types for the API, or (nil, nil) when none exists.
func (r *EventRepo) FindLatestByTypes(ctx context.Context, apiID string, types ...string) (*model.Event, error) {
	if len(types) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(types)), ", ")
	query := fmt.Sprintf(`
		SELECT uuid, api_uuid, type, payload, properties, created_at
		FROM events
		WHERE api_uuid = ? AND type IN (%s)
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, placeholders)

	args := make([]interface{}, 0, len(types)+1)
	args = append(args, apiID)
	for _, t := range types {
		args = append(args, t)
	}

	row := r.db.QueryRowContext(ctx, r.db.Rebind(query), args...)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest event: %w", err)
	}
	return event, nil
}

// FindAllByType returns every event of the given type for the API, oldest first.
func (r *EventRepo) FindAllByType(ctx context.Context, apiID string, eventType string) ([]*model.Event, error) {
	query := `
		SELECT uuid, api_uuid, type, payload, properties, created_at
		FROM events
		WHERE api_uuid = ? AND type = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), apiID, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// FindAllByAPI returns every event of the API regardless of type, oldest first.
func (r *EventRepo) FindAllByAPI(ctx context.Context, apiID string) ([]*model.Event, error) {
	query := `
		SELECT uuid, api_uuid, type, payload, properties, created_at
		FROM events
		WHERE api_uuid = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), apiID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteByAPI purges all events of an API. Only called on whole-API deletion.
func (r *EventRepo) DeleteByAPI(ctx context.Context, apiID string) error {
	query := `DELETE FROM events WHERE api_uuid = ?`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), apiID); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	return nil
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var event model.Event
	var payload, propertiesJSON sql.NullString

	err := row.Scan(&event.ID, &event.ApiID, &event.Type, &payload,
		&propertiesJSON, &event.CreatedAt)
	if err != nil {
		return nil, err
	}

	event.Payload = []byte(payload.String)
	if propertiesJSON.Valid && propertiesJSON.String != "" {
		if err := json.Unmarshal([]byte(propertiesJSON.String), &event.Properties); err != nil {
			return nil, fmt.Errorf("failed to deserialize event properties: %w", err)
		}
	}

	return &event, nil
}
