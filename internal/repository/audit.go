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

	"api-manager/src/internal/database"
	"api-manager/src/internal/model"
)

// AuditRepo implements AuditRepository
type AuditRepo struct {
	db *database.DB
}

// NewAuditRepo creates a new audit repository
func NewAuditRepo(db *database.DB) AuditRepository {
	return &AuditRepo{db: db}
}

// Create inserts an immutable audit record.
func (r *AuditRepo) Create(ctx context.Context, audit *model.Audit) error {
	propertiesJSON, err := json.Marshal(audit.Properties)
	if err != nil {
		return fmt.Errorf("failed to serialize audit properties: %w", err)
	}

	query := `
		INSERT INTO audits (uuid, reference_type, reference_id, event, username,
			patch, properties, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), audit.ID, audit.ReferenceType,
		audit.ReferenceID, audit.Event, audit.User, audit.Patch,
		string(propertiesJSON), audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}

	return nil
}

// List returns audit records most recent first, optionally filtered by
// reference type.
func (r *AuditRepo) List(ctx context.Context, referenceType string, limit, offset int) ([]*model.Audit, error) {
	query := `
		SELECT uuid, reference_type, reference_id, event, username, patch,
			properties, created_at
		FROM audits
	`
	args := []interface{}{}
	if referenceType != "" {
		query += ` WHERE reference_type = ?`
		args = append(args, referenceType)
	}
	query += ` ORDER BY created_at DESC, uuid LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []*model.Audit
	for rows.Next() {
		var audit model.Audit
		var patch, propertiesJSON sql.NullString

		err := rows.Scan(&audit.ID, &audit.ReferenceType, &audit.ReferenceID,
			&audit.Event, &audit.User, &patch, &propertiesJSON, &audit.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}

		audit.Patch = patch.String
		if propertiesJSON.Valid && propertiesJSON.String != "" {
			if err := json.Unmarshal([]byte(propertiesJSON.String), &audit.Properties); err != nil {
				return nil, fmt.Errorf("failed to deserialize audit properties: %w", err)
			}
		}

		audits = append(audits, &audit)
	}
	return audits, rows.Err()
}
