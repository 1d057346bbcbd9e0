package project

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AssetRequest is one asset generation request recorded against a project.
type AssetRequest struct {
	ID          int64
	ProjectID   int64
	AssetID     string
	Kind        string
	URI         string
	RequestedAt time.Time
	CompletedAt *time.Time
}

// RecordAssetRequest inserts a pending asset request and returns its id.
func (s *Store) RecordAssetRequest(ctx context.Context, projectID int64, assetID, kind string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO asset_requests (project_id, asset_id, kind, requested_at)
         VALUES (?, ?, ?, ?)`,
		projectID,
		assetID,
		kind,
		timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert asset request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// CompleteAssetRequest stores the produced URI and marks the request done.
func (s *Store) CompleteAssetRequest(ctx context.Context, id int64, uri string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE asset_requests SET uri = ?, completed_at = ? WHERE id = ?`,
		nullableString(uri),
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("complete asset request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("asset request %d not found", id)
	}
	return nil
}

// AbandonAssetRequest removes a pending request that never completed.
func (s *Store) AbandonAssetRequest(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM asset_requests WHERE id = ? AND completed_at IS NULL`, id); err != nil {
		return fmt.Errorf("abandon asset request: %w", err)
	}
	return nil
}

// HasOutstandingAssetRequest reports whether an uncompleted request exists
// for the given asset.
func (s *Store) HasOutstandingAssetRequest(ctx context.Context, projectID int64, assetID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM asset_requests
         WHERE project_id = ? AND asset_id = ? AND completed_at IS NULL`,
		projectID,
		assetID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count outstanding requests: %w", err)
	}
	return count > 0, nil
}

// AssetRequests lists a project's asset request history, newest last.
func (s *Store) AssetRequests(ctx context.Context, projectID int64) ([]*AssetRequest, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, project_id, asset_id, kind, uri, requested_at, completed_at
         FROM asset_requests WHERE project_id = ? ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list asset requests: %w", err)
	}
	defer rows.Close()

	var requests []*AssetRequest
	for rows.Next() {
		req, err := scanAssetRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset requests: %w", err)
	}
	return requests, nil
}

func scanAssetRequest(scanner interface{ Scan(dest ...any) error }) (*AssetRequest, error) {
	var (
		id           int64
		projectID    int64
		assetID      string
		kind         string
		uri          sql.NullString
		requestedRaw sql.NullString
		completedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &projectID, &assetID, &kind, &uri, &requestedRaw, &completedRaw); err != nil {
		return nil, err
	}
	req := &AssetRequest{
		ID:        id,
		ProjectID: projectID,
		AssetID:   assetID,
		Kind:      kind,
		URI:       uri.String,
	}
	if requested, err := parseTimeString(requestedRaw.String); err == nil {
		req.RequestedAt = requested
	}
	if completedRaw.Valid {
		if completed, err := parseTimeString(completedRaw.String); err == nil {
			req.CompletedAt = &completed
		}
	}
	return req, nil
}
