package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lenscal/internal/lens"
)

// HasTCA reports whether source already has a TCA result of the requested kind.
// A simple result does not satisfy a complex request and vice versa.
func (s *Store) HasTCA(ctx context.Context, source string, complexTCA bool) (bool, error) {
	var stored bool
	err := s.db.QueryRowContext(ctx, `SELECT complex FROM tca_results WHERE source = ?`, source).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query tca result: %w", err)
	}
	return stored == complexTCA, nil
}

// PutTCA inserts or replaces the TCA result for r.Source.
func (s *Store) PutTCA(ctx context.Context, r TCAResult) error {
	if r.Source == "" {
		return errors.New("tca result source is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tca_results (source, lens_model, focal_length, aperture, complex, br, vr, bb, vb, raw_output, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			lens_model = excluded.lens_model,
			focal_length = excluded.focal_length,
			aperture = excluded.aperture,
			complex = excluded.complex,
			br = excluded.br, vr = excluded.vr, bb = excluded.bb, vb = excluded.vb,
			raw_output = excluded.raw_output,
			run_id = excluded.run_id,
			created_at = excluded.created_at`,
		r.Source, r.LensModel, r.FocalLength, r.Aperture, r.Complex,
		r.BR, r.VR, r.BB, r.VB, nullableString(r.RawOutput), nullableString(r.RunID),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert tca result %s: %w", r.Source, err)
	}
	return nil
}

// TCAResults lists stored TCA results ordered by lens, focal length and source.
func (s *Store) TCAResults(ctx context.Context) ([]TCAResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, lens_model, focal_length, aperture, complex, br, vr, bb, vb, raw_output, run_id, created_at
		FROM tca_results ORDER BY lens_model, focal_length, source`)
	if err != nil {
		return nil, fmt.Errorf("query tca results: %w", err)
	}
	defer rows.Close()

	var results []TCAResult
	for rows.Next() {
		var (
			r       TCAResult
			raw     sql.NullString
			runID   sql.NullString
			created string
		)
		if err := rows.Scan(&r.Source, &r.LensModel, &r.FocalLength, &r.Aperture, &r.Complex,
			&r.BR, &r.VR, &r.BB, &r.VB, &raw, &runID, &created); err != nil {
			return nil, fmt.Errorf("scan tca result: %w", err)
		}
		r.RawOutput = raw.String
		r.RunID = runID.String
		r.CreatedAt = parseTime(created)
		results = append(results, r)
	}
	return results, rows.Err()
}

// HasVignetting reports whether source already has a vignetting result.
func (s *Store) HasVignetting(ctx context.Context, source string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM vignetting_results WHERE source = ?`, source,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("query vignetting result: %w", err)
	}
	return count > 0, nil
}

// PutVignetting inserts or replaces the vignetting result for r.Source.
func (s *Store) PutVignetting(ctx context.Context, r VignettingResult) error {
	if r.Source == "" {
		return errors.New("vignetting result source is required")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vignetting_results (source, lens_model, focal_length, aperture, distance, a, k1, k2, k3, rms, max_abs, iterations, run_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			lens_model = excluded.lens_model,
			focal_length = excluded.focal_length,
			aperture = excluded.aperture,
			distance = excluded.distance,
			a = excluded.a, k1 = excluded.k1, k2 = excluded.k2, k3 = excluded.k3,
			rms = excluded.rms, max_abs = excluded.max_abs,
			iterations = excluded.iterations,
			run_id = excluded.run_id,
			created_at = excluded.created_at`,
		r.Source, r.LensModel, r.FocalLength, r.Aperture, lens.FormatDistance(r.Distance),
		r.A, r.K1, r.K2, r.K3, r.RMS, r.MaxAbs, r.Iterations, nullableString(r.RunID),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert vignetting result %s: %w", r.Source, err)
	}
	return nil
}

// VignettingResults lists stored vignetting results ordered by lens, focal
// length, aperture and source.
func (s *Store) VignettingResults(ctx context.Context) ([]VignettingResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, lens_model, focal_length, aperture, distance, a, k1, k2, k3, rms, max_abs, iterations, run_id, created_at
		FROM vignetting_results ORDER BY lens_model, focal_length, aperture, source`)
	if err != nil {
		return nil, fmt.Errorf("query vignetting results: %w", err)
	}
	defer rows.Close()

	var results []VignettingResult
	for rows.Next() {
		var (
			r        VignettingResult
			distance string
			runID    sql.NullString
			created  string
		)
		if err := rows.Scan(&r.Source, &r.LensModel, &r.FocalLength, &r.Aperture, &distance,
			&r.A, &r.K1, &r.K2, &r.K3, &r.RMS, &r.MaxAbs, &r.Iterations, &runID, &created); err != nil {
			return nil, fmt.Errorf("scan vignetting result: %w", err)
		}
		d, err := lens.ParseDistance(distance)
		if err != nil {
			return nil, fmt.Errorf("vignetting result %s: %w", r.Source, err)
		}
		r.Distance = d
		r.RunID = runID.String
		r.CreatedAt = parseTime(created)
		results = append(results, r)
	}
	return results, rows.Err()
}
