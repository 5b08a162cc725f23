// Package store persists calibration results in the workspace SQLite
// database (.lenscal/results.db).
//
// Each action run is recorded in the runs table; per-image TCA and
// vignetting coefficients are upserted keyed by source path so re-running an
// action can skip images that already have results. generate-xml reads the
// stored rows back to build the lensfun profile.
//
// The schema is versioned. A mismatch is reported as ErrSchemaMismatch; the
// database holds only derived data and can be deleted and rebuilt.
package store
