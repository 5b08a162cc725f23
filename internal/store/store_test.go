package store_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"

	_ "modernc.org/sqlite"

	"lenscal/internal/store"
	"lenscal/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if st.Path() != cfg.ResultsPath() {
		t.Fatalf("unexpected store path %q", st.Path())
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	st.Close()

	db, err := sql.Open("sqlite", cfg.ResultsPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.BeginRun(ctx, " "); err == nil {
		t.Fatal("expected error for blank action")
	}
	ok, err := st.BeginRun(ctx, "tca")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if ok.ID == "" || ok.Status != store.RunRunning {
		t.Fatalf("unexpected run: %+v", ok)
	}
	if err := st.FinishRun(ctx, ok, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	bad, err := st.BeginRun(ctx, "vignetting")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := st.FinishRun(ctx, bad, errors.New("fit divergence")); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	runs, err := st.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	byID := map[string]store.Run{}
	for _, r := range runs {
		byID[r.ID] = r
	}
	if byID[ok.ID].Status != store.RunSucceeded || byID[ok.ID].FinishedAt == nil {
		t.Fatalf("unexpected succeeded run: %+v", byID[ok.ID])
	}
	if byID[bad.ID].Status != store.RunFailed || byID[bad.ID].ErrorMessage != "fit divergence" {
		t.Fatalf("unexpected failed run: %+v", byID[bad.ID])
	}
}

func TestTCAResultsUpsert(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	has, err := st.HasTCA(ctx, "/w/tca/a.ORF", false)
	if err != nil || has {
		t.Fatalf("expected no result, got %v %v", has, err)
	}
	first := store.TCAResult{Source: "/w/tca/a.ORF", LensModel: "Z", FocalLength: 12, Aperture: 8, VR: 1.0002, VB: 0.9998}
	if err := st.PutTCA(ctx, first); err != nil {
		t.Fatalf("PutTCA: %v", err)
	}
	if has, _ := st.HasTCA(ctx, first.Source, false); !has {
		t.Fatal("expected simple result to be found")
	}
	if has, _ := st.HasTCA(ctx, first.Source, true); has {
		t.Fatal("simple result must not satisfy a complex request")
	}

	second := first
	second.Complex = true
	second.BR = 0.0001
	if err := st.PutTCA(ctx, second); err != nil {
		t.Fatalf("PutTCA replace: %v", err)
	}
	if err := st.PutTCA(ctx, store.TCAResult{Source: "/w/tca/b.ORF", LensModel: "A", FocalLength: 40, Aperture: 8}); err != nil {
		t.Fatalf("PutTCA: %v", err)
	}

	results, err := st.TCAResults(ctx)
	if err != nil {
		t.Fatalf("TCAResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results after upsert, got %d", len(results))
	}
	if results[0].LensModel != "A" || !results[1].Complex || results[1].BR != 0.0001 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if err := st.PutTCA(ctx, store.TCAResult{}); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestVignettingResultsKeepInfiniteDistance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rows := []store.VignettingResult{
		{Source: "/w/vignetting/b.ORF", LensModel: "Z", FocalLength: 12, Aperture: 2.8, Distance: math.Inf(1), A: 1, K1: -0.3, Iterations: 12},
		{Source: "/w/vignetting/2/a.ORF", LensModel: "Z", FocalLength: 12, Aperture: 2.8, Distance: 2, A: 1, K1: -0.4},
	}
	for _, r := range rows {
		if err := st.PutVignetting(ctx, r); err != nil {
			t.Fatalf("PutVignetting: %v", err)
		}
	}
	if has, err := st.HasVignetting(ctx, rows[0].Source); err != nil || !has {
		t.Fatalf("expected stored result, got %v %v", has, err)
	}

	results, err := st.VignettingResults(ctx)
	if err != nil {
		t.Fatalf("VignettingResults: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Distance != 2 || !math.IsInf(results[1].Distance, 1) {
		t.Fatalf("unexpected distances: %v, %v", results[0].Distance, results[1].Distance)
	}
	if results[1].Iterations != 12 || results[1].K1 != -0.3 {
		t.Fatalf("unexpected coefficients: %+v", results[1])
	}
}
