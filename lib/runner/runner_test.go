// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package runner

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
	"github.com/CH-CLARK/mister-skinnylegs/lib/catalog"
	"github.com/CH-CLARK/mister-skinnylegs/lib/profile"
	"github.com/CH-CLARK/mister-skinnylegs/lib/testutil"
)

// fakeProfile counts opens and closes so tests can verify the runner's
// per-invocation lifecycle.
type fakeProfile struct {
	closed *atomic.Int64
}

func (f *fakeProfile) IterateCache(match profile.URLMatch, fn func(profile.CacheRecord) error) error {
	return nil
}

func (f *fakeProfile) IterateHistory(match profile.URLMatch, fn func(profile.HistoryRecord) error) error {
	return nil
}

func (f *fakeProfile) IterateSessionStorage(origin, key string, fn func(profile.SessionStorageRecord) error) error {
	return nil
}

func (f *fakeProfile) Close() error {
	f.closed.Add(1)
	return nil
}

type countingOpener struct {
	opened atomic.Int64
	closed atomic.Int64
}

func (c *countingOpener) open() (profile.Profile, error) {
	c.opened.Add(1)
	return &fakeProfile{closed: &c.closed}, nil
}

// discardStorage satisfies artifact.Storage for plugins that never
// export binaries.
type discardStorage struct{}

func (discardStorage) NewBinaryOutput(string) (artifact.BinaryOutput, error) {
	return nil, errors.New("no binary output in this test")
}

func discardMaker(artifact.Descriptor) artifact.Storage {
	return discardStorage{}
}

func newTestRunner(t *testing.T, cat *catalog.Catalog, opener *countingOpener, workers int) *Runner {
	t.Helper()
	r, err := New(Config{
		Catalog:     cat,
		OpenProfile: opener.open,
		Storage:     discardMaker,
		Workers:     workers,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func staticArtifact(name string, result artifact.Result, err error) artifact.Descriptor {
	return artifact.Descriptor{
		Service: "Test",
		Name:    name,
		Version: "0.1",
		Extract: func(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
			return result, err
		},
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	cat, err := catalog.New()
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	opener := &countingOpener{}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing catalog", Config{OpenProfile: opener.open, Storage: discardMaker}},
		{"missing opener", Config{Catalog: cat, Storage: discardMaker}},
		{"missing storage", Config{Catalog: cat, OpenProfile: opener.open}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(test.cfg); err == nil {
				t.Fatal("New succeeded without required collaborator")
			}
		})
	}
}

func TestRunAllOneEnvelopePerEntry(t *testing.T) {
	cat, err := catalog.New(catalog.Plugin{Origin: "test", Artifacts: []artifact.Descriptor{
		staticArtifact("One", artifact.Result{{"k": "v1"}}, nil),
		staticArtifact("Two", artifact.Result{{"k": "v2"}}, nil),
		staticArtifact("Three", nil, nil),
	}})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	opener := &countingOpener{}
	r := newTestRunner(t, cat, opener, 2)

	results := r.RunAll()
	seen := make(map[string]artifact.Envelope)
	for i := 0; i < 3; i++ {
		envelope := testutil.RequireReceive(t, results, 5*time.Second, "waiting for envelope %d", i)
		if _, dup := seen[envelope.Name]; dup {
			t.Fatalf("received two envelopes for %q", envelope.Name)
		}
		seen[envelope.Name] = envelope
	}
	testutil.RequireClosed(t, results, 5*time.Second, "waiting for results close")

	if got := seen["One"].Result[0]["k"]; got != "v1" {
		t.Errorf("One result = %v, want v1", got)
	}
	if seen["Three"].Failed() {
		t.Errorf("empty-result artifact reported failed: %v", seen["Three"].Err)
	}

	if opened := opener.opened.Load(); opened != 3 {
		t.Errorf("profile opened %d times, want 3 (one per invocation)", opened)
	}
	if closed := opener.closed.Load(); closed != 3 {
		t.Errorf("profile closed %d times, want 3", closed)
	}
}

func TestRunAllCompletionOrder(t *testing.T) {
	release := make(chan struct{})

	// The catalog dispatches "Blocked" before "Fast" (sorted order),
	// but "Fast" must still complete first.
	blocked := artifact.Descriptor{
		Service: "Test",
		Name:    "Blocked",
		Version: "0.1",
		Extract: func(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
			<-release
			return artifact.Result{{"speed": "slow"}}, nil
		},
	}
	fast := artifact.Descriptor{
		Service: "Test",
		Name:    "Fast",
		Version: "0.1",
		Extract: func(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
			return artifact.Result{{"speed": "fast"}}, nil
		},
	}

	cat, err := catalog.New(catalog.Plugin{Origin: "test", Artifacts: []artifact.Descriptor{blocked, fast}})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	opener := &countingOpener{}
	r := newTestRunner(t, cat, opener, 2)

	results := r.RunAll()
	first := testutil.RequireReceive(t, results, 5*time.Second, "waiting for first envelope")
	if first.Name != "Fast" {
		t.Errorf("first envelope = %q, want the fast artifact", first.Name)
	}
	close(release)
	second := testutil.RequireReceive(t, results, 5*time.Second, "waiting for second envelope")
	if second.Name != "Blocked" {
		t.Errorf("second envelope = %q, want the blocked artifact", second.Name)
	}
	testutil.RequireClosed(t, results, 5*time.Second, "waiting for results close")
}

func TestRunAllIsolatesFailures(t *testing.T) {
	boom := errors.New("store is corrupt")
	cat, err := catalog.New(catalog.Plugin{Origin: "test", Artifacts: []artifact.Descriptor{
		staticArtifact("Errors", nil, boom),
		{
			Service: "Test",
			Name:    "Panics",
			Version: "0.1",
			Extract: func(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
				panic("unexpected record shape")
			},
		},
		staticArtifact("Succeeds", artifact.Result{{"ok": true}}, nil),
	}})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	opener := &countingOpener{}
	r := newTestRunner(t, cat, opener, 1)

	seen := make(map[string]artifact.Envelope)
	results := r.RunAll()
	for i := 0; i < 3; i++ {
		envelope := testutil.RequireReceive(t, results, 5*time.Second, "waiting for envelope %d", i)
		seen[envelope.Name] = envelope
	}
	testutil.RequireClosed(t, results, 5*time.Second, "waiting for results close")

	if !errors.Is(seen["Errors"].Err, boom) {
		t.Errorf("Errors envelope error = %v, want wrapped %v", seen["Errors"].Err, boom)
	}
	if !seen["Panics"].Failed() {
		t.Error("panicking artifact did not produce a failed envelope")
	}
	if seen["Succeeds"].Failed() {
		t.Errorf("failure leaked into sibling artifact: %v", seen["Succeeds"].Err)
	}

	// Every profile handle is released even on the failure paths.
	if opened, closed := opener.opened.Load(), opener.closed.Load(); opened != closed {
		t.Errorf("profile opened %d times but closed %d times", opened, closed)
	}
}

func TestRunAllProfileOpenFailure(t *testing.T) {
	cat, err := catalog.New(catalog.Plugin{Origin: "test", Artifacts: []artifact.Descriptor{
		staticArtifact("Unreachable", artifact.Result{{"k": "v"}}, nil),
	}})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	openErr := errors.New("profile folder vanished")
	r, err := New(Config{
		Catalog:     cat,
		OpenProfile: func() (profile.Profile, error) { return nil, openErr },
		Storage:     discardMaker,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	results := r.RunAll()
	envelope := testutil.RequireReceive(t, results, 5*time.Second, "waiting for envelope")
	if !errors.Is(envelope.Err, openErr) {
		t.Errorf("envelope error = %v, want wrapped %v", envelope.Err, openErr)
	}
	testutil.RequireClosed(t, results, 5*time.Second, "waiting for results close")
}

func TestRunOne(t *testing.T) {
	cat, err := catalog.New(catalog.Plugin{Origin: "test", Artifacts: []artifact.Descriptor{
		{
			Service:      "Test",
			Name:         "Only",
			Description:  "the only artifact",
			Version:      "0.3",
			Presentation: artifact.PresentationTable,
			Extract: func(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
				return artifact.Result{{"k": "v"}}, nil
			},
		},
	}})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	opener := &countingOpener{}
	r := newTestRunner(t, cat, opener, 0)

	envelope, err := r.RunOne("Only")
	if err != nil {
		t.Fatalf("RunOne: %v", err)
	}
	if envelope.Service != "Test" || envelope.Version != "0.3" ||
		envelope.Description != "the only artifact" ||
		envelope.Presentation != artifact.PresentationTable {
		t.Errorf("envelope metadata %+v does not match descriptor", envelope)
	}
	if len(envelope.Result) != 1 {
		t.Errorf("envelope holds %d records, want 1", len(envelope.Result))
	}

	_, err = r.RunOne("No Such Artifact")
	if !errors.Is(err, catalog.ErrUnknownArtifact) {
		t.Errorf("RunOne(unknown) = %v, want ErrUnknownArtifact", err)
	}
	if opened := opener.opened.Load(); opened != 1 {
		t.Errorf("unknown artifact lookup opened the profile (%d opens, want 1)", opened)
	}
}

func TestRunAllAbandonedConsumer(t *testing.T) {
	var invoked atomic.Int64
	descriptors := make([]artifact.Descriptor, 8)
	for i := range descriptors {
		descriptors[i] = artifact.Descriptor{
			Service: "Test",
			Name:    "Artifact " + string(rune('A'+i)),
			Version: "0.1",
			Extract: func(p profile.Profile, logger *slog.Logger, store artifact.Storage) (artifact.Result, error) {
				invoked.Add(1)
				return artifact.Result{{"k": "v"}}, nil
			},
		}
	}
	cat, err := catalog.New(catalog.Plugin{Origin: "test", Artifacts: descriptors})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	opener := &countingOpener{}
	r := newTestRunner(t, cat, opener, 2)

	// Read one envelope, then walk away. The buffered results channel
	// must let every remaining invocation run to completion.
	results := r.RunAll()
	testutil.RequireReceive(t, results, 5*time.Second, "waiting for first envelope")

	deadline := time.After(5 * time.Second)
	for invoked.Load() < int64(len(descriptors)) {
		select {
		case <-deadline:
			t.Fatalf("only %d of %d invocations ran after consumer stopped", invoked.Load(), len(descriptors))
		case <-time.After(10 * time.Millisecond):
		}
	}
}
