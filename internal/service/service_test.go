package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"prolly/internal/blobstore"
	"prolly/internal/models"
	"prolly/internal/store"
)

type harness struct {
	*Services
	store *store.Store
	blobs *blobstore.Store
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()

	var mu sync.Mutex
	next := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}

	st, err := store.Open(filepath.Join(dir, "prolly.db"), store.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cas, err := blobstore.NewLocalCAS(filepath.Join(dir, "blobs"))
	require.NoError(t, err)
	blobs := blobstore.New(st, cas)

	return harness{Services: New(st, blobs, nil), store: st, blobs: blobs}
}

func (h harness) curriculum(t *testing.T, name string) *models.Curriculum {
	t.Helper()
	c, err := h.Curricula.Create(context.Background(), CurriculumInput{SpaceID: "space-1", Name: name})
	require.NoError(t, err)
	return c
}

func (h harness) objective(t *testing.T, curriculumID, name string, prereqs ...string) *models.Objective {
	t.Helper()
	o, err := h.Objectives.Create(context.Background(), ObjectiveInput{CurriculumID: curriculumID, Name: name, Prerequisites: prereqs})
	require.NoError(t, err)
	return o
}

func ids[T any, PT interface {
	*T
	Meta() *models.Entity
}](records []T) []string {
	out := make([]string, 0, len(records))
	for i := range records {
		out = append(out, PT(&records[i]).Meta().ID)
	}
	return out
}

func strPtr(s string) *string { return &s }
