package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

func TestResourceCreateLink(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	r, err := h.Resources.CreateLink(ctx, ResourceInput{SpaceID: "space-1", Name: "Tour", URL: "https://go.dev/tour"})
	require.NoError(t, err)
	assert.Equal(t, models.ResourceLink, r.Type)
	assert.Empty(t, r.BlobID)

	content, err := h.Resources.Content(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, content)

	_, err = h.Resources.CreateLink(ctx, ResourceInput{SpaceID: "space-1", Name: "No URL"})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "url", appErr.Field)
}

func TestResourceFilesShareBlobs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.Resources.CreateFile(ctx, ResourceInput{SpaceID: "space-1", Name: "Slides", MimeType: "application/pdf"}, strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	second, err := h.Resources.CreateFile(ctx, ResourceInput{SpaceID: "space-1", Name: "Slides copy", Type: models.ResourceDocument}, strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	require.Equal(t, first.BlobID, second.BlobID)

	blob, err := h.store.GetBlob(ctx, first.BlobID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), blob.RefCount)

	content, err := h.Resources.Content(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, content)
	data, err := io.ReadAll(content)
	content.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Equal(t, "application/pdf", content.MimeType)

	require.NoError(t, h.Resources.Delete(ctx, first.ID))
	require.NoError(t, h.Resources.Delete(ctx, second.ID))
	blob, err = h.store.GetBlob(ctx, first.BlobID)
	require.NoError(t, err)
	require.NotNil(t, blob, "unreferenced blobs wait for a sweep")
	assert.Equal(t, int64(0), blob.RefCount)

	result, err := h.blobs.Sweep(ctx, blob.CreatedAt.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
}

func TestResourceCreateFileRejectsLinkType(t *testing.T) {
	h := newHarness(t)
	_, err := h.Resources.CreateFile(context.Background(), ResourceInput{SpaceID: "space-1", Name: "Bad", Type: models.ResourceLink}, strings.NewReader("x"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.Resources.CreateFile(context.Background(), ResourceInput{SpaceID: "space-1", Name: "Bad", Type: "podcast"}, strings.NewReader("x"))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "type", appErr.Field)
}

func TestResourceListBySpace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	older, err := h.Resources.CreateLink(ctx, ResourceInput{SpaceID: "space-1", Name: "A", URL: "https://a"})
	require.NoError(t, err)
	newer, err := h.Resources.CreateLink(ctx, ResourceInput{SpaceID: "space-1", Name: "B", URL: "https://b"})
	require.NoError(t, err)

	list, err := h.Resources.ListBySpace(ctx, "space-1")
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, ids(list))
}
