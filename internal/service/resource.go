package service

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"prolly/internal/apperr"
	"prolly/internal/blobstore"
	"prolly/internal/models"
	"prolly/internal/store"
)

// ResourceInput holds the fields of a new resource.
type ResourceInput struct {
	SpaceID  string
	Name     string
	Type     models.ResourceType
	URL      string
	MimeType string
	Metadata map[string]any
}

// ResourceService manages resources and the blob references they hold.
type ResourceService struct {
	store  *store.Store
	blobs  *blobstore.Store
	logger *slog.Logger
}

// NewResourceService constructs a ResourceService.
func NewResourceService(st *store.Store, blobs *blobstore.Store, logger *slog.Logger) *ResourceService {
	return &ResourceService{store: st, blobs: blobs, logger: logger}
}

// CreateLink stores a resource that points at an external URL.
func (s *ResourceService) CreateLink(ctx context.Context, in ResourceInput) (*models.Resource, error) {
	const op = "resource.create"
	r := &models.Resource{
		SpaceID:  strings.TrimSpace(in.SpaceID),
		Name:     strings.TrimSpace(in.Name),
		Type:     models.ResourceLink,
		URL:      strings.TrimSpace(in.URL),
		Metadata: in.Metadata,
	}
	if err := validateFields(op, append(resourceChecks(r), required(r.URL, "url"))...); err != nil {
		return nil, err
	}
	return s.store.Resources().Create(ctx, nil, r)
}

// CreateFile stores data in the blob store and a resource holding one
// reference to it. If the resource cannot be stored the reference is
// released again.
func (s *ResourceService) CreateFile(ctx context.Context, in ResourceInput, data io.Reader) (*models.Resource, error) {
	const op = "resource.create"
	if s.blobs == nil {
		return nil, apperr.Internal(op, "blob store is not configured")
	}
	r := &models.Resource{
		SpaceID:  strings.TrimSpace(in.SpaceID),
		Name:     strings.TrimSpace(in.Name),
		Type:     in.Type,
		MimeType: strings.TrimSpace(in.MimeType),
		Metadata: in.Metadata,
	}
	if r.Type == "" {
		r.Type = models.ResourceFile
	}
	if err := validateResource(op, r); err != nil {
		return nil, err
	}
	if !r.Type.StoresBytes() {
		return nil, apperr.Validation(op, "type", "link resources do not store content")
	}

	blob, err := s.blobs.Put(ctx, data, r.MimeType)
	if err != nil {
		return nil, err
	}
	r.BlobID = blob.ID
	r.MimeType = blob.MimeType

	created, err := s.store.Resources().Create(ctx, nil, r)
	if err != nil {
		if relErr := s.blobs.Release(ctx, blob.ID); relErr != nil {
			s.logger.Warn("release blob after failed resource create", "blob_id", blob.ID, "error", relErr)
		}
		return nil, err
	}
	return created, nil
}

// Get returns a live resource.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	return s.store.Resources().Get(ctx, nil, id)
}

// Delete soft-deletes the resource and releases its blob reference. A failed
// release is logged; the resource stays deleted.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Resources().SoftDelete(ctx, nil, id)
	if err != nil {
		return err
	}
	if deleted.BlobID == "" || s.blobs == nil {
		return nil
	}
	if err := s.blobs.Release(ctx, deleted.BlobID); err != nil {
		s.logger.Warn("release blob of deleted resource", "resource_id", deleted.ID, "blob_id", deleted.BlobID, "error", err)
	}
	return nil
}

// Content opens the bytes behind a file resource. It returns nil for link
// resources and for blobs that no longer resolve.
func (s *ResourceService) Content(ctx context.Context, id string) (*blobstore.Content, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.BlobID == "" || s.blobs == nil {
		return nil, nil
	}
	return s.blobs.Resolve(ctx, r.BlobID)
}

// ListBySpace returns a space's live resources, newest first.
func (s *ResourceService) ListBySpace(ctx context.Context, spaceID string) ([]models.Resource, error) {
	return s.store.Resources().List(ctx, nil, store.Filter{
		Where:  []store.Cond{store.Eq(store.ColumnSpaceID, spaceID)},
		Newest: true,
	})
}
