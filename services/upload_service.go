package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"repairhub-server/apperr"
	"repairhub-server/models"
)

const (
	maxImageBytes   = 5 * 1024 * 1024
	orphanBatchSize = 50
)

// UploadResult is the outcome for one file of a batch. Exactly one of URL
// and Error is set.
type UploadResult struct {
	FileName string `json:"file_name"`
	URL      string `json:"url,omitempty"`
	PublicID string `json:"public_id,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// UploadService stores images through object storage and tracks them so
// that uploads never referenced by a booking or application are removed.
type UploadService struct {
	storage   ObjectStorage
	store     UploadStore
	folder    string
	maxImages int
	orphanTTL time.Duration
	clock     Clock
}

func NewUploadService(storage ObjectStorage, store UploadStore, folder string, maxImages int, orphanTTL time.Duration) *UploadService {
	return &UploadService{storage: storage, store: store, folder: folder, maxImages: maxImages, orphanTTL: orphanTTL}
}

func (s *UploadService) limit(purpose string) (int, error) {
	switch purpose {
	case models.UploadPurposeBookingImage:
		return s.maxImages, nil
	case models.UploadPurposeShopImage:
		return models.MaxShopImages, nil
	case models.UploadPurposeIDProof:
		return 1, nil
	}
	return 0, apperr.Validation("unknown upload purpose %q", purpose)
}

// validateImageFile accepts jpg, png and webp images up to 5MB.
func validateImageFile(h *multipart.FileHeader) error {
	if h == nil || h.Size <= 0 {
		return apperr.Validation("file is empty")
	}
	if h.Size > maxImageBytes {
		return apperr.Validation("file is larger than 5MB")
	}
	switch strings.ToLower(filepath.Ext(h.Filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return nil
	}
	return apperr.Validation("only jpg, png and webp images are accepted")
}

// Upload stores every file independently: a failure on one file is
// reported in its result and does not stop the others.
func (s *UploadService) Upload(ctx context.Context, ownerID *uint, purpose string, files []*multipart.FileHeader) ([]UploadResult, error) {
	allowed, err := s.limit(purpose)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.Validation("no files were sent")
	}
	if len(files) > allowed {
		return nil, apperr.Validation("at most %d files are allowed for %s", allowed, purpose)
	}

	results := make([]UploadResult, len(files))
	for i, h := range files {
		res := UploadResult{FileName: h.Filename}
		if err := s.uploadOne(ctx, ownerID, purpose, h, &res); err != nil {
			res.Error = apperr.MessageOf(err)
			res.Code = string(apperr.KindOf(err))
			log.Printf("⚠️ Upload of %s failed: %v", h.Filename, err)
		}
		results[i] = res
	}
	return results, nil
}

func (s *UploadService) uploadOne(ctx context.Context, ownerID *uint, purpose string, h *multipart.FileHeader, res *UploadResult) error {
	if err := validateImageFile(h); err != nil {
		return err
	}
	f, err := h.Open()
	if err != nil {
		return apperr.Validation("file could not be read")
	}
	defer f.Close()

	folder := path.Join(s.folder, purpose)
	obj, err := s.storage.Upload(ctx, f, folder, uuid.NewString())
	if err != nil {
		return apperr.Dependency(err, "image storage is unavailable")
	}

	record := &models.Upload{PublicID: obj.PublicID, URL: obj.URL, OwnerID: ownerID, Purpose: purpose}
	if err := s.store.Record(ctx, record); err != nil {
		// the object is usable but would never be cleaned up
		log.Printf("⚠️ Failed to record upload %s: %v", obj.PublicID, err)
	}
	res.URL, res.PublicID = obj.URL, obj.PublicID
	return nil
}

// CleanupOrphans deletes unclaimed uploads older than the orphan TTL, one
// at a time, and returns how many were removed.
func (s *UploadService) CleanupOrphans(ctx context.Context) (int, error) {
	cutoff := s.clock.now().Add(-s.orphanTTL)
	orphans, err := s.store.ListOrphans(ctx, cutoff, orphanBatchSize)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, u := range orphans {
		if err := s.storage.Delete(ctx, u.PublicID); err != nil {
			log.Printf("⚠️ Failed to delete orphan %s from storage: %v", u.PublicID, err)
			continue
		}
		if err := s.store.Delete(ctx, u.ID); err != nil {
			log.Printf("⚠️ Failed to delete orphan record %d: %v", u.ID, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Printf("🧹 Removed %d orphaned uploads", removed)
	}
	if removed < len(orphans) {
		return removed, fmt.Errorf("%d of %d orphaned uploads could not be removed", len(orphans)-removed, len(orphans))
	}
	return removed, nil
}
