// Package upload implements the chunked-upload coordinator: the begin /
// write / finalize / abort protocol over the placement cache, the blob store,
// and the asset store.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fileuploader-backend/internal/blob"
	"fileuploader-backend/internal/cache"
	"fileuploader-backend/internal/domain"
	"fileuploader-backend/internal/store"
)

// Blobs is the physical storage surface the coordinator needs. *blob.Store
// satisfies it; tests substitute failing implementations.
type Blobs interface {
	NewPlacement(originalName string) blob.Placement
	WriteAt(physicalPath string, offset int64, data []byte) error
	WriteFile(physicalPath string, data []byte) (int64, error)
	ReadFile(relative string) ([]byte, error)
	Exists(relative string) bool
	Remove(relative string) error
}

// Service coordinates upload lifecycle between the asset store, the blob
// store, and the placement cache. The cache and the store are the only state
// shared across requests; no lock is held across a store call or file write.
type Service struct {
	store  store.Store
	blobs  Blobs
	cache  *cache.Cache
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(st store.Store, blobs Blobs, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		blobs:  blobs,
		cache:  c,
		logger: logger.With("component", "upload_service"),
	}
}

// splitName separates a display name into its stem and extension.
func splitName(fileName string) (name, extension string) {
	extension = filepath.Ext(fileName)
	name = strings.TrimSuffix(fileName, extension)
	return name, extension
}

// Begin opens a chunked upload session for fileName: it generates a
// randomized placement, inserts an in_progress asset row, and registers the
// session in the cache. The store's uniqueness constraint is the authority on
// duplicate names; the ExistsByName probe is only a fast path.
func (s *Service) Begin(ctx context.Context, fileName string) error {
	name, ext := splitName(fileName)

	if exists, err := s.store.ExistsByName(ctx, name, ext); err == nil && exists {
		return ErrDuplicateName
	}

	placement := s.blobs.NewPlacement(fileName)
	asset := &domain.Asset{
		Name:       name,
		Extension:  ext,
		Location:   placement.RelativeLocation,
		Size:       0,
		UploadDate: time.Now().UTC(),
		Status:     domain.StatusInProgress,
	}
	if _, err := s.store.Insert(ctx, asset); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return ErrDuplicateName
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.cache.Put(fileName, cache.Session{
		OriginalName:         fileName,
		NameWithoutExtension: name,
		Extension:            ext,
		PhysicalPath:         placement.PhysicalPath,
		RelativeLocation:     placement.RelativeLocation,
		AccumulatedSize:      0,
	})
	s.logger.Info("upload session started", "file", fileName, "location", placement.RelativeLocation)
	return nil
}

// WriteChunk writes one chunk at its declared offset and advances the
// session's accumulated size. Offsets are trusted as-is: the client drives a
// single upload sequentially and declares its own progress.
func (s *Service) WriteChunk(ctx context.Context, chunk domain.FileChunk) error {
	sess, ok := s.cache.Get(chunk.FileName)
	if !ok {
		return ErrSessionNotFound
	}

	// A leftover file from an earlier failed attempt would corrupt the new
	// upload; clear it before the first write.
	if chunk.FirstChunk && s.blobs.Exists(sess.RelativeLocation) {
		if err := s.blobs.Remove(sess.RelativeLocation); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}

	if err := s.blobs.WriteAt(sess.PhysicalPath, chunk.Offset, chunk.Data); err != nil {
		s.logger.Warn("chunk write failed", "file", chunk.FileName, "offset", chunk.Offset, "error", err)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	sess.AccumulatedSize += int64(len(chunk.Data))
	s.cache.Put(chunk.FileName, sess)
	return nil
}

// Finalize completes a chunked upload: the asset row becomes complete with
// the session's accumulated size and the session leaves the cache. Both the
// cache entry and an in_progress row must exist; if either side is missing
// the surviving side is cleaned up and ErrUploadFailed is returned.
func (s *Service) Finalize(ctx context.Context, fileName string) error {
	name, ext := splitName(fileName)

	sess, haveSession := s.cache.Get(fileName)

	asset, err := s.store.FindByName(ctx, name, ext)
	if err != nil && !errors.Is(err, store.ErrAssetNotFound) {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	haveAsset := err == nil && asset.Status == domain.StatusInProgress

	if !haveSession || !haveAsset {
		s.logger.Warn("finalize found inconsistent state",
			"file", fileName, "session", haveSession, "asset", haveAsset)
		if haveSession {
			s.cache.Remove(fileName)
			_ = s.blobs.Remove(sess.RelativeLocation)
		}
		if haveAsset {
			_ = s.store.Delete(ctx, asset.ID)
		}
		return ErrUploadFailed
	}

	if err := s.store.UpdateStatusAndSize(ctx, asset.ID, domain.StatusComplete, sess.AccumulatedSize); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.cache.Remove(fileName)
	s.logger.Info("upload finalized", "file", fileName, "size", sess.AccumulatedSize)
	return nil
}

// Abort tears down whatever remains of an upload: the cache entry, the
// in_progress asset row, and the partial physical file. Every step tolerates
// the artifact already being gone; Abort itself never fails.
func (s *Service) Abort(ctx context.Context, fileName string) {
	name, ext := splitName(fileName)

	if sess, ok := s.cache.Get(fileName); ok {
		s.cache.Remove(fileName)
		_ = s.blobs.Remove(sess.RelativeLocation)
	}

	if asset, err := s.store.FindByName(ctx, name, ext); err == nil && asset.Status == domain.StatusInProgress {
		_ = s.blobs.Remove(asset.Location)
		if err := s.store.Delete(ctx, asset.ID); err != nil {
			s.logger.Warn("abort could not delete asset row", "file", fileName, "error", err)
		}
	}
	s.logger.Info("upload aborted", "file", fileName)
}

// HandleChunk processes one inbound chunk: Begin on the first chunk, then
// WriteChunk, then Finalize on the last. Any failure after a session exists
// aborts the upload before the error kind is surfaced. A duplicate name on
// Begin is the exception: the conflicting artifacts belong to the upload that
// won, so nothing is torn down.
func (s *Service) HandleChunk(ctx context.Context, chunk domain.FileChunk) (domain.UploadResult, error) {
	if chunk.FirstChunk {
		if err := s.Begin(ctx, chunk.FileName); err != nil {
			if !errors.Is(err, ErrDuplicateName) {
				s.Abort(ctx, chunk.FileName)
			}
			return domain.FailedResult(chunk.FileName, Code(err)), err
		}
	}

	if err := s.WriteChunk(ctx, chunk); err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.Abort(ctx, chunk.FileName)
		}
		return domain.FailedResult(chunk.FileName, Code(err)), err
	}

	sess, _ := s.cache.Get(chunk.FileName)

	if chunk.LastChunk {
		if err := s.Finalize(ctx, chunk.FileName); err != nil {
			s.Abort(ctx, chunk.FileName)
			return domain.FailedResult(chunk.FileName, Code(err)), err
		}
	}

	return domain.UploadResult{
		Uploaded:     true,
		FileName:     sess.NameWithoutExtension,
		Size:         int64(len(chunk.Data)),
		RelativePath: sess.RelativeLocation,
		Extension:    sess.Extension,
	}, nil
}

// Upload stores a small file in one shot, bypassing the session state
// machine: write the whole payload to a fresh placement and insert the asset
// already complete. Duplicate names surface through the same insert conflict.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (domain.UploadResult, error) {
	name, ext := splitName(fileName)

	placement := s.blobs.NewPlacement(fileName)
	size, err := s.blobs.WriteFile(placement.PhysicalPath, data)
	if err != nil {
		s.logger.Warn("one-shot upload write failed", "file", fileName, "error", err)
		return domain.FailedResult(fileName, domain.CodeIOFailure), fmt.Errorf("%w: %v", ErrIO, err)
	}

	asset := &domain.Asset{
		Name:       name,
		Extension:  ext,
		Location:   placement.RelativeLocation,
		Size:       size,
		UploadDate: time.Now().UTC(),
		Status:     domain.StatusComplete,
	}
	if _, err := s.store.Insert(ctx, asset); err != nil {
		_ = s.blobs.Remove(placement.RelativeLocation)
		if errors.Is(err, store.ErrDuplicateName) {
			return domain.FailedResult(fileName, domain.CodeDuplicateName), ErrDuplicateName
		}
		return domain.FailedResult(fileName, domain.CodePersistenceFailure), fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Info("file uploaded", "file", fileName, "size", size, "location", placement.RelativeLocation)
	return domain.UploadResult{
		Uploaded:     true,
		FileName:     name,
		Size:         size,
		RelativePath: placement.RelativeLocation,
		Extension:    ext,
	}, nil
}

// ListCompleted returns the public view of the library: completed assets
// only, never uploads still in progress.
func (s *Service) ListCompleted(ctx context.Context) ([]domain.UploadResult, error) {
	assets, err := s.store.ListByStatus(ctx, domain.StatusComplete)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	results := make([]domain.UploadResult, 0, len(assets))
	for _, a := range assets {
		results = append(results, domain.ResultFromAsset(a))
	}
	return results, nil
}

// Delete removes an asset record and its physical file. Both must exist.
func (s *Service) Delete(ctx context.Context, fileName string) error {
	name, ext := splitName(fileName)

	asset, err := s.store.FindByName(ctx, name, ext)
	if errors.Is(err, store.ErrAssetNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !s.blobs.Exists(asset.Location) {
		return ErrPhysicalFileNotFound
	}
	if err := s.blobs.Remove(asset.Location); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := s.store.Delete(ctx, asset.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.logger.Info("file deleted", "file", fileName)
	return nil
}

// Download returns the raw bytes of a stored asset. Both the asset record
// and the physical file must exist.
func (s *Service) Download(ctx context.Context, fileName string) ([]byte, error) {
	name, ext := splitName(fileName)

	asset, err := s.store.FindByName(ctx, name, ext)
	if errors.Is(err, store.ErrAssetNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	data, err := s.blobs.ReadFile(asset.Location)
	if err != nil {
		return nil, ErrPhysicalFileNotFound
	}
	return data, nil
}
