package upload

import (
	"errors"

	"fileuploader-backend/internal/domain"
)

// Every user-visible failure is one of these kinds; callers never see a raw
// internal error from the coordinator.
var (
	// ErrDuplicateName indicates an upload name is already taken.
	ErrDuplicateName = errors.New("file with the same name already exists")

	// ErrSessionNotFound indicates a chunk referenced no live upload session.
	ErrSessionNotFound = errors.New("no upload session for file")

	// ErrIO indicates a physical read or write failed.
	ErrIO = errors.New("file i/o failure")

	// ErrPersistence indicates a store operation failed for a reason other
	// than the uniqueness constraint.
	ErrPersistence = errors.New("asset store failure")

	// ErrUploadFailed indicates an inconsistency or unexpected failure
	// during a chunked upload.
	ErrUploadFailed = errors.New("error during file upload")

	// ErrFileNotFound indicates the asset record does not exist.
	ErrFileNotFound = errors.New("the requested file was not found")

	// ErrPhysicalFileNotFound indicates the asset record exists but its
	// physical file is missing.
	ErrPhysicalFileNotFound = errors.New("file could not be retrieved")
)

// Code maps an error kind to its wire error code.
func Code(err error) int {
	switch {
	case errors.Is(err, ErrDuplicateName):
		return domain.CodeDuplicateName
	case errors.Is(err, ErrSessionNotFound):
		return domain.CodeSessionNotFound
	case errors.Is(err, ErrIO):
		return domain.CodeIOFailure
	case errors.Is(err, ErrPersistence):
		return domain.CodePersistenceFailure
	case errors.Is(err, ErrFileNotFound):
		return domain.CodeFileNotFound
	case errors.Is(err, ErrPhysicalFileNotFound):
		return domain.CodePhysicalFileNotFound
	default:
		return domain.CodeErrorDuringUpload
	}
}
