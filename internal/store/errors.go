package store

import "errors"

var (
	// ErrAssetNotFound indicates the asset record could not be found.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrDuplicateName indicates an insert violated the (name, extension)
	// uniqueness constraint.
	ErrDuplicateName = errors.New("asset name already in use")
)
