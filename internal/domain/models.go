package domain

import "time"

// AssetStatus captures the lifecycle of a stored file asset.
type AssetStatus string

const (
	StatusInProgress AssetStatus = "in_progress"
	StatusComplete   AssetStatus = "complete"
)

// Asset is the persisted record of a file, complete or still being uploaded.
// The pair (Name, Extension) is unique across all assets; the store enforces
// this and insert conflicts are the authoritative duplicate-name signal.
type Asset struct {
	ID         int64
	Name       string
	Extension  string
	Location   string
	Size       int64
	UploadDate time.Time
	Status     AssetStatus
}

// FullName returns the display name including the extension.
func (a Asset) FullName() string {
	return a.Name + a.Extension
}

// FileChunk is one byte-range segment of a large upload, sent as a separate
// request. Data marshals as base64 in JSON.
type FileChunk struct {
	FileName   string `json:"fileName"`
	Offset     int64  `json:"offset"`
	Data       []byte `json:"data"`
	FirstChunk bool   `json:"firstChunk"`
	LastChunk  bool   `json:"lastChunk"`
}

// Error codes surfaced to clients in UploadResult.ErrorCode.
const (
	CodeDuplicateName        = 1
	CodeSessionNotFound      = 2
	CodeIOFailure            = 3
	CodePersistenceFailure   = 4
	CodeErrorDuringUpload    = 5
	CodeFileNotFound         = 6
	CodePhysicalFileNotFound = 7
)

// UploadResult is returned for every upload operation, successful or not.
type UploadResult struct {
	Uploaded     bool   `json:"uploaded"`
	FileName     string `json:"fileName"`
	Size         int64  `json:"size"`
	RelativePath string `json:"relativePath,omitempty"`
	Extension    string `json:"extension,omitempty"`
	ErrorCode    *int   `json:"errorCode,omitempty"`
}

// FailedResult builds an UploadResult for a failed upload of name.
func FailedResult(name string, code int) UploadResult {
	return UploadResult{
		Uploaded:  false,
		FileName:  name,
		ErrorCode: &code,
	}
}

// ResultFromAsset maps a completed asset to its public listing shape.
func ResultFromAsset(a Asset) UploadResult {
	return UploadResult{
		Uploaded:     true,
		FileName:     a.FullName(),
		Size:         a.Size,
		RelativePath: a.Location,
		Extension:    a.Extension,
	}
}
