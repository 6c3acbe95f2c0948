package models

// UploadedAsset represents a transient uploaded image owned by a single request.
// It is created by the upload steward and must be released before the handler
// that acquired it returns.
type UploadedAsset struct {
	StoredPath   string `json:"stored_path"`
	DeclaredMime string `json:"declared_mime"`
	DetectedMime string `json:"detected_mime"`
	Size         int64  `json:"size"`
}
