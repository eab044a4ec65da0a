package post

// Error codes surfaced by the upload and download pipelines.
const (
	CodeTooManyFields    = "too_many_fields"
	CodeUnknownField     = "unknown_field"
	CodeMissingMimeType  = "missing_mime_type"
	CodeUploadRead       = "upload_read_error"
	CodeStoreUnavailable = "store_unavailable"
	CodeNotFound         = "not_found"
	CodeInvalidInput     = "invalid_input"
)
