package domain

// Mode selects the pipeline behavior for one run.
type Mode string

const (
	ModeAnalyze  Mode = "analyze"
	ModeHumanize Mode = "humanize"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeAnalyze || m == ModeHumanize
}

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FileTypeTXT:  "text/plain",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FileTypeDOCX,
	"text/plain": FileTypeTXT,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"docx": FileTypeDOCX,
	"txt":  FileTypeTXT,
}

// ChunkErrorKind classifies why a single segment produced no result.
type ChunkErrorKind string

const (
	KindTimeout              ChunkErrorKind = "timeout"
	KindRequestFailed        ChunkErrorKind = "request_failed"
	KindInvalidResponseShape ChunkErrorKind = "invalid_response_shape"
	KindEmptyResponse        ChunkErrorKind = "empty_response"
	KindMalformedJSON        ChunkErrorKind = "malformed_json"
	KindMissingField         ChunkErrorKind = "missing_field"
)
