package port

import "context"

// TextSource turns uploaded files and web pages into plain text.
type TextSource interface {
	FromUpload(data []byte, contentType, filename string) (string, error)
	FromURL(ctx context.Context, url string) (string, error)
}
