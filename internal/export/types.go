// Package export renders a project as a standalone HTML page or a JPEG
// screenshot of that page.
package export

import "errors"

// ErrChromiumMissing is returned when image export is requested but no
// chromium binary is installed on the host.
var ErrChromiumMissing = errors.New("image export unavailable")

type Result struct {
	Data     []byte
	Filename string
	MimeType string
}
