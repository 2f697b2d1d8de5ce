package photos

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/heic"}

// detectImage sniffs data and reports its mime type and file extension when
// it is a supported image.
func detectImage(data []byte) (contentType, ext string, ok bool) {
	detected := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			return allowed, extensionFor(detected), true
		}
	}
	return detected.String(), "", false
}

func extensionFor(m *mimetype.MIME) string {
	ext := m.Extension()
	if ext == "" {
		return ".bin"
	}
	return strings.ToLower(ext)
}

func allowedTypesDescription() string {
	return strings.Join(allowedImageTypes, ", ")
}
