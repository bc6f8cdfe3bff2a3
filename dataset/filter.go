package dataset

import "strings"

// ImageExtensions is the default set of filename suffixes treated as image
// samples when no explicit extension list or file filter is configured.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".ppm", ".bmp", ".pgm", ".tif", ".tiff", ".webp"}

// HasValidExtension reports whether filename ends with one of the given
// suffixes. The filename check is case-insensitive; the extensions are
// expected to already be lowercase, including the leading dot.
func HasValidExtension(filename string, extensions []string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
