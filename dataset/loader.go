package dataset

import (
	"fmt"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Loader turns a file path into an in-memory sample.
type Loader func(path string) (any, error)

// Transform maps a loaded sample to its final form before it is returned
// to the caller.
type Transform func(sample any) (any, error)

// DecodeImage is the default Loader. It decodes the file at path into an
// image.Image using the registered codecs (jpeg, png, bmp, tiff, webp).
// Open and decode failures are returned to the caller; a corrupt file is
// only discovered here, on first access, not during the directory scan.
func DecodeImage(path string) (any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// Chain composes transforms left to right into a single Transform.
func Chain(transforms ...Transform) Transform {
	return func(sample any) (any, error) {
		var err error
		for _, t := range transforms {
			sample, err = t(sample)
			if err != nil {
				return nil, err
			}
		}
		return sample, nil
	}
}
