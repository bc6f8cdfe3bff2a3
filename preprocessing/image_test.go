package preprocessing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocessImage(t *testing.T) {
	const size = 4
	processor := NewImageProcessor(size)

	t.Run("OutputShape", func(t *testing.T) {
		result, err := processor.PreprocessImage(solidImage(8, 6, color.RGBA{R: 255, A: 255}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if result.Width != size || result.Height != size || result.Channels != 3 {
			t.Errorf("Got %dx%dx%d, want %dx%dx3", result.Width, result.Height, result.Channels, size, size)
		}
		if len(result.Data) != 3*size*size {
			t.Errorf("len(Data) = %d, want %d", len(result.Data), 3*size*size)
		}
	})

	t.Run("ValueRange", func(t *testing.T) {
		result, err := processor.PreprocessImage(solidImage(8, 8, color.RGBA{R: 200, G: 100, B: 50, A: 255}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		for i, v := range result.Data {
			if v < 0 || v > 1 {
				t.Fatalf("Data[%d] = %f, want [0, 1]", i, v)
			}
		}
	})

	t.Run("ChannelOrder", func(t *testing.T) {
		// A solid-color input must survive resizing exactly, with the
		// channels planar in R, G, B order.
		result, err := processor.PreprocessImage(solidImage(8, 8, color.RGBA{R: 255, G: 0, B: 0, A: 255}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		plane := size * size
		if result.Data[0] != 1.0 {
			t.Errorf("R channel = %f, want 1.0", result.Data[0])
		}
		if result.Data[plane] != 0.0 || result.Data[2*plane] != 0.0 {
			t.Errorf("G/B channels = %f/%f, want 0.0", result.Data[plane], result.Data[2*plane])
		}
	})

	t.Run("BufferReuseDoesNotAlias", func(t *testing.T) {
		first, err := processor.PreprocessImage(solidImage(8, 8, color.RGBA{R: 255, A: 255}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		red := first.Data[0]

		if _, err := processor.PreprocessImage(solidImage(8, 8, color.RGBA{G: 255, A: 255})); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if first.Data[0] != red {
			t.Error("Earlier result was overwritten by a later call")
		}
	})
}

func TestDecodeAndPreprocess(t *testing.T) {
	processor := NewImageProcessor(4)

	t.Run("ValidImage", func(t *testing.T) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, solidImage(8, 8, color.RGBA{R: 128, A: 255})); err != nil {
			t.Fatalf("Failed to encode test image: %v", err)
		}

		result, err := processor.DecodeAndPreprocess(&buf)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(result.Data) != 3*4*4 {
			t.Errorf("len(Data) = %d, want 48", len(result.Data))
		}
	})

	t.Run("CorruptInput", func(t *testing.T) {
		if _, err := processor.DecodeAndPreprocess(bytes.NewReader([]byte("not an image"))); err == nil {
			t.Error("Decoding garbage should fail")
		}
	})
}

func TestProcessorTransform(t *testing.T) {
	processor := NewImageProcessor(4)
	transform := processor.Transform()

	t.Run("ImageInput", func(t *testing.T) {
		out, err := transform(solidImage(8, 8, color.RGBA{R: 10, A: 255}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, ok := out.(*ProcessedImage); !ok {
			t.Errorf("Transform output is %T, want *ProcessedImage", out)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		if _, err := transform("not an image"); err == nil {
			t.Error("Transform should reject non-image samples")
		}
	})
}

func TestPreprocessBatch(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		file, err := os.Create(path)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", path, err)
		}
		if err := png.Encode(file, solidImage(8, 8, color.RGBA{R: uint8(40 * i), A: 255})); err != nil {
			t.Fatalf("Failed to encode %s: %v", path, err)
		}
		file.Close()
		paths = append(paths, path)
	}

	t.Run("AllSucceed", func(t *testing.T) {
		results, err := PreprocessBatch(paths, 4, 2)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(results) != len(paths) {
			t.Fatalf("Got %d results, want %d", len(results), len(paths))
		}
		for i, result := range results {
			if result == nil || len(result.Data) != 48 {
				t.Errorf("Result %d is malformed", i)
			}
		}
	})

	t.Run("MissingFileFails", func(t *testing.T) {
		bad := append(append([]string{}, paths...), filepath.Join(dir, "missing.png"))
		if _, err := PreprocessBatch(bad, 4, 2); err == nil {
			t.Error("A missing file should fail the batch")
		}
	})
}
