package preprocessing

import (
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/tsawler/go-vision/dataset"
)

// ImageProcessor resizes decoded images to a fixed square size and converts
// them to float32 CHW tensors, reusing its conversion buffer across calls.
// Safe for concurrent use; concurrent callers serialize on the buffer.
type ImageProcessor struct {
	mu            sync.Mutex
	processBuffer []float32
	targetSize    int
}

// NewImageProcessor creates a processor producing targetSize x targetSize output.
func NewImageProcessor(targetSize int) *ImageProcessor {
	return &ImageProcessor{targetSize: targetSize}
}

// ProcessedImage is a preprocessed image ready for neural network input.
// Data is laid out CHW (channels, height, width), normalized to [0, 1].
type ProcessedImage struct {
	Data     []float32
	Width    int
	Height   int
	Channels int
}

// DecodeAndPreprocess decodes an image from reader and preprocesses it.
func (p *ImageProcessor) DecodeAndPreprocess(reader io.Reader) (*ProcessedImage, error) {
	img, err := imaging.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return p.PreprocessImage(img)
}

// PreprocessImage scales and center-crops img to the target size, then
// converts it to a CHW float32 tensor in [0, 1].
func (p *ImageProcessor) PreprocessImage(img image.Image) (*ProcessedImage, error) {
	resized := imaging.Fill(img, p.targetSize, p.targetSize, imaging.Center, imaging.Linear)

	p.mu.Lock()
	defer p.mu.Unlock()

	plane := p.targetSize * p.targetSize
	required := 3 * plane
	if len(p.processBuffer) < required {
		p.processBuffer = make([]float32, required)
	}
	data := p.processBuffer[:required]

	for y := 0; y < p.targetSize; y++ {
		for x := 0; x < p.targetSize; x++ {
			i := resized.PixOffset(x, y)
			idx := y*p.targetSize + x
			data[0*plane+idx] = float32(resized.Pix[i+0]) / 255.0
			data[1*plane+idx] = float32(resized.Pix[i+1]) / 255.0
			data[2*plane+idx] = float32(resized.Pix[i+2]) / 255.0
		}
	}

	// The buffer is reused on the next call, so hand back a copy.
	result := make([]float32, required)
	copy(result, data)

	return &ProcessedImage{
		Data:     result,
		Width:    p.targetSize,
		Height:   p.targetSize,
		Channels: 3,
	}, nil
}

// Transform adapts the processor into a dataset.Transform. The incoming
// sample must be an image.Image, which is what dataset.DecodeImage produces.
func (p *ImageProcessor) Transform() dataset.Transform {
	return func(sample any) (any, error) {
		img, ok := sample.(image.Image)
		if !ok {
			return nil, fmt.Errorf("expected image.Image sample, got %T", sample)
		}
		return p.PreprocessImage(img)
	}
}

// PreprocessBatch preprocesses the given files concurrently with a pool of
// maxWorkers workers, each with its own processor. The first failure aborts
// the whole batch.
func PreprocessBatch(imagePaths []string, targetSize int, maxWorkers int) ([]*ProcessedImage, error) {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	results := make([]*ProcessedImage, len(imagePaths))
	errors := make([]error, len(imagePaths))

	type job struct {
		index int
		path  string
	}

	jobs := make(chan job, len(imagePaths))
	var wg sync.WaitGroup

	for w := 0; w < maxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processor := NewImageProcessor(targetSize)

			for j := range jobs {
				file, err := os.Open(j.path)
				if err != nil {
					errors[j.index] = err
					continue
				}

				img, err := processor.DecodeAndPreprocess(file)
				file.Close()

				if err != nil {
					errors[j.index] = err
				} else {
					results[j.index] = img
				}
			}
		}()
	}

	for i, path := range imagePaths {
		jobs <- job{index: i, path: path}
	}
	close(jobs)
	wg.Wait()

	for i, err := range errors {
		if err != nil {
			return nil, fmt.Errorf("failed to process image %d: %w", i, err)
		}
	}
	return results, nil
}
