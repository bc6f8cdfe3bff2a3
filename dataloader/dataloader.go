package dataloader

import (
	"math/rand"
	"os"
	"sync"

	"github.com/tsawler/go-vision/preprocessing"
)

// Dataset is the sized, integer-indexable collection a DataLoader draws
// from. *dataset.DatasetFolder satisfies it.
type Dataset interface {
	Len() int
	Item(index int) (path string, label int, err error)
}

// Batch is one step of training data. Images is laid out as
// [Size][3][ImageSize][ImageSize] CHW float32; Labels holds one class
// index per image. Both slices alias the loader's internal buffers and
// are only valid until the next call to Next.
type Batch struct {
	Images []float32
	Labels []int32
	Size   int
}

// Config holds configuration for a DataLoader.
type Config struct {
	BatchSize    int
	Shuffle      bool
	ImageSize    int           // square preprocessing target in pixels
	MaxCacheSize int           // maximum cached images, defaults to 1000
	Cache        *CacheManager // optional shared cache
}

// DataLoader iterates a Dataset in batches, decoding and preprocessing
// each image on demand with an LRU cache of preprocessed tensors. Files
// that fail to open or decode are skipped, not fatal; a bad sample costs
// one slot in its batch.
type DataLoader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	indices   []int
	position  int
	mu        sync.Mutex

	imageBuffer []float32
	labelBuffer []int32

	cache      *CacheManager
	ownedCache bool

	processor *preprocessing.ImageProcessor
	imageSize int
}

// New creates a DataLoader over ds.
func New(ds Dataset, config Config) *DataLoader {
	if config.MaxCacheSize == 0 {
		config.MaxCacheSize = 1000
	}

	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}
	if config.Shuffle {
		rand.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	cache := config.Cache
	ownedCache := false
	if cache == nil {
		cache = NewCacheManager(config.MaxCacheSize)
		ownedCache = true
	}

	return &DataLoader{
		dataset:    ds,
		batchSize:  config.BatchSize,
		shuffle:    config.Shuffle,
		indices:    indices,
		cache:      cache,
		ownedCache: ownedCache,
		processor:  preprocessing.NewImageProcessor(config.ImageSize),
		imageSize:  config.ImageSize,
	}
}

// NewSharedPair creates train and validation loaders backed by one cache.
// The train loader shuffles; the validation loader does not.
func NewSharedPair(train, val Dataset, config Config) (*DataLoader, *DataLoader) {
	cacheSize := config.MaxCacheSize
	if cacheSize == 0 {
		cacheSize = train.Len() + val.Len()
	}
	shared := NewCacheManager(cacheSize)

	trainConfig := config
	trainConfig.Cache = shared
	trainConfig.Shuffle = true

	valConfig := config
	valConfig.Cache = shared
	valConfig.Shuffle = false

	return New(train, trainConfig), New(val, valConfig)
}

// Batches returns the number of batches in one epoch.
func (dl *DataLoader) Batches() int {
	return (dl.dataset.Len() + dl.batchSize - 1) / dl.batchSize
}

// Reset rewinds the loader to the start of a new epoch, reshuffling if
// shuffle is enabled.
func (dl *DataLoader) Reset() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.position = 0
	if dl.shuffle {
		rand.Shuffle(len(dl.indices), func(i, j int) {
			dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
		})
	}
}

// Next returns the next batch, or nil when the epoch is exhausted.
func (dl *DataLoader) Next() (*Batch, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	remaining := len(dl.indices) - dl.position
	if remaining <= 0 {
		return nil, nil
	}

	batchSize := dl.batchSize
	if remaining < batchSize {
		batchSize = remaining
	}

	pixelsPerImage := 3 * dl.imageSize * dl.imageSize
	requiredImage := batchSize * pixelsPerImage
	if len(dl.imageBuffer) < requiredImage {
		dl.imageBuffer = make([]float32, requiredImage)
	}
	if len(dl.labelBuffer) < batchSize {
		dl.labelBuffer = make([]int32, batchSize)
	}

	images := dl.imageBuffer[:requiredImage]
	labels := dl.labelBuffer[:batchSize]

	filled := 0
	for i := 0; i < batchSize && dl.position < len(dl.indices); i++ {
		idx := dl.indices[dl.position]
		dl.position++

		path, label, err := dl.dataset.Item(idx)
		if err != nil {
			continue
		}

		data, err := dl.loadCached(path)
		if err != nil {
			continue
		}

		copy(images[filled*pixelsPerImage:(filled+1)*pixelsPerImage], data)
		labels[filled] = int32(label)
		filled++
	}

	return &Batch{
		Images: images[:filled*pixelsPerImage],
		Labels: labels[:filled],
		Size:   filled,
	}, nil
}

// loadCached fetches a preprocessed tensor from the cache or decodes and
// preprocesses the file, caching the result.
func (dl *DataLoader) loadCached(path string) ([]float32, error) {
	if data, ok := dl.cache.Get(path); ok {
		return data, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	processed, err := dl.processor.DecodeAndPreprocess(file)
	if err != nil {
		return nil, err
	}

	dl.cache.Put(path, processed.Data)
	return processed.Data, nil
}

// Progress returns the number of samples consumed this epoch and the total.
func (dl *DataLoader) Progress() (current, total int) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.position, len(dl.indices)
}

// Stats returns the cache counters.
func (dl *DataLoader) Stats() CacheStats {
	return dl.cache.Stats()
}

// ClearCache clears the cache if this loader owns it. Shared caches are
// left alone.
func (dl *DataLoader) ClearCache() {
	if dl.ownedCache {
		dl.cache.Clear()
	}
}

// Cache returns the underlying cache manager for sharing between loaders.
func (dl *DataLoader) Cache() *CacheManager {
	return dl.cache
}
