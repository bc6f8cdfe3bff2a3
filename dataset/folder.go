package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FolderConfig configures DatasetFolder and ImageFolder construction.
// The zero value scans for the default image extensions and decodes samples
// with DecodeImage.
type FolderConfig struct {
	// Loader turns a file path into an in-memory sample. Defaults to DecodeImage.
	Loader Loader

	// Extensions restricts the scan to filenames ending in one of these
	// lowercase suffixes. When non-empty it takes precedence over IsValidFile.
	Extensions []string

	// Transform, when set, is applied to every loaded sample before it is
	// returned from Get.
	Transform Transform

	// IsValidFile is a custom file filter receiving the full path. It is
	// ignored when Extensions is set. When both are empty, ImageExtensions
	// is used.
	IsValidFile func(path string) bool
}

// fileFilter resolves the configured filter. An explicit extension list wins
// over a custom predicate; the built-in list applies only when neither is set,
// so a predicate-only configuration actually uses the predicate.
func (c FolderConfig) fileFilter() (func(path string) bool, []string) {
	exts := c.Extensions
	if len(exts) == 0 && c.IsValidFile == nil {
		exts = ImageExtensions
	}
	if len(exts) > 0 {
		return func(path string) bool { return HasValidExtension(path, exts) }, exts
	}
	return c.IsValidFile, nil
}

func (c FolderConfig) resolveLoader() Loader {
	if c.Loader != nil {
		return c.Loader
	}
	return DecodeImage
}

// LabeledSample is one item from a DatasetFolder: the decoded (and possibly
// transformed) data together with its integer class label.
type LabeledSample struct {
	Path  string
	Data  any
	Label int
}

// DatasetFolder is a dataset scanned from a directory structure where each
// immediate subdirectory of the root is one class:
//
//	root/class_a/1.jpg
//	root/class_a/2.jpg
//	root/class_b/3.jpg
//
// Class labels are dense integers assigned by sorted class-name order, so
// they are reproducible across runs for the same directory contents. The
// full tree is scanned once at construction; sample data is loaded lazily
// on each Get with no caching. Instances are read-only after construction
// and safe for concurrent use.
type DatasetFolder struct {
	root       string
	loader     Loader
	transform  Transform
	extensions []string
	classes    []string
	classToIdx map[string]int
	paths      []string
	labels     []int
}

// NewDatasetFolder scans root and builds the labeled sample index. It fails
// if root cannot be listed, or with *EmptyDatasetError if the scan matches
// no files.
func NewDatasetFolder(root string, config FolderConfig) (*DatasetFolder, error) {
	root = expandUser(root)

	classes, classToIdx, err := findClasses(root)
	if err != nil {
		return nil, err
	}

	isValid, extensions := config.fileFilter()

	var paths []string
	var labels []int
	for _, class := range classes {
		classDir := filepath.Join(root, class)
		for _, path := range collectFiles(classDir, isValid) {
			paths = append(paths, path)
			labels = append(labels, classToIdx[class])
		}
	}

	if len(paths) == 0 {
		return nil, &EmptyDatasetError{Root: root, Extensions: extensions}
	}

	return &DatasetFolder{
		root:       root,
		loader:     config.resolveLoader(),
		transform:  config.Transform,
		extensions: extensions,
		classes:    classes,
		classToIdx: classToIdx,
		paths:      paths,
		labels:     labels,
	}, nil
}

// findClasses lists the immediate subdirectories of root, sorted, and assigns
// each a dense index from its position in sorted order. Symlinks resolving to
// directories count as classes; everything else is skipped.
func findClasses(root string) ([]string, map[string]int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list classes in %s: %w", root, err)
	}

	var classes []string
	for _, entry := range entries {
		if isTraversableDir(filepath.Join(root, entry.Name()), entry) {
			classes = append(classes, entry.Name())
		}
	}
	sort.Strings(classes)

	classToIdx := make(map[string]int, len(classes))
	for i, class := range classes {
		classToIdx[class] = i
	}
	return classes, classToIdx, nil
}

// Len returns the number of samples in the dataset.
func (d *DatasetFolder) Len() int {
	return len(d.paths)
}

// Get loads the sample at index, applies the configured transform if any,
// and returns it with its label. Loader and transform failures propagate
// to the caller; the rest of the collection stays usable.
func (d *DatasetFolder) Get(index int) (*LabeledSample, error) {
	if index < 0 || index >= len(d.paths) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(d.paths))
	}

	path := d.paths[index]
	data, err := d.loader(path)
	if err != nil {
		return nil, err
	}
	if d.transform != nil {
		data, err = d.transform(data)
		if err != nil {
			return nil, err
		}
	}

	return &LabeledSample{Path: path, Data: data, Label: d.labels[index]}, nil
}

// Item returns the file path and label at index without loading the file.
func (d *DatasetFolder) Item(index int) (string, int, error) {
	if index < 0 || index >= len(d.paths) {
		return "", 0, fmt.Errorf("index %d out of range [0, %d)", index, len(d.paths))
	}
	return d.paths[index], d.labels[index], nil
}

// Root returns the expanded root directory the dataset was scanned from.
func (d *DatasetFolder) Root() string {
	return d.root
}

// Classes returns the class names in label order.
func (d *DatasetFolder) Classes() []string {
	return d.classes
}

// ClassToIdx returns the mapping from class name to integer label.
func (d *DatasetFolder) ClassToIdx() map[string]int {
	return d.classToIdx
}

// NumClasses returns the number of discovered classes.
func (d *DatasetFolder) NumClasses() int {
	return len(d.classes)
}

// Paths returns the sample file paths in collection order.
func (d *DatasetFolder) Paths() []string {
	return d.paths
}

// Targets returns the label for every sample, in the same order as Paths.
func (d *DatasetFolder) Targets() []int {
	return d.labels
}

// ClassDistribution returns the number of samples per class name.
func (d *DatasetFolder) ClassDistribution() map[string]int {
	dist := make(map[string]int)
	for _, label := range d.labels {
		dist[d.classes[label]]++
	}
	return dist
}

// Split partitions the dataset into train and validation views. The first
// int(len*trainRatio) samples (after an optional shuffle) form the train
// set. Both views share the class table and load/transform configuration.
func (d *DatasetFolder) Split(trainRatio float64, shuffle bool) (*DatasetFolder, *DatasetFolder) {
	n := len(d.paths)
	trainSize := int(float64(n) * trainRatio)

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if shuffle {
		rand.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	return d.Subset(indices[:trainSize]), d.Subset(indices[trainSize:])
}

// Subset returns a view of the dataset containing only the given indices,
// in the given order.
func (d *DatasetFolder) Subset(indices []int) *DatasetFolder {
	subset := &DatasetFolder{
		root:       d.root,
		loader:     d.loader,
		transform:  d.transform,
		extensions: d.extensions,
		classes:    d.classes,
		classToIdx: d.classToIdx,
		paths:      make([]string, len(indices)),
		labels:     make([]int, len(indices)),
	}
	for i, idx := range indices {
		subset.paths[i] = d.paths[idx]
		subset.labels[i] = d.labels[idx]
	}
	return subset
}

// FilterByClass returns a view containing only samples whose class name is
// in classNames. Labels keep their original values so the class table stays
// shared with the parent dataset.
func (d *DatasetFolder) FilterByClass(classNames []string) *DatasetFolder {
	valid := make(map[int]bool)
	for _, class := range classNames {
		if idx, ok := d.classToIdx[class]; ok {
			valid[idx] = true
		}
	}

	var indices []int
	for i, label := range d.labels {
		if valid[label] {
			indices = append(indices, i)
		}
	}
	return d.Subset(indices)
}

// String returns a human-readable summary of the dataset.
func (d *DatasetFolder) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("DatasetFolder: %d samples, %d classes\n", len(d.paths), len(d.classes)))
	sb.WriteString("Class distribution:\n")

	dist := d.ClassDistribution()
	for _, class := range d.classes {
		sb.WriteString(fmt.Sprintf("  %s: %d samples\n", class, dist[class]))
	}
	return sb.String()
}
