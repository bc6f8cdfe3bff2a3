package dataset

import (
	"fmt"
)

// Sample is one item from an ImageFolder: the decoded (and possibly
// transformed) data for a single file, with no label attached. It is
// deliberately a distinct type from LabeledSample so the two scanners'
// results cannot be confused.
type Sample struct {
	Path string
	Data any
}

// ImageFolder is a dataset scanned from a directory tree with no class
// structure: every qualifying file under the root, at any depth, is one
// sample.
//
//	root/1.jpg
//	root/2.jpg
//	root/sub_dir/3.jpg
//
// The tree is scanned once at construction; data is loaded lazily on each
// Get. Read-only after construction.
type ImageFolder struct {
	root       string
	loader     Loader
	transform  Transform
	extensions []string
	paths      []string
}

// NewImageFolder scans root recursively and builds the sample index. It
// fails with *EmptyDatasetError if the scan matches no files; a missing
// root scans as empty rather than erroring on its own.
func NewImageFolder(root string, config FolderConfig) (*ImageFolder, error) {
	root = expandUser(root)

	isValid, extensions := config.fileFilter()
	paths := collectFiles(root, isValid)
	if len(paths) == 0 {
		return nil, &EmptyDatasetError{Root: root, Extensions: extensions}
	}

	return &ImageFolder{
		root:       root,
		loader:     config.resolveLoader(),
		transform:  config.Transform,
		extensions: extensions,
		paths:      paths,
	}, nil
}

// Len returns the number of samples in the dataset.
func (f *ImageFolder) Len() int {
	return len(f.paths)
}

// Get loads the sample at index and applies the configured transform if
// any. Loader and transform failures propagate to the caller.
func (f *ImageFolder) Get(index int) (*Sample, error) {
	if index < 0 || index >= len(f.paths) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(f.paths))
	}

	path := f.paths[index]
	data, err := f.loader(path)
	if err != nil {
		return nil, err
	}
	if f.transform != nil {
		data, err = f.transform(data)
		if err != nil {
			return nil, err
		}
	}

	return &Sample{Path: path, Data: data}, nil
}

// Item returns the file path at index without loading the file.
func (f *ImageFolder) Item(index int) (string, error) {
	if index < 0 || index >= len(f.paths) {
		return "", fmt.Errorf("index %d out of range [0, %d)", index, len(f.paths))
	}
	return f.paths[index], nil
}

// Root returns the expanded root directory the dataset was scanned from.
func (f *ImageFolder) Root() string {
	return f.root
}

// Paths returns the sample file paths in collection order.
func (f *ImageFolder) Paths() []string {
	return f.paths
}
