package preprocessing

import (
	"fmt"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/stat"

	"github.com/tsawler/go-vision/dataset"
)

// ChannelStats holds per-channel mean and standard deviation for a set of
// preprocessed RGB images.
type ChannelStats struct {
	Mean [3]float32
	Std  [3]float32
}

// ComputeChannelStats computes the mean and sample standard deviation of
// each channel over all pixels of the given images.
func ComputeChannelStats(images []*ProcessedImage) (ChannelStats, error) {
	if len(images) == 0 {
		return ChannelStats{}, fmt.Errorf("no images to compute statistics from")
	}

	var cs ChannelStats
	for c := 0; c < 3; c++ {
		var values []float64
		for i, img := range images {
			if img.Channels != 3 {
				return ChannelStats{}, fmt.Errorf("image %d has %d channels, want 3", i, img.Channels)
			}
			plane := img.Width * img.Height
			for _, v := range img.Data[c*plane : (c+1)*plane] {
				values = append(values, float64(v))
			}
		}
		mean, std := stat.MeanStdDev(values, nil)
		cs.Mean[c] = float32(mean)
		cs.Std[c] = float32(std)
	}
	return cs, nil
}

// Normalize returns a dataset.Transform that shifts and scales a
// *ProcessedImage by the given per-channel statistics. A near-zero
// deviation is clamped so constant channels map to zero instead of
// blowing up.
func Normalize(stats ChannelStats) dataset.Transform {
	const eps = 1e-6
	return func(sample any) (any, error) {
		img, ok := sample.(*ProcessedImage)
		if !ok {
			return nil, fmt.Errorf("expected *ProcessedImage sample, got %T", sample)
		}
		if img.Channels != 3 {
			return nil, fmt.Errorf("image has %d channels, want 3", img.Channels)
		}

		plane := img.Width * img.Height
		out := &ProcessedImage{
			Data:     make([]float32, len(img.Data)),
			Width:    img.Width,
			Height:   img.Height,
			Channels: img.Channels,
		}
		for c := 0; c < 3; c++ {
			mean := stats.Mean[c]
			std := math32.Max(stats.Std[c], eps)
			for i := c * plane; i < (c+1)*plane; i++ {
				out.Data[i] = (img.Data[i] - mean) / std
			}
		}
		return out, nil
	}
}
