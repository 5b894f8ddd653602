// Package resampler converts mono 16-bit PCM between sample rates.
package resampler

import (
	"errors"
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// ErrInvalidRate is returned for sample rates that are not positive.
var ErrInvalidRate = errors.New("resampler: sample rate must be positive")

// Int16 resamples in from srcRate to dstRate. Equal rates return a copy.
func Int16(in []int16, srcRate, dstRate int) ([]int16, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, srcRate, dstRate)
	}
	if srcRate == dstRate || len(in) == 0 {
		out := make([]int16, len(in))
		copy(out, in)
		return out, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	input := make([]float64, len(in))
	for i, s := range in {
		input[i] = float64(s) / 32768.0
	}
	output, err := r.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	out := make([]int16, len(output))
	for i, s := range output {
		switch {
		case s > 1.0:
			out[i] = 32767
		case s < -1.0:
			out[i] = -32768
		default:
			out[i] = int16(s * 32767.0)
		}
	}
	return out, nil
}
