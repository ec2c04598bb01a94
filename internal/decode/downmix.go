package decode

// downmix averages interleaved multi-channel samples to mono. A
// single-channel input passes through unchanged.
func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float32, frames)

	inv := float32(1) / float32(channels)

	for f := range frames {
		var sum float32

		base := f * channels

		for c := range channels {
			sum += interleaved[base+c]
		}

		mono[f] = sum * inv
	}

	return mono
}
