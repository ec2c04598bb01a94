package decode

// CanonicalSampleRate is the fixed output rate of the whole decode
// pipeline. Every downstream descriptor window is sized against this
// constant.
const CanonicalSampleRate = 22050

// resample converts mono samples at sourceRate to CanonicalSampleRate using
// a fixed-ratio Catmull-Rom cubic interpolation kernel. Bit-exactness
// against any reference polyphase resampler is not a contract (per the
// decoder's pipeline note); only the ratio and interpolation order are.
//
// This has no library backing anywhere in the example pack (no Go port of
// rubato or libsamplerate), so it is hand-rolled the same way
// farcloser/haustorium hand-rolls its biquad K-weighting filter rather than
// reach for a DSP library it doesn't have.
func resample(input []float32, sourceRate int) ([]float32, error) {
	if sourceRate <= 0 {
		return nil, ErrResample
	}

	if sourceRate == CanonicalSampleRate {
		return input, nil
	}

	if len(input) == 0 {
		return nil, ErrEmptySamples
	}

	ratio := float64(CanonicalSampleRate) / float64(sourceRate)
	outLen := int(float64(len(input))*ratio) + 1
	out := make([]float32, outLen)

	step := float64(sourceRate) / float64(CanonicalSampleRate)

	for i := range outLen {
		srcPos := float64(i) * step
		idx := int(srcPos)
		frac := srcPos - float64(idx)

		out[i] = catmullRom(
			sampleAt(input, idx-1),
			sampleAt(input, idx),
			sampleAt(input, idx+1),
			sampleAt(input, idx+2),
			frac,
		)
	}

	return out, nil
}

func sampleAt(samples []float32, idx int) float32 {
	if idx < 0 {
		return samples[0]
	}

	if idx >= len(samples) {
		return samples[len(samples)-1]
	}

	return samples[idx]
}

// catmullRom evaluates the Catmull-Rom cubic spline through p1,p2 at
// parameter t in [0,1), using p0 and p3 as the neighboring control points.
func catmullRom(p0, p1, p2, p3 float32, t float64) float32 {
	t2 := t * t
	t3 := t2 * t

	a0 := -0.5*float64(p0) + 1.5*float64(p1) - 1.5*float64(p2) + 0.5*float64(p3)
	a1 := float64(p0) - 2.5*float64(p1) + 2*float64(p2) - 0.5*float64(p3)
	a2 := -0.5*float64(p0) + 0.5*float64(p2)
	a3 := float64(p1)

	return float32(a0*t3 + a1*t2 + a2*t + a3)
}
