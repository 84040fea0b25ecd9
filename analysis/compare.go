package analysis

import "math"

// Metrics quantifies how far a processed candidate sits from a
// reference signal. Renders from the same engine are time-aligned by
// construction, so no lag estimation happens here.
type Metrics struct {
	SampleRate int `json:"sample_rate"`
	Frames     int `json:"frames"`

	TimeRMSE       float64 `json:"time_rmse"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`
	NoiseFloorDiff float64 `json:"noise_floor_diff_db"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare measures the distance between reference and candidate. Score
// is 0 for identical signals and grows toward 1; Similarity is the
// inverted convenience view in [0, 1].
func Compare(reference, candidate []float64, sampleRate int) Metrics {
	n := len(reference)
	if len(candidate) < n {
		n = len(candidate)
	}
	m := Metrics{SampleRate: sampleRate, Frames: n}
	if sampleRate <= 0 || n < DefaultFFTSize {
		m.Score = 1
		return m
	}
	ref := reference[:n]
	cand := candidate[:n]

	m.TimeRMSE = rmse(ref, cand)

	refSpec, err := Spectrum(ref, DefaultFFTSize)
	if err != nil {
		m.Score = 1
		return m
	}
	candSpec, err := Spectrum(cand, DefaultFFTSize)
	if err != nil {
		m.Score = 1
		return m
	}
	sum := 0.0
	for k := 1; k < len(refSpec); k++ {
		d := linToDB(refSpec[k]) - linToDB(candSpec[k])
		sum += d * d
	}
	m.SpectralRMSEDB = math.Sqrt(sum / float64(len(refSpec)-1))
	m.NoiseFloorDiff = math.Abs(NoiseFloorDB(refSpec) - NoiseFloorDB(candSpec))

	timeNorm := clamp01(m.TimeRMSE / 0.25)
	specNorm := clamp01(m.SpectralRMSEDB / 30)
	floorNorm := clamp01(m.NoiseFloorDiff / 40)
	m.Score = clamp01(0.4*timeNorm + 0.4*specNorm + 0.2*floorNorm)
	m.Similarity = clamp01(math.Exp(-4 * m.Score))
	return m
}

func rmse(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
