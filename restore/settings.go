package restore

// Settings is the flat parameter record consumed by both engines. Every
// field has a documented range and a system-wide default; values outside
// their range are clamped, never rejected, so a live graph keeps running
// on whatever the control side sends.
type Settings struct {
	HissSuppression    float64 // 0..100, de-hiss strength
	CrackleSuppression float64 // 0..100, de-crackle strength
	ClickSensitivity   float64 // 0..100, click detection tuning (inert, see DESIGN.md)
	ClickIntensity     float64 // 0..100, click repair tuning (inert, see DESIGN.md)
	HumRemoval         bool    // notch enable
	HumFrequency       float64 // 45..75 Hz, notch target
	HumQ               float64 // 5..50, notch bandwidth
	TransientRecovery  float64 // 0..100, dynamics recovery amount
	SpectralSynth      float64 // 0..100, high-frequency exciter amount
	DeReverb           float64 // 0..100, sustain-tail gate strength
	BassBoost          float64 // -10..+10 dB, low shelf
	MidGain            float64 // -10..+10 dB, mid peak
	AirGain            float64 // -10..+10 dB, air shelf
	Warmth             float64 // 0..100, saturation amount
	StereoWidth        float64 // 0..200 %, mid/side width
	MonoToggle         bool    // force mono downmix, overrides width
	MasterGain         float64 // -20..+6 dB, output trim
	LimiterThreshold   float64 // -20..0 dB, ceiling
}

// Partial carries optional overrides for a subset of Settings fields.
// Absent (nil) fields leave the base value untouched. This is the shape
// produced by preset files and by the suggestion service.
type Partial struct {
	HissSuppression    *float64 `json:"hiss_suppression,omitempty"`
	CrackleSuppression *float64 `json:"crackle_suppression,omitempty"`
	ClickSensitivity   *float64 `json:"click_sensitivity,omitempty"`
	ClickIntensity     *float64 `json:"click_intensity,omitempty"`
	HumRemoval         *bool    `json:"hum_removal,omitempty"`
	HumFrequency       *float64 `json:"hum_frequency,omitempty"`
	HumQ               *float64 `json:"hum_q,omitempty"`
	TransientRecovery  *float64 `json:"transient_recovery,omitempty"`
	SpectralSynth      *float64 `json:"spectral_synth,omitempty"`
	DeReverb           *float64 `json:"de_reverb,omitempty"`
	BassBoost          *float64 `json:"bass_boost,omitempty"`
	MidGain            *float64 `json:"mid_gain,omitempty"`
	AirGain            *float64 `json:"air_gain,omitempty"`
	Warmth             *float64 `json:"warmth,omitempty"`
	StereoWidth        *float64 `json:"stereo_width,omitempty"`
	MonoToggle         *bool    `json:"mono_toggle,omitempty"`
	MasterGain         *float64 `json:"master_gain,omitempty"`
	LimiterThreshold   *float64 `json:"limiter_threshold,omitempty"`
}

// Defaults returns the neutral settings: every restoration stage
// transparent, width at 100 %, unity output. Rendering with defaults
// reproduces the input up to 16-bit quantization.
func Defaults() Settings {
	return Settings{
		HissSuppression:    0,
		CrackleSuppression: 0,
		ClickSensitivity:   50,
		ClickIntensity:     50,
		HumRemoval:         false,
		HumFrequency:       50,
		HumQ:               30,
		TransientRecovery:  0,
		SpectralSynth:      0,
		DeReverb:           0,
		BassBoost:          0,
		MidGain:            0,
		AirGain:            0,
		Warmth:             0,
		StereoWidth:        100,
		MonoToggle:         false,
		MasterGain:         0,
		LimiterThreshold:   -1,
	}
}

// FallbackProfile is the fixed restoration profile applied when the
// suggestion service fails or times out. The values are moderate
// vinyl-cleanup defaults; they are part of the external contract and
// must not drift.
func FallbackProfile() Partial {
	return Partial{
		HissSuppression:    f64(35),
		CrackleSuppression: f64(30),
		HumRemoval:         bptr(true),
		HumFrequency:       f64(50),
		HumQ:               f64(30),
		TransientRecovery:  f64(20),
		DeReverb:           f64(10),
		Warmth:             f64(15),
		StereoWidth:        f64(100),
		LimiterThreshold:   f64(-1),
	}
}

func f64(v float64) *float64 { return &v }
func bptr(v bool) *bool      { return &v }

// Merge applies a partial override onto base and clamps the result.
func Merge(base Settings, p *Partial) Settings {
	if p == nil {
		return base.Clamp()
	}
	if p.HissSuppression != nil {
		base.HissSuppression = *p.HissSuppression
	}
	if p.CrackleSuppression != nil {
		base.CrackleSuppression = *p.CrackleSuppression
	}
	if p.ClickSensitivity != nil {
		base.ClickSensitivity = *p.ClickSensitivity
	}
	if p.ClickIntensity != nil {
		base.ClickIntensity = *p.ClickIntensity
	}
	if p.HumRemoval != nil {
		base.HumRemoval = *p.HumRemoval
	}
	if p.HumFrequency != nil {
		base.HumFrequency = *p.HumFrequency
	}
	if p.HumQ != nil {
		base.HumQ = *p.HumQ
	}
	if p.TransientRecovery != nil {
		base.TransientRecovery = *p.TransientRecovery
	}
	if p.SpectralSynth != nil {
		base.SpectralSynth = *p.SpectralSynth
	}
	if p.DeReverb != nil {
		base.DeReverb = *p.DeReverb
	}
	if p.BassBoost != nil {
		base.BassBoost = *p.BassBoost
	}
	if p.MidGain != nil {
		base.MidGain = *p.MidGain
	}
	if p.AirGain != nil {
		base.AirGain = *p.AirGain
	}
	if p.Warmth != nil {
		base.Warmth = *p.Warmth
	}
	if p.StereoWidth != nil {
		base.StereoWidth = *p.StereoWidth
	}
	if p.MonoToggle != nil {
		base.MonoToggle = *p.MonoToggle
	}
	if p.MasterGain != nil {
		base.MasterGain = *p.MasterGain
	}
	if p.LimiterThreshold != nil {
		base.LimiterThreshold = *p.LimiterThreshold
	}
	return base.Clamp()
}

// Clamp returns a copy with every field forced into its documented range.
func (s Settings) Clamp() Settings {
	s.HissSuppression = clampf(s.HissSuppression, 0, 100)
	s.CrackleSuppression = clampf(s.CrackleSuppression, 0, 100)
	s.ClickSensitivity = clampf(s.ClickSensitivity, 0, 100)
	s.ClickIntensity = clampf(s.ClickIntensity, 0, 100)
	s.HumFrequency = clampf(s.HumFrequency, 45, 75)
	s.HumQ = clampf(s.HumQ, 5, 50)
	s.TransientRecovery = clampf(s.TransientRecovery, 0, 100)
	s.SpectralSynth = clampf(s.SpectralSynth, 0, 100)
	s.DeReverb = clampf(s.DeReverb, 0, 100)
	s.BassBoost = clampf(s.BassBoost, -10, 10)
	s.MidGain = clampf(s.MidGain, -10, 10)
	s.AirGain = clampf(s.AirGain, -10, 10)
	s.Warmth = clampf(s.Warmth, 0, 100)
	s.StereoWidth = clampf(s.StereoWidth, 0, 200)
	s.MasterGain = clampf(s.MasterGain, -20, 6)
	s.LimiterThreshold = clampf(s.LimiterThreshold, -20, 0)
	return s
}

func clampf(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
