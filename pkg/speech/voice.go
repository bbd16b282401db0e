// Package speech picks platform voices and talks to the ElevenLabs
// text-to-speech API.
package speech

import "strings"

// Voice is a platform voice as reported by the client.
type Voice struct {
	Name     string `json:"name"`
	Lang     string `json:"lang"`
	VoiceURI string `json:"voiceURI,omitempty"`
	Default  bool   `json:"default,omitempty"`
}

// DefaultQualityMarkers are name fragments of engines that sound better than
// the platform default.
var DefaultQualityMarkers = []string{"Google"}

func isEnglish(v Voice) bool {
	return strings.HasPrefix(v.Lang, "en")
}

// SelectVoice returns the first English voice whose name contains one of the
// markers, else the first English voice, else false.
func SelectVoice(voices []Voice, markers []string) (Voice, bool) {
	if len(markers) == 0 {
		markers = DefaultQualityMarkers
	}
	for _, v := range voices {
		if !isEnglish(v) {
			continue
		}
		for _, m := range markers {
			if strings.Contains(v.Name, m) {
				return v, true
			}
		}
	}
	for _, v := range voices {
		if isEnglish(v) {
			return v, true
		}
	}
	return Voice{}, false
}

type UtteranceOptions struct {
	Rate   float64 `json:"rate,omitempty"`
	Pitch  float64 `json:"pitch,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// Utterance is what the client hands to its platform speech engine.
type Utterance struct {
	Text   string  `json:"text"`
	Voice  *Voice  `json:"voice,omitempty"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// DefaultUtterance fills zero options with rate 0.9, pitch 1 and volume 1.
func DefaultUtterance(opts UtteranceOptions) UtteranceOptions {
	if opts.Rate == 0 {
		opts.Rate = 0.9
	}
	if opts.Pitch == 0 {
		opts.Pitch = 1
	}
	if opts.Volume == 0 {
		opts.Volume = 1
	}
	return opts
}

// NewUtterance reports false for blank text, which is a no-op.
func NewUtterance(text string, voices []Voice, markers []string, opts UtteranceOptions) (Utterance, bool) {
	if strings.TrimSpace(text) == "" {
		return Utterance{}, false
	}
	opts = DefaultUtterance(opts)
	u := Utterance{Text: text, Rate: opts.Rate, Pitch: opts.Pitch, Volume: opts.Volume}
	if v, ok := SelectVoice(voices, markers); ok {
		u.Voice = &v
	}
	return u, true
}
