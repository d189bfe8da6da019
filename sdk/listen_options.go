package vocalis

import (
	"net/url"

	"github.com/google/go-querystring/query"
)

// ListenOptions control transcription behaviour. Zero values are omitted
// from the request so the server defaults apply; use the pointer helpers
// for the boolean switches that distinguish "unset" from "false".
type ListenOptions struct {
	Model    string `url:"model,omitempty"`
	Language string `url:"language,omitempty"`
	Version  string `url:"version,omitempty"`

	Punctuate    *bool `url:"punctuate,omitempty"`
	SmartFormat  *bool `url:"smart_format,omitempty"`
	Diarize      *bool `url:"diarize,omitempty"`
	Multichannel *bool `url:"multichannel,omitempty"`
	FillerWords  *bool `url:"filler_words,omitempty"`
	Numerals     *bool `url:"numerals,omitempty"`

	Redact   []string `url:"redact,omitempty"`
	Keyterms []string `url:"keyterm,omitempty"`
	Tags     []string `url:"tag,omitempty"`

	// Turn detection tuning for the live endpoint.
	EOTThreshold      float64 `url:"eot_threshold,omitempty"`
	EagerEOTThreshold float64 `url:"eager_eot_threshold,omitempty"`
	EOTTimeoutMS      int     `url:"eot_timeout_ms,omitempty"`
}

// Bool returns a pointer to b for the optional boolean fields.
func Bool(b bool) *bool { return &b }

func (o *ListenOptions) values() (url.Values, error) {
	if o == nil {
		return url.Values{}, nil
	}
	v, err := query.Values(o)
	if err != nil {
		return nil, err
	}
	return v, nil
}
