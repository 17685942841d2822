package sync

import "github.com/confoo-planner/confoo/internal/confoo/extract"

// SpeakerHint is what a session page says about its speaker.
type SpeakerHint struct {
	Company string
	Bio     string
}

// Hints maps a speaker slug to the company and bio seen on that speaker's
// session pages. It is produced by the detail stage and consumed by the
// speaker stage.
type Hints map[string]SpeakerHint

// observe records the speaker fields of a session detail. A later non-empty
// value replaces an earlier one.
func (h Hints) observe(speakerSlug string, d extract.SessionDetail) {
	if speakerSlug == "" || (d.SpeakerCompany == "" && d.SpeakerBio == "") {
		return
	}
	hint := h[speakerSlug]
	if d.SpeakerCompany != "" {
		hint.Company = d.SpeakerCompany
	}
	if d.SpeakerBio != "" {
		hint.Bio = d.SpeakerBio
	}
	h[speakerSlug] = hint
}

// Company returns the company hint for a speaker, or "".
func (h Hints) Company(speakerSlug string) string {
	return h[speakerSlug].Company
}

// Bio returns the bio hint for a speaker, or "".
func (h Hints) Bio(speakerSlug string) string {
	return h[speakerSlug].Bio
}
