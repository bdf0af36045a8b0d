package models

// Answer is the outcome of one question: what the user sees and which pages back it.
type Answer struct {
	Visible   string   `json:"answer"`
	Citations []string `json:"citations"`
	// Raw is the full completion (answer, delimiter and sources) as stored in the conversation.
	Raw string `json:"-"`
	// Fallback is true when the answer is the fixed fallback sentence: either nothing was
	// retrieved and no completion call was made, or the model itself replied with it.
	Fallback bool `json:"fallback"`
}

// HasPages reports whether the answer carries citations worth displaying.
// Fallback answers never show pages.
func (a *Answer) HasPages() bool {
	return a != nil && !a.Fallback && len(a.Citations) > 0
}
