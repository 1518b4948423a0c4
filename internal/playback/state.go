package playback

// Phase is the sequencer's position in the playback state machine.
type Phase int

const (
	PhaseViewing         Phase = iota // Showing the current unit, answer not yet submitted
	PhaseAnswerSubmitted              // Answer checked, feedback visible
	PhaseComplete                     // Every unit has been visited; terminal
	PhaseAbandoned                    // Torn down before completion; terminal, nothing reported
)

func (p Phase) String() string {
	switch p {
	case PhaseViewing:
		return "viewing"
	case PhaseAnswerSubmitted:
		return "answer_submitted"
	case PhaseComplete:
		return "complete"
	case PhaseAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// PlaybackState is an immutable copy of a sequencer's state.
type PlaybackState struct {
	SessionID          string `json:"sessionId"`
	LevelID            string `json:"levelId"`
	Phase              Phase  `json:"-"`
	PhaseName          string `json:"phase"`
	CurrentIndex       int    `json:"currentIndex"`
	Total              int    `json:"total"`
	Selection          string `json:"selection,omitempty"`
	HasSelection       bool   `json:"hasSelection"`
	Checked            bool   `json:"checked"`
	IsCorrect          bool   `json:"isCorrect"`
	ExplanationVisible bool   `json:"explanationVisible"`
	Terminal           bool   `json:"terminal"`
	CorrectCount       int    `json:"correctCount"`
}
