package player

// reportDoneMsg is sent when the background completion report finishes.
type reportDoneMsg struct {
	Err error
}

// LevelFinishedMsg is delivered to the screen below when the player closes.
type LevelFinishedMsg struct {
	LevelID   string
	Completed bool
}
