package resolve

// Stage is a step of the element resolution state machine.
type Stage int

const (
	StageCreated Stage = iota
	StageDataSet
	StageResolved
	StageInitialized
	StageRunning
	StageDisabled
	StageDestroyed
)

var stageNames = [...]string{
	StageCreated:     "created",
	StageDataSet:     "data_set",
	StageResolved:    "resolved",
	StageInitialized: "initialized",
	StageRunning:     "running",
	StageDisabled:    "disabled",
	StageDestroyed:   "destroyed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool { return s == StageDestroyed }
