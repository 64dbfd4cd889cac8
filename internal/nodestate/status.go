package nodestate

// Status is a node's run state. Absent records read as StatusIdle.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusError      Status = "ERROR"
)

// Terminal reports whether the status is a run-terminal state.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}
