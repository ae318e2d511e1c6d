package domain

import "time"

// TaskType enumerates supported generation tasks.
type TaskType string

const (
	TaskShortSummary    TaskType = "short_summary"
	TaskLongSummary     TaskType = "long_summary"
	TaskResearchSummary TaskType = "research_summary"
	TaskMathProof       TaskType = "math_proof"
	TaskPromptDraft     TaskType = "prompt_draft"
	TaskPromptBuilder   TaskType = "prompt_builder"
)

// ValidTask reports whether t is a known task type.
func ValidTask(t TaskType) bool {
	switch t {
	case TaskShortSummary, TaskLongSummary, TaskResearchSummary,
		TaskMathProof, TaskPromptDraft, TaskPromptBuilder:
		return true
	}
	return false
}

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobStateCreated   JobState = "created"
	JobStateQueued    JobState = "queued"
	JobStateRunning   JobState = "running"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// transitions encodes the allowed state machine edges. Completion and
// failure are reachable only from states that precede them; terminal
// states have no outgoing edges.
var transitions = map[JobState][]JobState{
	JobStateCreated: {JobStateQueued},
	JobStateQueued:  {JobStateRunning, JobStateCompleted},
	JobStateRunning: {JobStateCompleted, JobStateFailed},
}

// Job tracks one orchestrated generation request through its lifecycle.
// It is mutated only by the job manager that owns it.
type Job struct {
	ID           string
	DocumentID   *string
	TaskType     TaskType
	OutputFormat string
	ModelPolicy  string
	State        JobState
	Fingerprint  string
	PromptText   string
	Preview      string
	FileKey      string
	AudioKey     string
	Score        float64
	Accepted     bool
	ErrorClass   string
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Transition moves the job to next, enforcing the state machine. A job in
// a terminal state never transitions again.
func (j *Job) Transition(next JobState) error {
	for _, allowed := range transitions[j.State] {
		if next == allowed {
			j.State = next
			now := time.Now().UTC()
			switch next {
			case JobStateRunning:
				j.StartedAt = &now
			case JobStateCompleted, JobStateFailed:
				j.CompletedAt = &now
			}
			return nil
		}
	}
	return ErrInvalidTransition
}
