package domain

import "testing"

func TestJobTransitionHappyPath(t *testing.T) {
	j := &Job{State: JobStateCreated}
	for _, next := range []JobState{JobStateQueued, JobStateRunning, JobStateCompleted} {
		if err := j.Transition(next); err != nil {
			t.Fatalf("Transition(%s): %v", next, err)
		}
	}
	if j.StartedAt == nil || j.CompletedAt == nil {
		t.Fatal("timestamps not set on running/completed")
	}
}

func TestJobQueuedShortCircuitsToCompleted(t *testing.T) {
	j := &Job{State: JobStateQueued}
	if err := j.Transition(JobStateCompleted); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if j.StartedAt != nil {
		t.Fatal("short-circuited job must not record a start time")
	}
}

func TestJobTerminalStatesAreImmutable(t *testing.T) {
	for _, terminal := range []JobState{JobStateCompleted, JobStateFailed} {
		j := &Job{State: terminal}
		for _, next := range []JobState{JobStateCreated, JobStateQueued, JobStateRunning, JobStateCompleted, JobStateFailed} {
			if err := j.Transition(next); err != ErrInvalidTransition {
				t.Fatalf("Transition(%s -> %s) = %v, want ErrInvalidTransition", terminal, next, err)
			}
		}
	}
}

func TestJobFailureOnlyFromRunning(t *testing.T) {
	j := &Job{State: JobStateQueued}
	if err := j.Transition(JobStateFailed); err != ErrInvalidTransition {
		t.Fatalf("Transition = %v, want ErrInvalidTransition", err)
	}
}
