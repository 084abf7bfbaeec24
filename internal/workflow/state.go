package workflow

import (
	"time"

	"github.com/justsurfingit/cover-letter-agent/internal/models"
)

// Phase names a sub-step of a multi-part operation.
type Phase string

const (
	PhaseUserFetch  Phase = "user-fetch"
	PhaseJobSave    Phase = "job-save"
	PhaseGeneration Phase = "generation"
	PhaseLetterSave Phase = "letter-save"
)

// LoadingState says what kind of call is outstanding.
type LoadingState string

const (
	LoadingNone         LoadingState = ""
	LoadingInitializing LoadingState = "initializing"
	LoadingGenerating   LoadingState = "generating"
	LoadingSaving       LoadingState = "saving"
)

const (
	StepJobDetails = 1
	StepReview     = 2
)

type Progress struct {
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}

// State is the snapshot published to the presentation layer.
//
// Progress is non-nil only while a generation attempt is in flight. Error is
// an overlay: it never changes Step.
type State struct {
	Step            int                     `json:"step"`
	SelectedJob     *models.JobPosting      `json:"selected_job,omitempty"`
	GeneratedLetter *models.GeneratedLetter `json:"generated_letter,omitempty"`
	UnsavedChanges  bool                    `json:"unsaved_changes"`

	IsGenerating bool         `json:"is_generating"`
	IsLoading    bool         `json:"is_loading"`
	LoadingState LoadingState `json:"loading_state,omitempty"`
	LoadingSince *time.Time   `json:"loading_since,omitempty"`
	Message      string       `json:"message,omitempty"`

	Phase    Phase     `json:"generation_phase,omitempty"`
	Progress *Progress `json:"generation_progress,omitempty"`

	Error      string `json:"generation_error,omitempty"`
	ErrorPhase Phase  `json:"error_phase,omitempty"`
}

func (s State) clone() State {
	out := s
	if s.SelectedJob != nil {
		j := *s.SelectedJob
		if s.SelectedJob.Deadline != nil {
			d := *s.SelectedJob.Deadline
			j.Deadline = &d
		}
		out.SelectedJob = &j
	}
	if s.GeneratedLetter != nil {
		l := *s.GeneratedLetter
		out.GeneratedLetter = &l
	}
	if s.Progress != nil {
		p := *s.Progress
		out.Progress = &p
	}
	if s.LoadingSince != nil {
		t := *s.LoadingSince
		out.LoadingSince = &t
	}
	return out
}

// Busy reports whether any call is outstanding.
func (s State) Busy() bool { return s.IsGenerating || s.IsLoading }

func (s *State) startLoading(kind LoadingState, now time.Time) {
	s.LoadingState = kind
	s.LoadingSince = &now
	if kind == LoadingGenerating {
		s.IsGenerating = true
	} else {
		s.IsLoading = true
	}
}

func (s *State) stopLoading() {
	s.IsGenerating = false
	s.IsLoading = false
	s.LoadingState = LoadingNone
	s.LoadingSince = nil
	s.Message = ""
	s.Phase = ""
	s.Progress = nil
}
