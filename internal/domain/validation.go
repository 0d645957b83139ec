package domain

import (
	"encoding/json"
	"fmt"
)

// StageStatus is the display state of one validation stage.
type StageStatus string

const (
	StatusWaiting   StageStatus = "waiting"
	StatusWorking   StageStatus = "working"
	StatusCompleted StageStatus = "completed"
	StatusWarning   StageStatus = "warning"
	StatusOptional  StageStatus = "optional"
	StatusFailed    StageStatus = "failed"
)

// Stage indexes the five tracked sub-steps of a turn.
type Stage int

const (
	StageClassification Stage = iota
	StageRetrieval
	StagePromptEngineering
	StageChunking
	StageAccuracy

	StageCount = 5
)

var stageNames = [StageCount]string{
	"Classification",
	"Retrieval",
	"Prompt Engineering",
	"Chunking",
	"Accuracy Improvement",
}

func (s Stage) String() string {
	if s < 0 || s >= StageCount {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Tracker is the five-stage progress record rendered to the user while a turn
// runs. It has value semantics: every transition returns a new copy, so
// snapshots attached to messages are never mutated afterwards.
//
// Invariant: a stage only leaves waiting after the previous stage reached a
// terminal state, and a failed stage blocks every later stage for the rest of
// the turn. The transition methods enforce this and ignore violating calls.
type Tracker struct {
	Steps   [StageCount]StageStatus
	Info    string
	Company string
}

// NewTracker returns the tracker for a freshly started turn: classification
// working, everything else waiting.
func NewTracker() Tracker {
	t := Tracker{}
	for i := range t.Steps {
		t.Steps[i] = StatusWaiting
	}
	t.Steps[StageClassification] = StatusWorking
	return t
}

func (t Tracker) canStart(s Stage) bool {
	if s == 0 {
		return t.Steps[0] == StatusWaiting || t.Steps[0] == StatusWorking
	}
	switch t.Steps[s-1] {
	case StatusCompleted, StatusWarning:
		return t.Steps[s] == StatusWaiting
	}
	return false
}

// Working marks stage s as in progress. No-op if the previous stage has not
// terminated successfully.
func (t Tracker) Working(s Stage) Tracker {
	if !t.canStart(s) && t.Steps[s] != StatusWorking {
		return t
	}
	t.Steps[s] = StatusWorking
	return t
}

// Completed marks stage s done.
func (t Tracker) Completed(s Stage) Tracker {
	t.Steps[s] = StatusCompleted
	return t
}

// Failed marks stage s failed and records the diagnostic. Later stages stay
// waiting permanently for this turn.
func (t Tracker) Failed(s Stage, info string) Tracker {
	t.Steps[s] = StatusFailed
	t.Info = info
	return t
}

// Warning marks stage s terminated with an advisory.
func (t Tracker) Warning(s Stage, info string) Tracker {
	t.Steps[s] = StatusWarning
	t.Info = info
	return t
}

// Optional marks stage s as an optional leftover task.
func (t Tracker) Optional(s Stage) Tracker {
	t.Steps[s] = StatusOptional
	return t
}

// WithInfo replaces the diagnostic text.
func (t Tracker) WithInfo(info string) Tracker {
	t.Info = info
	return t
}

// WithCompany records the classifier's resolved entity.
func (t Tracker) WithCompany(company string) Tracker {
	t.Company = company
	return t
}

// TurnOutcome summarizes a finished turn.
type TurnOutcome string

const (
	OutcomeSuccess TurnOutcome = "success"
	OutcomeWarning TurnOutcome = "warning"
	OutcomeFailed  TurnOutcome = "failed"
)

// Outcome reduces the tracker to a single turn result: failed beats warning
// beats success. A stage left waiting behind a warning also counts as warning.
func (t Tracker) Outcome() TurnOutcome {
	outcome := OutcomeSuccess
	for _, s := range t.Steps {
		switch s {
		case StatusFailed:
			return OutcomeFailed
		case StatusWarning, StatusWaiting, StatusWorking:
			outcome = OutcomeWarning
		}
	}
	return outcome
}

type trackerJSON struct {
	Step1   StageStatus `json:"step1"`
	Step2   StageStatus `json:"step2"`
	Step3   StageStatus `json:"step3"`
	Step4   StageStatus `json:"step4"`
	Step5   StageStatus `json:"step5"`
	Info    string      `json:"info"`
	Company string      `json:"company,omitempty"`
}

// MarshalJSON emits the wire shape used by the chat clients: step1..step5
// plus info and the resolved company.
func (t Tracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(trackerJSON{
		Step1:   t.Steps[0],
		Step2:   t.Steps[1],
		Step3:   t.Steps[2],
		Step4:   t.Steps[3],
		Step5:   t.Steps[4],
		Info:    t.Info,
		Company: t.Company,
	})
}

func (t *Tracker) UnmarshalJSON(data []byte) error {
	var w trackerJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.Steps = [StageCount]StageStatus{w.Step1, w.Step2, w.Step3, w.Step4, w.Step5}
	t.Info = w.Info
	t.Company = w.Company
	return nil
}
