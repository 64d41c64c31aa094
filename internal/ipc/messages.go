// Package ipc is the boundary to the rendering layer: inbound
// newline-delimited JSON messages that each map 1:1 onto an event logger
// call, plus a heartbeat for connection liveness. Outbound traffic
// (completion notifications, the state snapshot) flows through the hub's
// subscribers and the snapshot file; the core never issues UI commands.
package ipc

import (
	"encoding/json"
	"fmt"
)

// Message type tags understood on the inbound channel.
const (
	TypeHintRequested    = "hintRequested"
	TypeSolutionViewed   = "solutionViewed"
	TypeQuestionAnswered = "questionAnswered"
	TypeStepViewed       = "stepViewed"
	TypeHeartbeat        = "heartbeat"
)

// Envelope is the tagged-union wire shape of one inbound message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HintRequested reports a hint reveal.
type HintRequested struct {
	StepID     string `json:"stepId"`
	HintIndex  int    `json:"hintIndex"`
	TotalHints int    `json:"totalHints"`
}

// SolutionViewed reports a solution reveal.
type SolutionViewed struct {
	StepID string `json:"stepId"`
}

// QuestionAnswered reports a quiz answer.
type QuestionAnswered struct {
	StepID          string   `json:"stepId"`
	IsCorrect       bool     `json:"isCorrect"`
	SelectedOptions []string `json:"selectedOptions,omitempty"`
	CorrectOptions  []string `json:"correctOptions,omitempty"`
	Attempts        int      `json:"attempts"`
}

// StepViewed reports the student opening a step.
type StepViewed struct {
	StepID   string `json:"stepId"`
	StepType string `json:"stepType,omitempty"`
}

func decodePayload[T any](env Envelope) (T, error) {
	var p T
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return p, nil
}
