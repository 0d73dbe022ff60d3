package amqp

import (
	"encoding/json"
	"time"
)

// SubmissionEvent announces a committed upload. Subscribers re-read the store
// for the data itself.
type SubmissionEvent struct {
	ID        string    `json:"id"`
	Pet       string    `json:"pet"`
	Rows      int       `json:"rows"`
	Created   bool      `json:"created"`
	Photo     bool      `json:"photo"`
	Timestamp time.Time `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes
func (e *SubmissionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SubmissionEventFromJSON decodes an event published by PublishSubmission.
func SubmissionEventFromJSON(data []byte) (*SubmissionEvent, error) {
	var ev SubmissionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
