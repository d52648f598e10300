// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"encoding/json"
	"io"
	"time"
)

const (
	// DeliveryStatusSuccess indicates at least one attempt reached the target
	// with a 2xx response.
	DeliveryStatusSuccess = "success"
	// DeliveryStatusFailed indicates every attempt failed and no more will be
	// tried.
	DeliveryStatusFailed = "failed"

	// renderedTimeFormat is the layout used for timestamps in operator-facing
	// delivery views.
	renderedTimeFormat = "2006-01-02 15:04:05"
)

// Attempt records a single outbound delivery try.
type Attempt struct {
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
	Attempt    int       `json:"attempt" bson:"attempt"`
	StatusCode int       `json:"status_code,omitempty" bson:"status_code,omitempty"`
	Success    bool      `json:"success" bson:"success"`
	Error      string    `json:"error,omitempty" bson:"error,omitempty"`
}

// DeliveryLog is the durable record of one delivery task's full attempt
// history, snapshotted at dispatch time.
type DeliveryLog struct {
	ID             string          `json:"_id" bson:"_id"`
	SubscriptionID string          `json:"subscription_id" bson:"subscription_id"`
	TargetURL      string          `json:"target_url" bson:"target_url"`
	EventTypes     []string        `json:"event_types" bson:"event_types"`
	Payload        json.RawMessage `json:"payload" bson:"payload"`
	Attempts       []Attempt       `json:"attempts" bson:"attempts"`
	FinalStatus    string          `json:"final_status,omitempty" bson:"final_status,omitempty"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
}

// RenderedAttempt is an Attempt with its timestamp rendered for operator
// consumption.
type RenderedAttempt struct {
	Timestamp  string `json:"timestamp"`
	Attempt    int    `json:"attempt"`
	StatusCode int    `json:"status_code,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// RenderedDeliveryLog is a DeliveryLog shaped for the per-subscription
// delivery status endpoint.
type RenderedDeliveryLog struct {
	ID             string            `json:"_id"`
	SubscriptionID string            `json:"subscription_id"`
	TargetURL      string            `json:"target_url"`
	EventTypes     []string          `json:"event_types"`
	Attempts       []RenderedAttempt `json:"attempts"`
	FinalStatus    string            `json:"final_status,omitempty"`
	CreatedAt      string            `json:"created_at"`
}

// Render converts the delivery log into its operator-facing form.
func (l *DeliveryLog) Render() *RenderedDeliveryLog {
	attempts := make([]RenderedAttempt, 0, len(l.Attempts))
	for _, attempt := range l.Attempts {
		attempts = append(attempts, RenderedAttempt{
			Timestamp:  attempt.Timestamp.UTC().Format(renderedTimeFormat),
			Attempt:    attempt.Attempt,
			StatusCode: attempt.StatusCode,
			Success:    attempt.Success,
			Error:      attempt.Error,
		})
	}

	return &RenderedDeliveryLog{
		ID:             l.ID,
		SubscriptionID: l.SubscriptionID,
		TargetURL:      l.TargetURL,
		EventTypes:     l.EventTypes,
		Attempts:       attempts,
		FinalStatus:    l.FinalStatus,
		CreatedAt:      l.CreatedAt.UTC().Format(renderedTimeFormat),
	}
}

// DeliveryLogFromReader decodes a json-encoded delivery log from the given io.Reader.
func DeliveryLogFromReader(reader io.Reader) (*DeliveryLog, error) {
	deliveryLog := DeliveryLog{}
	decoder := json.NewDecoder(reader)
	err := decoder.Decode(&deliveryLog)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return &deliveryLog, nil
}

// DeliveryLogsFromReader decodes a json-encoded list of delivery logs from
// the given io.Reader.
func DeliveryLogsFromReader(reader io.Reader) ([]*DeliveryLog, error) {
	deliveryLogs := []*DeliveryLog{}
	decoder := json.NewDecoder(reader)

	err := decoder.Decode(&deliveryLogs)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return deliveryLogs, nil
}
