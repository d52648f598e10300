// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/pkg/errors"
)

// Subscription is a registered webhook delivery target. An empty EventTypes
// list means the subscription accepts any event.
type Subscription struct {
	ID         string   `json:"_id" bson:"_id"`
	TargetURL  string   `json:"target_url" bson:"target_url"`
	EventTypes []string `json:"event_types" bson:"event_types"`
	Secret     string   `json:"secret,omitempty" bson:"secret,omitempty"`
}

// AcceptsAny returns whether the subscription accepts every event type.
func (s *Subscription) AcceptsAny() bool {
	return len(s.EventTypes) == 0
}

// AcceptsEvent returns whether the subscription accepts at least one of the
// given event types.
func (s *Subscription) AcceptsEvent(eventTypes []string) bool {
	if s.AcceptsAny() {
		return true
	}

	for _, et := range eventTypes {
		for _, subscribed := range s.EventTypes {
			if et == subscribed {
				return true
			}
		}
	}

	return false
}

// CreateSubscriptionRequest specifies the parameters for a new subscription.
type CreateSubscriptionRequest struct {
	TargetURL  string   `json:"target_url"`
	EventTypes []string `json:"event_types"`
	Secret     string   `json:"secret,omitempty"`
}

// NewCreateSubscriptionRequestFromReader will create a
// CreateSubscriptionRequest from an io.Reader with JSON data.
func NewCreateSubscriptionRequestFromReader(reader io.Reader) (*CreateSubscriptionRequest, error) {
	var createSubscriptionRequest CreateSubscriptionRequest
	err := json.NewDecoder(reader).Decode(&createSubscriptionRequest)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode create subscription request")
	}

	targetURL, err := NormalizeTargetURL(createSubscriptionRequest.TargetURL)
	if err != nil {
		return nil, err
	}
	createSubscriptionRequest.TargetURL = targetURL

	if createSubscriptionRequest.EventTypes == nil {
		createSubscriptionRequest.EventTypes = []string{}
	}

	return &createSubscriptionRequest, nil
}

// PatchSubscriptionRequest specifies the parameters for a partial
// subscription update. Nil fields are left unchanged.
type PatchSubscriptionRequest struct {
	TargetURL  *string   `json:"target_url,omitempty"`
	EventTypes *[]string `json:"event_types,omitempty"`
	Secret     *string   `json:"secret,omitempty"`
}

// NewPatchSubscriptionRequestFromReader will create a
// PatchSubscriptionRequest from an io.Reader with JSON data.
func NewPatchSubscriptionRequestFromReader(reader io.Reader) (*PatchSubscriptionRequest, error) {
	var patchSubscriptionRequest PatchSubscriptionRequest
	err := json.NewDecoder(reader).Decode(&patchSubscriptionRequest)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode patch subscription request")
	}

	if patchSubscriptionRequest.TargetURL != nil {
		targetURL, err := NormalizeTargetURL(*patchSubscriptionRequest.TargetURL)
		if err != nil {
			return nil, err
		}
		patchSubscriptionRequest.TargetURL = &targetURL
	}

	return &patchSubscriptionRequest, nil
}

// IsEmpty returns whether the patch contains no changes.
func (p *PatchSubscriptionRequest) IsEmpty() bool {
	return p.TargetURL == nil && p.EventTypes == nil && p.Secret == nil
}

// Apply merges the patch onto the given subscription, returning whether any
// field changed. The subscription ID is never modified.
func (p *PatchSubscriptionRequest) Apply(subscription *Subscription) bool {
	var applied bool

	if p.TargetURL != nil {
		applied = true
		subscription.TargetURL = *p.TargetURL
	}
	if p.EventTypes != nil {
		applied = true
		subscription.EventTypes = *p.EventTypes
	}
	if p.Secret != nil {
		applied = true
		subscription.Secret = *p.Secret
	}

	return applied
}

// NormalizeTargetURL validates a subscription target URL and returns its
// canonical rendering. A URL without a path is given a trailing slash so that
// equal targets always render identically.
func NormalizeTargetURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("must specify target URL")
	}

	uri, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "unable to parse target URL")
	}
	switch uri.Scheme {
	case "http", "https":
	default:
		return "", fmt.Errorf("'%s' is not a valid scheme: should be 'http' or 'https'", uri.Scheme)
	}
	if uri.Host == "" {
		return "", errors.New("must specify host")
	}
	if uri.Path == "" {
		uri.Path = "/"
	}

	return uri.String(), nil
}

// SubscriptionFromReader decodes a json-encoded subscription from the given io.Reader.
func SubscriptionFromReader(reader io.Reader) (*Subscription, error) {
	subscription := Subscription{}
	decoder := json.NewDecoder(reader)
	err := decoder.Decode(&subscription)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return &subscription, nil
}

// SubscriptionsFromReader decodes a json-encoded list of subscriptions from
// the given io.Reader.
func SubscriptionsFromReader(reader io.Reader) ([]*Subscription, error) {
	subscriptions := []*Subscription{}
	decoder := json.NewDecoder(reader)

	err := decoder.Decode(&subscriptions)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return subscriptions, nil
}
