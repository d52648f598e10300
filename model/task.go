// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import "encoding/json"

// DeliveryTask is the in-memory unit of work handed from ingest to a delivery
// worker. Payload holds the canonical body bytes exactly as verified at
// ingest; tasks are never persisted and are lost on process crash.
type DeliveryTask struct {
	SubscriptionID string
	Payload        json.RawMessage
	EventTypes     []string
}
