// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// Client is the programmatic interface to the webhook service API.
type Client struct {
	address    string
	httpClient *http.Client
}

// NewClient creates a client to the webhook service at the given address.
func NewClient(address string) *Client {
	return &Client{
		address:    address,
		httpClient: &http.Client{},
	}
}

// closeBody ensures the Body of an http.Response is properly closed.
func closeBody(r *http.Response) {
	if r.Body != nil {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = r.Body.Close()
	}
}

func (c *Client) buildURL(urlPath string, args ...interface{}) string {
	return fmt.Sprintf("%s%s", c.address, fmt.Sprintf(urlPath, args...))
}

func (c *Client) doGet(u string) (*http.Response, error) {
	return c.httpClient.Get(u)
}

func (c *Client) doPost(u string, request interface{}) (*http.Response, error) {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	return c.httpClient.Post(u, "application/json", bytes.NewReader(requestBytes))
}

func (c *Client) doPut(u string, request interface{}) (*http.Response, error) {
	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpRequest, err := http.NewRequest(http.MethodPut, u, bytes.NewReader(requestBytes))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(httpRequest)
}

func (c *Client) doDelete(u string) (*http.Response, error) {
	httpRequest, err := http.NewRequest(http.MethodDelete, u, nil)
	if err != nil {
		return nil, err
	}

	return c.httpClient.Do(httpRequest)
}

// CreateSubscription requests the creation of a subscription from the
// configured server.
func (c *Client) CreateSubscription(request *CreateSubscriptionRequest) (*Subscription, error) {
	resp, err := c.doPost(c.buildURL("/subscriptions"), request)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusCreated:
		return SubscriptionFromReader(resp.Body)

	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetSubscription fetches the given subscription, returning nil if it does
// not exist.
func (c *Client) GetSubscription(subscriptionID string) (*Subscription, error) {
	resp, err := c.doGet(c.buildURL("/subscriptions/%s", subscriptionID))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return SubscriptionFromReader(resp.Body)

	case http.StatusNotFound:
		return nil, nil

	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetSubscriptions fetches the list of subscriptions.
func (c *Client) GetSubscriptions() ([]*Subscription, error) {
	resp, err := c.doGet(c.buildURL("/subscriptions"))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return SubscriptionsFromReader(resp.Body)

	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// UpdateSubscription applies a partial update to the given subscription,
// returning the merged record.
func (c *Client) UpdateSubscription(subscriptionID string, request *PatchSubscriptionRequest) (*Subscription, error) {
	resp, err := c.doPut(c.buildURL("/subscriptions/%s", subscriptionID), request)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return SubscriptionFromReader(resp.Body)

	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// DeleteSubscription deletes the given subscription.
func (c *Client) DeleteSubscription(subscriptionID string) error {
	resp, err := c.doDelete(c.buildURL("/subscriptions/%s", subscriptionID))
	if err != nil {
		return err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil

	default:
		return errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// IngestWebhook submits a payload for delivery to the given subscription.
// The body is sent exactly as provided; signature, when non-empty, is sent as
// the X-Hub-Signature-256 header.
func (c *Client) IngestWebhook(subscriptionID string, eventTypes []string, signature string, body []byte) error {
	u, err := url.Parse(c.buildURL("/ingest/%s", subscriptionID))
	if err != nil {
		return err
	}
	q := u.Query()
	for _, eventType := range eventTypes {
		q.Add("event_types", eventType)
	}
	u.RawQuery = q.Encode()

	httpRequest, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if signature != "" {
		httpRequest.Header.Set(SignatureHeader, signature)
	}

	resp, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil

	default:
		return errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetDeliveryLogs fetches recent delivery logs, most recent first. A negative
// limit fetches all logs.
func (c *Client) GetDeliveryLogs(limit int) ([]*DeliveryLog, error) {
	resp, err := c.doGet(c.buildURL("/status/delivery-logs?limit=%s", strconv.Itoa(limit)))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return DeliveryLogsFromReader(resp.Body)

	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetDeliveryLog fetches the given delivery log, returning nil if it does not
// exist.
func (c *Client) GetDeliveryLog(deliveryID string) (*DeliveryLog, error) {
	resp, err := c.doGet(c.buildURL("/status/delivery/%s", deliveryID))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return DeliveryLogFromReader(resp.Body)

	case http.StatusNotFound:
		return nil, nil

	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}

// GetSubscriptionDeliveries fetches recent deliveries for a subscription,
// most recent first.
func (c *Client) GetSubscriptionDeliveries(subscriptionID string, limit int) ([]*RenderedDeliveryLog, error) {
	resp, err := c.doGet(c.buildURL("/status/delivery/subscription/%s?limit=%s", subscriptionID, strconv.Itoa(limit)))
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		deliveries := []*RenderedDeliveryLog{}
		decoder := json.NewDecoder(resp.Body)
		err := decoder.Decode(&deliveries)
		if err != nil && err != io.EOF {
			return nil, err
		}
		return deliveries, nil

	default:
		return nil, errors.Errorf("failed with status code %d", resp.StatusCode)
	}
}
