package types

import (
	"encoding/json"
)

type SubscriberType string

const (
	SubscriberDiscord    SubscriberType = "discord"
	SubscriberSlack      SubscriberType = "slack"
	SubscriberStatusFeed SubscriberType = "statusfeed"
)

type WebhookSubscription struct {
	Id            string         `json:"id"`
	Type          SubscriberType `json:"type"`
	Url           string         `json:"url"`
	AuthSecretRef string         `json:"authSecretRef,omitempty"`
}

func (w WebhookSubscription) MarshalBinary() ([]byte, error) {
	return json.Marshal(w)
}

func (w *WebhookSubscription) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, w)
}
