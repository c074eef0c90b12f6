package types

import (
	"encoding/json"
)

// NotificationJob tells one subscriber about one content change.
type NotificationJob struct {
	Id            string         `json:"id"`
	Type          SubscriberType `json:"type"`
	Url           string         `json:"url"`
	AuthSecretRef string         `json:"authSecretRef,omitempty"`
	Hash          string         `json:"hash"`
	Date          string         `json:"date"`
	FileUrl       string         `json:"fileUrl"`
}

func (j NotificationJob) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

func (j *NotificationJob) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, j)
}
