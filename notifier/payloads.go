package notifier

import (
	"encoding/json"
	"fmt"

	"github.com/t2bot/snapshot-repo/types"
)

type Payload struct {
	ContentType string
	Body        []byte
}

type renderer func(job *types.NotificationJob) (*Payload, error)

// Adding a subscriber type is one entry here. Unknown types get renderPlain.
var renderers = map[types.SubscriberType]renderer{
	types.SubscriberDiscord:    renderDiscord,
	types.SubscriberSlack:      renderSlack,
	types.SubscriberStatusFeed: renderStatusFeed,
}

func Render(job *types.NotificationJob) (*Payload, error) {
	if r, ok := renderers[job.Type]; ok {
		return r(job)
	}
	return renderPlain(job)
}

func jsonPayload(v interface{}) (*Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Payload{ContentType: "application/json", Body: b}, nil
}

type discordImage struct {
	Url string `json:"url"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title  string        `json:"title"`
	Url    string        `json:"url"`
	Image  discordImage  `json:"image"`
	Footer discordFooter `json:"footer"`
}

type discordMessage struct {
	Content string         `json:"content"`
	Embeds  []discordEmbed `json:"embeds"`
}

func renderDiscord(job *types.NotificationJob) (*Payload, error) {
	return jsonPayload(discordMessage{
		Content: fmt.Sprintf("New snapshot for %s", job.Date),
		Embeds: []discordEmbed{{
			Title:  job.Date,
			Url:    job.FileUrl,
			Image:  discordImage{Url: job.FileUrl},
			Footer: discordFooter{Text: job.Hash},
		}},
	})
}

type slackMessage struct {
	Text string `json:"text"`
}

func renderSlack(job *types.NotificationJob) (*Payload, error) {
	return jsonPayload(slackMessage{
		Text: fmt.Sprintf("New snapshot for %s: <%s|%s>", job.Date, job.FileUrl, job.Hash),
	})
}

type statusFeedEvent struct {
	Event string `json:"event"`
	Hash  string `json:"hash"`
	Date  string `json:"date"`
	File  string `json:"file"`
}

func renderStatusFeed(job *types.NotificationJob) (*Payload, error) {
	return jsonPayload(statusFeedEvent{
		Event: "snapshot.updated",
		Hash:  job.Hash,
		Date:  job.Date,
		File:  job.FileUrl,
	})
}

func renderPlain(job *types.NotificationJob) (*Payload, error) {
	return &Payload{
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(fmt.Sprintf("Snapshot content changed on %s: %s", job.Date, job.FileUrl)),
	}, nil
}
