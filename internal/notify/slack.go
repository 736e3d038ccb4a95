package notify

import (
	"context"
	"log"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts events to one channel as colored attachments.
type Slack struct {
	Client  slackClient
	Channel string
}

// NewSlack builds a Slack dispatcher from a bot token (xoxb-...).
func NewSlack(token, channel string) *Slack {
	return &Slack{Client: slackapi.New(token), Channel: channel}
}

func (s *Slack) Notify(_ context.Context, ev Event) {
	att := slackapi.Attachment{
		Title:    ev.Title(),
		Text:     ev.Body(),
		Color:    ev.color(),
		Fallback: ev.Title(),
	}
	_, _, err := s.Client.PostMessage(s.Channel, slackapi.MsgOptionAttachments(att))
	if err != nil {
		log.Printf("notify: slack post: %v", err)
	}
}
