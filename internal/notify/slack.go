package notify

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackSink posts pipeline events to a Slack channel as attachments.
type SlackSink struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a SlackSink.
type SlackOpts struct {
	BotToken  string // xoxb-... bot token
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlack creates a Slack sink.
func NewSlack(opts SlackOpts) (*SlackSink, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel ID is required")
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("slack: bot token is required")
		}
		client = slackapi.New(opts.BotToken)
	}
	return &SlackSink{client: client, channelID: opts.ChannelID}, nil
}

func (s *SlackSink) Name() string { return "slack" }

// Send posts the event as a colored attachment.
func (s *SlackSink) Send(ctx context.Context, e Event) error {
	color := e.Color
	if color == "" {
		color = ColorInfo
	}
	attachment := slackapi.Attachment{
		Title:  e.Title,
		Text:   e.Body,
		Color:  color,
		Footer: e.Timestamp.Format("2006-01-02 15:04 MST"),
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slackapi.MsgOptionAttachments(attachment))
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}
