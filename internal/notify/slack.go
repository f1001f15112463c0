package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bootnotify/internal/models"
	"github.com/slack-go/slack"
)

const bootColor = "#36a64f"

// SlackNotifier posts boot notices to a Slack channel.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token, opts...),
		channel: channel,
	}
}

func (s *SlackNotifier) Channel() string {
	return s.channel
}

// Notify posts the boot event with subject as the message text.
func (s *SlackNotifier) Notify(ctx context.Context, subject string, event *models.BootEvent) error {
	attachment := slack.Attachment{
		Color: bootColor,
		Fields: []slack.AttachmentField{
			{
				Title: "Device",
				Value: event.Device,
				Short: true,
			},
			{
				Title: "Name",
				Value: event.Name,
				Short: true,
			},
			{
				Title: "Booted At",
				Value: event.BootedAt.UTC().Format(time.RFC3339),
				Short: false,
			},
		},
		Footer: "boot-notify",
		Ts:     json.Number(strconv.FormatInt(event.BootedAt.Unix(), 10)),
	}

	_, _, err := s.client.PostMessageContext(ctx,
		s.channel,
		slack.MsgOptionText(subject, false),
		slack.MsgOptionAttachments(attachment),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}
