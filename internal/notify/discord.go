package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendEmbed(channelID, embed, options...)
}

// DiscordSink posts pipeline events to a Discord channel as embeds.
type DiscordSink struct {
	sess      session
	channelID string
}

// DiscordOpts holds parameters for creating a DiscordSink.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// NewDiscord creates a Discord sink and opens the gateway session.
func NewDiscord(opts DiscordOpts) (*DiscordSink, error) {
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel ID is required")
	}
	sess := opts.Session
	if sess == nil {
		if opts.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		sess = &realSession{s: dg}
	}
	if err := sess.Open(); err != nil {
		return nil, fmt.Errorf("discord: open gateway: %w", err)
	}
	return &DiscordSink{sess: sess, channelID: opts.ChannelID}, nil
}

func (d *DiscordSink) Name() string { return "discord" }

// Send posts the event as an embed.
func (d *DiscordSink) Send(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Body,
		Color:       hexColor(e.Color),
		Timestamp:   e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
	if _, err := d.sess.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close shuts down the gateway session.
func (d *DiscordSink) Close() error {
	return d.sess.Close()
}

// hexColor converts a "#rrggbb" hint to Discord's integer color.
func hexColor(c string) int {
	c = strings.TrimPrefix(c, "#")
	n, err := strconv.ParseInt(c, 16, 32)
	if err != nil {
		return 0
	}
	return int(n)
}
