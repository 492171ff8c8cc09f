package gateway

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// discordLimit is Discord's maximum message length.
const discordLimit = 2000

type DiscordGateway struct {
	Session   *discordgo.Session
	Responder Responder

	convs  *conversations
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDiscordGateway(token string, r Responder) (*DiscordGateway, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	ctx, cancel := context.WithCancel(context.Background())
	dg := &DiscordGateway{
		Session:   s,
		Responder: r,
		convs:     newConversations(),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.AddHandler(dg.onMessage)
	return dg, nil
}

func (dg *DiscordGateway) Start() error {
	if err := dg.Session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	log.Printf("Discord gateway connected as %s", dg.Session.State.User.Username)
	<-dg.ctx.Done()
	return nil
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Content == "" {
		return
	}
	log.Printf("[%s] %s", m.Author.Username, m.Content)

	go func() {
		err := converse(dg.ctx, dg.Responder, dg.convs, m.ChannelID, m.Content, DiscordStyle, func(chunk string) error {
			return dg.Send(m.ChannelID, chunk)
		})
		if err != nil {
			log.Printf("Error replying on discord channel %s: %v", m.ChannelID, err)
		}
	}()
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	for _, part := range splitRunes(text, discordLimit) {
		if _, err := dg.Session.ChannelMessageSend(chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (dg *DiscordGateway) Stop() error {
	dg.cancel()
	return dg.Session.Close()
}

func splitRunes(s string, n int) []string {
	r := []rune(s)
	if len(r) <= n {
		return []string{s}
	}
	var out []string
	for len(r) > n {
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
