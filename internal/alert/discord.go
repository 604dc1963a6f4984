package alert

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/your-org/auto-buy-bot/internal/config"
)

// discordSession is the part of *discordgo.Session the notifier uses.
type discordSession interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// discordMessageLimit is Discord's maximum message length in characters.
const discordMessageLimit = 2000

// DiscordNotifier buffers messages and sends them as a single direct message
// to one user every bufferInterval. Remaining messages are flushed on Close.
type DiscordNotifier struct {
	session        discordSession
	userID         string
	logger         *zap.Logger
	bufferInterval time.Duration

	mu      sync.Mutex
	buffer  []string
	closed  bool
	started bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewDiscordNotifier creates a DiscordNotifier from cfg.
func NewDiscordNotifier(cfg config.DiscordConfig, logger *zap.Logger) (*DiscordNotifier, error) {
	if cfg.BotToken == "" || cfg.UserID == "" {
		return nil, errors.New("discord bot token and user ID must be configured")
	}
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := time.Duration(cfg.BufferIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Minute
	}
	return &DiscordNotifier{
		session:        session,
		userID:         cfg.UserID,
		logger:         logger,
		bufferInterval: interval,
		done:           make(chan struct{}),
	}, nil
}

// Send queues message for the next flush. The flush loop starts on the first Send.
func (n *DiscordNotifier) Send(message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errors.New("notifier is closed")
	}
	n.buffer = append(n.buffer, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message))
	if !n.started {
		n.started = true
		n.wg.Add(1)
		go n.run(n.bufferInterval)
	}
	return nil
}

// Close flushes pending messages and closes the session. It is safe to call twice.
func (n *DiscordNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.done)
	n.mu.Unlock()

	n.wg.Wait()
	n.flush()
	return n.session.Close()
}

func (n *DiscordNotifier) run(interval time.Duration) {
	defer n.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.flush()
		case <-n.done:
			return
		}
	}
}

// flush sends the buffered messages. Messages are dropped if sending fails.
func (n *DiscordNotifier) flush() {
	n.mu.Lock()
	pending := n.buffer
	n.buffer = nil
	n.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	channel, err := n.session.UserChannelCreate(n.userID)
	if err != nil {
		n.logger.Error("failed to open discord DM channel", zap.String("user_id", n.userID), zap.Error(err), zap.Int("dropped", len(pending)))
		return
	}

	content := fmt.Sprintf("--- **Bot Report (%d messages)** ---\n%s", len(pending), strings.Join(pending, "\n"))
	content = truncateMessage(content, discordMessageLimit)
	if _, err := n.session.ChannelMessageSend(channel.ID, content); err != nil {
		n.logger.Error("failed to send discord message", zap.String("channel_id", channel.ID), zap.Error(err))
	}
}

// truncateMessage shortens s to at most limit characters, cutting on a
// character boundary and marking the cut with "\n...".
func truncateMessage(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	const marker = "\n..."
	keep := limit - utf8.RuneCountInString(marker)
	for i := range s {
		if keep == 0 {
			return s[:i] + marker
		}
		keep--
	}
	return s
}
