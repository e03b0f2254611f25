// Package prompt lets a handler present components and block until the user answers.
package prompt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Prefix marks custom ids routed to a Waiter
const Prefix = "p:"

// ErrTimeout is returned when nobody answered before the prompt timed out
var ErrTimeout = errors.New("prompt timed out")

// Waiter routes component and modal interactions to the flow awaiting them
type Waiter struct {
	timeout time.Duration

	mu      sync.Mutex
	waiting map[string]chan *discordgo.InteractionCreate
}

// NewWaiter creates a waiter whose prompts expire after timeout
func NewWaiter(timeout time.Duration) *Waiter {
	return &Waiter{
		timeout: timeout,
		waiting: make(map[string]chan *discordgo.InteractionCreate),
	}
}

// Session is one interactive flow. Its custom ids all share a token.
type Session struct {
	Token  string
	waiter *Waiter
}

// Open starts a new flow
func (w *Waiter) Open() *Session {
	return &Session{Token: uuid.NewString()[:8], waiter: w}
}

// ID builds the custom id for action within this flow
func (s *Session) ID(action string) string {
	return Prefix + s.Token + ":" + action
}

// Await blocks until a component of this flow is used, the prompt times out, or ctx ends
func (s *Session) Await(ctx context.Context) (*discordgo.InteractionCreate, error) {
	return s.waiter.await(ctx, s.Token)
}

func (w *Waiter) await(ctx context.Context, token string) (*discordgo.InteractionCreate, error) {
	ch := make(chan *discordgo.InteractionCreate, 1)

	w.mu.Lock()
	w.waiting[token] = ch
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.waiting[token] == ch {
			delete(w.waiting, token)
		}
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	select {
	case i := <-ch:
		return i, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// Deliver hands i to the flow awaiting token. It reports false when nobody is waiting.
func (w *Waiter) Deliver(token string, i *discordgo.InteractionCreate) bool {
	w.mu.Lock()
	ch, ok := w.waiting[token]
	if ok {
		delete(w.waiting, token)
	}
	w.mu.Unlock()

	if !ok {
		return false
	}
	ch <- i
	return true
}

// Handle routes a prompt interaction, answering expired prompts itself
func (w *Waiter) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := CustomID(i)
	if !strings.HasPrefix(customID, Prefix) {
		return
	}

	token, _ := Parse(customID)
	if w.Deliver(token, i) {
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "⌛ This prompt has expired. Run the command again.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Warn("Failed to answer expired prompt")
	}
}

// CustomID returns the custom id of a component or modal interaction
func CustomID(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		return i.ModalSubmitData().CustomID
	default:
		return ""
	}
}

// Parse splits a prompt custom id into its token and action
func Parse(customID string) (token, action string) {
	rest := strings.TrimPrefix(customID, Prefix)
	token, action, _ = strings.Cut(rest, ":")
	return token, action
}

// Action returns the action of a prompt interaction
func Action(i *discordgo.InteractionCreate) string {
	_, action := Parse(CustomID(i))
	return action
}
