package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

type collected struct {
	message *discordgo.Message
	err     error
}

// collector waits for a single message. Its channel has room for exactly one result.
type collector struct {
	result chan collected
}

// AwaitMessage waits for the next message the user sends in the channel.
// Such a message is handed to the caller instead of being enqueued as sarah.Input.
// It returns ErrCollectTimeout after timeout, ErrCollectAborted when the user sends the abort command,
// ErrCollectorBusy when the same user is already awaited in the channel, or ctx.Err().
func (a *Adapter) AwaitMessage(ctx context.Context, channelID string, userID string, timeout time.Duration) (*discordgo.Message, error) {
	key := senderKey(channelID, userID)
	c := &collector{result: make(chan collected, 1)}

	a.mu.Lock()
	if _, busy := a.collectors[key]; busy {
		a.mu.Unlock()
		return nil, ErrCollectorBusy
	}
	a.collectors[key] = c
	a.mu.Unlock()

	defer a.release(key, c)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-c.result:
		return r.message, r.err

	case <-timer.C:
		return nil, ErrCollectTimeout

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Adapter) release(key string, c *collector) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.collectors[key] == c {
		delete(a.collectors, key)
	}
}

func (a *Adapter) claim(key string) *collector {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.collectors[key]
	if !ok {
		return nil
	}
	delete(a.collectors, key)
	return c
}

// deliver hands the message to the collector waiting for its sender, if any.
func (a *Adapter) deliver(key string, m *discordgo.Message) bool {
	c := a.claim(key)
	if c == nil {
		return false
	}
	c.result <- collected{message: m}
	return true
}

// abortCollector cancels the collector waiting for the sender, if any.
func (a *Adapter) abortCollector(key string) bool {
	c := a.claim(key)
	if c == nil {
		return false
	}
	c.result <- collected{err: ErrCollectAborted}
	return true
}

func (a *Adapter) abortAllCollectors() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, c := range a.collectors {
		delete(a.collectors, key)
		c.result <- collected{err: ErrCollectAborted}
	}
}
