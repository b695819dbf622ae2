package agent

import (
	"sync"

	"github.com/hupe1980/agenthive/core"
)

// DefaultBufferSize is the message buffer capacity when none is configured.
const DefaultBufferSize = 20

// MessageBuffer keeps the most recent messages of an agent. When full, the
// oldest message is evicted first. It stores copies and hands out copies.
type MessageBuffer struct {
	mu   sync.RWMutex
	size int
	msgs []core.Message
}

// NewMessageBuffer creates a buffer holding at most size messages.
// A non-positive size selects DefaultBufferSize.
func NewMessageBuffer(size int) *MessageBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &MessageBuffer{size: size, msgs: make([]core.Message, 0, size)}
}

// Add appends messages, evicting the oldest beyond capacity.
func (b *MessageBuffer) Add(msgs ...core.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range msgs {
		b.msgs = append(b.msgs, m.Clone())
	}
	if over := len(b.msgs) - b.size; over > 0 {
		// copy down so the backing array does not grow without bound
		n := copy(b.msgs, b.msgs[over:])
		clear(b.msgs[n:])
		b.msgs = b.msgs[:n]
	}
}

// Messages returns the buffered messages, oldest first.
func (b *MessageBuffer) Messages() []core.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return core.CloneMessages(b.msgs)
}

// Len returns the number of buffered messages.
func (b *MessageBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.msgs)
}

// Size returns the capacity.
func (b *MessageBuffer) Size() int { return b.size }
