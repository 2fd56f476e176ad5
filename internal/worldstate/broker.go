package worldstate

import (
	"sync"

	"go.uber.org/zap"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

// Broker fans committed notifications out to subscribers. Publish never
// blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.Mutex
	subs   map[uint64]chan ledger.Event
	nextID uint64
	logger *zap.Logger
}

func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{subs: make(map[uint64]chan ledger.Event), logger: logger}
}

// Subscribe returns a channel of future events and a function that ends the
// subscription and closes the channel.
func (b *Broker) Subscribe(buffer int) (<-chan ledger.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan ledger.Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broker) Publish(ev ledger.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				zap.Uint64("subscriber", id), zap.String("event", ev.Name), zap.String("tx", ev.TxID))
		}
	}
}
