package enhancement

import (
	"github.com/adaeng/enhance-core/core/messages"
	"github.com/adaeng/enhance-core/core/stagebus"
)

const defaultQueueCapacity = 100

// Bus pairs the two hand-off channels of the pipeline: raw turns flowing
// in from the fast path and outbound messages flowing toward connected
// clients. Both queues must exist before the worker starts.
type Bus struct {
	Inbound  *stagebus.Queue[RawTurn]
	Outbound *stagebus.Queue[messages.Message]
}

type BusOption func(*busConfig)

type busConfig struct {
	inboundCapacity  int
	outboundCapacity int
}

// WithInboundCapacity bounds the raw turn queue.
func WithInboundCapacity(capacity int) BusOption {
	return func(c *busConfig) {
		if capacity > 0 {
			c.inboundCapacity = capacity
		}
	}
}

// WithOutboundCapacity bounds the outbound message queue.
func WithOutboundCapacity(capacity int) BusOption {
	return func(c *busConfig) {
		if capacity > 0 {
			c.outboundCapacity = capacity
		}
	}
}

// NewBus creates both stage queues.
func NewBus(opts ...BusOption) *Bus {
	config := busConfig{
		inboundCapacity:  defaultQueueCapacity,
		outboundCapacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Bus{
		Inbound:  stagebus.NewQueue[RawTurn](config.inboundCapacity),
		Outbound: stagebus.NewQueue[messages.Message](config.outboundCapacity),
	}
}
