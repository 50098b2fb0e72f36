package eventbus

import (
	"context"
	"log"
	"strings"
)

// LogConsumer logs all catalog change events for observability.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt Event) error {
	log.Printf("event: %s count=%d kinds=%s",
		evt.Type, evt.Count, strings.Join(evt.Kinds, ","))
	return nil
}
