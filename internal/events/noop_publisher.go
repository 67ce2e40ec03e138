package events

import "context"

// NoopPublisher drops every event. Used when live push is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, channel string, event *Event) error { return nil }
func (NoopPublisher) Close() error                                                     { return nil }
