package api

import (
    "sync"
)

// SSEEvent is one live update fanned out to stream subscribers.
type SSEEvent struct {
    Type string
    Data map[string]any
}

type Broker struct {
    mu   sync.Mutex
    subs map[string]map[chan SSEEvent]struct{} // sensorId -> set of channels
}

func NewBroker() *Broker {
    return &Broker{subs: map[string]map[chan SSEEvent]struct{}{}}
}

func (b *Broker) Subscribe(sensorID string) chan SSEEvent {
    ch := make(chan SSEEvent, 8)
    b.mu.Lock()
    if b.subs[sensorID] == nil { b.subs[sensorID] = map[chan SSEEvent]struct{}{} }
    b.subs[sensorID][ch] = struct{}{}
    b.mu.Unlock()
    return ch
}

func (b *Broker) Unsubscribe(sensorID string, ch chan SSEEvent) {
    b.mu.Lock()
    if m := b.subs[sensorID]; m != nil {
        delete(m, ch)
        if len(m) == 0 { delete(b.subs, sensorID) }
    }
    b.mu.Unlock()
    close(ch)
}

// Publish drops the event for subscribers whose buffer is full; a slow
// stream consumer never blocks the ingest path.
func (b *Broker) Publish(sensorID string, evt SSEEvent) {
    b.mu.Lock()
    m := b.subs[sensorID]
    for ch := range m {
        select { case ch <- evt: default: }
    }
    b.mu.Unlock()
}
