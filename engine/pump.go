package engine

import (
	"encoding/json"
	"sync"
)

type notice struct {
	kind int
	name string
	body json.RawMessage
	err  error
}

const (
	noticeLoaded = iota
	noticeLoadFailed
	noticeEvent
)

// Pump delivers notifications to a Listener on its own goroutine, in the
// order they were posted. Posting never blocks.
type Pump struct {
	listener Listener

	mu      sync.Mutex
	queue   []notice
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

// NewPump starts a pump for listener.
func NewPump(listener Listener) *Pump {
	p := &Pump{
		listener: listener,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Loaded posts a load notification.
func (p *Pump) Loaded() { p.post(notice{kind: noticeLoaded}) }

// LoadFailed posts a load failure.
func (p *Pump) LoadFailed(err error) { p.post(notice{kind: noticeLoadFailed, err: err}) }

// Receive posts a named event.
func (p *Pump) Receive(name string, body json.RawMessage) {
	p.post(notice{kind: noticeEvent, name: name, body: body})
}

var _ Listener = (*Pump)(nil)

// Stop delivers what is already queued and then exits. Later posts are
// dropped.
func (p *Pump) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.stopped = true
	p.mu.Unlock()
	p.signal()
	<-p.done
}

func (p *Pump) post(n notice) {
	if p == nil || p.listener == nil {
		return
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, n)
	p.mu.Unlock()
	p.signal()
}

func (p *Pump) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pump) run() {
	defer close(p.done)
	for range p.wake {
		for {
			p.mu.Lock()
			if len(p.queue) == 0 {
				stopped := p.stopped
				p.mu.Unlock()
				if stopped {
					return
				}
				break
			}
			n := p.queue[0]
			p.queue[0] = notice{}
			p.queue = p.queue[1:]
			p.mu.Unlock()
			p.deliver(n)
		}
	}
}

func (p *Pump) deliver(n notice) {
	switch n.kind {
	case noticeLoaded:
		p.listener.Loaded()
	case noticeLoadFailed:
		p.listener.LoadFailed(n.err)
	default:
		p.listener.Receive(n.name, n.body)
	}
}
