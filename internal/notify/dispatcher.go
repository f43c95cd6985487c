package notify

import (
	"log"
	"sync"
)

// Dispatcher queues notifications for asynchronous delivery. Dispatch never
// blocks the caller: a full queue drops the notification with a log line.
// Delivery errors are logged and swallowed — they must never surface as the
// outer operation's failure.
type Dispatcher struct {
	notifier Notifier
	queue    chan Notification
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewDispatcher starts a dispatcher draining into the given notifier
func NewDispatcher(notifier Notifier, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		notifier: notifier,
		queue:    make(chan Notification, queueSize),
		done:     make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.queue:
			if err := d.notifier.Send(n); err != nil {
				log.Printf("notify: delivery failed for task %s (%s): %v", n.TaskID, n.Kind, err)
			}
		case <-d.done:
			// Drain what is already queued before exiting.
			for {
				select {
				case n := <-d.queue:
					if err := d.notifier.Send(n); err != nil {
						log.Printf("notify: delivery failed for task %s (%s): %v", n.TaskID, n.Kind, err)
					}
				default:
					return
				}
			}
		}
	}
}

// Dispatch enqueues a notification without blocking
func (d *Dispatcher) Dispatch(n Notification) {
	select {
	case d.queue <- n:
	default:
		log.Printf("notify: queue full, dropping notification for task %s (%s)", n.TaskID, n.Kind)
	}
}

// Close stops the dispatcher after draining the queue
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.done) })
	d.wg.Wait()
}
