// Package event provides a pub-sub event bus that decouples the deadline
// monitor and the recommendation service from their observers.
//
// The monitor publishes every notification it emits and a summary of every
// tick; the metrics collector and the CLI subscribe without the publishers
// knowing about them.
//
// # Event Types
//
// Event types follow the pattern "category.action":
//   - notification.approaching, notification.overdue, notification.meeting
//   - monitor.started, monitor.stopped, monitor.tick, monitor.tick_skipped
//   - anomaly.detected
//   - recommendation.completed, task.assigned
//
// [Bus] is safe for concurrent use. A panicking handler is logged and the
// remaining handlers still run.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeOverdue, func(e event.Event) {
//	    n := e.(event.NotificationEvent)
//	    fmt.Println(n.Message)
//	})
//
//	id := bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("event", "type", e.EventType())
//	})
//	bus.Unsubscribe(id)
package event
