package engine

import "time"

// The broadcast buffer decouples the synchronous apply path from outbound
// delivery: accepted operations are queued per session and pushed out as a
// single operationsBatch event either when the buffer hits capacity or on
// the flush ticker, whichever comes first. Worst-case delivery latency for
// any single operation is therefore one flush interval.

// enqueueLocked requires the engine lock. Appends the operation to the
// session's buffer and returns a flush event if capacity was reached.
func (e *Engine) enqueueLocked(sessionID string, op Operation) []Event {
	e.buffers[sessionID] = append(e.buffers[sessionID], op)
	if len(e.buffers[sessionID]) < e.bufferCap {
		return nil
	}
	return e.drainLocked(sessionID)
}

// drainLocked requires the engine lock. Empties one session buffer into an
// operationsBatch event.
func (e *Engine) drainLocked(sessionID string) []Event {
	ops := e.buffers[sessionID]
	if len(ops) == 0 {
		return nil
	}
	delete(e.buffers, sessionID)
	return []Event{{
		Name:      EventOperationsBatch,
		SessionID: sessionID,
		Payload:   OperationsBatchPayload{Operations: ops},
	}}
}

// FlushAll drains every non-empty session buffer immediately.
func (e *Engine) FlushAll() {
	e.mu.Lock()
	var events []Event
	for sessionID := range e.buffers {
		events = append(events, e.drainLocked(sessionID)...)
	}
	e.mu.Unlock()
	e.bus.publish(events...)
}

func (e *Engine) flushLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.FlushAll()
		case <-e.done:
			return
		}
	}
}
