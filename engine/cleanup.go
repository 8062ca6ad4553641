package engine

import "github.com/runa-systems/entityengine/msg"

// Cleanup prunes fully-resolved initiator subtrees from the cached context
// while preserving enough state for future replay, per §4.5. It is a
// three-pass mark sweep over the cached message list — no time-based
// retention window the way coreengine/kernel/cleanup.go's CleanupConfig
// works, because this compaction has no wall-clock dependency at all: a
// subtree is prunable exactly when it is structurally resolved, not when it
// has aged past some duration.
func (e *Engine[T]) Cleanup() []msg.Message {
	n := len(e.cached)
	marked := make([]bool, n)
	indexByOffset := make(map[int64]int, n)
	for idx, m := range e.cached {
		indexByOffset[int64(m.Off())] = idx
	}

	// Pass 1 — resolution, reverse: a terminal *_Sent marks itself and the
	// initiator message it answers; recording the initiator's offset lets
	// any RequestSent further back whose trace_offset names that initiator
	// be marked too, since its whole call tree is now resolved.
	resolvedInitiators := make(map[int64]bool)
	for idx := n - 1; idx >= 0; idx-- {
		switch v := e.cached[idx].(type) {
		case msg.CreateEntityResponseSent:
			marked[idx] = true
			markInitiator(marked, indexByOffset, resolvedInitiators, int64(v.RequestOffset))
		case msg.EntityMethodResponseSent:
			marked[idx] = true
			markInitiator(marked, indexByOffset, resolvedInitiators, int64(v.RequestOffset))
		case msg.CreateEntityErrorSent:
			marked[idx] = true
			markInitiator(marked, indexByOffset, resolvedInitiators, int64(v.RequestOffset))
		case msg.EntityMethodErrorSent:
			marked[idx] = true
			markInitiator(marked, indexByOffset, resolvedInitiators, int64(v.RequestOffset))
		case msg.CreateEntityRequestSent:
			if resolvedInitiators[int64(v.TraceOffset)] {
				marked[idx] = true
			}
		case msg.EntityMethodRequestSent:
			if resolvedInitiators[int64(v.TraceOffset)] {
				marked[idx] = true
			}
		case msg.ServiceMethodRequestSent:
			if resolvedInitiators[int64(v.TraceOffset)] {
				marked[idx] = true
			}
		}
	}

	// Pass 2 — reply-absorption, forward: a *_Received message answering a
	// now-marked RequestSent is marked too, since it carries no further
	// information once its request has been pruned.
	for idx, m := range e.cached {
		if marked[idx] {
			continue
		}
		reqOffset, ok := msg.RequestOffsetOf(m)
		if !ok {
			continue
		}
		switch m.(type) {
		case msg.CreateEntityResponseReceived, msg.EntityMethodResponseReceived, msg.ServiceMethodResponseReceived,
			msg.CreateEntityErrorReceived, msg.EntityMethodErrorReceived, msg.ServiceMethodErrorReceived:
			if reqIdx, ok := indexByOffset[int64(reqOffset)]; ok && marked[reqIdx] {
				marked[idx] = true
			}
		}
	}

	// Pass 3 — state-collapse, forward over what would survive: when two
	// state snapshots are adjacent in the surviving sequence, only the
	// later one needs to stay, since it supersedes the earlier entirely.
	var survivingIdx []int
	for idx := range e.cached {
		if !marked[idx] {
			survivingIdx = append(survivingIdx, idx)
		}
	}
	for k := 0; k+1 < len(survivingIdx); k++ {
		a, b := survivingIdx[k], survivingIdx[k+1]
		_, aSnap := e.cached[a].(msg.EntityStateChanged)
		_, bSnap := e.cached[b].(msg.EntityStateChanged)
		if aSnap && bSnap {
			marked[a] = true
		}
	}

	var pruned, survivors []msg.Message
	for idx, m := range e.cached {
		if marked[idx] {
			pruned = append(pruned, m)
		} else {
			survivors = append(survivors, m)
		}
	}
	e.cached = survivors

	e.tel.RecordCleanup(len(pruned))
	e.logger.Debug("engine_cleanup_completed", "pruned", len(pruned), "surviving", len(survivors))

	return pruned
}

func markInitiator(marked []bool, indexByOffset map[int64]int, resolved map[int64]bool, initiatorOffset int64) {
	resolved[initiatorOffset] = true
	if idx, ok := indexByOffset[initiatorOffset]; ok {
		marked[idx] = true
	}
}
