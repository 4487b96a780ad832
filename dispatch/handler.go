package dispatch

import "sort"

// Handler is the dispatcher's runtime record for one active binding. Two
// handlers are the same handler when their binding name and owning system
// match; callback and priority do not participate, which is what lets
// inherited caches de-duplicate a handler reachable through several
// ancestor types.
//
// systemSeq and declSeq pin the registration-order tiebreakers: the
// system's registration sequence and the binding's declaration position
// within it.
type Handler struct {
	system    *System
	callback  Callback
	name      string
	priority  any
	systemSeq uint64
	declSeq   int
}

func (h *Handler) System() *System { return h.system }

func (h *Handler) Name() string { return h.name }

func (h *Handler) Priority() any { return h.priority }

func (h *Handler) equals(other *Handler) bool {
	return h == other || (h.name == other.name && h.system == other.system)
}

// handlerLess is the full dispatch order: descending priority, then older
// system, then earlier binding declaration.
func handlerLess(a, b *Handler) bool {
	if c := comparePriority(a.priority, b.priority); c != 0 {
		return c > 0
	}
	if a.systemSeq != b.systemSeq {
		return a.systemSeq < b.systemSeq
	}
	return a.declSeq < b.declSeq
}

// insertHandler places h into an already-sorted list by priority alone,
// after any handlers of equal priority. Insertion order is what encodes the
// system/declaration tiebreakers here, so inserts must happen in
// registration order.
func insertHandler(list []*Handler, h *Handler) []*Handler {
	lo, hi := 0, len(list)
	for lo < hi {
		mid := (lo + hi) / 2
		if comparePriority(list[mid].priority, h.priority) < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	list = append(list, nil)
	copy(list[lo+1:], list[lo:])
	list[lo] = h
	return list
}

// sortHandlers orders handlers by the full dispatch order. Used when a list
// is rebuilt from merged sources rather than grown by insertHandler.
func sortHandlers(list []*Handler) {
	sort.SliceStable(list, func(i, j int) bool {
		return handlerLess(list[i], list[j])
	})
}

// dedupHandlers drops later duplicates, preserving first-seen order.
func dedupHandlers(list []*Handler) []*Handler {
	out := list[:0]
	for _, h := range list {
		dup := false
		for _, seen := range out {
			if seen.equals(h) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, h)
		}
	}
	return out
}
