package conversation

// Resolve merges the transport's live message list with the session's
// historical list into the canonical sequence the render layer consumes.
//
// The policy is "live replaces historical wholesale", not a merge by ID:
// once the transport reports any messages it owns message identity, and
// interleaving two authoritative sources would produce duplicates or
// out-of-order entries. Entries carrying the loaded- ID prefix are tagged
// historical so the UI can skip entry animation; everything else is live.
// With an empty live list the historical list is the sequence, all tagged
// historical.
//
// Historical seeding must therefore happen synchronously at session
// activation, before the transport has a chance to report live messages.
// See Controller.Activate.
func Resolve(live, historical []Message) []Message {
	if len(live) == 0 {
		out := make([]Message, len(historical))
		for i, m := range historical {
			m.Origin = OriginHistorical
			out[i] = m
		}
		return out
	}

	out := make([]Message, len(live))
	for i, m := range live {
		if m.IsHistorical() {
			m.Origin = OriginHistorical
		} else {
			m.Origin = OriginLive
		}
		out[i] = m
	}
	return out
}

// AllHistorical reports whether every message in the sequence was seeded
// from the store. The scroll arbiter uses this to suppress autoscroll on
// session load.
func AllHistorical(msgs []Message) bool {
	if len(msgs) == 0 {
		return false
	}
	for _, m := range msgs {
		if m.Origin != OriginHistorical {
			return false
		}
	}
	return true
}
