package engine

// Session tracks per-host tier escalation for one scrape invocation.
//
// Escalation is sticky and monotonic: once a host is marked, every later
// acquisition for that host in this session goes straight to the browser
// tier. The state is deliberately session-local rather than process-wide
// so concurrent scrapes of different sites stay independent.
//
// A Session is not safe for concurrent use; acquisitions within one scrape
// are sequential.
type Session struct {
	escalated map[string]bool
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{escalated: make(map[string]bool)}
}

// Escalated reports whether the host was marked for browser-only fetching.
func (s *Session) Escalated(host string) bool {
	return s.escalated[host]
}

// Escalate marks the host. There is no way to unmark; blocks do not
// un-happen.
func (s *Session) Escalate(host string) {
	s.escalated[host] = true
}
