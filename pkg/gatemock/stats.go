package gatemock

import "sync/atomic"

// Stats are cumulative counters for a gate.
type Stats struct {
	Accepted       uint64 `json:"accepted"`
	Received       uint64 `json:"received"`
	Sent           uint64 `json:"sent"`
	Dropped        uint64 `json:"dropped"`
	Logins         uint64 `json:"logins"`
	Resumes        uint64 `json:"resumes"`
	ResumeRejected uint64 `json:"resume_rejected"`
	Heartbeats     uint64 `json:"heartbeats"`
	Requests       uint64 `json:"requests"`
	Errors         uint64 `json:"errors"`
	DecodeErrors   uint64 `json:"decode_errors"`
}

type counters struct {
	accepted       atomic.Uint64
	received       atomic.Uint64
	sent           atomic.Uint64
	dropped        atomic.Uint64
	logins         atomic.Uint64
	resumes        atomic.Uint64
	resumeRejected atomic.Uint64
	heartbeats     atomic.Uint64
	requests       atomic.Uint64
	errors         atomic.Uint64
	decodeErrors   atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Accepted:       c.accepted.Load(),
		Received:       c.received.Load(),
		Sent:           c.sent.Load(),
		Dropped:        c.dropped.Load(),
		Logins:         c.logins.Load(),
		Resumes:        c.resumes.Load(),
		ResumeRejected: c.resumeRejected.Load(),
		Heartbeats:     c.heartbeats.Load(),
		Requests:       c.requests.Load(),
		Errors:         c.errors.Load(),
		DecodeErrors:   c.decodeErrors.Load(),
	}
}
