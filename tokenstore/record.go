package tokenstore

import "time"

// Record is the persisted token pair plus its expiry instant.
//
// AccessToken and RefreshToken are logically paired: a refresh supersedes
// both fields at once, never one without the other. RefreshToken may be
// empty (some exchanges omit it, in which case the previous value is
// carried over by the caller). ExpiresAt is an absolute epoch-seconds
// instant; zero means the record never expires on its own.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// Clone returns a copy of the record so callers cannot mutate stored state
// through a shared pointer.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Expired reports whether the record's expiry instant has passed.
// Records without an expiry never expire.
func (r *Record) Expired(now time.Time) bool {
	if r == nil || r.ExpiresAt == 0 {
		return false
	}
	return now.Unix() >= r.ExpiresAt
}
