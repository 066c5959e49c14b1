package domain

import "time"

// OtpRecord is the single one-time code owned by an account. It is
// regenerated in place on every resend and never deleted after a
// successful verification.
type OtpRecord struct {
	OwnerID   string
	Code      string
	Verified  bool
	ExpiresAt time.Time
}

// ExpiredAt reports whether the code is no longer acceptable at now.
func (o *OtpRecord) ExpiredAt(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
