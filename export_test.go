package depot

import "time"

// SetClock replaces the signer's time source.
func (s *LinkSigner) SetClock(now func() time.Time) {
	s.now = now
}
