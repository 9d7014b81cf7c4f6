package processor

// errorSlot holds the last failure message of one processor. It is
// overwritten by each failing operation and never cleared by a success.
type errorSlot struct {
	msg string
}

func (s *errorSlot) set(msg string) { s.msg = msg }

func (s *errorSlot) get() string { return s.msg }
