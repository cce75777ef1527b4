package at

// Frame is one packet received in P2P listen mode.
type Frame struct {
	RSSI    int
	SNR     int
	Payload []byte
}

type listenState int

const (
	stateIdle listenState = iota
	stateRSSI
	stateSNR
	stateData
)

// maxValueLen bounds the characters captured for an RSSI or SNR value.
const maxValueLen = 4

// matcher tracks progress against one literal marker.
type matcher struct {
	pattern string
	next    listenState
	pos     int
}

// feed advances the matcher by one byte and reports a complete match.
// A mismatch resets the matcher without re-testing the byte.
func (m *matcher) feed(b byte) bool {
	if b != m.pattern[m.pos] {
		m.pos = 0
		return false
	}
	m.pos++
	if m.pos == len(m.pattern) {
		m.pos = 0
		return true
	}
	return false
}

// ListenScanner recognises the RSSI=, SNR= and "-> " markers in the free-form
// output the module prints while listening, one byte at a time. It does no I/O.
//
// The zero value is not usable; call NewListenScanner.
type ListenScanner struct {
	state    listenState
	matchers [3]matcher
	value    []byte
	frame    Frame
	done     bool
}

func NewListenScanner() *ListenScanner {
	return &ListenScanner{
		matchers: [3]matcher{
			{pattern: ListenMarkerRSSI, next: stateRSSI},
			{pattern: ListenMarkerSNR, next: stateSNR},
			{pattern: ListenMarkerPayload, next: stateData},
		},
		value: make([]byte, 0, maxValueLen),
	}
}

// Feed consumes one byte and reports whether a data frame has just completed.
// After completion further bytes are ignored until Reset.
//
// Per byte, the current state handles it first; then, unless a payload is
// being captured, the RSSI, SNR and payload matchers see it in that order.
func (s *ListenScanner) Feed(b byte) bool {
	if s.done {
		return false
	}

	switch s.state {
	case stateRSSI, stateSNR:
		if b == '-' || isDigit(b) {
			if len(s.value) < maxValueLen {
				s.value = append(s.value, b)
			}
		} else {
			if s.state == stateRSSI {
				s.frame.RSSI = atoi(s.value)
			} else {
				s.frame.SNR = atoi(s.value)
			}
			s.state = stateIdle
		}

	case stateData:
		if b >= ' ' {
			s.frame.Payload = append(s.frame.Payload, b)
		} else {
			s.done = true
			return true
		}
	}

	for i := range s.matchers {
		if s.state == stateData {
			break
		}
		m := &s.matchers[i]
		if m.feed(b) {
			s.state = m.next
			s.value = s.value[:0]
			if m.next == stateData {
				s.frame.Payload = nil
			}
		}
	}
	return false
}

// Frame returns the values seen so far. RSSI and SNR keep their last value
// until overwritten.
func (s *ListenScanner) Frame() Frame {
	f := s.frame
	f.Payload = append([]byte(nil), s.frame.Payload...)
	return f
}

// Done reports whether a data frame has completed.
func (s *ListenScanner) Done() bool {
	return s.done
}

// Reset clears the scanner for a new listen window.
func (s *ListenScanner) Reset() {
	*s = *NewListenScanner()
}

// atoi parses an optional '-' followed by digits, stopping at the first other
// byte. Empty or malformed input yields 0.
func atoi(b []byte) int {
	neg := false
	if len(b) > 0 && b[0] == '-' {
		neg = true
		b = b[1:]
	}
	n := 0
	for _, c := range b {
		if !isDigit(c) {
			break
		}
		n = n*10 + int(c-'0')
	}
	if neg {
		return -n
	}
	return n
}
