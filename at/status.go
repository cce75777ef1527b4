package at

import "bytes"

// statusDelimiters is the number of CR/LF bytes counted backwards from the end
// of a response before the status segment starts ("<CR><LF>Status<CR><LF>").
const statusDelimiters = 4

// IsPrintable reports whether b is accepted into a response buffer.
func IsPrintable(b byte) bool {
	return b > 31 && b < 127
}

func isDelimiter(b byte) bool {
	return b == CR || b == LF
}

// SplitStatus isolates the status line at the end of a raw response.
//
// Walking backwards, the fourth CR/LF byte marks the start of the status
// segment; the printable bytes from there to the end form the status. The
// bytes before it, with surrounding CR/LF trimmed, are the payload.
//
// A response of 4 bytes or fewer never holds a status line. When no status can
// be isolated ok is false and payload must not be used.
//
// The boundary counting does not understand blank lines inside the payload: a
// payload line followed by an empty line is taken as part of the status.
func SplitStatus(raw []byte) (payload, status []byte, ok bool) {
	if len(raw) <= statusDelimiters {
		return nil, nil, false
	}

	count := 0
	start := -1
	for i := len(raw) - 1; i >= 0; i-- {
		if !isDelimiter(raw[i]) {
			continue
		}
		count++
		if count == statusDelimiters {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil, false
	}

	for _, b := range raw[start:] {
		if IsPrintable(b) {
			status = append(status, b)
		}
	}
	if len(status) == 0 {
		return nil, nil, false
	}

	payload = bytes.Trim(raw[:start], CRLF)
	return payload, status, true
}

// Classify maps a status line to an Outcome. Only an exact "OK" is a success;
// each failure token must be followed or preceded by extra context, a bare
// token echo is not trusted. Anything unrecognised is an Error.
func Classify(status []byte) Outcome {
	if string(status) == OK {
		return Ok
	}

	rules := []struct {
		token   string
		outcome Outcome
	}{
		{ErrorToken, Error},
		{ErrorParameter, Error},
		{ErrorParamOverflow, Error},
		{ErrorBusy, Busy},
		{ErrorNoNetwork, NoNetwork},
	}
	for _, r := range rules {
		if bytes.Contains(status, []byte(r.token)) && len(status) > len(r.token) {
			return r.outcome
		}
	}
	return Error
}

// Parse splits and classifies a raw response in one step.
func Parse(raw []byte) (Outcome, []byte) {
	payload, status, ok := SplitStatus(raw)
	if !ok {
		return Error, nil
	}
	return Classify(status), payload
}
