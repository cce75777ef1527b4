package modem

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"i4.energy/across/smwgw/at"
)

// Reset performs a software reset (ATZ) and waits the full reset timeout for
// the boot banner. The outcome is Ok once a line containing "ATtention" and
// more has been seen, Error otherwise. Input is not flushed beforehand.
func (m *Modem) Reset(ctx context.Context) (at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ready(ctx); err != nil {
		return at.Error, err
	}

	line := []byte(at.CmdReset + string(at.CR))
	m.mirror.command(line)
	if _, err := m.stream.Write(line); err != nil {
		return at.Error, fmt.Errorf("write command %q: %w", at.CmdReset, err)
	}

	res := at.Error
	m.raw = m.raw[:0]
	banner := []byte(at.ResetBanner)

	deadline := time.Now().Add(m.config.resetTimeout)
	for time.Now().Before(deadline) {
		b, err := m.stream.NextByte()
		if err != nil {
			m.idle(m.config.incomingDelay)
			continue
		}
		m.mirror.received(b)
		if res == at.Ok {
			continue
		}
		switch {
		case at.IsPrintable(b):
			m.raw = append(m.raw, b)
		case b == at.CR || b == at.LF:
			if bytes.Contains(m.raw, banner) && len(m.raw) > len(banner) {
				res = at.Ok
			}
			m.raw = m.raw[:0]
		}
	}

	m.logger.Debug("reset completed", "outcome", res)
	return res, nil
}

// SetJoinMode selects ABP or OTAA. The module restarts on a mode change and
// prints its keys; the reply is read once the "AppKey" line has gone by, or
// after the reset timeout.
func (m *Modem) SetJoinMode(ctx context.Context, mode int) (at.Outcome, error) {
	if mode < JoinModeABP || mode > JoinModeOTAA {
		return at.Error, fmt.Errorf("join mode %d: %w", mode, ErrOutOfRange)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ready(ctx); err != nil {
		return at.Error, err
	}
	if err := m.send(at.Command{Name: at.CmdJoinMode, Action: at.Set, Params: []string{strconv.Itoa(mode)}}); err != nil {
		return at.Error, err
	}

	m.waitBanner(at.JoinModeBanner, m.config.resetTimeout)

	res := m.readResponse(m.config.writeTimeout)
	m.logger.Debug("join mode changed", "mode", mode, "outcome", res)
	return res, nil
}

// waitBanner consumes input until marker has been seen or timeout elapses.
// The "S" of "AppSKey" is skipped so that line does not break a partial
// "AppKey" match.
func (m *Modem) waitBanner(marker string, timeout time.Duration) bool {
	pos := 0
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		b, err := m.stream.NextByte()
		if err != nil {
			m.idle(m.config.incomingDelay)
			continue
		}
		m.mirror.received(b)

		switch {
		case b == marker[pos]:
			pos++
			if pos >= len(marker) {
				return true
			}
		case b == 'S' && pos == 3:
		default:
			pos = 0
		}
	}
	return false
}
