package modem

import (
	"context"
	"fmt"
	"time"

	"i4.energy/across/smwgw/at"
)

// P2P frequency limits, in kHz. Frequencies strictly between the gap bounds
// are rejected.
const (
	P2PMinFrequency = 902000
	P2PMaxFrequency = 927800
	p2pGapLow       = 907400
	p2pGapHigh      = 915200

	// P2PDefaultFrequency is the first AU915 uplink channel.
	P2PDefaultFrequency = 915200
)

func validFrequency(kHz uint32) bool {
	if kHz < P2PMinFrequency || kHz > P2PMaxFrequency {
		return false
	}
	return kHz <= p2pGapLow || kHz >= p2pGapHigh
}

// P2PStart starts the LoRa test mode. With empty data the module receives
// (AT+RXLRA), otherwise it transmits data (AT+TXLRA). A continuous session
// persists until P2PStop.
func (m *Modem) P2PStart(ctx context.Context, frequencyKHz uint32, continuous bool, data string) (at.Outcome, error) {
	if !validFrequency(frequencyKHz) {
		return at.Error, fmt.Errorf("frequency %d kHz: %w", frequencyKHz, ErrOutOfRange)
	}

	mode := "0"
	if continuous {
		mode = "1"
	}
	params := []string{fmt.Sprintf("%06d", frequencyKHz), mode}

	cmd := at.Command{Name: at.CmdLoRaRx, Action: at.Set, Params: params}
	if data != "" {
		cmd = at.Command{Name: at.CmdLoRaTx, Action: at.Set, Params: append(params, data)}
	}
	return m.Exec(ctx, cmd, m.config.readTimeout)
}

// P2PStop leaves the LoRa test mode.
func (m *Modem) P2PStop(ctx context.Context) (at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ready(ctx); err != nil {
		return at.Error, err
	}
	// Test mode output may still be arriving.
	if m.stream.Available() > 0 {
		m.stream.NextByte()
	}
	return m.exec(ctx, at.Command{Name: at.CmdLoRaOff, Action: at.Run}, m.config.readTimeout)
}

// P2PListen scans the module's receive output for up to timeout. When a
// "-> payload" line completes it returns Data with the frame right away,
// carrying the RSSI and SNR printed before it. Otherwise it returns Ok and a
// zero frame once the timeout has elapsed.
func (m *Modem) P2PListen(ctx context.Context, timeout time.Duration) (at.Outcome, at.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ready(ctx); err != nil {
		return at.Error, at.Frame{}, err
	}

	m.payload = nil
	scanner := at.NewListenScanner()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if m.stream.Available() == 0 {
			m.idle(m.config.pollInterval)
			continue
		}
		b, err := m.stream.NextByte()
		if err != nil {
			continue
		}
		m.mirror.received(b)
		if !scanner.Feed(b) {
			continue
		}

		m.drainLineEnd()
		frame := scanner.Frame()
		m.payload = append([]byte(nil), frame.Payload...)
		m.logger.Debug("frame received", "rssi", frame.RSSI, "snr", frame.SNR, "payload_length", len(frame.Payload))
		return at.Data, frame, nil
	}
	return at.Ok, at.Frame{}, nil
}

// drainLineEnd drops the CR/LF bytes immediately pending.
func (m *Modem) drainLineEnd() {
	for {
		b, err := m.stream.PeekByte()
		if err != nil || (b != at.CR && b != at.LF) {
			return
		}
		m.stream.NextByte()
	}
}
