package modem

import (
	"context"
	"strconv"

	"i4.energy/across/smwgw/at"
)

// Message is an application payload received from the network.
type Message struct {
	Port    int
	Payload []byte
}

// SendText sends text on the given application port (AT+SEND). The call
// returns once the module has accepted the uplink.
func (m *Modem) SendText(ctx context.Context, port uint8, text string) (at.Outcome, error) {
	return m.sendMessage(ctx, at.CmdSend, port, text)
}

// SendHex sends a hexadecimal payload on the given application port (AT+SENDB).
func (m *Modem) SendHex(ctx context.Context, port uint8, hex string) (at.Outcome, error) {
	return m.sendMessage(ctx, at.CmdSendB, port, hex)
}

func (m *Modem) sendMessage(ctx context.Context, name string, port uint8, data string) (at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(ctx, name, []string{strconv.Itoa(int(port)), data})
}

// ReadText returns the last downlink as text (AT+RECV).
func (m *Modem) ReadText(ctx context.Context) (Message, at.Outcome, error) {
	return m.readMessage(ctx, at.CmdRecv)
}

// ReadHex returns the last downlink as hexadecimal text (AT+RECVB).
func (m *Modem) ReadHex(ctx context.Context) (Message, at.Outcome, error) {
	return m.readMessage(ctx, at.CmdRecvB)
}

func (m *Modem) readMessage(ctx context.Context, name string) (Message, at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.get(ctx, name)
	if err != nil || res != at.Ok {
		return Message{}, res, err
	}
	return parseMessage(m.payload), res, nil
}

// parseMessage splits "<port>:<data>". Up to three digits before the first
// colon form the port; everything after it is the payload.
func parseMessage(payload []byte) Message {
	var msg Message
	digits := 0
	for i, c := range payload {
		if c == at.Separator {
			msg.Payload = append([]byte{}, payload[i+1:]...)
			break
		}
		if digits < 3 && c >= '0' && c <= '9' {
			msg.Port = msg.Port*10 + int(c-'0')
			digits++
		}
	}
	return msg
}
