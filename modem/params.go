package modem

import (
	"context"
	"fmt"
	"strconv"

	"i4.energy/across/smwgw/at"
)

const (
	ADROff = 0
	ADROn  = 1

	AutoJoinOff = 0
	AutoJoinOn  = 1

	JoinModeABP  = 0
	JoinModeOTAA = 1

	JoinStatusNotJoined = 0
	JoinStatusJoined    = 1

	// MaxDataRate is the highest data rate index accepted by AT+DR.
	MaxDataRate = 6
)

// get runs AT+name=? with the read timeout.
func (m *Modem) get(ctx context.Context, name string) (at.Outcome, error) {
	return m.exec(ctx, at.Command{Name: name, Action: at.Get}, m.config.readTimeout)
}

// set runs AT+name=params with the write timeout.
func (m *Modem) set(ctx context.Context, name string, params []string) (at.Outcome, error) {
	return m.exec(ctx, at.Command{Name: name, Action: at.Set, Params: params}, m.config.writeTimeout)
}

func (m *Modem) getDigit(ctx context.Context, name string) (int, at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.get(ctx, name)
	if err != nil || res != at.Ok || len(m.payload) == 0 {
		return 0, res, err
	}
	return int(m.payload[0]) - '0', res, nil
}

func (m *Modem) setDigit(ctx context.Context, name string, v int) (at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(ctx, name, []string{strconv.Itoa(v)})
}

func (m *Modem) getHex(ctx context.Context, name string, width int) (string, at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.get(ctx, name)
	if err != nil || res != at.Ok {
		return "", res, err
	}
	return at.ExtractHex(m.payload, width), res, nil
}

func (m *Modem) setHex(ctx context.Context, name string, width int, value string) (at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(ctx, name, []string{at.EncodeHexField(value, width)})
}

func (m *Modem) getSignal(ctx context.Context, name string) (float64, at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.get(ctx, name)
	if err != nil || res != at.Ok {
		return 0, res, err
	}
	return parseSignal(m.payload), res, nil
}

// parseSignal keeps digits, '-' and '.' from a payload such as "-87 dBm" and
// parses the result. Anything unparsable is 0.
func parseSignal(payload []byte) float64 {
	var kept []byte
	for _, c := range payload {
		if (c >= '0' && c <= '9') || c == '-' || c == '.' {
			kept = append(kept, c)
		}
	}
	v, err := strconv.ParseFloat(string(kept), 64)
	if err != nil {
		return 0
	}
	return v
}

func binary(v int, on int) int {
	if v == on {
		return on
	}
	return 0
}

// ADR returns the adaptive data rate setting.
func (m *Modem) ADR(ctx context.Context) (int, at.Outcome, error) {
	return m.getDigit(ctx, at.CmdADR)
}

// SetADR enables adaptive data rate for ADROn; any other value disables it.
func (m *Modem) SetADR(ctx context.Context, adr int) (at.Outcome, error) {
	return m.setDigit(ctx, at.CmdADR, binary(adr, ADROn))
}

// AutoJoin returns the automatic join setting.
func (m *Modem) AutoJoin(ctx context.Context) (int, at.Outcome, error) {
	return m.getDigit(ctx, at.CmdAutoJoin)
}

// SetAutoJoin enables automatic join for AutoJoinOn; any other value disables it.
func (m *Modem) SetAutoJoin(ctx context.Context, ajoin int) (at.Outcome, error) {
	return m.setDigit(ctx, at.CmdAutoJoin, binary(ajoin, AutoJoinOn))
}

func (m *Modem) DataRate(ctx context.Context) (int, at.Outcome, error) {
	return m.getDigit(ctx, at.CmdDR)
}

// SetDataRate sets the data rate index, 0 to MaxDataRate.
func (m *Modem) SetDataRate(ctx context.Context, dr int) (at.Outcome, error) {
	if dr < 0 || dr > MaxDataRate {
		return at.Error, fmt.Errorf("data rate %d: %w", dr, ErrOutOfRange)
	}
	return m.setDigit(ctx, at.CmdDR, dr)
}

func (m *Modem) JoinMode(ctx context.Context) (int, at.Outcome, error) {
	return m.getDigit(ctx, at.CmdJoinMode)
}

func (m *Modem) JoinStatus(ctx context.Context) (int, at.Outcome, error) {
	return m.getDigit(ctx, at.CmdJoinStatus)
}

// IsConnected reports whether the module has joined a network.
func (m *Modem) IsConnected(ctx context.Context) bool {
	status, res, err := m.JoinStatus(ctx)
	return err == nil && res == at.Ok && status == JoinStatusJoined
}

func (m *Modem) AppEUI(ctx context.Context) (string, at.Outcome, error) {
	return m.getHex(ctx, at.CmdAppEUI, at.SizeAppEUI)
}

func (m *Modem) SetAppEUI(ctx context.Context, appEUI string) (at.Outcome, error) {
	return m.setHex(ctx, at.CmdAppEUI, at.SizeAppEUI, appEUI)
}

func (m *Modem) AppKey(ctx context.Context) (string, at.Outcome, error) {
	return m.getHex(ctx, at.CmdAppKey, at.SizeAppKey)
}

func (m *Modem) SetAppKey(ctx context.Context, appKey string) (at.Outcome, error) {
	return m.setHex(ctx, at.CmdAppKey, at.SizeAppKey, appKey)
}

func (m *Modem) AppSKey(ctx context.Context) (string, at.Outcome, error) {
	return m.getHex(ctx, at.CmdAppSKey, at.SizeAppSKey)
}

func (m *Modem) SetAppSKey(ctx context.Context, appSKey string) (at.Outcome, error) {
	return m.setHex(ctx, at.CmdAppSKey, at.SizeAppSKey, appSKey)
}

func (m *Modem) DevAddr(ctx context.Context) (string, at.Outcome, error) {
	return m.getHex(ctx, at.CmdDevAddr, at.SizeDevAddr)
}

func (m *Modem) SetDevAddr(ctx context.Context, devAddr string) (at.Outcome, error) {
	return m.setHex(ctx, at.CmdDevAddr, at.SizeDevAddr, devAddr)
}

// DevEUI is read-only on this module.
func (m *Modem) DevEUI(ctx context.Context) (string, at.Outcome, error) {
	return m.getHex(ctx, at.CmdDevEUI, at.SizeDevEUI)
}

func (m *Modem) NwkSKey(ctx context.Context) (string, at.Outcome, error) {
	return m.getHex(ctx, at.CmdNwkSKey, at.SizeNwkSKey)
}

func (m *Modem) SetNwkSKey(ctx context.Context, nwkSKey string) (at.Outcome, error) {
	return m.setHex(ctx, at.CmdNwkSKey, at.SizeNwkSKey, nwkSKey)
}

// RSSI returns the signal strength of the last received packet, in dBm.
func (m *Modem) RSSI(ctx context.Context) (float64, at.Outcome, error) {
	return m.getSignal(ctx, at.CmdRSSI)
}

// SNR returns the signal to noise ratio of the last received packet, in dB.
func (m *Modem) SNR(ctx context.Context) (float64, at.Outcome, error) {
	return m.getSignal(ctx, at.CmdSNR)
}

// Version reads and parses the firmware banner.
func (m *Modem) Version(ctx context.Context) (at.Version, at.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.get(ctx, at.CmdVersion)
	if err != nil || res != at.Ok {
		return at.Version{}, res, err
	}
	return at.ParseVersion(m.payload), res, nil
}

// Ping sends the bare "AT" probe.
func (m *Modem) Ping(ctx context.Context) (at.Outcome, error) {
	return m.Exec(ctx, at.Command{}, m.config.readTimeout)
}

// Join starts joining the network. Completion is asynchronous, poll
// IsConnected.
func (m *Modem) Join(ctx context.Context) (at.Outcome, error) {
	return m.Exec(ctx, at.Command{Name: at.CmdJoin, Action: at.Run}, m.config.readTimeout)
}

// Save stores the current configuration in the module's flash.
func (m *Modem) Save(ctx context.Context) (at.Outcome, error) {
	return m.Exec(ctx, at.Command{Name: at.CmdSave, Action: at.Run}, m.config.writeTimeout)
}
