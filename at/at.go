package at

import "errors"

const (
	// Terminal Control
	CR     = '\r'
	LF     = '\n'
	CRLF   = "\r\n"
	Prefix = "AT"

	// Command glyphs
	Plus      = '+'
	Equal     = '='
	Question  = '?'
	Separator = ':'

	// Reset is written verbatim, without the "+" marker.
	CmdReset = "ATZ"

	// Commands (AT v2.14)
	CmdAppEUI     = "APPEUI"
	CmdAppKey     = "APPKEY"
	CmdAppSKey    = "APPSKEY"
	CmdDevAddr    = "DADDR"
	CmdDevEUI     = "DEUI"
	CmdNwkSKey    = "NWKSKEY"
	CmdJoin       = "JOIN"
	CmdJoinMode   = "NJM"
	CmdJoinStatus = "NJS"
	CmdRecv       = "RECV"
	CmdRecvB      = "RECVB"
	CmdSend       = "SEND"
	CmdSendB      = "SENDB"
	CmdADR        = "ADR"
	CmdDR         = "DR"
	CmdRSSI       = "RSSI"
	CmdSNR        = "SNR"
	CmdVersion    = "VER"
	CmdLoRaTx     = "TXLRA"
	CmdLoRaRx     = "RXLRA"
	CmdLoRaOff    = "TOFF"
	CmdSave       = "SAVE"
	CmdAutoJoin   = "AJOIN"

	// Response Codes
	OK                  = "OK"
	ErrorToken          = "AT_ERROR"
	ErrorParameter      = "AT_PARAM_ERROR"
	ErrorParamOverflow  = "AT_TEST_PARAM_OVERFLOW"
	ErrorBusy           = "AT_BUSY_ERROR"
	ErrorNoNetwork      = "AT_NO_NETWORK_JOINED"
	ResetBanner         = "ATtention"
	JoinModeBanner      = "AppKey"
	ListenMarkerRSSI    = "RSSI="
	ListenMarkerSNR     = "SNR="
	ListenMarkerPayload = "-> "
)

// Field widths of the hexadecimal identifiers, in digits.
const (
	SizeAppEUI  = 16
	SizeAppKey  = 32
	SizeAppSKey = 32
	SizeDevEUI  = 16
	SizeDevAddr = 8
	SizeNwkSKey = 32
)

// Action selects the glyph appended after a command name.
type Action int

const (
	Run  Action = iota // AT+NAME
	Get                // AT+NAME=?
	Set                // AT+NAME=p1:p2
	Help               // AT+NAME?
)

func (a Action) glyph() string {
	switch a {
	case Run:
		return ""
	case Get:
		return "=?"
	case Set:
		return "="
	default:
		return "?"
	}
}

// Outcome is the result of one command cycle.
type Outcome int

const (
	Ok Outcome = iota
	Error
	Busy
	NoNetwork
	Data // out-of-band telemetry delivered in listen mode
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "OK"
	case Error:
		return "ERROR"
	case Busy:
		return "BUSY"
	case NoNetwork:
		return "NO_NETWORK"
	case Data:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrCommand is the error form of Error. The module does not tell generic,
	// parameter and overflow failures apart.
	ErrCommand = errors.New("command failed")

	// ErrBusy is the error form of Busy. Callers may retry after a backoff.
	ErrBusy = errors.New("network busy")

	// ErrNoNetwork is the error form of NoNetwork.
	ErrNoNetwork = errors.New("no network joined")
)

// Err returns nil for Ok and Data and a sentinel error otherwise.
func (o Outcome) Err() error {
	switch o {
	case Ok, Data:
		return nil
	case Busy:
		return ErrBusy
	case NoNetwork:
		return ErrNoNetwork
	default:
		return ErrCommand
	}
}
