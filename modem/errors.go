package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the module.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// without a transport.
	//
	// This can occur if the Dialer returned no transport or if the Modem was
	// not created via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, or when it is used afterwards.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrNoData is returned by a Stream when no byte is pending.
	ErrNoData = errors.New("no data available")

	// ErrOutOfRange is returned when an argument is outside the range the
	// module accepts. Nothing is written to the module in that case.
	ErrOutOfRange = errors.New("value out of range")

	// ErrPortRequired is returned by SerialDialer without a port name.
	ErrPortRequired = errors.New("modem: serial port name is required")
)
