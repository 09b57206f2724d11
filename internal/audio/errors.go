package audio

import "errors"

var (
	// ErrNoDevices is returned from Start when the host reports zero
	// capture devices. The recorder stays in NOT_RECORDING and no
	// resources are allocated.
	ErrNoDevices = errors.New("no capture devices available")
)
