package network

// ErrConnectTimeout is returned when the server handshake does not complete in time.
type ErrConnectTimeout struct{}

func (e *ErrConnectTimeout) Error() string {
	return "timed out waiting for server handshake"
}

// ErrConnectInProgress is returned when a connect attempt is already in flight.
type ErrConnectInProgress struct{}

func (e *ErrConnectInProgress) Error() string {
	return "a connect attempt is already in progress"
}

// ErrNotConnected is returned when sending without an established connection.
type ErrNotConnected struct{}

func (e *ErrNotConnected) Error() string {
	return "not connected to the server"
}
