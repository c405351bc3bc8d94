package tty

// Driver is the contract a concrete terminal driver implements: it owns
// the actual keystroke source and the opaque I/O-blocking primitive the
// tty layer uses to keep interrupt-driven keystroke delivery from
// corrupting the line discipline's buffer while a read or write is in
// progress.
type Driver interface {
	// ProvideChar emits a single echoed byte to the underlying terminal.
	ProvideChar(c byte)

	// BlockIO masks driver-level interrupts (or their simulated
	// equivalent) for the duration of a tty read/write, returning an
	// opaque token identifying the driver's prior masking state.
	BlockIO() any

	// UnblockIO restores the masking state token identifies. The tty
	// layer never inspects token; it only round-trips it between BlockIO
	// and UnblockIO.
	UnblockIO(token any)
}

// CallbackHandler is implemented by a tty device to receive driver
// keypress notifications. RegisterCallbackHandler-style wiring (the
// driver holding a handle back to its tty) is the caller's concern; this
// interface exists so drivers can depend on it rather than on *Device
// directly.
type CallbackHandler interface {
	Callback(c byte)
}
