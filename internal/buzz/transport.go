package buzz

// Transport is the raw channel to an opened receiver. Read blocks until the
// device delivers an input report; Write sends an output report. Close must
// unblock any in-flight Read.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// TransportOpener performs device discovery and interface claiming. Open is
// called at most once per initialization attempt; the driver guarantees no
// two attempts overlap.
type TransportOpener interface {
	Open() (Transport, error)
}

// OpenerFunc adapts a function to the TransportOpener interface.
type OpenerFunc func() (Transport, error)

func (f OpenerFunc) Open() (Transport, error) {
	return f()
}
