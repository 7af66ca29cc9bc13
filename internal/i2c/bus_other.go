//go:build !linux

package i2c

// Bus is not available on non-Linux platforms.
type Bus struct{}

// Open returns ErrUnsupported on non-Linux platforms.
func Open(path string) (*Bus, error) {
	return nil, ErrUnsupported
}

// Tx is not implemented on non-Linux platforms.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *Bus) Close() error {
	return nil
}
