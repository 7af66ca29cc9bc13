//go:build linux

package i2c

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request selecting the target address (linux/i2c-dev.h).
const ioctlSlave = 0x0703

// Bus is an open i2c-dev character device.
type Bus struct {
	mu   sync.Mutex
	fd   int
	addr uint16
	path string
}

// Open opens the i2c-dev device at path.
func Open(path string) (*Bus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Bus{fd: fd, addr: 0xFFFF, path: path}, nil
}

// Tx writes w to the device at addr and then reads len(r) bytes into r.
// Either phase may be empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if addr != b.addr {
		if err := unix.IoctlSetInt(b.fd, ioctlSlave, int(addr)); err != nil {
			return fmt.Errorf("i2c: select 0x%02x: %w", addr, err)
		}
		b.addr = addr
	}
	if len(w) > 0 {
		n, err := unix.Write(b.fd, w)
		if err != nil {
			return fmt.Errorf("i2c: write 0x%02x: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("i2c: short write 0x%02x: %d of %d", addr, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(b.fd, r)
		if err != nil {
			return fmt.Errorf("i2c: read 0x%02x: %w", addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("i2c: short read 0x%02x: %d of %d", addr, n, len(r))
		}
	}
	return nil
}

// Close releases the device.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := unix.Close(b.fd); err != nil {
		return fmt.Errorf("close %s: %w", b.path, err)
	}
	return nil
}
