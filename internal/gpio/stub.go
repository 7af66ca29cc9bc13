//go:build !linux

package gpio

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns ErrUnsupported on non-Linux platforms.
func NewRealBoard(chipName string, pins Pins) (*RealBoard, error) {
	return nil, ErrUnsupported
}

func (b *RealBoard) Down() Input { return nopInput{} }
func (b *RealBoard) Up() Input { return nopInput{} }
func (b *RealBoard) High() Output { return nopOutput{} }
func (b *RealBoard) LED() Output { return nopOutput{} }
func (b *RealBoard) Close() error { return nil }

type nopInput struct{}

func (nopInput) IsSet() bool { return false }

type nopOutput struct{}

func (nopOutput) Set()   {}
func (nopOutput) Clear() {}
