//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

func write(format, []byte) error { return ErrUnsupported }

func read(format) ([]byte, error) { return nil, ErrUnsupported }
