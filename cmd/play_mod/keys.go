package main

import (
	"os"

	"golang.org/x/term"
)

// keyReader puts stdin in raw mode and forwards single key presses.
type keyReader struct {
	fd    int
	state *term.State
	keys  chan byte
}

// startKeys returns nil when stdin is not a terminal.
func startKeys() (*keyReader, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	k := &keyReader{fd: fd, state: state, keys: make(chan byte, 16)}
	go k.loop()
	return k, nil
}

func (k *keyReader) loop() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			close(k.keys)
			return
		}
		if n == 1 {
			select {
			case k.keys <- buf[0]:
			default:
			}
		}
	}
}

// Keys is nil-safe: a nil reader yields a channel that never fires.
func (k *keyReader) Keys() <-chan byte {
	if k == nil {
		return nil
	}
	return k.keys
}

func (k *keyReader) Restore() {
	if k == nil || k.state == nil {
		return
	}
	_ = term.Restore(k.fd, k.state)
	k.state = nil
}
