package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Lookup resolves an encoding name. Names from the ECI table win; anything
// else is looked up in the IANA registry.
func Lookup(name string) (encoding.Encoding, error) {
	if e := ByName(name); e != nil {
		return e.Encoding, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("charset: %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset: %q is not supported", name)
	}
	return enc, nil
}

// Decode converts data from enc to UTF-8. Invalid sequences become U+FFFD.
func Decode(data []byte, enc encoding.Encoding) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("charset: decode: %w", err)
	}
	return string(out), nil
}

// DecodeNamed is Decode with the encoding given by name.
func DecodeNamed(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return Decode(data, enc)
}

// Builder accumulates bytes under the character set in force and decodes
// each run when the set changes or the text is requested. Multi-byte
// sequences split across segments of the same set decode correctly.
type Builder struct {
	sb      strings.Builder
	pending []byte
	current encoding.Encoding
}

// AppendBytes adds raw bytes in enc.
func (b *Builder) AppendBytes(data []byte, enc encoding.Encoding) error {
	if b.current != enc {
		if err := b.flush(); err != nil {
			return err
		}
		b.current = enc
	}
	b.pending = append(b.pending, data...)
	return nil
}

// AppendString adds already-decoded text.
func (b *Builder) AppendString(s string) error {
	if err := b.flush(); err != nil {
		return err
	}
	b.sb.WriteString(s)
	return nil
}

// AppendByte adds one ASCII character.
func (b *Builder) AppendByte(c byte) error {
	if err := b.flush(); err != nil {
		return err
	}
	b.sb.WriteByte(c)
	return nil
}

// String returns the accumulated text.
func (b *Builder) String() (string, error) {
	if err := b.flush(); err != nil {
		return "", err
	}
	return b.sb.String(), nil
}

func (b *Builder) flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	s, err := Decode(b.pending, b.current)
	if err != nil {
		return err
	}
	b.sb.WriteString(s)
	b.pending = b.pending[:0]
	return nil
}
