package decoder

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/charset"
)

const alphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

const (
	gb2312Subset = 1
	groupSep     = 0x1D
)

// bitstream is the decoding state of one symbol's data codewords.
type bitstream struct {
	src          *bitutil.BitSource
	version      *Version
	characterSet string

	text     charset.Builder
	segments [][]byte
	eci      *charset.ECI
	eciValue *int
	fnc1     bool
}

// DecodeBitStream interprets corrected data codewords as a sequence of
// segments. Byte segments are decoded with the character set of the last
// ECI, else characterSet, else a guess from their content.
func DecodeBitStream(data []byte, v *Version, level ECLevel, characterSet string) (*matrixscan.Result, error) {
	b := &bitstream{
		src:          bitutil.NewBitSource(data),
		version:      v,
		characterSet: characterSet,
	}
	var (
		sa                    *matrixscan.StructuredAppend
		fnc1First, fnc1Second bool
	)

loop:
	for {
		mode := ModeTerminator
		if b.src.Available() >= 4 {
			bits, _ := b.src.ReadBits(4)
			m, err := ModeForBits(bits)
			if err != nil {
				return nil, err
			}
			mode = m
		}

		var err error
		switch mode {
		case ModeTerminator:
			break loop
		case ModeFNC1FirstPosition:
			fnc1First, b.fnc1 = true, true
		case ModeFNC1SecondPosition:
			fnc1Second, b.fnc1 = true, true
		case ModeStructuredAppend:
			sa, err = b.structuredAppend()
		case ModeECI:
			err = b.readECI()
		case ModeHanzi:
			err = b.hanzi()
		default:
			var count int
			if count, err = b.read(mode.CharacterCountBits(v)); err != nil {
				break
			}
			switch mode {
			case ModeNumeric:
				err = b.numeric(count)
			case ModeAlphanumeric:
				err = b.alphanumeric(count)
			case ModeByte:
				err = b.byteSegment(count)
			case ModeKanji:
				err = b.kanji(count)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	text, err := b.text.String()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}

	modifier := 1
	switch {
	case fnc1First:
		modifier = 3
	case fnc1Second:
		modifier = 5
	}
	if b.eci != nil {
		modifier++
	}

	return &matrixscan.Result{
		Text:                text,
		RawBytes:            bytes.Clone(data),
		NumBits:             len(data) * 8,
		ByteSegments:        b.segments,
		Format:              matrixscan.FormatQRCode,
		Version:             v.Number(),
		ECLevel:             level.String(),
		StructuredAppend:    sa,
		ECI:                 b.eciValue,
		SymbologyIdentifier: "]Q" + strconv.Itoa(modifier),
	}, nil
}

// read reads n bits; running out is a format error.
func (b *bitstream) read(n int) (int, error) {
	v, err := b.src.ReadBits(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}
	return v, nil
}

// need fails unless n more bits are available.
func (b *bitstream) need(n int) error {
	if n > b.src.Available() {
		return fmt.Errorf("%w: segment needs %d bits, %d left", matrixscan.ErrFormat, n, b.src.Available())
	}
	return nil
}

func (b *bitstream) structuredAppend() (*matrixscan.StructuredAppend, error) {
	if err := b.need(16); err != nil {
		return nil, err
	}
	seq, _ := b.src.ReadBits(8)
	parity, _ := b.src.ReadBits(8)
	return &matrixscan.StructuredAppend{Sequence: seq, Parity: parity}, nil
}

// readECI parses a one to three byte designator and makes its character
// set current.
func (b *bitstream) readECI() error {
	first, err := b.read(8)
	if err != nil {
		return err
	}
	var value int
	switch {
	case first&0x80 == 0:
		value = first & 0x7F
	case first&0xC0 == 0x80:
		second, err := b.read(8)
		if err != nil {
			return err
		}
		value = (first&0x3F)<<8 | second
	case first&0xE0 == 0xC0:
		rest, err := b.read(16)
		if err != nil {
			return err
		}
		value = (first&0x1F)<<16 | rest
	default:
		return fmt.Errorf("%w: bad ECI designator %#x", matrixscan.ErrFormat, first)
	}
	eci, err := charset.ByValue(value)
	if err != nil {
		return fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}
	b.eci = eci
	b.eciValue = &value
	return nil
}

func (b *bitstream) numeric(count int) error {
	var digits []byte
	for ; count >= 3; count -= 3 {
		if err := b.need(10); err != nil {
			return err
		}
		v, _ := b.src.ReadBits(10)
		if v >= 1000 {
			return fmt.Errorf("%w: numeric triple %d", matrixscan.ErrFormat, v)
		}
		digits = fmt.Appendf(digits, "%03d", v)
	}
	switch count {
	case 2:
		if err := b.need(7); err != nil {
			return err
		}
		v, _ := b.src.ReadBits(7)
		if v >= 100 {
			return fmt.Errorf("%w: numeric pair %d", matrixscan.ErrFormat, v)
		}
		digits = fmt.Appendf(digits, "%02d", v)
	case 1:
		if err := b.need(4); err != nil {
			return err
		}
		v, _ := b.src.ReadBits(4)
		if v >= 10 {
			return fmt.Errorf("%w: numeric digit %d", matrixscan.ErrFormat, v)
		}
		digits = strconv.AppendInt(digits, int64(v), 10)
	}
	return b.text.AppendString(string(digits))
}

func alphanumericChar(v int) (byte, error) {
	if v >= len(alphanumericChars) {
		return 0, fmt.Errorf("%w: alphanumeric value %d", matrixscan.ErrFormat, v)
	}
	return alphanumericChars[v], nil
}

// alphanumeric decodes a segment. With FNC1 in effect "%" stands for the
// GS separator and "%%" for a literal "%".
func (b *bitstream) alphanumeric(count int) error {
	seg := make([]byte, 0, count)
	for ; count > 1; count -= 2 {
		if err := b.need(11); err != nil {
			return err
		}
		v, _ := b.src.ReadBits(11)
		c1, err := alphanumericChar(v / 45)
		if err != nil {
			return err
		}
		c2, err := alphanumericChar(v % 45)
		if err != nil {
			return err
		}
		seg = append(seg, c1, c2)
	}
	if count == 1 {
		if err := b.need(6); err != nil {
			return err
		}
		v, _ := b.src.ReadBits(6)
		c, err := alphanumericChar(v)
		if err != nil {
			return err
		}
		seg = append(seg, c)
	}
	if b.fnc1 {
		out := seg[:0]
		for i := 0; i < len(seg); i++ {
			switch {
			case seg[i] != '%':
				out = append(out, seg[i])
			case i+1 < len(seg) && seg[i+1] == '%':
				out = append(out, '%')
				i++
			default:
				out = append(out, groupSep)
			}
		}
		seg = out
	}
	return b.text.AppendString(string(seg))
}

func (b *bitstream) byteSegment(count int) error {
	if err := b.need(8 * count); err != nil {
		return err
	}
	raw := make([]byte, count)
	for i := range raw {
		v, _ := b.src.ReadBits(8)
		raw[i] = byte(v)
	}
	enc := charset.Guess(raw, b.characterSet)
	if b.eci != nil {
		enc = b.eci.Encoding
	}
	b.segments = append(b.segments, raw)
	return b.text.AppendBytes(raw, enc)
}

// kanji unpacks 13-bit values into Shift_JIS double bytes.
func (b *bitstream) kanji(count int) error {
	if err := b.need(13 * count); err != nil {
		return err
	}
	buf := make([]byte, 0, 2*count)
	for range count {
		v, _ := b.src.ReadBits(13)
		assembled := (v/0x0C0)<<8 | v%0x0C0
		if assembled < 0x01F00 {
			assembled += 0x08140
		} else {
			assembled += 0x0C140
		}
		buf = append(buf, byte(assembled>>8), byte(assembled))
	}
	return b.text.AppendBytes(buf, charset.ShiftJIS.Encoding)
}

// hanzi unpacks 13-bit values of the GB2312 subset into GB18030 double
// bytes. Other subsets are not defined.
func (b *bitstream) hanzi() error {
	subset, err := b.read(4)
	if err != nil {
		return err
	}
	count, err := b.read(ModeHanzi.CharacterCountBits(b.version))
	if err != nil {
		return err
	}
	if subset != gb2312Subset {
		return fmt.Errorf("%w: hanzi subset %d", matrixscan.ErrFormat, subset)
	}
	if err := b.need(13 * count); err != nil {
		return err
	}
	buf := make([]byte, 0, 2*count)
	for range count {
		v, _ := b.src.ReadBits(13)
		assembled := (v/0x060)<<8 | v%0x060
		if assembled < 0x00A00 {
			assembled += 0x0A1A1
		} else {
			assembled += 0x0A6A1
		}
		buf = append(buf, byte(assembled>>8), byte(assembled))
	}
	return b.text.AppendBytes(buf, charset.GB18030.Encoding)
}
