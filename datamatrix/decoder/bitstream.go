package decoder

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/text/encoding"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/charset"
)

type mode int

const (
	modePad mode = iota
	modeASCII
	modeC40
	modeText
	modeX12
	modeEDIFACT
	modeBase256
	modeECI
)

const (
	groupSep = 0x1D
	unlatch  = 254
)

// Character sets of the C40 and Text schemes. Values 0 to 2 of the basic
// sets select a shift set instead of a character.
const (
	c40Basic   = "*** 0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	textBasic  = "*** 0123456789abcdefghijklmnopqrstuvwxyz"
	shift2Set  = "!\"#$%&'()*+,-./:;<=>?@[\\]^_"
	textShift3 = "`ABCDEFGHIJKLMNOPQRSTUVWXYZ{|}~\x7f"
)

type bitstream struct {
	src          *bitutil.BitSource
	characterSet string

	text     charset.Builder
	pending  []byte
	length   int
	trailer  string
	segments [][]byte
	fnc1     []int
	eci      *charset.ECI
	eciValue *int
	sa       *matrixscan.StructuredAppend
}

// DecodeBitStream interprets corrected data codewords. Text from the
// ASCII, C40, Text, X12 and EDIFACT schemes is in ISO-8859-1 until an ECI
// says otherwise; Base 256 runs with no ECI in force are decoded with
// characterSet, or a guess from their content when it is empty.
func DecodeBitStream(data []byte, characterSet string) (*matrixscan.Result, error) {
	b := &bitstream{
		src:          bitutil.NewBitSource(data),
		characterSet: characterSet,
	}

	m := modeASCII
	for m != modePad && b.src.Available() >= 8 {
		var err error
		if m == modeASCII {
			m, err = b.ascii()
		} else {
			// every other scheme returns to ASCII when it ends
			err = b.segment(m)
			m = modeASCII
		}
		if err != nil {
			return nil, err
		}
	}
	b.emit([]byte(b.trailer)...)
	if err := b.flush(); err != nil {
		return nil, err
	}
	text, err := b.text.String()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}

	modifier := 1
	switch {
	case slices.Contains(b.fnc1, 0) || slices.Contains(b.fnc1, 4):
		modifier = 2
	case slices.Contains(b.fnc1, 1) || slices.Contains(b.fnc1, 5):
		modifier = 3
	}
	if b.eci != nil {
		modifier += 3
	}

	return &matrixscan.Result{
		Text:                text,
		RawBytes:            bytes.Clone(data),
		NumBits:             len(data) * 8,
		ByteSegments:        b.segments,
		Format:              matrixscan.FormatDataMatrix,
		StructuredAppend:    b.sa,
		ECI:                 b.eciValue,
		SymbologyIdentifier: "]d" + strconv.Itoa(modifier),
	}, nil
}

func (b *bitstream) segment(m mode) error {
	switch m {
	case modeC40:
		return b.c40Text(c40Basic, nil)
	case modeText:
		return b.c40Text(textBasic, []byte(textShift3))
	case modeX12:
		return b.x12()
	case modeEDIFACT:
		return b.edifact()
	case modeBase256:
		return b.base256()
	case modeECI:
		return b.readECI()
	}
	return fmt.Errorf("%w: scheme %d", matrixscan.ErrFormat, m)
}

// emit queues characters of the text schemes under the current ECI.
func (b *bitstream) emit(c ...byte) {
	b.pending = append(b.pending, c...)
	b.length += len(c)
}

func (b *bitstream) flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	enc := charset.ISO8859_1.Encoding
	if b.eci != nil {
		enc = b.eci.Encoding
	}
	err := b.text.AppendBytes(b.pending, enc)
	b.pending = b.pending[:0]
	return err
}

func (b *bitstream) appendBytes(raw []byte, enc encoding.Encoding) error {
	if err := b.flush(); err != nil {
		return err
	}
	b.length += len(raw)
	return b.text.AppendBytes(raw, enc)
}

func (b *bitstream) read(n int) (int, error) {
	v, err := b.src.ReadBits(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}
	return v, nil
}

// ascii decodes codewords until a character is produced or another scheme
// is latched.
func (b *bitstream) ascii() (mode, error) {
	upperShift := false
	for b.src.Available() >= 8 {
		first := b.src.ByteOffset() == 0
		c, _ := b.src.ReadBits(8)
		switch {
		case c == 0:
			return 0, fmt.Errorf("%w: codeword 0", matrixscan.ErrFormat)
		case c <= 128:
			if upperShift {
				c += 128
			}
			b.emit(byte(c - 1))
			return modeASCII, nil
		case c == 129:
			return modePad, nil
		case c <= 229:
			b.emit(fmt.Appendf(nil, "%02d", c-130)...)
		case c == 230:
			return modeC40, nil
		case c == 231:
			return modeBase256, nil
		case c == 232:
			b.fnc1 = append(b.fnc1, b.length)
			b.emit(groupSep)
		case c == 233:
			if !first {
				return 0, fmt.Errorf("%w: structured append after the first codeword", matrixscan.ErrFormat)
			}
			if err := b.structuredAppend(); err != nil {
				return 0, err
			}
		case c == 234:
			// reader programming carries nothing to decode
		case c == 235:
			upperShift = true
		case c == 236:
			b.emit([]byte("[)>\x1e05\x1d")...)
			b.trailer = "\x1e\x04" + b.trailer
		case c == 237:
			b.emit([]byte("[)>\x1e06\x1d")...)
			b.trailer = "\x1e\x04" + b.trailer
		case c == 238:
			return modeX12, nil
		case c == 239:
			return modeText, nil
		case c == 240:
			return modeEDIFACT, nil
		case c == 241:
			return modeECI, nil
		default:
			// some encoders finish with an unlatch
			if c != unlatch || b.src.Available() != 0 {
				return 0, fmt.Errorf("%w: codeword %d in ASCII", matrixscan.ErrFormat, c)
			}
		}
	}
	return modeASCII, nil
}

// structuredAppend reads the symbol sequence indicator and the two file
// identification codewords. The file identification goes into Parity.
func (b *bitstream) structuredAppend() error {
	seq, err := b.read(8)
	if err != nil {
		return err
	}
	id, err := b.read(16)
	if err != nil {
		return err
	}
	pos, total := seq>>4, 17-seq&0x0F
	if pos < 1 || pos > total || total > 16 {
		return fmt.Errorf("%w: symbol %d of %d", matrixscan.ErrFormat, pos, total)
	}
	b.sa = &matrixscan.StructuredAppend{Sequence: (pos-1)<<4 | (total - 1), Parity: id}
	return nil
}

// triple unpacks two codewords into three values in 0..39, or more for
// corrupt input.
func triple(first, second int) [3]int {
	v := first<<8 + second - 1
	return [3]int{v / 1600, v / 40 % 40, v % 40}
}

// c40Text decodes C40 (shift3 nil) or Text. A single codeword left at
// the end is ASCII.
func (b *bitstream) c40Text(basic string, shift3 []byte) error {
	shift := 0
	upperShift := false
	out := func(c byte) {
		if upperShift {
			c += 128
			upperShift = false
		}
		b.emit(c)
	}
	for b.src.Available() > 8 {
		first, _ := b.src.ReadBits(8)
		if first == unlatch {
			return nil
		}
		second, _ := b.src.ReadBits(8)
		for _, v := range triple(first, second) {
			switch shift {
			case 0:
				switch {
				case v < 3:
					shift = v + 1
				case v < len(basic):
					out(basic[v])
				default:
					return fmt.Errorf("%w: C40/Text value %d", matrixscan.ErrFormat, v)
				}
			case 1:
				out(byte(v))
				shift = 0
			case 2:
				switch {
				case v < len(shift2Set):
					out(shift2Set[v])
				case v == 27:
					b.fnc1 = append(b.fnc1, b.length)
					b.emit(groupSep)
				case v == 30:
					upperShift = true
				default:
					return fmt.Errorf("%w: shift 2 value %d", matrixscan.ErrFormat, v)
				}
				shift = 0
			case 3:
				switch {
				case shift3 == nil:
					out(byte(v + 96))
				case v < len(shift3):
					out(shift3[v])
				default:
					return fmt.Errorf("%w: shift 3 value %d", matrixscan.ErrFormat, v)
				}
				shift = 0
			}
		}
	}
	return nil
}

func (b *bitstream) x12() error {
	for b.src.Available() > 8 {
		first, _ := b.src.ReadBits(8)
		if first == unlatch {
			return nil
		}
		second, _ := b.src.ReadBits(8)
		for _, v := range triple(first, second) {
			switch {
			case v == 0:
				b.emit('\r')
			case v == 1:
				b.emit('*')
			case v == 2:
				b.emit('>')
			case v == 3:
				b.emit(' ')
			case v < 14:
				b.emit(byte('0' + v - 4))
			case v < 40:
				b.emit(byte('A' + v - 14))
			default:
				return fmt.Errorf("%w: X12 value %d", matrixscan.ErrFormat, v)
			}
		}
	}
	return nil
}

// edifact unpacks four 6-bit values from every three codewords. Two or
// fewer codewords left at the end are ASCII.
func (b *bitstream) edifact() error {
	for b.src.Available() > 16 {
		for range 4 {
			v, err := b.read(6)
			if err != nil {
				return err
			}
			if v == 0x1F {
				// the rest of the codeword is padding
				if left := 8 - b.src.BitOffset(); left != 8 {
					if _, err := b.read(left); err != nil {
						return err
					}
				}
				return nil
			}
			if v&0x20 == 0 {
				v |= 0x40
			}
			b.emit(byte(v))
		}
	}
	return nil
}

// unrandomize255 undoes the 255-state randomising of Base 256 codewords.
// pos is the 1-based codeword position in the symbol.
func unrandomize255(c, pos int) int {
	v := c - (149*pos%255 + 1)
	if v < 0 {
		v += 256
	}
	return v
}

func (b *bitstream) base256() error {
	pos := b.src.ByteOffset() + 1
	next := func() (int, error) {
		c, err := b.read(8)
		if err != nil {
			return 0, err
		}
		v := unrandomize255(c, pos)
		pos++
		return v, nil
	}

	d1, err := next()
	if err != nil {
		return err
	}
	var count int
	switch {
	case d1 == 0:
		count = b.src.Available() / 8
	case d1 < 250:
		count = d1
	default:
		d2, err := next()
		if err != nil {
			return err
		}
		count = 250*(d1-249) + d2
	}
	if count*8 > b.src.Available() {
		return fmt.Errorf("%w: Base 256 run of %d with %d codewords left", matrixscan.ErrFormat, count, b.src.Available()/8)
	}
	raw := make([]byte, count)
	for i := range raw {
		v, err := next()
		if err != nil {
			return err
		}
		raw[i] = byte(v)
	}
	b.segments = append(b.segments, raw)

	enc := charset.Guess(raw, b.characterSet)
	if b.eci != nil {
		enc = b.eci.Encoding
	}
	return b.appendBytes(raw, enc)
}

// readECI parses a one to three codeword designator and makes its
// character set current.
func (b *bitstream) readECI() error {
	c1, err := b.read(8)
	if err != nil {
		return err
	}
	var value int
	switch {
	case c1 >= 1 && c1 <= 127:
		value = c1 - 1
	case c1 >= 128 && c1 <= 191:
		c2, err := b.read(8)
		if err != nil {
			return err
		}
		value = (c1-128)*254 + c2 - 1 + 127
	case c1 >= 192 && c1 <= 253:
		c2, err := b.read(8)
		if err != nil {
			return err
		}
		c3, err := b.read(8)
		if err != nil {
			return err
		}
		value = (c1-192)*64516 + (c2-1)*254 + c3 - 1 + 16383
	default:
		return fmt.Errorf("%w: ECI codeword %d", matrixscan.ErrFormat, c1)
	}
	eci, err := charset.ByValue(value)
	if err != nil {
		return fmt.Errorf("%w: %w", matrixscan.ErrFormat, err)
	}
	if err := b.flush(); err != nil {
		return err
	}
	b.eci = eci
	b.eciValue = &value
	return nil
}
