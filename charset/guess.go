package charset

import "golang.org/x/text/encoding"

// Guess picks an encoding for a byte segment that carries no ECI. A
// non-empty hint that resolves is used as is. Otherwise the bytes are
// checked against UTF-8, Shift_JIS and ISO-8859-1 and the most plausible
// one wins; plain ASCII comes back as ISO-8859-1.
func Guess(data []byte, hint string) encoding.Encoding {
	if hint != "" {
		if enc, err := Lookup(hint); err == nil {
			return enc
		}
	}
	return GuessECI(data).Encoding
}

// GuessECI is Guess without a hint, reporting the chosen character set.
func GuessECI(data []byte) *ECI {
	if len(data) > 2 && (data[0] == 0xFE && data[1] == 0xFF || data[0] == 0xFF && data[1] == 0xFE) {
		return UTF16
	}
	u := utf8Scan{ok: true}
	s := sjisScan{ok: true}
	l := latin1Scan{ok: true}
	for _, c := range data {
		if !u.ok && !s.ok && !l.ok {
			break
		}
		u.feed(c)
		s.feed(c)
		l.feed(c)
	}
	u.finish()
	s.finish()

	bom := len(data) > 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF
	switch {
	case u.ok && (bom || u.multi > 0):
		return UTF8
	case s.ok && (s.maxKatakanaRun >= 3 || s.maxDoubleRun >= 3):
		return ShiftJIS
	case l.ok && s.ok:
		if s.maxKatakanaRun == 2 && s.katakana == 2 || l.highOther > 0 && l.highOther*10 >= len(data) {
			return ShiftJIS
		}
		return ISO8859_1
	case l.ok:
		return ISO8859_1
	case s.ok:
		return ShiftJIS
	}
	return UTF8
}

type utf8Scan struct {
	ok     bool
	needed int
	multi  int
}

func (u *utf8Scan) feed(c byte) {
	if !u.ok {
		return
	}
	switch {
	case u.needed > 0:
		if c&0xC0 != 0x80 {
			u.ok = false
			return
		}
		u.needed--
	case c&0x80 == 0:
	case c&0xE0 == 0xC0:
		u.needed, u.multi = 1, u.multi+1
	case c&0xF0 == 0xE0:
		u.needed, u.multi = 2, u.multi+1
	case c&0xF8 == 0xF0:
		u.needed, u.multi = 3, u.multi+1
	default:
		u.ok = false
	}
}

func (u *utf8Scan) finish() {
	if u.needed > 0 {
		u.ok = false
	}
}

type sjisScan struct {
	ok                          bool
	trail                       int
	katakana                    int
	katakanaRun, maxKatakanaRun int
	doubleRun, maxDoubleRun     int
}

func (s *sjisScan) feed(c byte) {
	if !s.ok {
		return
	}
	switch {
	case s.trail > 0:
		if c < 0x40 || c == 0x7F || c > 0xFC {
			s.ok = false
			return
		}
		s.trail--
	case c == 0x80 || c == 0xA0 || c > 0xEF:
		s.ok = false
	case c > 0xA0 && c < 0xE0:
		// half-width katakana
		s.katakana++
		s.doubleRun = 0
		s.katakanaRun++
		s.maxKatakanaRun = max(s.maxKatakanaRun, s.katakanaRun)
	case c > 0x7F:
		s.trail++
		s.katakanaRun = 0
		s.doubleRun++
		s.maxDoubleRun = max(s.maxDoubleRun, s.doubleRun)
	default:
		s.katakanaRun, s.doubleRun = 0, 0
	}
}

func (s *sjisScan) finish() {
	if s.trail > 0 {
		s.ok = false
	}
}

type latin1Scan struct {
	ok        bool
	highOther int
}

func (l *latin1Scan) feed(c byte) {
	if !l.ok {
		return
	}
	switch {
	case c > 0x7F && c < 0xA0:
		l.ok = false
	case c > 0x9F && (c < 0xC0 || c == 0xD7 || c == 0xF7):
		l.highOther++
	}
}
