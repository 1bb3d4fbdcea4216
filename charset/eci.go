// Package charset maps Extended Channel Interpretation designators to text
// encodings and turns byte-mode payloads into UTF-8.
package charset

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnknownECI is returned for a designator outside 0..999999 or one with
// no character set assigned.
var ErrUnknownECI = errors.New("charset: unknown ECI")

// ECI is a character-set Extended Channel Interpretation.
type ECI struct {
	// Value is the canonical designator; some sets answer to several.
	Value    int
	Name     string
	Encoding encoding.Encoding
	Aliases  []string
}

func (e *ECI) String() string { return e.Name }

var (
	Cp437      = &ECI{0, "Cp437", charmap.CodePage437, []string{"IBM437"}}
	ISO8859_1  = &ECI{1, "ISO-8859-1", charmap.ISO8859_1, []string{"ISO8859_1", "Latin1"}}
	ISO8859_2  = &ECI{4, "ISO-8859-2", charmap.ISO8859_2, []string{"ISO8859_2"}}
	ISO8859_3  = &ECI{5, "ISO-8859-3", charmap.ISO8859_3, []string{"ISO8859_3"}}
	ISO8859_4  = &ECI{6, "ISO-8859-4", charmap.ISO8859_4, []string{"ISO8859_4"}}
	ISO8859_5  = &ECI{7, "ISO-8859-5", charmap.ISO8859_5, []string{"ISO8859_5"}}
	ISO8859_6  = &ECI{8, "ISO-8859-6", charmap.ISO8859_6, []string{"ISO8859_6"}}
	ISO8859_7  = &ECI{9, "ISO-8859-7", charmap.ISO8859_7, []string{"ISO8859_7"}}
	ISO8859_8  = &ECI{10, "ISO-8859-8", charmap.ISO8859_8, []string{"ISO8859_8"}}
	ISO8859_9  = &ECI{11, "ISO-8859-9", charmap.ISO8859_9, []string{"ISO8859_9"}}
	ISO8859_10 = &ECI{12, "ISO-8859-10", charmap.ISO8859_10, []string{"ISO8859_10"}}
	// x/text has no ISO-8859-11; Windows-874 is a superset of it.
	ISO8859_11 = &ECI{13, "ISO-8859-11", charmap.Windows874, []string{"ISO8859_11", "TIS-620"}}
	ISO8859_13 = &ECI{15, "ISO-8859-13", charmap.ISO8859_13, []string{"ISO8859_13"}}
	ISO8859_14 = &ECI{16, "ISO-8859-14", charmap.ISO8859_14, []string{"ISO8859_14"}}
	ISO8859_15 = &ECI{17, "ISO-8859-15", charmap.ISO8859_15, []string{"ISO8859_15"}}
	ISO8859_16 = &ECI{18, "ISO-8859-16", charmap.ISO8859_16, []string{"ISO8859_16"}}
	ShiftJIS   = &ECI{20, "Shift_JIS", japanese.ShiftJIS, []string{"SJIS"}}
	Cp1250     = &ECI{21, "windows-1250", charmap.Windows1250, []string{"Cp1250"}}
	Cp1251     = &ECI{22, "windows-1251", charmap.Windows1251, []string{"Cp1251"}}
	Cp1252     = &ECI{23, "windows-1252", charmap.Windows1252, []string{"Cp1252"}}
	Cp1256     = &ECI{24, "windows-1256", charmap.Windows1256, []string{"Cp1256"}}
	UTF16BE    = &ECI{25, "UTF-16BE", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), []string{"UnicodeBigUnmarked", "UnicodeBig"}}
	UTF8       = &ECI{26, "UTF-8", unicode.UTF8, []string{"UTF8"}}
	ASCII      = &ECI{27, "US-ASCII", charmap.ISO8859_1, []string{"ASCII"}}
	Big5       = &ECI{28, "Big5", traditionalchinese.Big5, nil}
	GB18030    = &ECI{29, "GB18030", simplifiedchinese.GB18030, []string{"GB2312", "EUC_CN", "GBK"}}
	EUCKR      = &ECI{30, "EUC-KR", korean.EUCKR, []string{"EUC_KR"}}

	// UTF16 reads its byte order from a leading BOM and drops it. It is
	// only ever guessed, so it is not in the designator tables.
	UTF16 = &ECI{25, "UTF-16", unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil}
)

var (
	byValue = map[int]*ECI{}
	byName  = map[string]*ECI{}
)

func init() {
	all := []*ECI{
		Cp437, ISO8859_1, ISO8859_2, ISO8859_3, ISO8859_4, ISO8859_5,
		ISO8859_6, ISO8859_7, ISO8859_8, ISO8859_9, ISO8859_10, ISO8859_11,
		ISO8859_13, ISO8859_14, ISO8859_15, ISO8859_16, ShiftJIS, Cp1250,
		Cp1251, Cp1252, Cp1256, UTF16BE, UTF8, ASCII, Big5, GB18030, EUCKR,
	}
	for _, e := range all {
		byValue[e.Value] = e
		byName[normalize(e.Name)] = e
		for _, a := range e.Aliases {
			byName[normalize(a)] = e
		}
	}
	// legacy designators
	byValue[2] = Cp437
	byValue[3] = ISO8859_1
	byValue[170] = ASCII
}

func normalize(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
}

// ByValue returns the character set for an ECI designator.
func ByValue(value int) (*ECI, error) {
	if value < 0 || value > 999999 {
		return nil, fmt.Errorf("%w: %d out of range", ErrUnknownECI, value)
	}
	e, ok := byValue[value]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownECI, value)
	}
	return e, nil
}

// ByName returns the character set known by name, ignoring case and
// punctuation, or nil.
func ByName(name string) *ECI {
	return byName[normalize(name)]
}
