// Package qrcode implements the QR Code symbology. Importing it registers
// the symbology with matrixscan.
package qrcode

import (
	"slices"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/qrcode/decoder"
	"github.com/ericlevine/matrixscan/qrcode/detector"
)

// Symbology decodes QR Code symbols. A value serves one decode at a time.
type Symbology struct {
	dec *decoder.Decoder
}

// New returns a QR Code symbology.
func New() *Symbology {
	return &Symbology{dec: decoder.NewDecoder()}
}

var (
	_ matrixscan.Symbology     = (*Symbology)(nil)
	_ matrixscan.PureExtractor = (*Symbology)(nil)
)

// Format returns matrixscan.FormatQRCode.
func (*Symbology) Format() matrixscan.Format { return matrixscan.FormatQRCode }

// Detect locates the finder patterns in the session image and samples the
// symbol. Candidate points go to the session as they are found.
func (*Symbology) Detect(s *matrixscan.Session) (*matrixscan.DetectorResult, error) {
	return detector.New(s.Image, s.Hints, s.FoundPoint).Detect()
}

// Sample reads and corrects the codewords of a module grid, trying the
// mirrored and rotated readings when the upright one fails.
func (sym *Symbology) Sample(s *matrixscan.Session, bits *bitutil.BitMatrix) (*matrixscan.Codewords, error) {
	return sym.dec.Decode(bits)
}

// DecodeBitstream decodes the data segments and attaches the detection
// points and correction details to the result.
func (*Symbology) DecodeBitstream(s *matrixscan.Session, cw *matrixscan.Codewords) (*matrixscan.Result, error) {
	v, err := decoder.VersionForNumber(cw.Version)
	if err != nil {
		return nil, err
	}
	level, err := decoder.ParseECLevel(cw.ECLevel)
	if err != nil {
		return nil, err
	}
	res, err := decoder.DecodeBitStream(cw.Data, v, level, s.Hints.CharacterSet)
	if err != nil {
		return nil, err
	}
	res.ErrorsCorrected = cw.ErrorsCorrected
	res.Orientation = cw.Orientation
	if s.Detection != nil {
		res.Points = slices.Clone(s.Detection.Points)
	}
	// a mirrored symbol was detected with bottom-left and top-right
	// swapped
	if cw.Orientation == matrixscan.OrientationMirrored && len(res.Points) >= 3 {
		res.Points[0], res.Points[2] = res.Points[2], res.Points[0]
	}
	return res, nil
}
