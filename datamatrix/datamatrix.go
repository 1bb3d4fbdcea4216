// Package datamatrix implements the Data Matrix (ECC 200) symbology.
// Importing it registers the symbology with matrixscan.
package datamatrix

import (
	"slices"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/bitutil"
	"github.com/ericlevine/matrixscan/datamatrix/decoder"
	"github.com/ericlevine/matrixscan/datamatrix/detector"
)

// Symbology decodes Data Matrix symbols. A value serves one decode at a
// time.
type Symbology struct {
	dec *decoder.Decoder
}

// New returns a Data Matrix symbology.
func New() *Symbology {
	return &Symbology{dec: decoder.NewDecoder()}
}

var (
	_ matrixscan.Symbology     = (*Symbology)(nil)
	_ matrixscan.PureExtractor = (*Symbology)(nil)
)

// Format returns matrixscan.FormatDataMatrix.
func (*Symbology) Format() matrixscan.Format { return matrixscan.FormatDataMatrix }

// Detect finds the L-shaped finder around the image centre and samples the
// symbol.
func (*Symbology) Detect(s *matrixscan.Session) (*matrixscan.DetectorResult, error) {
	return detector.New(s.Image, s.FoundPoint).Detect()
}

// Sample reads and corrects the codewords of a module grid.
func (sym *Symbology) Sample(s *matrixscan.Session, bits *bitutil.BitMatrix) (*matrixscan.Codewords, error) {
	return sym.dec.Decode(bits)
}

func (*Symbology) DecodeBitstream(s *matrixscan.Session, cw *matrixscan.Codewords) (*matrixscan.Result, error) {
	res, err := decoder.DecodeBitStream(cw.Data, s.Hints.CharacterSet)
	if err != nil {
		return nil, err
	}
	res.Version = cw.Version
	res.ErrorsCorrected = cw.ErrorsCorrected
	if s.Detection != nil {
		res.Points = slices.Clone(s.Detection.Points)
	}
	return res, nil
}
