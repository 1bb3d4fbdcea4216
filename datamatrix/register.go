package datamatrix

import "github.com/ericlevine/matrixscan"

func init() {
	matrixscan.RegisterSymbology(matrixscan.FormatDataMatrix, func() matrixscan.Symbology {
		return New()
	})
}
