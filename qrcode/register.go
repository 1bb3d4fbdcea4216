package qrcode

import "github.com/ericlevine/matrixscan"

func init() {
	matrixscan.RegisterSymbology(matrixscan.FormatQRCode, func() matrixscan.Symbology {
		return New()
	})
}
