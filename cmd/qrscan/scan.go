package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ericlevine/matrixscan"
	"github.com/ericlevine/matrixscan/binarizer"
	"github.com/ericlevine/matrixscan/bitutil"
	_ "github.com/ericlevine/matrixscan/datamatrix"
	"github.com/ericlevine/matrixscan/internal/config"
	"github.com/ericlevine/matrixscan/metrics"
	_ "github.com/ericlevine/matrixscan/qrcode"
)

func newScanCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scan <image> [image...]",
		Short: "Decode the symbol in each image",
		Long: `Decode one symbol per image. PNG, JPEG, GIF, BMP, TIFF and WebP are read.

The command fails when any image could not be read or decoded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scan(cmd, args, asJSON)
		},
	}

	f := cmd.Flags()
	f.Bool("try-harder", false, "search every third row and retry rejected finder candidates")
	f.Bool("pure", false, "images hold one unrotated symbol with only a quiet zone")
	f.String("charset", "", "encoding for byte segments without an ECI (default: guess)")
	f.StringSlice("format", []string{matrixscan.FormatQRCode.String()}, "symbologies to try")
	f.Int("workers", 0, "images decoded at once (default: GOMAXPROCS)")
	f.String("metrics-file", "", "write Prometheus metrics to this file")
	f.String("binarizer", "hybrid", "thresholding: hybrid or global")
	f.Int("max-size", 0, "downscale images whose longer side exceeds this (0: never)")
	f.BoolVar(&asJSON, "json", false, "print one JSON object per image")

	v := a.loader.Viper()
	for key, flag := range map[string]string{
		"decode.try_harder":    "try-harder",
		"decode.pure_barcode":  "pure",
		"decode.character_set": "charset",
		"decode.formats":       "format",
		"decode.binarizer":     "binarizer",
		"decode.max_side":      "max-size",
		"batch.workers":        "workers",
		"metrics.file":         "metrics-file",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	return cmd
}

// scanReport is one line of --json output.
type scanReport struct {
	File            string                   `json:"file"`
	Format          *matrixscan.Format       `json:"format,omitempty"`
	Text            string                   `json:"text,omitempty"`
	Version         int                      `json:"version,omitempty"`
	ECLevel         string                   `json:"ec_level,omitempty"`
	ErrorsCorrected int                      `json:"errors_corrected,omitempty"`
	Orientation     string                   `json:"orientation,omitempty"`
	Points          []matrixscan.ResultPoint `json:"points,omitempty"`
	Error           string                   `json:"error,omitempty"`
}

func (a *app) scan(cmd *cobra.Command, paths []string, asJSON bool) error {
	hints, err := a.cfg.Hints()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	sc := matrixscan.NewScanner(
		matrixscan.WithLogger(a.logger),
		matrixscan.WithObserver(collector),
		matrixscan.WithConcurrency(a.cfg.Batch.Workers),
	)

	reports := make([]scanReport, len(paths))
	var grids []matrixscan.BitGrid
	var index []int
	for i, p := range paths {
		reports[i].File = p
		grid, err := loadGrid(p, a.cfg.Decode)
		if err != nil {
			reports[i].Error = err.Error()
			a.logger.Warn("image skipped", "file", p, "err", err)
			continue
		}
		grids = append(grids, grid)
		index = append(index, i)
	}

	results, batchErr := sc.DecodeBatch(cmd.Context(), grids, hints)
	for j, r := range results {
		rep := &reports[index[j]]
		if r.Err != nil {
			rep.Error = r.Err.Error()
			continue
		}
		res := r.Result
		rep.Format = &res.Format
		rep.Text = res.Text
		rep.Version = res.Version
		rep.ECLevel = res.ECLevel
		rep.ErrorsCorrected = res.ErrorsCorrected
		rep.Orientation = res.Orientation.String()
		rep.Points = res.Points
	}

	failed := 0
	for _, rep := range reports {
		if rep.Error != "" {
			failed++
		}
	}
	if err := writeReports(cmd.OutOrStdout(), reports, asJSON, len(paths) > 1); err != nil {
		return err
	}

	if path := a.cfg.Metrics.File; path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(paths))
	}
	return nil
}

func writeReports(w io.Writer, reports []scanReport, asJSON, prefix bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, rep := range reports {
			if err := enc.Encode(rep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, rep := range reports {
		var err error
		switch {
		case rep.Error != "":
			_, err = fmt.Fprintf(w, "%s: error: %s\n", rep.File, rep.Error)
		case prefix:
			_, err = fmt.Fprintf(w, "%s: [%s] %s\n", rep.File, rep.Format, rep.Text)
		default:
			_, err = fmt.Fprintf(w, "[%s] %s\n", rep.Format, rep.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// loadGrid reads an image, applies EXIF orientation and binarizes it.
func loadGrid(path string, dc config.DecodeConfig) (*bitutil.BitMatrix, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	img = binarizer.Fit(img, dc.MaxSide)
	b, err := binarizer.New(dc.Binarizer, binarizer.NewLuminance(img))
	if err != nil {
		return nil, err
	}
	return b.BlackMatrix()
}
