// ESRI ASCII grid ingestion and emission. A trailing ".gz" on the path
// switches both directions to gzip.
package raster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrCorruptRaster reports a file that exists but cannot be parsed as an
// ASCII grid. Missing files surface as fs.ErrNotExist, not this.
var ErrCorruptRaster = errors.New("raster: corrupt ascii grid")

// Georef carries the georeferencing header of an ASCII grid. The engine
// never consumes it; it is held only so output grids can be written back
// into the same frame.
type Georef struct {
	XLLCorner float64
	YLLCorner float64
	CellSize  float64
	NoData    float32
}

// ReadASCII reads an ESRI ASCII grid. Not-found errors pass through
// untouched so callers can distinguish them from corrupt content.
func ReadASCII(path string) (*Grid, Georef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Georef{}, fmt.Errorf("open raster: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, Georef{}, fmt.Errorf("%w: %s: %v", ErrCorruptRaster, path, err)
		}
		defer gz.Close()
		r = gz
	}

	grid, ref, err := parseASCII(r)
	if err != nil {
		return nil, Georef{}, fmt.Errorf("%w: %s: %v", ErrCorruptRaster, path, err)
	}
	return grid, ref, nil
}

func parseASCII(r io.Reader) (*Grid, Georef, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	var rows, cols int
	ref := Georef{NoData: -9999}

	// Header: six "key value" lines, case-insensitive keys.
	for i := 0; i < 6; i++ {
		if !sc.Scan() {
			return nil, ref, fmt.Errorf("truncated header at line %d", i+1)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, ref, fmt.Errorf("malformed header line %q", sc.Text())
		}
		key := strings.ToLower(fields[0])
		val := fields[1]
		switch key {
		case "ncols":
			cols, _ = strconv.Atoi(val)
		case "nrows":
			rows, _ = strconv.Atoi(val)
		case "xllcorner":
			ref.XLLCorner, _ = strconv.ParseFloat(val, 64)
		case "yllcorner":
			ref.YLLCorner, _ = strconv.ParseFloat(val, 64)
		case "cellsize":
			ref.CellSize, _ = strconv.ParseFloat(val, 64)
		case "nodata_value":
			nd, _ := strconv.ParseFloat(val, 32)
			ref.NoData = float32(nd)
		default:
			return nil, ref, fmt.Errorf("unknown header key %q", fields[0])
		}
	}
	if rows <= 0 || cols <= 0 {
		return nil, ref, fmt.Errorf("invalid extent %dx%d", rows, cols)
	}

	grid, err := NewGrid(rows, cols)
	if err != nil {
		return nil, ref, err
	}
	values := grid.Values()
	idx := 0
	for sc.Scan() {
		for _, tok := range strings.Fields(sc.Text()) {
			if idx >= len(values) {
				return nil, ref, fmt.Errorf("more than %d values", len(values))
			}
			v, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return nil, ref, fmt.Errorf("bad value %q at cell %d", tok, idx)
			}
			values[idx] = float32(v)
			idx++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, ref, err
	}
	if idx != len(values) {
		return nil, ref, fmt.Errorf("got %d of %d values", idx, len(values))
	}
	return grid, ref, nil
}

// WriteASCII persists a grid, creating intermediate directories as needed.
func WriteASCII(g *Grid, path string, ref Georef) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raster: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Cols)
	fmt.Fprintf(bw, "nrows %d\n", g.Rows)
	fmt.Fprintf(bw, "xllcorner %g\n", ref.XLLCorner)
	fmt.Fprintf(bw, "yllcorner %g\n", ref.YLLCorner)
	fmt.Fprintf(bw, "cellsize %g\n", ref.CellSize)
	fmt.Fprintf(bw, "NODATA_value %g\n", ref.NoData)
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%g", g.At(row, col))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write raster: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("write raster: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write raster: %w", err)
	}
	return nil
}
