package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericlevine/cornerscan"
	"github.com/ericlevine/cornerscan/detector"
)

// Point is a corner position in image pixels.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect is the expanded rectangle the corners were searched in. Each edge is
// the first all-light line outside the symbol, or the last image line when
// the symbol touches the image edge on that side.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
	Top    int `json:"top" yaml:"top"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Seed is the seed rectangle that produced the detection.
type Seed struct {
	X    int `json:"x" yaml:"x"`
	Y    int `json:"y" yaml:"y"`
	Size int `json:"size" yaml:"size"`
}

// Result is one successful detection. Corners are ordered top-left,
// top-right, bottom-right, bottom-left.
type Result struct {
	ID         string        `json:"id" yaml:"id"`
	Width      int           `json:"width" yaml:"width"`
	Height     int           `json:"height" yaml:"height"`
	Corners    [4]Point      `json:"corners" yaml:"corners"`
	Bounds     Rect          `json:"bounds" yaml:"bounds"`
	Seed       Seed          `json:"seed" yaml:"seed"`
	MatrixSize int           `json:"matrix_size" yaml:"matrix_size"`
	ModuleSize float64       `json:"module_size" yaml:"module_size"`
	Attempts   int           `json:"attempts" yaml:"attempts"`
	Inverted   bool          `json:"inverted,omitempty" yaml:"inverted,omitempty"`
	ElapsedMS  float64       `json:"elapsed_ms" yaml:"elapsed_ms"`
	Elapsed    time.Duration `json:"-" yaml:"-"`
}

func newResult(corners detector.Corners, bounds detector.Bounds, req detector.Request, width, height int) *Result {
	r := &Result{
		Width:      width,
		Height:     height,
		Bounds:     Rect{Left: bounds.Left, Right: bounds.Right, Top: bounds.Up, Bottom: bounds.Down},
		Seed:       Seed{X: req.X, Y: req.Y, Size: req.SeedSize},
		MatrixSize: req.MatrixSize,
	}
	for i, p := range corners.Points() {
		r.Corners[i] = Point{X: p.X, Y: p.Y}
	}
	// Centred corners sit half a module inside the symbol, so adjacent ones
	// are MatrixSize-1 modules apart.
	if req.MatrixSize > 1 {
		top := cornerscan.Distance(corners.TopLeft(), corners.TopRight())
		right := cornerscan.Distance(corners.TopRight(), corners.BottomRight())
		r.ModuleSize = (top + right) / float64(2*(req.MatrixSize-1))
	}
	return r
}

// FileResult pairs an input path with its detection or error.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// Format selects a result encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

type fileRecord struct {
	Path   string  `json:"path" yaml:"path"`
	Result *Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Encode writes results to w in the given format.
func Encode(w io.Writer, format Format, results []FileResult) error {
	switch format {
	case FormatText:
		return encodeText(w, results)
	case FormatJSON, FormatYAML:
		records := make([]fileRecord, len(results))
		for i, fr := range results {
			records[i] = fileRecord{Path: fr.Path, Result: fr.Result}
			if fr.Err != nil {
				records[i].Error = fr.Err.Error()
			}
		}
		if format == FormatJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

var cornerLabels = [4]string{"TL", "TR", "BR", "BL"}

func encodeText(w io.Writer, results []FileResult) error {
	for _, fr := range results {
		var b strings.Builder
		b.WriteString(fr.Path)
		b.WriteString(":")
		if fr.Err != nil {
			fmt.Fprintf(&b, " error: %v", fr.Err)
		} else {
			for i, p := range fr.Result.Corners {
				fmt.Fprintf(&b, " %s(%.2f,%.2f)", cornerLabels[i], p.X, p.Y)
			}
			fmt.Fprintf(&b, " module=%.2f attempts=%d", fr.Result.ModuleSize, fr.Result.Attempts)
			if fr.Result.Inverted {
				b.WriteString(" inverted")
			}
		}
		b.WriteString("\n")
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
