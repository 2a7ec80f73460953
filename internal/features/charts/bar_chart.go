package charts

// Horizontal bar chart renderer.
// Draws one bar per category, first category at the top, on a white figure sized
// in inches and rasterised at the configured DPI.

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	pointsPerInch = 72.0

	tickFontSize  = 10.0 // pt
	labelFontSize = 10.0 // pt
	titleFontSize = 12.0 // pt

	layoutPad    = 1.08 * labelFontSize // pt, outer padding of the tightened layout
	tickLength   = 3.5                  // pt
	tickPad      = 3.5                  // pt
	labelPad     = 4.0                  // pt
	titlePad     = 6.0                  // pt
	spineWidth   = 0.8                  // pt
	barEdgeWidth = 1.0                  // pt

	barHeight     = 0.8  // in category units
	axisMargin    = 0.05 // fraction of the data span added around the category axis
	minPlotFactor = 0.25 // plot area never shrinks below this share of the figure width

	// bboxPad is the padding kept around the content when cropping, in inches.
	bboxPad = 0.1
)

// Style controls figure geometry, colours and text.
type Style struct {
	WidthIn   float64
	HeightIn  float64
	DPI       float64
	ColorLow  float64
	ColorHigh float64
	Title     string
	XLabel    string
	YLabel    string
	FontPath  string // optional TrueType font; Go Regular when empty
}

// DefaultStyle is the top co-resistance pairs look: 8x5 in at 300 DPI, Reds 0.4-0.9.
func DefaultStyle() Style {
	return Style{
		WidthIn:   8,
		HeightIn:  5,
		DPI:       300,
		ColorLow:  0.4,
		ColorHigh: 0.9,
		Title:     "Strongest Co-Resistance Associations",
		XLabel:    "Phi Coefficient (Association Strength)",
		YLabel:    "Antibiotic Pair",
	}
}

// Bar is one category on the chart.
type Bar struct {
	Label string
	Value float64
}

// barGeometry is a bar placed in pixel space.
type barGeometry struct {
	Label          string
	Value          float64
	X0, Y0, X1, Y1 float64
	Center         float64 // y of the category tick
	Fill           color.RGBA
}

// layout is the pixel-space plan for a chart.
type layout struct {
	Width, Height  int
	PlotX0, PlotY0 float64
	PlotX1, PlotY1 float64
	ValueLo        float64
	ValueHi        float64
	XTicks         []float64
	XStep          float64
	Bars           []barGeometry
}

func (l *layout) xPixel(v float64) float64 {
	return l.PlotX0 + (v-l.ValueLo)/(l.ValueHi-l.ValueLo)*(l.PlotX1-l.PlotX0)
}

type fontFaces struct {
	tick  font.Face
	label font.Face
	title font.Face
}

func loadFaces(style Style) (*fontFaces, error) {
	data := goregular.TTF
	if style.FontPath != "" {
		raw, err := os.ReadFile(style.FontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", style.FontPath, err)
		}
		data = raw
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	newFace := func(size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     style.DPI,
			Hinting: font.HintingNone,
		})
	}

	return &fontFaces{
		tick:  newFace(tickFontSize),
		label: newFace(labelFontSize),
		title: newFace(titleFontSize),
	}, nil
}

// RenderHorizontalBars draws bars top to bottom in slice order and returns the
// full, uncropped figure.
func RenderHorizontalBars(bars []Bar, style Style) (image.Image, error) {
	if style.DPI <= 0 || style.WidthIn <= 0 || style.HeightIn <= 0 {
		return nil, fmt.Errorf("invalid figure size %vx%v in at %v dpi", style.WidthIn, style.HeightIn, style.DPI)
	}

	faces, err := loadFaces(style)
	if err != nil {
		return nil, err
	}

	measure := gg.NewContext(1, 1)
	l := planLayout(measure, faces, bars, style)

	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(color.White)
	dc.Clear()

	px := style.DPI / pointsPerInch

	// Bars
	dc.SetLineWidth(barEdgeWidth * px)
	for _, b := range l.Bars {
		if !isFinite(b.Value) {
			continue
		}
		dc.DrawRectangle(b.X0, b.Y0, b.X1-b.X0, b.Y1-b.Y0)
		dc.SetColor(b.Fill)
		dc.FillPreserve()
		dc.SetColor(color.Black)
		dc.Stroke()
	}

	// Spines
	dc.SetColor(color.Black)
	dc.SetLineWidth(spineWidth * px)
	dc.DrawRectangle(l.PlotX0, l.PlotY0, l.PlotX1-l.PlotX0, l.PlotY1-l.PlotY0)
	dc.Stroke()

	tickLen := tickLength * px
	gap := tickLen + tickPad*px

	// X ticks, pointing out of the plot
	dc.SetFontFace(faces.tick)
	for _, v := range l.XTicks {
		x := l.xPixel(v)
		dc.DrawLine(x, l.PlotY1, x, l.PlotY1+tickLen)
		dc.Stroke()
		dc.DrawStringAnchored(tickLabel(v, l.XStep), x, l.PlotY1+gap, 0.5, 1)
	}

	// Y ticks, one per category
	maxTickWidth := 0.0
	for _, b := range l.Bars {
		dc.DrawLine(l.PlotX0-tickLen, b.Center, l.PlotX0, b.Center)
		dc.Stroke()
		dc.DrawStringAnchored(b.Label, l.PlotX0-gap, b.Center, 1, 0.5)
		w, _ := dc.MeasureString(b.Label)
		maxTickWidth = math.Max(maxTickWidth, w)
	}
	tickTextHeight := dc.FontHeight()

	centerX := (l.PlotX0 + l.PlotX1) / 2
	centerY := (l.PlotY0 + l.PlotY1) / 2

	// Axis labels
	dc.SetFontFace(faces.label)
	dc.DrawStringAnchored(style.XLabel, centerX, l.PlotY1+gap+tickTextHeight+labelPad*px, 0.5, 1)

	ylx := l.PlotX0 - gap - maxTickWidth - labelPad*px - dc.FontHeight()/2
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), ylx, centerY)
	dc.DrawStringAnchored(style.YLabel, ylx, centerY, 0.5, 0.5)
	dc.Pop()

	// Title
	dc.SetFontFace(faces.title)
	dc.DrawStringAnchored(style.Title, centerX, l.PlotY0-titlePad*px, 0.5, 0)

	return dc.Image(), nil
}

// planLayout sizes the margins around the plot from the text that has to fit in them,
// then places every bar.
func planLayout(dc *gg.Context, faces *fontFaces, bars []Bar, style Style) *layout {
	px := style.DPI / pointsPerInch
	width := style.WidthIn * style.DPI
	height := style.HeightIn * style.DPI

	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = b.Value
	}
	lo, hi := valueLimits(values)
	xStep := tickStep(hi-lo, maxXTicks)
	xTicks := axisTicks(lo, hi, maxXTicks)

	dc.SetFontFace(faces.tick)
	tickTextHeight := dc.FontHeight()
	maxLabelWidth := 0.0
	for _, b := range bars {
		w, _ := dc.MeasureString(b.Label)
		maxLabelWidth = math.Max(maxLabelWidth, w)
	}
	lastTickWidth := 0.0
	if len(xTicks) > 0 {
		lastTickWidth, _ = dc.MeasureString(tickLabel(xTicks[len(xTicks)-1], xStep))
	}

	dc.SetFontFace(faces.label)
	labelTextHeight := dc.FontHeight()
	dc.SetFontFace(faces.title)
	titleTextHeight := dc.FontHeight()

	pad := layoutPad * px
	gap := (tickLength + tickPad) * px

	left := pad + labelTextHeight + labelPad*px + maxLabelWidth + gap
	right := pad + lastTickWidth/2
	top := pad + titleTextHeight + titlePad*px
	bottom := pad + labelTextHeight + labelPad*px + tickTextHeight + gap

	// Long labels widen the figure instead of squeezing the bars away.
	if minPlot := width * minPlotFactor; width-left-right < minPlot {
		width = left + right + minPlot
	}

	l := &layout{
		Width:   int(math.Round(width)),
		Height:  int(math.Round(height)),
		PlotX0:  left,
		PlotY0:  top,
		PlotX1:  math.Round(width) - right,
		PlotY1:  math.Round(height) - bottom,
		ValueLo: lo,
		ValueHi: hi,
		XTicks:  xTicks,
		XStep:   xStep,
	}

	n := len(bars)
	if n == 0 {
		return l
	}

	// Category i sits at position i; the axis runs top (smallest) to bottom, i.e. inverted.
	dataSpan := float64(n-1) + barHeight
	catTop := -barHeight/2 - axisMargin*dataSpan
	catBottom := float64(n-1) + barHeight/2 + axisMargin*dataSpan
	yPixel := func(pos float64) float64 {
		return l.PlotY0 + (pos-catTop)/(catBottom-catTop)*(l.PlotY1-l.PlotY0)
	}

	colors := BarColors(n, style.ColorLow, style.ColorHigh)
	l.Bars = make([]barGeometry, n)
	for i, b := range bars {
		// A bar without a finite value keeps its category slot but collapses onto zero.
		x0, x1 := l.xPixel(0), l.xPixel(0)
		if isFinite(b.Value) {
			x0, x1 = l.xPixel(math.Min(0, b.Value)), l.xPixel(math.Max(0, b.Value))
		}
		l.Bars[i] = barGeometry{
			Label:  b.Label,
			Value:  b.Value,
			X0:     x0,
			X1:     x1,
			Y0:     yPixel(float64(i) - barHeight/2),
			Y1:     yPixel(float64(i) + barHeight/2),
			Center: yPixel(float64(i)),
			Fill:   colors[i],
		}
	}
	return l
}
