// Package render paints spectrum bars and waveforms onto an RGBA surface.
package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Background is the colour every frame is cleared to.
var Background = color.RGBA{200, 200, 200, 255}

type point struct{ x, y float64 }

// Canvas is a 2D raster surface with a fill colour, a stroke colour and a
// single current path, in the manner of an HTML canvas context. Geometry is
// anti-aliased through a vector rasterizer. Shapes may extend past the
// surface; only the visible part is painted.
type Canvas struct {
	img       *image.RGBA
	ras       *vector.Rasterizer
	src       *image.Uniform
	fill      color.RGBA
	stroke    color.RGBA
	lineWidth float64

	path    []point
	starts  []int // index into path where each subpath begins
	scratch [2][]point
}

// NewCanvas allocates a w×h surface cleared to Background.
func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		img:       image.NewRGBA(image.Rect(0, 0, w, h)),
		ras:       vector.NewRasterizer(w, h),
		src:       image.NewUniform(color.RGBA{}),
		fill:      color.RGBA{0, 0, 0, 255},
		stroke:    color.RGBA{0, 0, 0, 255},
		lineWidth: 1,
	}
	c.Clear(Background)
	return c
}

func (c *Canvas) Width() int  { return c.img.Rect.Dx() }
func (c *Canvas) Height() int { return c.img.Rect.Dy() }

// Image returns the backing image. It is rewritten by every draw call.
func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) SetFillStyle(col color.RGBA)   { c.fill = col }
func (c *Canvas) FillStyle() color.RGBA         { return c.fill }
func (c *Canvas) SetStrokeStyle(col color.RGBA) { c.stroke = col }
func (c *Canvas) StrokeStyle() color.RGBA       { return c.stroke }

// SetLineWidth sets the stroke width. Non-positive and non-finite widths
// are ignored.
func (c *Canvas) SetLineWidth(w float64) {
	if w > 0 && !math.IsInf(w, 1) {
		c.lineWidth = w
	}
}

// Clear paints the whole surface with col.
func (c *Canvas) Clear(col color.RGBA) {
	c.src.C = col
	draw.Draw(c.img, c.img.Rect, c.src, image.Point{}, draw.Src)
}

// FillRect fills the rectangle at (x, y) with size w×h using the fill
// colour. Negative sizes extend left or up.
func (c *Canvas) FillRect(x, y, w, h float64) {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	if !(w > 0 && h > 0) {
		return
	}
	quad := [4]point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}

	box, ok := c.visible(x, y, x+w, y+h)
	if !ok {
		return
	}
	c.ras.Reset(box.Dx(), box.Dy())
	c.addPolygon(quad[:], box)
	c.paint(box, c.fill)
}

// BeginPath discards the current path.
func (c *Canvas) BeginPath() {
	c.path = c.path[:0]
	c.starts = c.starts[:0]
}

// MoveTo starts a new subpath at (x, y).
func (c *Canvas) MoveTo(x, y float64) {
	c.starts = append(c.starts, len(c.path))
	c.path = append(c.path, point{x, y})
}

// LineTo extends the current subpath to (x, y). Without a current subpath
// it behaves like MoveTo.
func (c *Canvas) LineTo(x, y float64) {
	if len(c.starts) == 0 {
		c.MoveTo(x, y)
		return
	}
	c.path = append(c.path, point{x, y})
}

// Stroke outlines the current path with the stroke colour and line width.
// The colour in effect when Stroke is called applies to the whole path.
func (c *Canvas) Stroke() {
	if len(c.path) < 2 {
		return
	}
	half := c.lineWidth / 2

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range c.path {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	box, ok := c.visible(minX-half, minY-half, maxX+half, maxY+half)
	if !ok {
		return
	}
	c.ras.Reset(box.Dx(), box.Dy())

	for s, start := range c.starts {
		end := len(c.path)
		if s+1 < len(c.starts) {
			end = c.starts[s+1]
		}
		for i := start + 1; i < end; i++ {
			p0, p1 := c.path[i-1], c.path[i]
			dx, dy := p1.x-p0.x, p1.y-p0.y
			length := math.Hypot(dx, dy)
			if length == 0 || math.IsNaN(length) {
				continue
			}
			nx, ny := -dy/length*half, dx/length*half
			quad := [4]point{
				{p0.x + nx, p0.y + ny},
				{p1.x + nx, p1.y + ny},
				{p1.x - nx, p1.y - ny},
				{p0.x - nx, p0.y - ny},
			}
			c.addPolygon(quad[:], box)
		}
	}
	c.paint(box, c.stroke)
}

// visible returns the integer pixel box covering [x0,x1]×[y0,y1] clipped to
// the surface.
func (c *Canvas) visible(x0, y0, x1, y1 float64) (image.Rectangle, bool) {
	if math.IsNaN(x0) || math.IsNaN(y0) || math.IsNaN(x1) || math.IsNaN(y1) {
		return image.Rectangle{}, false
	}
	b := c.img.Rect
	// Corners are clamped independently, so a shape past an edge yields an
	// inverted box that Empty rejects. image.Rect would canonicalise it.
	r := image.Rectangle{
		Min: image.Pt(clampInt(math.Floor(x0), b.Min.X, b.Max.X), clampInt(math.Floor(y0), b.Min.Y, b.Max.Y)),
		Max: image.Pt(clampInt(math.Ceil(x1), b.Min.X, b.Max.X), clampInt(math.Ceil(y1), b.Min.Y, b.Max.Y)),
	}
	return r, !r.Empty()
}

func clampInt(v float64, lo, hi int) int {
	return int(math.Max(float64(lo), math.Min(v, float64(hi))))
}

// addPolygon clips poly to box and adds it to the rasterizer in box-local
// coordinates.
func (c *Canvas) addPolygon(poly []point, box image.Rectangle) {
	clipped := c.clip(poly, box)
	if len(clipped) < 3 {
		return
	}
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	c.ras.MoveTo(float32(clipped[0].x-ox), float32(clipped[0].y-oy))
	for _, p := range clipped[1:] {
		c.ras.LineTo(float32(p.x-ox), float32(p.y-oy))
	}
	c.ras.ClosePath()
}

// clip runs Sutherland-Hodgman against the four edges of box. The result
// aliases the canvas scratch buffers and is valid until the next call.
func (c *Canvas) clip(poly []point, box image.Rectangle) []point {
	bounds := [4]float64{
		float64(box.Min.X), float64(box.Max.X),
		float64(box.Min.Y), float64(box.Max.Y),
	}

	in := append(c.scratch[0][:0], poly...)
	out := c.scratch[1][:0]
	for edge, v := range bounds {
		out = out[:0]
		for i, cur := range in {
			prev := in[(i+len(in)-1)%len(in)]
			curIn, prevIn := inside(cur, edge, v), inside(prev, edge, v)
			switch {
			case curIn && prevIn:
				out = append(out, cur)
			case curIn:
				out = append(out, cross(prev, cur, edge, v), cur)
			case prevIn:
				out = append(out, cross(prev, cur, edge, v))
			}
		}
		in, out = out, in
		if len(in) == 0 {
			break
		}
	}
	c.scratch[0], c.scratch[1] = in, out
	return in
}

// inside reports whether p is on the kept side of a clip edge. Edges are
// ordered left, right, top, bottom.
func inside(p point, edge int, v float64) bool {
	switch edge {
	case 0:
		return p.x >= v
	case 1:
		return p.x <= v
	case 2:
		return p.y >= v
	default:
		return p.y <= v
	}
}

// cross returns where segment a-b meets a clip edge. Only called when a and
// b lie on opposite sides, so the divisor is non-zero.
func cross(a, b point, edge int, v float64) point {
	if edge < 2 {
		return point{v, a.y + (b.y-a.y)*(v-a.x)/(b.x-a.x)}
	}
	return point{a.x + (b.x-a.x)*(v-a.y)/(b.y-a.y), v}
}

// paint composites col through the rasterized coverage mask onto box.
func (c *Canvas) paint(box image.Rectangle, col color.RGBA) {
	c.src.C = col
	c.ras.Draw(c.img, box, c.src, image.Point{})
}
