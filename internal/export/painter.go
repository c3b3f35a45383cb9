package export

import (
	"image/color"

	"github.com/gogpu/gg"
	"github.com/jung-kurt/gofpdf"

	"DrawStudio/internal/stroke"
)

// pdfPainter lets the stroke renderer draw into a PDF page. Canvas pixels
// are mapped to page millimetres by scale and offset.
type pdfPainter struct {
	pdf    *gofpdf.Fpdf
	scale  float64
	dx, dy float64

	hasPath bool
	circles [][3]float64
}

var _ stroke.Painter = (*pdfPainter)(nil)

func (p *pdfPainter) x(v float64) float64 { return p.dx + v*p.scale }
func (p *pdfPainter) y(v float64) float64 { return p.dy + v*p.scale }

func (p *pdfPainter) ClearPath() {
	p.hasPath = false
	p.circles = p.circles[:0]
}

func (p *pdfPainter) MoveTo(x, y float64) {
	p.pdf.MoveTo(p.x(x), p.y(y))
	p.hasPath = true
}

func (p *pdfPainter) LineTo(x, y float64) {
	p.pdf.LineTo(p.x(x), p.y(y))
}

func (p *pdfPainter) QuadraticTo(cx, cy, x, y float64) {
	p.pdf.CurveTo(p.x(cx), p.y(cy), p.x(x), p.y(y))
}

func (p *pdfPainter) DrawCircle(x, y, r float64) {
	p.circles = append(p.circles, [3]float64{p.x(x), p.y(y), r * p.scale})
}

func (p *pdfPainter) SetColor(c color.Color) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	p.pdf.SetDrawColor(int(n.R), int(n.G), int(n.B))
	p.pdf.SetFillColor(int(n.R), int(n.G), int(n.B))
	p.pdf.SetAlpha(float64(n.A)/255, "Normal")
}

func (p *pdfPainter) SetLineWidth(width float64) {
	p.pdf.SetLineWidth(width * p.scale)
}

func (p *pdfPainter) SetLineCap(c gg.LineCap) {
	switch c {
	case gg.LineCapRound:
		p.pdf.SetLineCapStyle("round")
	case gg.LineCapSquare:
		p.pdf.SetLineCapStyle("square")
	default:
		p.pdf.SetLineCapStyle("butt")
	}
}

func (p *pdfPainter) SetLineJoin(j gg.LineJoin) {
	switch j {
	case gg.LineJoinRound:
		p.pdf.SetLineJoinStyle("round")
	case gg.LineJoinBevel:
		p.pdf.SetLineJoinStyle("bevel")
	default:
		p.pdf.SetLineJoinStyle("miter")
	}
}

func (p *pdfPainter) Stroke() error {
	if p.hasPath {
		p.pdf.DrawPath("D")
	}
	p.ClearPath()
	return p.pdf.Error()
}

func (p *pdfPainter) Fill() error {
	for _, c := range p.circles {
		p.pdf.Circle(c[0], c[1], c[2], "F")
	}
	if p.hasPath {
		p.pdf.DrawPath("F")
	}
	p.ClearPath()
	return p.pdf.Error()
}
