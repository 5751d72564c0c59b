package visualization

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/snipe75/tum-tb-perception/logging"
	"github.com/snipe75/tum-tb-perception/objectdetection"
)

const (
	boxLineWidth   = 2.0
	labelPadding   = 3.0
	labelBoxAlpha  = 0.5
	labelTextAlpha = 1.0
)

// Annotate returns a copy of the image overlaid with the detections: a
// rectangle per bounding box and a translucent label tag above it showing the
// class and confidence.
func Annotate(
	img image.Image,
	dets []objectdetection.Detection,
	colors ClassColorMap,
	logger logging.Logger,
) image.Image {
	dc := gg.NewContextForImage(img)
	for _, d := range dets {
		box := d.Box()
		c := colors.Color(d.Label(), logger)
		r, g, b := c[0]/255, c[1]/255, c[2]/255

		dc.SetRGBA(r, g, b, 1)
		dc.SetLineWidth(boxLineWidth)
		dc.DrawRectangle(box.XMin, box.YMin, box.XMax-box.XMin, box.YMax-box.YMin)
		dc.Stroke()

		labelStr := fmt.Sprintf("%s: %.2f%%", d.Label(), d.Score()*100)
		w, h := dc.MeasureString(labelStr)
		dc.SetRGBA(r, g, b, labelBoxAlpha)
		dc.DrawRectangle(box.XMin, box.YMin-h-2*labelPadding, w+2*labelPadding, h+2*labelPadding)
		dc.Fill()
		dc.SetRGBA(1, 1, 1, labelTextAlpha)
		dc.DrawString(labelStr, box.XMin+labelPadding, box.YMin-labelPadding)
	}
	return dc.Image()
}
