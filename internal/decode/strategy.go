package decode

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Strategy is one image preparation applied before handing the image to
// the engines. Strategies are ordered by increasing aggressiveness.
type Strategy struct {
	Name      string
	Transform func(image.Image) image.Image
}

// Strategies returns the escalation ladder for still images:
//
//  1. as-is: the capture exactly as supplied
//  2. quiet-zone: the capture centered on a white canvas, for engines that
//     fail when the symbol runs to the image edge
//  3. enhance: upscaled and contrast-stretched, for small or washed-out
//     captures
func Strategies() []Strategy {
	return []Strategy{
		{Name: "as-is", Transform: func(img image.Image) image.Image { return img }},
		{Name: "quiet-zone", Transform: padQuietZone},
		{Name: "enhance", Transform: enhance},
	}
}

// padQuietZone centers the image on a white square canvas with a margin on
// every side.
func padQuietZone(img image.Image) image.Image {
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() > side {
		side = b.Dy()
	}
	margin := side / 8
	if margin < 32 {
		margin = 32
	}
	side += 2 * margin

	canvas := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	offset := image.Pt((side-b.Dx())/2, (side-b.Dy())/2)
	draw.Draw(canvas, image.Rectangle{Min: offset, Max: offset.Add(b.Size())}, img, b.Min, draw.Over)
	return canvas
}

// enhance upscales the image to at least minEnhancedSide on its short edge
// and stretches the grayscale histogram to full range.
func enhance(img image.Image) image.Image {
	const minEnhancedSide = 640

	b := img.Bounds()
	scale := 2
	short := b.Dx()
	if b.Dy() < short {
		short = b.Dy()
	}
	if short > 0 {
		for short*scale < minEnhancedSide {
			scale++
		}
	}

	scaled := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)

	return stretchContrast(scaled)
}

// stretchContrast converts to grayscale and remaps luma linearly so the
// darkest pixel becomes black and the lightest white.
func stretchContrast(img image.Image) image.Image {
	b := img.Bounds()
	gray := image.NewGray(b)

	minV, maxV := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			gray.SetGray(x, y, c)
			if c.Y < minV {
				minV = c.Y
			}
			if c.Y > maxV {
				maxV = c.Y
			}
		}
	}

	if maxV <= minV {
		return gray
	}

	span := int(maxV) - int(minV)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			stretched := (int(v) - int(minV)) * 255 / span
			gray.SetGray(x, y, color.Gray{Y: uint8(stretched)})
		}
	}
	return gray
}
