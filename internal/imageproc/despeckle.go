package imageproc

// Despeckle levels as stored in output parameters.
const (
	DespeckleOff        = 0.0
	DespeckleCautious   = 1.0
	DespeckleNormal     = 2.0
	DespeckleAggressive = 3.0
)

// Despeckle removes small connected components from img in place and returns
// the removed pixels as a separate mask. The size limit grows with the level
// and with the square of the resolution.
func Despeckle(img *BinaryImage, level float64, dpi int) *BinaryImage {
	speckles := NewBinaryImage(img.w, img.h)
	if level <= DespeckleOff || img.IsNull() {
		return speckles
	}
	scale := float64(dpi) / 300
	if scale <= 0 {
		scale = 1
	}
	limit := int(level*level*4*scale*scale + 0.5)
	if limit < 1 {
		limit = 1
	}

	labels := LabelComponents(img)
	speckles = labels.Mask(func(c Component) bool { return c.Pixels <= limit })
	img.Subtract(speckles)
	return speckles
}
