package frame

// RowAlignment is the row byte alignment the renderer's pixel upload assumes.
const RowAlignment = 4

// IsAligned reports whether a row of width packed pixels is a multiple of
// RowAlignment bytes.
func IsAligned(width int) bool {
	return width*BytesPerPixel%RowAlignment == 0
}

// AlignWidth widens width until its packed row is RowAlignment-aligned.
// For three-byte pixels one step always suffices: adding (3w mod 4) rounds w
// up to the next multiple of four.
func AlignWidth(width int) int {
	if IsAligned(width) {
		return width
	}
	return width + width*BytesPerPixel%RowAlignment
}
