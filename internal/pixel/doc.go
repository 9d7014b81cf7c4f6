// Package pixel defines the pixel buffer owned by a processor and its format
// tag.
//
// A Buffer is row-major with no padding, RGB at 3 bytes per pixel or RGBA at
// 4, non-premultiplied. Sizes are overflow-checked and capped at MaxBytes, so
// caller-supplied dimensions fail with imgerr.KindInvalidDimensions instead of
// reaching the allocator. NRGBA and FromImage bridge to the image package.
package pixel
