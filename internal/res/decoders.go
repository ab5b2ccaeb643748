package res

// Register a broad set of image decoders so image.DecodeConfig can size
// the formats an HTML document may embed.
import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)
