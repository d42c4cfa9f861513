package enhancer

import "context"

// Conditioning is the host's opaque conditioning handle. The package never
// looks inside it; it is either passed back untouched or replaced by the
// value a TextEncoder returns.
type Conditioning any

// TextEncoder re-encodes text into a conditioning value. It is supplied by the
// host (a CLIP text encoder in practice).
type TextEncoder interface {
	Encode(ctx context.Context, text string) (Conditioning, error)
}

// EncoderFunc adapts a plain function to TextEncoder.
type EncoderFunc func(ctx context.Context, text string) (Conditioning, error)

// Encode calls f.
func (f EncoderFunc) Encode(ctx context.Context, text string) (Conditioning, error) {
	return f(ctx, text)
}
