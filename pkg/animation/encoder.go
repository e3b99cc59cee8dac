// Package animation assembles rendered frames into a looping GIF.
//
// The Encoder streams: every frame is quantized and written to the
// underlying writer as soon as it is added, so memory stays bounded by one
// frame no matter how many iterations the trajectory has. The GIF trailer
// is written by Close; a stream that was never closed is not a valid GIF.
//
// Frames appear in the file in the order Add is called. Ordering by
// iteration is the caller's job.
package animation

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"

	errs "github.com/matzehuels/swarmreplay/pkg/errors"
)

const (
	// gifTrailer terminates a GIF stream.
	gifTrailer = 0x3B
	// headerLen is the signature plus the logical screen descriptor.
	headerLen = 6 + 7
	// blendSteps is the number of tints pinned between paper and each ink.
	blendSteps = 8
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithColors pins colors into the palette so flat areas drawn in them are
// reproduced exactly. Put the most important colors first; the palette is
// capped at 256 entries.
func WithColors(colors ...color.Color) Option {
	return func(e *Encoder) { e.pinned = append(e.pinned, colors...) }
}

// WithDither enables Floyd-Steinberg dithering. Dithering smooths gradients
// but perturbs flat colors, so it is off by default.
func WithDither(on bool) Option {
	return func(e *Encoder) { e.dither = on }
}

// Encoder writes frames to a GIF stream at a uniform playback rate.
type Encoder struct {
	w       io.Writer
	delay   int
	pinned  []color.Color
	dither  bool
	palette color.Palette
	bounds  image.Rectangle
	frames  int
	closed  bool
}

// NewEncoder creates an encoder writing to w at fps frames per second.
func NewEncoder(w io.Writer, fps int, opts ...Option) (*Encoder, error) {
	if fps < 1 {
		return nil, errs.New(errs.ErrCodeEncoding, "fps must be positive, got %d", fps)
	}
	e := &Encoder{w: w, delay: Delay(fps)}
	for _, opt := range opts {
		opt(e)
	}
	e.palette = buildPalette(e.pinned)
	return e, nil
}

// Delay converts a playback rate to a GIF frame delay in hundredths of a
// second. GIF cannot express delays below 1/100 s.
func Delay(fps int) int {
	d := int(math.Round(100 / float64(fps)))
	if d < 1 {
		return 1
	}
	return d
}

// Len returns the number of frames written so far.
func (e *Encoder) Len() int {
	return e.frames
}

// Palette returns the color table shared by every frame.
func (e *Encoder) Palette() color.Palette {
	return e.palette
}

// Add quantizes img and appends it to the stream. All frames must have the
// bounds of the first one.
func (e *Encoder) Add(img image.Image) error {
	if e.closed {
		return errs.New(errs.ErrCodeEncoding, "add frame: encoder is closed")
	}
	b := img.Bounds()
	if e.frames == 0 {
		e.bounds = b
	} else if b.Dx() != e.bounds.Dx() || b.Dy() != e.bounds.Dy() {
		return errs.New(errs.ErrCodeEncoding, "frame %d is %dx%d, want %dx%d",
			e.frames, b.Dx(), b.Dy(), e.bounds.Dx(), e.bounds.Dy())
	}

	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), e.palette)
	var drawer draw.Drawer = draw.Src
	if e.dither {
		drawer = draw.FloydSteinberg
	}
	drawer.Draw(pm, pm.Bounds(), img, b.Min)

	// Encode the frame as a standalone GIF sharing the global color table,
	// then splice its frame block into the stream.
	var buf bytes.Buffer
	err := gif.EncodeAll(&buf, &gif.GIF{
		Image: []*image.Paletted{pm},
		Delay: []int{e.delay},
		Config: image.Config{
			ColorModel: e.palette,
			Width:      b.Dx(),
			Height:     b.Dy(),
		},
	})
	if err != nil {
		return errs.Wrap(errs.ErrCodeEncoding, err, "encode frame %d", e.frames)
	}
	data := buf.Bytes()
	prefix := headerLen + globalTableLen(data)

	if e.frames == 0 {
		if _, err := e.w.Write(data[:prefix]); err != nil {
			return errs.Wrap(errs.ErrCodeEncoding, err, "write header")
		}
		if _, err := e.w.Write(loopForever); err != nil {
			return errs.Wrap(errs.ErrCodeEncoding, err, "write loop extension")
		}
	}
	if _, err := e.w.Write(data[prefix : len(data)-1]); err != nil {
		return errs.Wrap(errs.ErrCodeEncoding, err, "write frame %d", e.frames)
	}
	e.frames++
	return nil
}

// Close terminates the stream. An animation needs at least one frame;
// closing an empty encoder is an error and writes nothing.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.frames == 0 {
		return errs.New(errs.ErrCodeEncoding, "no frames to encode")
	}
	if _, err := e.w.Write([]byte{gifTrailer}); err != nil {
		return errs.Wrap(errs.ErrCodeEncoding, err, "write trailer")
	}
	return nil
}

// loopForever is the NETSCAPE2.0 application extension with a loop count of
// zero, which players interpret as repeat indefinitely.
var loopForever = []byte{
	0x21, 0xFF, 0x0B,
	'N', 'E', 'T', 'S', 'C', 'A', 'P', 'E', '2', '.', '0',
	0x03, 0x01, 0x00, 0x00,
	0x00,
}

// globalTableLen reads the size of the global color table from the logical
// screen descriptor of an encoded GIF.
func globalTableLen(data []byte) int {
	flags := data[10]
	if flags&0x80 == 0 {
		return 0
	}
	return 3 * (1 << (int(flags&0x07) + 1))
}

// buildPalette puts pinned colors first, then tints between white paper and
// each pinned color for antialiased edges, then fills up with the web-safe
// palette.
func buildPalette(pinned []color.Color) color.Palette {
	p := make(color.Palette, 0, 256)
	seen := make(map[color.RGBA]bool)
	add := func(c color.Color) {
		if len(p) == 256 {
			return
		}
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		rgba.A = 0xff
		if seen[rgba] {
			return
		}
		seen[rgba] = true
		p = append(p, rgba)
	}

	add(color.White)
	add(color.Black)
	for _, c := range pinned {
		add(c)
	}
	for _, c := range pinned {
		r, g, b, _ := color.RGBAModel.Convert(c).RGBA()
		for i := 1; i < blendSteps; i++ {
			t := float64(i) / blendSteps
			add(color.RGBA{
				R: tint(r, t),
				G: tint(g, t),
				B: tint(b, t),
				A: 0xff,
			})
		}
	}
	for _, c := range palette.WebSafe {
		add(c)
	}
	return p
}

// tint mixes a 16-bit channel value with white; t=0 is white, t=1 the color.
func tint(v uint32, t float64) uint8 {
	return uint8(math.Round(255*(1-t) + float64(v>>8)*t))
}
