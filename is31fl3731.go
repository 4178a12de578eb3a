package is31fl3731

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/flavioheleno/is31fl3731/gamma"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
)

// ErrHalted is returned by Flush and Draw after Halt, until Init is called.
var ErrHalted = errors.New("is31fl3731: halted")

// Opts is the configuration for a matrix.
type Opts struct {
	// I²C address of the chip (default: DefaultAddr).
	Addr uint16
	// Physical wiring (default: RGB5x5).
	Layout *Layout
	// Correction table applied at flush time (default: gamma.Default).
	Gamma *gamma.Table
	// Initial global brightness, clamped to [0, 1]. Zero selects 1; use
	// SetBrightness(0) to blank the matrix.
	Brightness float64
	// What to do with frame numbers above MaxFrame (default: FrameClamp).
	FramePolicy FramePolicy
}

// DefaultOpts drives a Pimoroni 5x5 RGB breakout at its default address.
var DefaultOpts = Opts{
	Addr:        DefaultAddr,
	Layout:      &RGB5x5,
	Gamma:       &gamma.Default,
	Brightness:  1,
	FramePolicy: FrameClamp,
}

// Pixel is one cell of the frame buffer.
type Pixel struct {
	R, G, B    uint8
	Brightness float64 // 0 to 1, multiplied with the global brightness
}

// Dev is a double buffered LED matrix.
//
// Pixels are set in a local buffer and sent on Flush to the frame bank that
// is not displayed, then the display is switched to it, so a partially
// written frame is never visible.
//
// A Dev is not safe for concurrent use.
type Dev struct {
	chip   *Chip
	layout *Layout

	buffer     []Pixel
	gamma      gamma.Table
	brightness float64

	// State
	enabled bool
	halted  bool
}

// New returns a matrix driven through bus.
//
// opts can be nil to use DefaultOpts. The bus is not touched until Init or
// the first Flush.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	l := opts.Layout
	if l == nil {
		l = &RGB5x5
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	g := opts.Gamma
	if g == nil {
		g = &gamma.Default
	}
	brightness := opts.Brightness
	if brightness == 0 {
		brightness = 1
	}

	d := &Dev{
		chip:   NewChip(bus, addr, opts.FramePolicy),
		layout: l,
		buffer: make([]Pixel, l.W*l.H),
		gamma:  *g,
	}
	d.SetBrightness(brightness)
	d.Clear()
	return d, nil
}

// Chip returns the underlying protocol handle, for raw register access.
func (d *Dev) Chip() *Chip {
	return d.chip
}

// Init initializes the chip and turns on every LED of the layout in both
// frame banks used for double buffering.
//
// Init also brings a halted Dev back.
func (d *Dev) Init() error {
	if err := d.chip.Init(); err != nil {
		return err
	}
	// Flush alternates between banks 1 and 0; an LED left disabled in either
	// bank stays dark while that bank is shown.
	for _, bank := range []byte{1, 0} {
		if err := d.chip.WriteBlock(bank, EnableOffset, d.layout.Enable[:]); err != nil {
			return err
		}
	}
	d.enabled = true
	d.halted = false
	return nil
}

// SetPixel sets the color and brightness of the pixel at (x, y).
//
// Coordinates outside the matrix are ignored.
func (d *Dev) SetPixel(x, y int, r, g, b uint8, brightness float64) {
	i, ok := d.layout.Index(x, y)
	if !ok {
		return
	}
	d.buffer[i] = Pixel{R: r, G: g, B: b, Brightness: brightness}
}

// Pixel returns the pixel at (x, y), or false if the coordinate is outside
// the matrix.
func (d *Dev) Pixel(x, y int) (Pixel, bool) {
	i, ok := d.layout.Index(x, y)
	if !ok {
		return Pixel{}, false
	}
	return d.buffer[i], true
}

// SetAll sets every pixel to the same color and brightness.
func (d *Dev) SetAll(r, g, b uint8, brightness float64) {
	for i := range d.buffer {
		d.buffer[i] = Pixel{R: r, G: g, B: b, Brightness: brightness}
	}
}

// Clear sets every pixel to black at full brightness.
func (d *Dev) Clear() {
	d.SetAll(0, 0, 0, 1)
}

// SetBrightness sets the global brightness, clamped to [0, 1]. It is applied
// on the next Flush.
func (d *Dev) SetBrightness(brightness float64) {
	switch {
	case brightness > 1:
		brightness = 1
	case !(brightness > 0):
		brightness = 0
	}
	d.brightness = brightness
}

// Brightness returns the global brightness.
func (d *Dev) Brightness() float64 {
	return d.brightness
}

// SetGamma replaces the correction table. A nil table is ignored.
//
// The table is copied.
func (d *Dev) SetGamma(t *gamma.Table) {
	if t == nil {
		return
	}
	d.gamma = *t
}

// Render returns the color block image the next Flush sends.
//
// Each channel is scaled by the global and pixel brightness, truncated to a
// byte, then passed through the gamma table.
func (d *Dev) Render() []byte {
	out := make([]byte, ColorSize)
	for i, p := range d.buffer {
		out[d.layout.PixelAddr(i, Red)] = d.gamma.Correct(scale(p.R, d.brightness, p.Brightness))
		out[d.layout.PixelAddr(i, Green)] = d.gamma.Correct(scale(p.G, d.brightness, p.Brightness))
		out[d.layout.PixelAddr(i, Blue)] = d.gamma.Correct(scale(p.B, d.brightness, p.Brightness))
	}
	return out
}

// Flush makes the buffer visible.
//
// The first Flush runs Init if it was not called. The image is written to the
// hidden frame bank, then the display switches to that bank.
//
// After Halt, Flush returns ErrHalted without touching the bus; the lazy Init
// does not apply and Init must be called explicitly to resume.
func (d *Dev) Flush() error {
	if d.halted {
		return ErrHalted
	}
	if !d.enabled {
		if err := d.Init(); err != nil {
			return err
		}
	}
	next := byte(1)
	if d.chip.Frame() != 0 {
		next = 0
	}
	if err := d.chip.WriteBlock(next, ColorOffset, d.Render()); err != nil {
		return err
	}
	_, err := d.chip.SetFrame(next, true)
	return err
}

// ColorModel implements display.Drawer.
//
// Alpha is used as the pixel brightness.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer. Min is guaranteed to be {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.layout.W, d.layout.H)
}

// Draw implements display.Drawer.
//
// The part of src aligned with dst is copied into the buffer, which is then
// flushed. Pixels outside dst keep their value.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}
	r := dst.Intersect(d.Bounds())
	if r.Empty() {
		return nil
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(sp.X+x-dst.Min.X, sp.Y+y-dst.Min.Y)).(color.NRGBA)
			d.SetPixel(x, y, c.R, c.G, c.B, float64(c.A)/255)
		}
	}
	return d.Flush()
}

// Halt implements conn.Resource.
//
// It puts the chip in software shutdown. The buffer is kept; call Init to
// resume.
func (d *Dev) Halt() error {
	d.halted = true
	d.enabled = false
	d.chip.initialized = false
	return d.chip.Sleep(true)
}

func (d *Dev) String() string {
	return fmt.Sprintf("is31fl3731.Dev{%s, %s, %dx%d}", d.chip.d, d.layout.Name, d.layout.W, d.layout.H)
}

// scale multiplies v by both brightness factors and truncates the result into
// a byte.
func scale(v uint8, global, pixel float64) uint8 {
	f := float64(v) * global * pixel
	switch {
	case !(f > 0):
		return 0
	case f >= 255:
		return 255
	default:
		return uint8(f)
	}
}

var _ display.Drawer = &Dev{}
