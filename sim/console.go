package sim

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// display adapts a Framebuffer to tinyterm's Displayer interface.
type display struct {
	fb *Framebuffer
}

func (d *display) Size() (x, y int16) {
	return int16(d.fb.width), int16(d.fb.height)
}

func (d *display) SetPixel(x, y int16, c color.RGBA) {
	f := d.fb
	ix := int(x)
	iy := int(y)
	if ix < 0 || ix >= f.width || iy < 0 || iy >= f.height {
		return
	}

	pixel := rgb565(c.R, c.G, c.B)
	f.mu.Lock()
	off := iy*f.stride + ix*2
	f.buf[off] = byte(pixel)
	f.buf[off+1] = byte(pixel >> 8)
	f.mu.Unlock()
}

func (d *display) Display() error { return nil }

func (d *display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	f := d.fb

	x0 := clampInt(int(x), 0, f.width)
	y0 := clampInt(int(y), 0, f.height)
	x1 := clampInt(int(x)+int(width), 0, f.width)
	y1 := clampInt(int(y)+int(height), 0, f.height)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)

	f.mu.Lock()
	for py := y0; py < y1; py++ {
		row := py * f.stride
		for px := x0; px < x1; px++ {
			off := row + px*2
			f.buf[off] = lo
			f.buf[off+1] = hi
		}
	}
	f.mu.Unlock()
	return nil
}

func (d *display) SetScroll(line int16) {
	_ = line
}

func (d *display) SetRotation(rotation drivers.Rotation) error {
	_ = rotation
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Console renders UART output as a scrolling terminal on the
// framebuffer. Writes draw straight into the framebuffer through the
// display adapter; Flush presents the adapter, which for this in-memory
// display is the point the window's next snapshot observes.
type Console struct {
	d *display
	t *tinyterm.Terminal
}

func NewConsole(fb *Framebuffer) *Console {
	c := &Console{d: &display{fb: fb}}
	c.t = tinyterm.NewTerminal(c.d)
	c.t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: 10,
		FontOffset: 6,
	})
	fb.ClearRGB(0, 0, 0)
	return c
}

func (c *Console) Write(p []byte) (int, error) { return c.t.Write(p) }

func (c *Console) Flush() error { return c.d.Display() }
