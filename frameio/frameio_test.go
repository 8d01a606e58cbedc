package frameio_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/frameio"
	"golang.org/x/image/bmp"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 100), B: 7, A: 0xff})
		}
	}
	return img
}

func sameImage(t *testing.T, a, b image.Image) {
	t.Helper()
	if a.Bounds().Size() != b.Bounds().Size() {
		t.Fatalf("size %v != %v", a.Bounds().Size(), b.Bounds().Size())
	}
	for y := 0; y < a.Bounds().Dy(); y++ {
		for x := 0; x < a.Bounds().Dx(); x++ {
			r1, g1, b1, _ := a.At(a.Bounds().Min.X+x, a.Bounds().Min.Y+y).RGBA()
			r2, g2, b2, _ := b.At(b.Bounds().Min.X+x, b.Bounds().Min.Y+y).RGBA()
			if r1>>8 != r2>>8 || g1>>8 != g2>>8 || b1>>8 != b2>>8 {
				t.Fatalf("pixel %d,%d differs", x, y)
			}
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, td := range []struct {
		in   string
		want frameio.Format
	}{
		{"png", frameio.PNG}, {".BMP", frameio.BMP}, {"ppm", frameio.PPM}, {"pgm", frameio.PGM},
	} {
		f, err := frameio.ParseFormat(td.in)
		if err != nil || f != td.want {
			t.Fatalf("ParseFormat(%q) = %v, %v", td.in, f, err)
		}
	}
	if _, err := frameio.ParseFormat("gif"); err == nil {
		t.Fatal("unknown format accepted")
	}
	if f, err := frameio.FormatOf("dir/frame_0001.ppm"); err != nil || f != frameio.PPM {
		t.Fatalf("FormatOf = %v, %v", f, err)
	}
}

func TestEncode(t *testing.T) {
	img := testImage()
	t.Run("png", func(t *testing.T) {
		var b bytes.Buffer
		if err := frameio.Encode(&b, img, frameio.PNG); err != nil {
			t.Fatal(err)
		}
		dec, err := png.Decode(&b)
		if err != nil {
			t.Fatal(err)
		}
		sameImage(t, img, dec)
	})
	t.Run("bmp", func(t *testing.T) {
		var b bytes.Buffer
		if err := frameio.Encode(&b, img, frameio.BMP); err != nil {
			t.Fatal(err)
		}
		dec, err := bmp.Decode(&b)
		if err != nil {
			t.Fatal(err)
		}
		sameImage(t, img, dec)
	})
	t.Run("ppm", func(t *testing.T) {
		var b bytes.Buffer
		if err := frameio.Encode(&b, img, frameio.PPM); err != nil {
			t.Fatal(err)
		}
		hdr := "P6\n4 3\n255\n"
		if !bytes.HasPrefix(b.Bytes(), []byte(hdr)) || b.Len() != len(hdr)+4*3*3 {
			t.Fatalf("bad PPM output %q", b.Bytes())
		}
		px := b.Bytes()[len(hdr)+3*(1*4+2):]
		if px[0] != 120 || px[1] != 100 || px[2] != 7 {
			t.Fatalf("bad pixel % x", px[:3])
		}
	})
	t.Run("pgm", func(t *testing.T) {
		g := image.NewGray(image.Rect(0, 0, 2, 1))
		g.Pix[0], g.Pix[1] = 17, 255
		var b bytes.Buffer
		if err := frameio.Encode(&b, g, frameio.PGM); err != nil {
			t.Fatal(err)
		}
		if want := "P5\n2 1\n255\n\x11\xff"; b.String() != want {
			t.Fatalf("expected %q, got %q", want, b.String())
		}
	})
}

func TestScale(t *testing.T) {
	img := testImage()
	if frameio.Scale(img, 1) != image.Image(img) {
		t.Fatal("factor 1 should return the source image")
	}
	s := frameio.Scale(img, 3)
	if s.Bounds().Dx() != 12 || s.Bounds().Dy() != 9 {
		t.Fatalf("bad scaled size %v", s.Bounds())
	}
	for y := 0; y < 9; y++ {
		for x := 0; x < 12; x++ {
			r1, g1, b1, _ := s.At(x, y).RGBA()
			r2, g2, b2, _ := img.At(x/3, y/3).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 {
				t.Fatalf("scaled pixel %d,%d differs", x, y)
			}
		}
	}
}

func TestScreen5(t *testing.T) {
	vram := make([]byte, 1<<17)
	vram[0] = 0x1f
	vram[128] = 0xa0
	g, err := frameio.Screen5Gray(vram, 0)
	if err != nil {
		t.Fatal(err)
	}
	if g.Bounds().Dx() != frameio.Screen5Width || g.Bounds().Dy() != frameio.Screen5Height {
		t.Fatalf("bad size %v", g.Bounds())
	}
	for _, td := range []struct{ x, y, want int }{
		{0, 0, 17}, {1, 0, 255}, {2, 0, 0}, {0, 1, 170}, {1, 1, 0},
	} {
		if v := g.GrayAt(td.x, td.y).Y; int(v) != td.want {
			t.Fatalf("pixel %d,%d: expected %d, got %d", td.x, td.y, td.want, v)
		}
	}
	var pal [16][3]uint8
	pal[1] = [3]uint8{1, 2, 3}
	img, err := frameio.Screen5(vram, 0, pal)
	if err != nil {
		t.Fatal(err)
	}
	if c := img.NRGBAAt(0, 0); c.R != 1 || c.G != 2 || c.B != 3 || c.A != 0xff {
		t.Fatalf("bad color %v", c)
	}
	if _, err = frameio.Screen5Gray(vram[:1000], 0); err == nil {
		t.Fatal("short VRAM accepted")
	}
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	s := &frameio.DirSink{Dir: dir, Prefix: "f", Format: frameio.PNG, Scale: 2, Max: 2}
	for i := 0; i < 3; i++ {
		if err := s.Frame(&cosim.Frame{Number: i, Image: testImage()}); err != nil {
			t.Fatal(err)
		}
	}
	if s.Written() != 2 {
		t.Fatalf("expected 2 files, got %d", s.Written())
	}
	f, err := os.Open(filepath.Join(dir, "f_0001.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("bad image size %v", img.Bounds())
	}
	if _, err = os.Stat(filepath.Join(dir, "f_0002.png")); !os.IsNotExist(err) {
		t.Fatal("frame past the limit written")
	}

	bad := &frameio.DirSink{Dir: filepath.Join(dir, "missing"), Prefix: "f"}
	if err = bad.Frame(&cosim.Frame{Image: testImage()}); err == nil {
		t.Fatal("write to a missing directory succeeded")
	}
}
