package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	mandel "github.com/marben/mandel_engine"
)

func TestGray(t *testing.T) {
	g := mandel.NewGrid(3, 2)
	g.Cells[0] = 0 // x=0, lowest imaginary row

	img := Gray(g)
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("bounds = %v", b)
	}
	// lowest imaginary row is drawn at the bottom
	if got := img.GrayAt(0, 1).Y; got != nonMemberShade {
		t.Fatalf("escaped cell shade = %#x", got)
	}
	if got := img.GrayAt(0, 0).Y; got != memberShade {
		t.Fatalf("member cell shade = %#x", got)
	}
}

func TestScale(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(1, 0, color.Gray{Y: 0xff})

	dst := Scale(src, 3)
	if b := dst.Bounds(); b.Dx() != 6 || b.Dy() != 3 {
		t.Fatalf("bounds = %v", b)
	}
	for y := range 3 {
		for x := range 6 {
			want := uint8(0)
			if x >= 3 {
				want = 0xff
			}
			if got := dst.RGBAAt(x, y).R; got != want {
				t.Fatalf("pixel (%d, %d) = %#x, want %#x", x, y, got, want)
			}
		}
	}

	if b := Scale(src, 0).Bounds(); b.Dx() != 2 {
		t.Fatalf("factor 0 bounds = %v", b)
	}
}

func TestCaption(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	Caption(img, "")
	if img.RGBAAt(5, 35).A != 0 {
		t.Fatal("empty caption drew something")
	}

	Caption(img, "n=20")
	if img.RGBAAt(119, 39).A == 0 {
		t.Fatal("caption strip not drawn")
	}
	if img.RGBAAt(60, 5).A != 0 {
		t.Fatal("caption drew outside its strip")
	}
}

func TestWritePNG(t *testing.T) {
	g := mandel.NewGrid(10, 4)
	var buf bytes.Buffer
	if err := WritePNG(&buf, g, Options{Scale: 4, Caption: "test"}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 16 {
		t.Fatalf("bounds = %v", b)
	}
}
