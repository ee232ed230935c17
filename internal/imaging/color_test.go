package imaging

import (
	"image"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		hex     string
		wantR   uint8
		wantG   uint8
		wantB   uint8
		wantErr bool
	}{
		{"#FF0000", 255, 0, 0, false},
		{"#00ff00", 0, 255, 0, false},
		{"0000FF", 0, 0, 255, false}, // without #
		{"#d7191c", 0xd7, 0x19, 0x1c, false},
		{"", 0, 0, 0, true},
		{"#GGGGGG", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			c, err := ParseHexColor(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			r, g, b := c.RGB255()
			if r != tt.wantR || g != tt.wantG || b != tt.wantB {
				t.Errorf("got (%d,%d,%d), want (%d,%d,%d)", r, g, b, tt.wantR, tt.wantG, tt.wantB)
			}
		})
	}
}

func TestColorize_Endpoints(t *testing.T) {
	low, err := ParseHexColor("#000000")
	if err != nil {
		t.Fatalf("ParseHexColor failed: %v", err)
	}
	high, err := ParseHexColor("#ffffff")
	if err != nil {
		t.Fatalf("ParseHexColor failed: %v", err)
	}

	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0], img.Pix[1] = 0, 255

	out := Colorize(img, NewPalette(low, high))
	if out.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds: got %v", out.Bounds())
	}

	if p := out.Pix[0:4]; p[0] != 0 || p[1] != 0 || p[2] != 0 || p[3] != 255 {
		t.Errorf("low pixel: got %v, want [0 0 0 255]", p)
	}
	if p := out.Pix[4:8]; p[0] != 255 || p[1] != 255 || p[2] != 255 || p[3] != 255 {
		t.Errorf("high pixel: got %v, want [255 255 255 255]", p)
	}
}

func TestNewPalette_DefaultsParse(t *testing.T) {
	for _, hex := range []string{DefaultLowColor, DefaultHighColor} {
		if _, err := ParseHexColor(hex); err != nil {
			t.Errorf("default color %s: %v", hex, err)
		}
	}
}
