package keys

import (
	"bytes"
	"testing"

	"github.com/matzehuels/storybox/pkg/errors"
)

const deviceHex = "0a7abd91a94054a76c9dd4bbe3c0dce0"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain", deviceHex, false},
		{"prefixed", "0x" + deviceHex, false},
		{"padded", "  " + deviceHex + "\n", false},
		{"short", "0a7abd91", true},
		{"not hex", "zz7abd91a94054a76c9dd4bbe3c0dce0", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeKey) {
				t.Errorf("code = %s, want KEY", errors.GetCode(err))
			}
			if err == nil && len(k) != 16 {
				t.Errorf("len = %d", len(k))
			}
		})
	}
}

func TestStatic(t *testing.T) {
	packHex := "00112233445566778899aabbccddeeff"
	s, err := NewStatic(deviceHex, map[string]string{"2643948d": packHex})
	if err != nil {
		t.Fatal(err)
	}

	own, err := s.PackKey("2643948D")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := Parse(packHex)
	if !bytes.Equal(own, want) {
		t.Errorf("pack key = %x, want %x", own, want)
	}

	fallback, err := s.PackKey("OTHER")
	if err != nil {
		t.Fatal(err)
	}
	dev, _ := Parse(deviceHex)
	if !bytes.Equal(fallback, dev) {
		t.Errorf("fallback = %x, want %x", fallback, dev)
	}

	fallback[0] ^= 0xff
	again, _ := s.PackKey("OTHER")
	if !bytes.Equal(again, dev) {
		t.Error("provider handed out its internal key slice")
	}
}

func TestStaticWithoutFallback(t *testing.T) {
	s, err := NewStatic("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.PackKey("X"); !errors.Is(err, errors.ErrCodeKey) {
		t.Errorf("err = %v, want KEY", err)
	}
}

func TestNewStaticRejectsBadKey(t *testing.T) {
	if _, err := NewStatic("", map[string]string{"A": "beef"}); !errors.Is(err, errors.ErrCodeKey) {
		t.Errorf("err = %v, want KEY", err)
	}
}
