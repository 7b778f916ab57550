package domain

import (
	"errors"
	"testing"
)

func TestNewAsset(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		mime    string
		wantErr error
	}{
		{
			name: "png accepted",
			data: []byte{0x89, 0x50, 0x4e, 0x47},
			mime: "image/png",
		},
		{
			name: "jpeg with charset parameter accepted",
			data: []byte{0xff, 0xd8},
			mime: "image/jpeg; charset=binary",
		},
		{
			name: "mixed case webp accepted",
			data: []byte{0x52, 0x49},
			mime: "Image/WebP",
		},
		{
			name:    "empty payload rejected",
			data:    nil,
			mime:    "image/png",
			wantErr: ErrEmptyAsset,
		},
		{
			name:    "gif rejected",
			data:    []byte{0x47, 0x49, 0x46},
			mime:    "image/gif",
			wantErr: ErrUnsupportedMIME,
		},
		{
			name:    "missing mime rejected",
			data:    []byte{0x01},
			mime:    "",
			wantErr: ErrUnsupportedMIME,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			asset, err := NewAsset("a-1", tc.data, tc.mime)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("NewAsset() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAsset() error = %v", err)
			}
			if asset.MIME != NormalizeMIME(tc.mime) {
				t.Fatalf("MIME = %q, want normalized %q", asset.MIME, NormalizeMIME(tc.mime))
			}
			if asset.ID != "a-1" {
				t.Fatalf("ID = %q, want %q", asset.ID, "a-1")
			}
		})
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		in     string
		want   Slot
		wantOK bool
	}{
		{"garment", SlotGarment, true},
		{"subject", SlotSubject, true},
		{"GARMENT", SlotGarment, true},
		{"model", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseSlot(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("ParseSlot(%q) = %q, %v, want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
