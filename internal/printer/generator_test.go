package printer

import (
	"bytes"
	"testing"
	"time"
)

func TestGeneratePairingQR(t *testing.T) {
	png, err := GeneratePairingQR("https://pos.clubnova.example/pos-terminal/pair?p=token")
	if err != nil {
		t.Fatalf("Failed to render QR: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("Output should be a PNG image")
	}
}

func TestGeneratePairingSheetPDF(t *testing.T) {
	pdf, err := GeneratePairingSheetPDF(SheetConfig{
		DeviceName:     "Main Bar Left",
		DeviceLocation: "main bar",
		RedemptionLink: "https://pos.clubnova.example/pos-terminal/pair?p=token",
		ShortCode:      "381-204",
		ExpiresAt:      time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Failed to render sheet: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("Output should be a PDF document")
	}
}
