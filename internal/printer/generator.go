package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// SheetConfig holds everything printed on a pairing sheet
type SheetConfig struct {
	DeviceName     string    `json:"deviceName"`
	DeviceLocation string    `json:"deviceLocation"`
	RedemptionLink string    `json:"redemptionLink"`
	ShortCode      string    `json:"shortCode"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// GeneratePairingQR renders the redemption link as a scannable PNG
func GeneratePairingQR(redemptionLink string) ([]byte, error) {
	return qrcode.Encode(redemptionLink, qrcode.Medium, 512)
}

// GeneratePairingSheetPDF creates the printable handout taped next to a
// terminal: QR code for camera pairing, short code for manual entry and
// the expiry deadline.
func GeneratePairingSheetPDF(cfg SheetConfig) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageWidth := 210.0

	// Header
	pdf.SetFont("Arial", "B", 22)
	pdf.SetXY(0, 20)
	pdf.CellFormat(pageWidth, 12, "Terminal Pairing", "", 0, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.SetXY(0, 34)
	title := cfg.DeviceName
	if cfg.DeviceLocation != "" {
		title = fmt.Sprintf("%s (%s)", cfg.DeviceName, cfg.DeviceLocation)
	}
	pdf.CellFormat(pageWidth, 8, title, "", 0, "C", false, 0, "")

	// QR code, centered
	qrPng, err := qrcode.Encode(cfg.RedemptionLink, qrcode.Medium, 512)
	if err != nil {
		return nil, err
	}

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	reader := bytes.NewReader(qrPng)
	_ = pdf.RegisterImageOptionsReader("pairing_qr", imgOptions, reader)

	qrSize := 90.0
	qrX := (pageWidth - qrSize) / 2
	pdf.ImageOptions("pairing_qr", qrX, 50, qrSize, qrSize, false, imgOptions, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.SetXY(0, 144)
	pdf.CellFormat(pageWidth, 6, "Scan with the terminal camera to pair", "", 0, "C", false, 0, "")

	// Manual fallback
	pdf.SetFont("Arial", "", 12)
	pdf.SetXY(0, 164)
	pdf.CellFormat(pageWidth, 6, "No camera? Enter this code on the terminal:", "", 0, "C", false, 0, "")

	pdf.SetFont("Courier", "B", 34)
	pdf.SetXY(0, 174)
	pdf.CellFormat(pageWidth, 16, cfg.ShortCode, "", 0, "C", false, 0, "")

	// Expiry
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(0, 200)
	pdf.CellFormat(pageWidth, 6,
		fmt.Sprintf("Valid until %s", cfg.ExpiresAt.Local().Format("15:04, 2 Jan 2006")),
		"", 0, "C", false, 0, "")
	pdf.SetXY(0, 207)
	pdf.CellFormat(pageWidth, 6, "Codes are single use. Reprint from the admin panel if expired.", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
