// Package qrcode renders QR codes for the storage-connect handoff.
package qrcode

import (
	"fmt"
	"net/url"

	"briefly/internal/domain/service"

	"github.com/skip2/go-qrcode"
)

type qrcodeService struct {
	size                 int
	errorCorrectionLevel qrcode.RecoveryLevel
}

// NewQRCodeService creates a new QR code service instance
func NewQRCodeService(size int, errorCorrectionLevel string) service.QRCodeService {
	// Set error correction level
	var level qrcode.RecoveryLevel
	switch errorCorrectionLevel {
	case "L":
		level = qrcode.Low
	case "M":
		level = qrcode.Medium
	case "Q":
		level = qrcode.High
	case "H":
		level = qrcode.Highest
	default:
		level = qrcode.Medium
	}

	return &qrcodeService{
		size:                 size,
		errorCorrectionLevel: level,
	}
}

// GenerateConnectQR renders the provider authorization URL as a PNG QR code,
// letting a desktop user finish the consent screen on a phone.
func (s *qrcodeService) GenerateConnectQR(authorizationURL string) ([]byte, error) {
	parsed, err := url.Parse(authorizationURL)
	if err != nil {
		return nil, fmt.Errorf("invalid authorization URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("authorization URL must be https, got %q", parsed.Scheme)
	}

	qrCode, err := qrcode.New(authorizationURL, s.errorCorrectionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	pngBytes, err := qrCode.PNG(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}

	return pngBytes, nil
}
