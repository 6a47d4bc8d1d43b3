package service

// QRCodeService renders QR codes for the storage-connect handoff, so a user
// browsing the dashboard on desktop can finish the OAuth consent on a phone.
type QRCodeService interface {
	// GenerateConnectQR renders the authorization URL as a PNG QR code.
	GenerateConnectQR(authorizationURL string) ([]byte, error)
}
