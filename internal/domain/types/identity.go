package types

// IdentityInfo summarises a stored identity for listings.
type IdentityInfo struct {
	Username    Username    `json:"username"`
	Fingerprint Fingerprint `json:"fingerprint"`
	KeyBits     int         `json:"key_size"`
}
