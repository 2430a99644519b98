package types

import "time"

// KeyPair is an RSA identity key pair in PEM form.
//
// PrivateKeyPEM is an unencrypted PKCS#8 "PRIVATE KEY" block once loaded;
// PublicKeyPEM is a SubjectPublicKeyInfo "PUBLIC KEY" block.
type KeyPair struct {
	Username      Username  `json:"username"`
	PrivateKeyPEM []byte    `json:"-"`
	PublicKeyPEM  []byte    `json:"public_key"`
	KeyBits       int       `json:"key_size"`
	CreatedAt     time.Time `json:"created_at"`
}

// ImportedPublicKey is a peer public key held in an owner's key store.
type ImportedPublicKey struct {
	Owner        Username  `json:"owner"`
	PeerName     Username  `json:"peer_name"`
	PublicKeyPEM []byte    `json:"public_key"`
	ImportedAt   time.Time `json:"imported_at"`
	Active       bool      `json:"active"`
}

// KeyMetadata is the sidecar record written next to an identity's PEM files.
type KeyMetadata struct {
	Username       Username  `json:"username" bson:"username"`
	PrivateKeyFile string    `json:"private_key_file" bson:"private_key_file"`
	PublicKeyFile  string    `json:"public_key_file" bson:"public_key_file"`
	KeySize        int       `json:"key_size" bson:"key_size"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}
