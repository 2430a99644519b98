package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
)

const (
	importedDir = ".imported"

	dirMode     os.FileMode = 0o700
	privateMode os.FileMode = 0o600
	publicMode  os.FileMode = 0o644
)

// FileKeyStore persists key pairs under root:
//
//	<root>/<name>/<name>_private.pem
//	<root>/<name>/<name>_public.pem
//	<root>/<name>/<name>_metadata.json
//	<root>/.imported/<owner>/<peer>_public.pem
//
// Identity names never start with a dot, so the dotted entries cannot
// collide with an identity directory.
type FileKeyStore struct {
	root       string
	passphrase string
	locks      keyLocks
}

// NewFileKeyStore returns a FileKeyStore rooted at dir, creating it if
// needed. A non-empty passphrase encrypts private keys at rest.
func NewFileKeyStore(dir, passphrase string) (*FileKeyStore, error) {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("create keys dir: %w", err)
	}
	return &FileKeyStore{root: dir, passphrase: passphrase}, nil
}

// Root returns the keys directory.
func (s *FileKeyStore) Root() string { return s.root }

func (s *FileKeyStore) identityDir(name domain.Username) string {
	return filepath.Join(s.root, string(name))
}

func (s *FileKeyStore) privatePath(name domain.Username) string {
	return filepath.Join(s.identityDir(name), string(name)+"_private.pem")
}

func (s *FileKeyStore) publicPath(name domain.Username) string {
	return filepath.Join(s.identityDir(name), string(name)+"_public.pem")
}

func (s *FileKeyStore) metadataPath(name domain.Username) string {
	return filepath.Join(s.identityDir(name), string(name)+"_metadata.json")
}

func (s *FileKeyStore) importedPath(owner, peer domain.Username) string {
	return filepath.Join(s.root, importedDir, string(owner), string(peer)+"_public.pem")
}

// CreateKeyPair writes kp for a new identity. The files are assembled in a
// hidden staging directory and renamed into place, so a reader sees either
// no identity or a complete one. Existing keys are never overwritten.
func (s *FileKeyStore) CreateKeyPair(ctx context.Context, kp domain.KeyPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := kp.Username
	if err := checkName(name); err != nil {
		return err
	}
	if len(kp.PrivateKeyPEM) == 0 || len(kp.PublicKeyPEM) == 0 {
		return &domain.KeyError{Identity: name, Reason: "incomplete key pair"}
	}

	mu := s.locks.get(string(name))
	mu.Lock()
	defer mu.Unlock()

	ok, err := exists(s.identityDir(name))
	if err != nil {
		return &domain.KeyError{Identity: name, Reason: "stat identity", Err: err}
	}
	if ok {
		return &domain.KeyError{Identity: name, Reason: "create", Err: domain.ErrKeyExists}
	}

	privatePEM, err := pemkey.Seal(kp.PrivateKeyPEM, s.passphrase)
	if err != nil {
		return &domain.KeyError{Identity: name, Reason: "encrypt private key", Err: err}
	}

	staging, err := os.MkdirTemp(s.root, "."+string(name)+".new-*")
	if err != nil {
		return &domain.KeyError{Identity: name, Reason: "create staging dir", Err: err}
	}
	defer func() { _ = os.RemoveAll(staging) }()
	if err := os.Chmod(staging, dirMode); err != nil {
		return &domain.KeyError{Identity: name, Reason: "create staging dir", Err: err}
	}

	createdAt := kp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	meta := domain.KeyMetadata{
		Username:       name,
		PrivateKeyFile: string(name) + "_private.pem",
		PublicKeyFile:  string(name) + "_public.pem",
		KeySize:        kp.KeyBits,
		CreatedAt:      createdAt,
	}
	if err := writeFile(filepath.Join(staging, meta.PrivateKeyFile), privatePEM, privateMode); err != nil {
		return &domain.KeyError{Identity: name, Reason: "write private key", Err: err}
	}
	if err := writeFile(filepath.Join(staging, meta.PublicKeyFile), kp.PublicKeyPEM, publicMode); err != nil {
		return &domain.KeyError{Identity: name, Reason: "write public key", Err: err}
	}
	if err := writeJSON(filepath.Join(staging, string(name)+"_metadata.json"), meta, publicMode); err != nil {
		return &domain.KeyError{Identity: name, Reason: "write metadata", Err: err}
	}

	// Rename fails if another process created the directory meanwhile.
	if err := os.Rename(staging, s.identityDir(name)); err != nil {
		if ok, _ := exists(s.identityDir(name)); ok {
			return &domain.KeyError{Identity: name, Reason: "create", Err: domain.ErrKeyExists}
		}
		return &domain.KeyError{Identity: name, Reason: "commit identity", Err: err}
	}
	return nil
}

// LoadPrivateKey returns the key pair of name with an unencrypted private
// PEM. ok is false when the identity has no private key.
func (s *FileKeyStore) LoadPrivateKey(ctx context.Context, name domain.Username) (domain.KeyPair, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.KeyPair{}, false, err
	}
	if checkName(name) != nil {
		return domain.KeyPair{}, false, nil
	}
	mu := s.locks.get(string(name))
	mu.RLock()
	defer mu.RUnlock()

	raw, err := readFile(s.privatePath(name))
	if err != nil {
		return domain.KeyPair{}, false, &domain.KeyError{Identity: name, Reason: "read private key", Err: err}
	}
	if raw == nil {
		return domain.KeyPair{}, false, nil
	}
	privatePEM, err := pemkey.Open(raw, s.passphrase)
	if err != nil {
		return domain.KeyPair{}, false, &domain.KeyError{Identity: name, Reason: "open private key", Err: err}
	}
	publicPEM, err := readFile(s.publicPath(name))
	if err != nil {
		return domain.KeyPair{}, false, &domain.KeyError{Identity: name, Reason: "read public key", Err: err}
	}
	var meta domain.KeyMetadata
	if err := readJSON(s.metadataPath(name), &meta); err != nil {
		return domain.KeyPair{}, false, &domain.KeyError{Identity: name, Reason: "read metadata", Err: err}
	}
	return domain.KeyPair{
		Username:      name,
		PrivateKeyPEM: privatePEM,
		PublicKeyPEM:  publicPEM,
		KeyBits:       meta.KeySize,
		CreatedAt:     meta.CreatedAt,
	}, true, nil
}

// LoadPublicKey returns the public PEM of a local identity.
func (s *FileKeyStore) LoadPublicKey(ctx context.Context, name domain.Username) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if checkName(name) != nil {
		return nil, false, nil
	}
	mu := s.locks.get(string(name))
	mu.RLock()
	defer mu.RUnlock()

	b, err := readFile(s.publicPath(name))
	if err != nil {
		return nil, false, &domain.KeyError{Identity: name, Reason: "read public key", Err: err}
	}
	return b, b != nil, nil
}

// Exists reports whether both key files of name are present.
func (s *FileKeyStore) Exists(ctx context.Context, name domain.Username) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if checkName(name) != nil {
		return false, nil
	}
	mu := s.locks.get(string(name))
	mu.RLock()
	defer mu.RUnlock()
	return s.existsLocked(name)
}

func (s *FileKeyStore) existsLocked(name domain.Username) (bool, error) {
	priv, err := exists(s.privatePath(name))
	if err != nil || !priv {
		return false, err
	}
	return exists(s.publicPath(name))
}

// List returns the identities that have a complete key pair, sorted.
func (s *FileKeyStore) List(ctx context.Context) ([]domain.Username, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list keys dir: %w", err)
	}
	var out []domain.Username
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := domain.Username(e.Name())
		ok, err := s.Exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// DeleteKeyPair removes the identity's key files and the public keys it has
// imported. The identity directory is first renamed to a hidden tombstone,
// so lookups never observe a partial deletion.
func (s *FileKeyStore) DeleteKeyPair(ctx context.Context, name domain.Username) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	mu := s.locks.get(string(name))
	mu.Lock()
	defer mu.Unlock()

	dir := s.identityDir(name)
	ok, err := exists(dir)
	if err != nil {
		return &domain.KeyError{Identity: name, Reason: "stat identity", Err: err}
	}
	if !ok {
		return &domain.KeyError{Identity: name, Reason: "delete", Err: domain.ErrKeyNotFound}
	}

	tomb := filepath.Join(s.root, fmt.Sprintf(".%s.deleted-%d", name, time.Now().UnixNano()))
	if err := os.Rename(dir, tomb); err != nil {
		return &domain.KeyError{Identity: name, Reason: "delete", Err: err}
	}
	if err := os.RemoveAll(tomb); err != nil {
		return &domain.KeyError{Identity: name, Reason: "remove tombstone", Err: err}
	}

	imu := s.locks.get(importedDir + "/" + string(name))
	imu.Lock()
	defer imu.Unlock()
	if err := os.RemoveAll(filepath.Join(s.root, importedDir, string(name))); err != nil {
		return &domain.KeyError{Identity: name, Reason: "remove imported keys", Err: err}
	}
	return nil
}

// ImportPublicKey stores a peer public key for owner, replacing any earlier
// import for the same peer. The material must be an RSA SubjectPublicKeyInfo
// PEM of at least pemkey.MinRSABits.
func (s *FileKeyStore) ImportPublicKey(ctx context.Context, owner, peer domain.Username, publicKeyPEM []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName(owner); err != nil {
		return err
	}
	if err := checkName(peer); err != nil {
		return err
	}
	if _, err := pemkey.CheckPublic(publicKeyPEM); err != nil {
		return &domain.KeyError{Identity: peer, Reason: "invalid public key", Err: err}
	}

	mu := s.locks.get(importedDir + "/" + string(owner))
	mu.Lock()
	defer mu.Unlock()

	path := s.importedPath(owner, peer)
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return &domain.KeyError{Identity: peer, Reason: "create import dir", Err: err}
	}
	if err := writeFile(path, publicKeyPEM, publicMode); err != nil {
		return &domain.KeyError{Identity: peer, Reason: "write imported key", Err: err}
	}
	return nil
}

// LoadImportedPublicKey returns the key owner imported for peer.
func (s *FileKeyStore) LoadImportedPublicKey(
	ctx context.Context,
	owner domain.Username,
	peer domain.Username,
) (domain.ImportedPublicKey, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.ImportedPublicKey{}, false, err
	}
	if checkName(owner) != nil || checkName(peer) != nil {
		return domain.ImportedPublicKey{}, false, nil
	}
	mu := s.locks.get(importedDir + "/" + string(owner))
	mu.RLock()
	defer mu.RUnlock()
	return s.loadImported(owner, peer, s.importedPath(owner, peer))
}

func (s *FileKeyStore) loadImported(owner, peer domain.Username, path string) (domain.ImportedPublicKey, bool, error) {
	b, err := readFile(path)
	if err != nil {
		return domain.ImportedPublicKey{}, false, &domain.KeyError{Identity: peer, Reason: "read imported key", Err: err}
	}
	if b == nil {
		return domain.ImportedPublicKey{}, false, nil
	}
	var importedAt time.Time
	if fi, err := os.Stat(path); err == nil {
		importedAt = fi.ModTime().UTC()
	}
	return domain.ImportedPublicKey{
		Owner:        owner,
		PeerName:     peer,
		PublicKeyPEM: b,
		ImportedAt:   importedAt,
		Active:       true,
	}, true, nil
}

// ListImported returns every peer key owner has imported, sorted by peer.
func (s *FileKeyStore) ListImported(ctx context.Context, owner domain.Username) ([]domain.ImportedPublicKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkName(owner); err != nil {
		return nil, err
	}
	mu := s.locks.get(importedDir + "/" + string(owner))
	mu.RLock()
	defer mu.RUnlock()

	dir := filepath.Join(s.root, importedDir, string(owner))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.KeyError{Identity: owner, Reason: "list imported keys", Err: err}
	}
	var out []domain.ImportedPublicKey
	for _, e := range entries {
		peer, ok := strings.CutSuffix(e.Name(), "_public.pem")
		if e.IsDir() || !ok || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		k, found, err := s.loadImported(owner, domain.Username(peer), filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerName < out[j].PeerName })
	return out, nil
}

// checkName rejects names that would escape the keys directory. Full
// naming rules are enforced by the security validator before the store is
// reached.
func checkName(name domain.Username) error {
	n := string(name)
	if n == "" || strings.HasPrefix(n, ".") || strings.ContainsAny(n, `/\`) || strings.Contains(n, "..") {
		return &domain.ValidationError{Field: "identity", Reason: fmt.Sprintf("unusable name %q", n)}
	}
	return nil
}

// Compile-time assertion that FileKeyStore implements domain.KeyStore.
var _ domain.KeyStore = (*FileKeyStore)(nil)
