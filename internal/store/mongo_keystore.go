package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cipherchat/internal/crypto/pemkey"
	"cipherchat/internal/domain"
)

const (
	identitiesCollection = "identities"
	importedCollection   = "imported_keys"
)

type identityDoc struct {
	Name          string    `bson:"_id"`
	PrivateKeyPEM string    `bson:"private_key_pem"`
	PublicKeyPEM  string    `bson:"public_key_pem"`
	KeySize       int       `bson:"key_size"`
	CreatedAt     time.Time `bson:"created_at"`
}

type importedDoc struct {
	ID           string    `bson:"_id"`
	Owner        string    `bson:"owner"`
	Peer         string    `bson:"peer"`
	PublicKeyPEM string    `bson:"public_key_pem"`
	ImportedAt   time.Time `bson:"imported_at"`
	Active       bool      `bson:"active"`
}

// MongoKeyStore keeps identities and imported keys in MongoDB. Each
// identity is a single document, so creation and deletion are atomic
// without extra locking; the unique _id rejects concurrent creates.
type MongoKeyStore struct {
	identities *mongo.Collection
	imported   *mongo.Collection
	passphrase string
}

// NewMongoKeyStore returns a MongoKeyStore over db. A non-empty passphrase
// encrypts private keys at rest.
func NewMongoKeyStore(db *mongo.Database, passphrase string) *MongoKeyStore {
	return &MongoKeyStore{
		identities: db.Collection(identitiesCollection),
		imported:   db.Collection(importedCollection),
		passphrase: passphrase,
	}
}

// EnsureIndexes creates the owner index used by ListImported and
// DeleteKeyPair.
func (s *MongoKeyStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.imported.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "peer", Value: 1}},
	})
	return err
}

func importedID(owner, peer domain.Username) string {
	return string(owner) + "/" + string(peer)
}

// CreateKeyPair inserts a new identity document; an existing one is never
// replaced.
func (s *MongoKeyStore) CreateKeyPair(ctx context.Context, kp domain.KeyPair) error {
	if err := checkName(kp.Username); err != nil {
		return err
	}
	if len(kp.PrivateKeyPEM) == 0 || len(kp.PublicKeyPEM) == 0 {
		return &domain.KeyError{Identity: kp.Username, Reason: "incomplete key pair"}
	}
	privatePEM, err := pemkey.Seal(kp.PrivateKeyPEM, s.passphrase)
	if err != nil {
		return &domain.KeyError{Identity: kp.Username, Reason: "encrypt private key", Err: err}
	}
	createdAt := kp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = s.identities.InsertOne(ctx, identityDoc{
		Name:          string(kp.Username),
		PrivateKeyPEM: string(privatePEM),
		PublicKeyPEM:  string(kp.PublicKeyPEM),
		KeySize:       kp.KeyBits,
		CreatedAt:     createdAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return &domain.KeyError{Identity: kp.Username, Reason: "create", Err: domain.ErrKeyExists}
	}
	if err != nil {
		return &domain.KeyError{Identity: kp.Username, Reason: "insert identity", Err: err}
	}
	return nil
}

func (s *MongoKeyStore) findIdentity(ctx context.Context, name domain.Username) (identityDoc, bool, error) {
	var doc identityDoc
	err := s.identities.FindOne(ctx, bson.M{"_id": string(name)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return identityDoc{}, false, nil
	}
	if err != nil {
		return identityDoc{}, false, &domain.KeyError{Identity: name, Reason: "find identity", Err: err}
	}
	return doc, true, nil
}

// LoadPrivateKey returns the key pair of name with an unencrypted private PEM.
func (s *MongoKeyStore) LoadPrivateKey(ctx context.Context, name domain.Username) (domain.KeyPair, bool, error) {
	doc, ok, err := s.findIdentity(ctx, name)
	if err != nil || !ok {
		return domain.KeyPair{}, false, err
	}
	privatePEM, err := pemkey.Open([]byte(doc.PrivateKeyPEM), s.passphrase)
	if err != nil {
		return domain.KeyPair{}, false, &domain.KeyError{Identity: name, Reason: "open private key", Err: err}
	}
	return domain.KeyPair{
		Username:      name,
		PrivateKeyPEM: privatePEM,
		PublicKeyPEM:  []byte(doc.PublicKeyPEM),
		KeyBits:       doc.KeySize,
		CreatedAt:     doc.CreatedAt,
	}, true, nil
}

// LoadPublicKey returns the public PEM of a local identity.
func (s *MongoKeyStore) LoadPublicKey(ctx context.Context, name domain.Username) ([]byte, bool, error) {
	doc, ok, err := s.findIdentity(ctx, name)
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(doc.PublicKeyPEM), true, nil
}

// Exists reports whether an identity document is present.
func (s *MongoKeyStore) Exists(ctx context.Context, name domain.Username) (bool, error) {
	n, err := s.identities.CountDocuments(ctx, bson.M{"_id": string(name)}, options.Count().SetLimit(1))
	if err != nil {
		return false, &domain.KeyError{Identity: name, Reason: "count identity", Err: err}
	}
	return n > 0, nil
}

// List returns all identity names, sorted.
func (s *MongoKeyStore) List(ctx context.Context) ([]domain.Username, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.identities.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []domain.Username
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domain.Username(doc.Name))
	}
	return out, cur.Err()
}

// DeleteKeyPair removes the identity document, then the keys it imported.
func (s *MongoKeyStore) DeleteKeyPair(ctx context.Context, name domain.Username) error {
	res, err := s.identities.DeleteOne(ctx, bson.M{"_id": string(name)})
	if err != nil {
		return &domain.KeyError{Identity: name, Reason: "delete identity", Err: err}
	}
	if res.DeletedCount == 0 {
		return &domain.KeyError{Identity: name, Reason: "delete", Err: domain.ErrKeyNotFound}
	}
	if _, err := s.imported.DeleteMany(ctx, bson.M{"owner": string(name)}); err != nil {
		return &domain.KeyError{Identity: name, Reason: "remove imported keys", Err: err}
	}
	return nil
}

// ImportPublicKey upserts owner's key for peer.
func (s *MongoKeyStore) ImportPublicKey(ctx context.Context, owner, peer domain.Username, publicKeyPEM []byte) error {
	if err := checkName(owner); err != nil {
		return err
	}
	if err := checkName(peer); err != nil {
		return err
	}
	if _, err := pemkey.CheckPublic(publicKeyPEM); err != nil {
		return &domain.KeyError{Identity: peer, Reason: "invalid public key", Err: err}
	}
	doc := importedDoc{
		ID:           importedID(owner, peer),
		Owner:        string(owner),
		Peer:         string(peer),
		PublicKeyPEM: string(publicKeyPEM),
		ImportedAt:   time.Now().UTC(),
		Active:       true,
	}
	_, err := s.imported.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &domain.KeyError{Identity: peer, Reason: "upsert imported key", Err: err}
	}
	return nil
}

// LoadImportedPublicKey returns the key owner imported for peer.
func (s *MongoKeyStore) LoadImportedPublicKey(
	ctx context.Context,
	owner domain.Username,
	peer domain.Username,
) (domain.ImportedPublicKey, bool, error) {
	var doc importedDoc
	err := s.imported.FindOne(ctx, bson.M{"_id": importedID(owner, peer)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ImportedPublicKey{}, false, nil
	}
	if err != nil {
		return domain.ImportedPublicKey{}, false, &domain.KeyError{Identity: peer, Reason: "find imported key", Err: err}
	}
	return doc.toDomain(), true, nil
}

// ListImported returns every peer key owner has imported, sorted by peer.
func (s *MongoKeyStore) ListImported(ctx context.Context, owner domain.Username) ([]domain.ImportedPublicKey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "peer", Value: 1}})
	cur, err := s.imported.Find(ctx, bson.M{"owner": string(owner)}, opts)
	if err != nil {
		return nil, &domain.KeyError{Identity: owner, Reason: "list imported keys", Err: err}
	}
	var docs []importedDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, &domain.KeyError{Identity: owner, Reason: "list imported keys", Err: err}
	}
	out := make([]domain.ImportedPublicKey, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (d importedDoc) toDomain() domain.ImportedPublicKey {
	return domain.ImportedPublicKey{
		Owner:        domain.Username(d.Owner),
		PeerName:     domain.Username(d.Peer),
		PublicKeyPEM: []byte(d.PublicKeyPEM),
		ImportedAt:   d.ImportedAt,
		Active:       d.Active,
	}
}

// Compile-time assertion that MongoKeyStore implements domain.KeyStore.
var _ domain.KeyStore = (*MongoKeyStore)(nil)
