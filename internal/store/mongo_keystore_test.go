package store_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cipherchat/internal/domain"
	"cipherchat/internal/store"
)

func newMongoStore(t *testing.T) *store.MongoKeyStore {
	t.Helper()
	uri := os.Getenv("CIPHERCHAT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CIPHERCHAT_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database(fmt.Sprintf("cipherchat_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	s := store.NewMongoKeyStore(db, "")
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return s
}

func TestMongoKeyStore_Lifecycle(t *testing.T) {
	s := newMongoStore(t)
	ctx := context.Background()

	kp := keyPair(t, "alice", 0)
	if err := s.CreateKeyPair(ctx, kp); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateKeyPair(ctx, keyPair(t, "alice", 1)); !errors.Is(err, domain.ErrKeyExists) {
		t.Fatalf("duplicate: want ErrKeyExists, got %v", err)
	}
	got, ok, err := s.LoadPrivateKey(ctx, "alice")
	if err != nil || !ok || !bytes.Equal(got.PrivateKeyPEM, kp.PrivateKeyPEM) {
		t.Fatalf("load private: ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.LoadPublicKey(ctx, "nobody"); ok || err != nil {
		t.Fatalf("absent: ok=%v err=%v", ok, err)
	}

	p := testPairs(t)
	if err := s.ImportPublicKey(ctx, "alice", "bob", p[0].pub); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := s.ImportPublicKey(ctx, "alice", "bob", p[1].pub); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	imp, ok, err := s.LoadImportedPublicKey(ctx, "alice", "bob")
	if err != nil || !ok || !bytes.Equal(imp.PublicKeyPEM, p[1].pub) {
		t.Fatalf("imported: ok=%v err=%v", ok, err)
	}

	names, err := s.List(ctx)
	if err != nil || len(names) != 1 || names[0] != "alice" {
		t.Fatalf("list = %v, %v", names, err)
	}

	if err := s.DeleteKeyPair(ctx, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := s.Exists(ctx, "alice"); ok {
		t.Fatal("alice still exists")
	}
	if all, _ := s.ListImported(ctx, "alice"); len(all) != 0 {
		t.Fatalf("imported keys survived: %v", all)
	}
	if err := s.DeleteKeyPair(ctx, "alice"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}
