package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	noncePrefix = "nonce:"
	nonceTTL    = 5 * time.Minute
)

var (
	ErrNonceNotFound    = errors.New("nonce not found or expired")
	ErrInvalidSignature = errors.New("invalid signature")
)

// NonceStore keeps one pending login nonce per address
type NonceStore interface {
	SetNonce(ctx context.Context, addr common.Address, nonce string) error
	// GetAndDelNonce returns the nonce and removes it, so it can be used once
	GetAndDelNonce(ctx context.Context, addr common.Address) (string, error)
}

// RedisNonceStore keeps nonces in redis with a TTL
type RedisNonceStore struct {
	rdb *redis.Client
}

func NewRedisNonceStore(rdb *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{rdb: rdb}
}

func (s *RedisNonceStore) SetNonce(ctx context.Context, addr common.Address, nonce string) error {
	return s.rdb.Set(ctx, noncePrefix+addr.Hex(), nonce, nonceTTL).Err()
}

func (s *RedisNonceStore) GetAndDelNonce(ctx context.Context, addr common.Address) (string, error) {
	nonce, err := s.rdb.GetDel(ctx, noncePrefix+addr.Hex()).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNonceNotFound
	}
	return nonce, err
}

type memoryNonce struct {
	value   string
	expires time.Time
}

// MemoryNonceStore keeps nonces in process memory
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[common.Address]memoryNonce
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{nonces: make(map[common.Address]memoryNonce)}
}

func (s *MemoryNonceStore) SetNonce(_ context.Context, addr common.Address, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[addr] = memoryNonce{value: nonce, expires: time.Now().Add(nonceTTL)}
	return nil
}

func (s *MemoryNonceStore) GetAndDelNonce(_ context.Context, addr common.Address) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nonces[addr]
	delete(s.nonces, addr)
	if !ok || time.Now().After(n.expires) {
		return "", ErrNonceNotFound
	}
	return n.value, nil
}

// LoginMessage is the text a wallet signs to log in
func LoginMessage(nonce string) string {
	return "Sign in to Grant Governance: " + nonce
}

// IssueChallenge creates and stores a fresh nonce for addr
func IssueChallenge(ctx context.Context, store NonceStore, addr common.Address) (string, error) {
	nonce := uuid.NewString()
	if err := store.SetNonce(ctx, addr, nonce); err != nil {
		return "", fmt.Errorf("failed to store nonce: %w", err)
	}
	return nonce, nil
}

// VerifyChallenge consumes the nonce of addr and checks that signature is
// addr's personal_sign signature over the login message
func VerifyChallenge(ctx context.Context, store NonceStore, addr common.Address, signature string) error {
	nonce, err := store.GetAndDelNonce(ctx, addr)
	if err != nil {
		return err
	}
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	signer, err := RecoverSigner([]byte(LoginMessage(nonce)), sig)
	if err != nil {
		return err
	}
	if signer != addr {
		return ErrInvalidSignature
	}
	return nil
}

// RecoverSigner recovers the address behind an EIP-191 personal message
// signature. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverSigner(message, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}
