package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	keyBits         = 2048
	receiptLocation = "ethos"
	dateLayout      = "2006-01-02 15:04:05"
)

// CardOptions configures NewIdentityCard.
type CardOptions struct {
	Name        string
	Password    string
	Level       Level
	Responsible string // Name of the advisor or individual answering for this card
	KeyDir      string // Defaults to "keys"
	BcryptCost  int    // Defaults to bcrypt.DefaultCost
}

// IdentityCard is a named holder of a clearance level with its own RSA key pair.
type IdentityCard struct {
	Name        string
	Level       Level
	Responsible string

	passwordHash []byte
	privateKey   *rsa.PrivateKey
}

// NewIdentityCard hashes the password and loads the card's key pair from
// KeyDir, generating and storing one if either PEM file is missing.
func NewIdentityCard(opts CardOptions) (*IdentityCard, error) {
	if opts.Name == "" {
		return nil, errors.New("identity card name cannot be empty")
	}
	if opts.Level == 0 {
		opts.Level = LevelLow
	}
	if opts.KeyDir == "" {
		opts.KeyDir = "keys"
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	key, err := loadOrGenerateKey(opts.KeyDir, opts.Name)
	if err != nil {
		return nil, err
	}

	return &IdentityCard{
		Name:         opts.Name,
		Level:        opts.Level,
		Responsible:  opts.Responsible,
		passwordHash: hash,
		privateKey:   key,
	}, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// KeyPaths returns the private and public PEM paths for a card name.
func KeyPaths(keyDir, name string) (private, public string) {
	base := unsafeFileChars.ReplaceAllString(name, "_")
	return filepath.Join(keyDir, base+"_private_key.pem"), filepath.Join(keyDir, base+"_public_key.pem")
}

func loadOrGenerateKey(keyDir, name string) (*rsa.PrivateKey, error) {
	privPath, pubPath := KeyPaths(keyDir, name)

	_, privErr := os.Stat(privPath)
	_, pubErr := os.Stat(pubPath)
	if privErr == nil && pubErr == nil {
		data, err := os.ReadFile(privPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		block, _ := pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("no PEM block in %s", privPath)
		}
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key %s: %w", privPath, err)
		}
		return key, nil
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	if err := os.MkdirAll(keyDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write private key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write public key: %w", err)
	}
	return key, nil
}

// PublicKey returns the card's public key.
func (c *IdentityCard) PublicKey() *rsa.PublicKey {
	return &c.privateKey.PublicKey
}

// VerifyPassword reports whether password matches the card's hash.
func (c *IdentityCard) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
}

// CheckSecurity verifies password first, then clearance.
func (c *IdentityCard) CheckSecurity(required Level, password string) error {
	if !c.VerifyPassword(password) {
		return &AccessError{Message: MsgInvalidPassword, Required: required, Current: c.Level}
	}
	if !c.Level.Covers(required) {
		return &AccessError{Message: MsgClearanceMissing, Required: required, Current: c.Level}
	}
	return nil
}

// Receipt is the content of a signed message.
type Receipt struct {
	Message  string `json:"message"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Signer   string `json:"signer"`
}

type receiptClaims struct {
	jwt.RegisteredClaims
	Receipt
}

// SignMessage issues an RS256 token carrying msg with location, date and signer.
func (c *IdentityCard) SignMessage(msg string) (string, error) {
	now := time.Now()
	claims := receiptClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   c.Name,
			Subject:  c.Name,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Receipt: Receipt{
			Message:  msg,
			Location: receiptLocation,
			Date:     now.Format(dateLayout),
			Signer:   "Signed by " + c.Name,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	return token, nil
}

// VerifySignature checks a token issued by this card and returns its receipt.
func (c *IdentityCard) VerifySignature(token string) (*Receipt, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	claims := &receiptClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.PublicKey(), nil
	})
	if err != nil {
		return nil, &AccessError{Message: fmt.Sprintf("invalid signature: %v", err)}
	}
	if !parsed.Valid {
		return nil, &AccessError{Message: "invalid signature"}
	}
	return &claims.Receipt, nil
}

func (c *IdentityCard) String() string {
	return fmt.Sprintf("IdentityCard(name=%s, level=%s, responsible=%s)", c.Name, c.Level, c.Responsible)
}
