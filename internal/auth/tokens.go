// Package auth 提供后台管理员的令牌签发与口令哈希。
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 令牌类型，写在 token_type 声明里。
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims 是后台令牌携带的声明。刷新令牌带 jti，用于吊销。
type Claims struct {
	UserID             uint   `json:"user_id"`
	TokenType          string `json:"token_type"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
	jwt.RegisteredClaims
}

// Remaining 返回令牌剩余有效期，已过期或没有 exp 时返回 fallback。
func (c *Claims) Remaining(now time.Time, fallback time.Duration) time.Duration {
	if c.ExpiresAt == nil {
		return fallback
	}
	if left := c.ExpiresAt.Time.Sub(now); left > 0 {
		return left
	}
	return fallback
}

// TokenPair 是一次登录签发的访问令牌与刷新令牌。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer 用 RS256 签发并校验后台令牌。
type Issuer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer 解析 PEM 密钥。
func NewIssuer(privateKeyPEM, publicKeyPEM []byte, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if len(privateKeyPEM) == 0 || len(publicKeyPEM) == 0 {
		return nil, errors.New("rsa key pair is required")
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Issuer{
		privateKey: privateKey,
		publicKey:  publicKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// LoadIssuer 从磁盘读取密钥文件。
func LoadIssuer(privateKeyPath, publicKeyPath string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	privatePEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	publicPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return NewIssuer(privatePEM, publicPEM, accessTTL, refreshTTL)
}

// Issue 签发一对令牌。mustChange 为 true 时后台接口只放行改密。
func (i *Issuer) Issue(userID uint, mustChange bool) (TokenPair, error) {
	now := i.now()
	subject := strconv.FormatUint(uint64(userID), 10)

	access, err := i.sign(Claims{
		UserID:             userID,
		TokenType:          TokenTypeAccess,
		MustChangePassword: mustChange,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(Claims{
		UserID:             userID,
		TokenType:          TokenTypeRefresh,
		MustChangePassword: mustChange,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse 校验签名、有效期与令牌类型。刷新令牌还要求带 jti。
func (i *Issuer) Parse(tokenString, wantType string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	if wantType == TokenTypeRefresh && claims.ID == "" {
		return nil, fmt.Errorf("%w: refresh token without jti", ErrInvalidToken)
	}
	return claims, nil
}

func (i *Issuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *Issuer) sign(claims Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
