// Package credentials generates the administrative credentials handed to a newly
// provisioned site.
//
// Secrets are drawn from crypto/rand, base64 encoded, stripped down to alphanumerics
// and only then cut to length. Cutting before stripping would yield short or biased
// secrets whenever the encoding produced '+', '/' or padding.
package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

const (
	DefaultPasswordLength   = 24
	DefaultDBPasswordLength = 32
	DefaultAppSecretLength  = 48
	usernameSuffixLength    = 6
	usernamePrefix          = "admin_"
	// chunkBytes is a multiple of 3 so the encoding never pads.
	chunkBytes = 48
)

type Credentials struct {
	AdminUsername    string `json:"adminUsername"`
	AdminPassword    string `json:"adminPassword"`
	DatabasePassword string `json:"databasePassword"`
	AppSecret        string `json:"appSecret"`
}

type Generator struct {
	source     io.Reader
	chunkBytes int
}

type Option func(*Generator)

// WithSource replaces crypto/rand. Intended for tests.
func WithSource(r io.Reader) Option {
	return func(g *Generator) { g.source = r }
}

// WithChunkBytes sets how many random bytes are read per round, rounded up to a multiple
// of 3 so the encoding never pads.
func WithChunkBytes(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.chunkBytes = (n + 2) / 3 * 3
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{source: rand.Reader, chunkBytes: chunkBytes}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Generate() (Credentials, error) {
	suffix, err := g.Secret(usernameSuffixLength)
	if err != nil {
		return Credentials{}, err
	}
	password, err := g.Secret(DefaultPasswordLength)
	if err != nil {
		return Credentials{}, err
	}
	dbPassword, err := g.Secret(DefaultDBPasswordLength)
	if err != nil {
		return Credentials{}, err
	}
	appSecret, err := g.Secret(DefaultAppSecretLength)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{
		AdminUsername:    usernamePrefix + strings.ToLower(suffix),
		AdminPassword:    password,
		DatabasePassword: dbPassword,
		AppSecret:        appSecret,
	}, nil
}

// Secret returns exactly n alphanumeric characters.
func (g *Generator) Secret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", n)
	}
	var out strings.Builder
	out.Grow(n)
	buf := make([]byte, g.chunkBytes)
	for out.Len() < n {
		if _, err := io.ReadFull(g.source, buf); err != nil {
			return "", fmt.Errorf("reading random source: %w", err)
		}
		for _, c := range base64.StdEncoding.EncodeToString(buf) {
			if isAlphanumeric(c) {
				out.WriteRune(c)
			}
		}
	}
	return out.String()[:n], nil
}

func isAlphanumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
