package helpers

import (
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// SignHS256 serializes claims into a compact HS256 JWT.
func SignHS256(secret string, claims ...interface{}) (string, error) {
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte(secret)},
		(&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}

	builder := jwt.Signed(sig)
	for _, c := range claims {
		builder = builder.Claims(c)
	}
	return builder.Serialize()
}

// ParseHS256 verifies token with secret and decodes its claims into out.
// Standard claims are not validated here.
func ParseHS256(token, secret string, out ...interface{}) error {
	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return err
	}
	return tok.Claims([]byte(secret), out...)
}
