package auth

// PrincipalExtractor recovers claims from a possibly expired access token.
// It is the single place where expiry tolerance is allowed and must only be
// used by refresh-token rotation, never to authorize resource access.
type PrincipalExtractor struct {
	codec *Codec
}

func NewPrincipalExtractor(codec *Codec) *PrincipalExtractor {
	return &PrincipalExtractor{codec: codec}
}

// ExtractIgnoringExpiry verifies signature and algorithm but tolerates an
// elapsed expiry.
func (p *PrincipalExtractor) ExtractIgnoringExpiry(tokenString string) (*Claims, error) {
	return p.codec.Verify(tokenString, VerifyOptions{IgnoreExpiry: true})
}
