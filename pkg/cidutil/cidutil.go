package cidutil

import (
	cid "github.com/ipfs/go-cid"
	mc "github.com/multiformats/go-multicodec"
	mh "github.com/multiformats/go-multihash"
)

// Content references stored by the marketplace are CIDv1, raw codec,
// sha2-256.
var pref = cid.Prefix{
	Version:  1,
	Codec:    uint64(mc.Raw),
	MhType:   mh.SHA2_256,
	MhLength: -1, // default length
}

// Sum returns the canonical content id string of data.
func Sum(data []byte) (string, error) {
	c, err := pref.Sum(data)
	if err != nil {
		return "", err
	}

	return c.String(), nil
}

// Validate checks that s parses as a content id. Pinning and gateway
// availability are the client's problem, only the reference format is
// checked here.
func Validate(s string) error {
	_, err := cid.Decode(s)
	return err
}
