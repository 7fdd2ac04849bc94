package ceremony

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

const (
	testRPID   = "localhost"
	testOrigin = "http://localhost:3000"

	flagUP byte = 0x01
	flagUV byte = 0x04
	flagAT byte = 0x40
)

var b64 = base64.RawURLEncoding

// virtualAuthenticator is a software platform authenticator producing
// "none" attestations and ES256 assertions.
type virtualAuthenticator struct {
	t       *testing.T
	key     *ecdsa.PrivateKey
	credID  []byte
	counter uint32
}

func newVirtualAuthenticator(t *testing.T) *virtualAuthenticator {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	id := make([]byte, 16)
	_, err = rand.Read(id)
	require.NoError(t, err)

	return &virtualAuthenticator{t: t, key: key, credID: id}
}

func (a *virtualAuthenticator) authData(flags byte, attested []byte) []byte {
	h := sha256.Sum256([]byte(testRPID))
	out := append([]byte{}, h[:]...)
	out = append(out, flags)
	out = binary.BigEndian.AppendUint32(out, a.counter)
	return append(out, attested...)
}

func (a *virtualAuthenticator) coseKey() []byte {
	em, err := cbor.CTAP2EncOptions().EncMode()
	require.NoError(a.t, err)

	b, err := em.Marshal(map[int]any{
		1:  2,
		3:  -7,
		-1: 1,
		-2: a.key.PublicKey.X.FillBytes(make([]byte, 32)),
		-3: a.key.PublicKey.Y.FillBytes(make([]byte, 32)),
	})
	require.NoError(a.t, err)
	return b
}

func clientData(t *testing.T, typ string, challenge []byte) []byte {
	b, err := json.Marshal(map[string]string{
		"type":      typ,
		"challenge": b64.EncodeToString(challenge),
		"origin":    testOrigin,
	})
	require.NoError(t, err)
	return b
}

// attest answers navigator.credentials.create for the given challenge.
func (a *virtualAuthenticator) attest(challenge []byte) []byte {
	attested := make([]byte, 16) // zero AAGUID
	attested = binary.BigEndian.AppendUint16(attested, uint16(len(a.credID)))
	attested = append(attested, a.credID...)
	attested = append(attested, a.coseKey()...)

	em, err := cbor.CTAP2EncOptions().EncMode()
	require.NoError(a.t, err)
	obj, err := em.Marshal(map[string]any{
		"fmt":      "none",
		"attStmt":  map[string]any{},
		"authData": a.authData(flagUP|flagUV|flagAT, attested),
	})
	require.NoError(a.t, err)

	body, err := json.Marshal(map[string]any{
		"id":    b64.EncodeToString(a.credID),
		"rawId": b64.EncodeToString(a.credID),
		"type":  "public-key",
		"response": map[string]any{
			"clientDataJSON":    b64.EncodeToString(clientData(a.t, "webauthn.create", challenge)),
			"attestationObject": b64.EncodeToString(obj),
			"transports":        []string{"internal"},
		},
	})
	require.NoError(a.t, err)
	return body
}

// assert answers navigator.credentials.get, advancing the counter by step
// first. A zero step reuses the current counter.
func (a *virtualAuthenticator) assert(challenge []byte, step uint32) []byte {
	a.counter += step
	ad := a.authData(flagUP|flagUV, nil)
	cd := clientData(a.t, "webauthn.get", challenge)

	cdHash := sha256.Sum256(cd)
	digest := sha256.Sum256(append(append([]byte{}, ad...), cdHash[:]...))
	sig, err := ecdsa.SignASN1(rand.Reader, a.key, digest[:])
	require.NoError(a.t, err)

	body, err := json.Marshal(map[string]any{
		"id":    b64.EncodeToString(a.credID),
		"rawId": b64.EncodeToString(a.credID),
		"type":  "public-key",
		"response": map[string]any{
			"clientDataJSON":    b64.EncodeToString(cd),
			"authenticatorData": b64.EncodeToString(ad),
			"signature":         b64.EncodeToString(sig),
		},
	})
	require.NoError(a.t, err)
	return body
}
