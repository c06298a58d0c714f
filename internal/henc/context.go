// Package henc wraps a CKKS-like homomorphic encryption scheme behind a
// small [EncVector] interface so h_v and h_p can operate on ciphertexts
// without depending on the underlying crypto library directly. The actual
// HE arithmetic (the library this protocol's spec treats as external) is
// provided by lattigo's approximate-number scheme.
package henc

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

// ParamsConfig overrides the CKKS-like scheme's parameters. A zero LogN
// selects [DefaultParamsConfig] as a whole; the other fields are not filled
// in individually.
type ParamsConfig struct {
	// LogN is the log2 of the ring degree.
	LogN int

	// LogQ lists the bit-sizes of the ciphertext modulus primes.
	LogQ []int

	// LogP lists the bit-sizes of the auxiliary (key-switching) modulus
	// primes.
	LogP []int

	// LogDefaultScale is the log2 of the default encoding scale.
	LogDefaultScale int
}

// DefaultParamsConfig mirrors the reference implementation's CKKS context:
// poly modulus degree 8192 (LogN = 13), coefficient modulus bit sizes
// [60, 30, 30, 30, 60], and a global scale of 2^30.
func DefaultParamsConfig() ParamsConfig {
	return ParamsConfig{
		LogN:            13,
		LogQ:            []int{60, 30, 30, 30, 60},
		LogP:            []int{61},
		LogDefaultScale: 30,
	}
}

// Context owns the scheme parameters and the key material needed to encrypt,
// decrypt, and homomorphically evaluate on vectors. A Context is created once
// per process (server or client) and shared across every vertex/path
// comparison in a session.
type Context struct {
	params    hefloat.Parameters
	encoder   *hefloat.Encoder
	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
	evaluator *hefloat.Evaluator
	sk        *rlwe.SecretKey
	pk        *rlwe.PublicKey
	rlk       *rlwe.RelinearizationKey
	galKeys   []*rlwe.GaloisKey
}

// NewContext builds a fresh [Context]: it generates a secret/public key pair,
// relinearization key, and the Galois keys the evaluator needs for
// rotations, matching the reference implementation's context factory.
func NewContext(cfg ParamsConfig) (*Context, error) {
	if cfg.LogN == 0 {
		cfg = DefaultParamsConfig()
	}

	params, err := hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
		LogN:            cfg.LogN,
		LogQ:            cfg.LogQ,
		LogP:            cfg.LogP,
		LogDefaultScale: cfg.LogDefaultScale,
	})
	if err != nil {
		return nil, fmt.Errorf("henc: new parameters: %w", err)
	}

	kgen := rlwe.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(sk)
	galEls := params.GaloisElementsForInnerSum(1, params.MaxSlots())
	galKeys := kgen.GenGaloisKeysNew(galEls, sk)
	evk := rlwe.NewMemEvaluationKeySet(rlk, galKeys...)

	encoder := hefloat.NewEncoder(params)
	encryptor := rlwe.NewEncryptor(params, pk)
	decryptor := rlwe.NewDecryptor(params, sk)
	evaluator := hefloat.NewEvaluator(params, evk)

	return &Context{
		params:    params,
		encoder:   encoder,
		encryptor: encryptor,
		decryptor: decryptor,
		evaluator: evaluator,
		sk:        sk,
		pk:        pk,
		rlk:       rlk,
		galKeys:   galKeys,
	}, nil
}

// Slots returns the number of plaintext slots a single ciphertext can pack.
func (c *Context) Slots() int {
	return c.params.MaxSlots()
}

// PublicContext returns a copy of c stripped of its secret key, suitable for
// serializing and sending to a peer: the peer can encrypt and evaluate, but
// never decrypt.
func (c *Context) PublicContext() *Context {
	return &Context{
		params:    c.params,
		encoder:   c.encoder,
		encryptor: rlwe.NewEncryptor(c.params, c.pk),
		evaluator: c.evaluator,
		pk:        c.pk,
		rlk:       c.rlk,
		galKeys:   c.galKeys,
	}
}

// wireContext is the gob-friendly container [Context.SerializeContext] and
// [LoadPublicContext] exchange: the raw marshaled bytes of the public key,
// relinearization key, and Galois keys a peer needs to build its own
// evaluator, none of which carry any secret material.
type wireContext struct {
	PublicKey          []byte
	RelinearizationKey []byte
	GaloisKeys         [][]byte
}

// LoadPublicContext rebuilds a public-only [Context] from the bytes a peer
// exported with [Context.SerializeContext]. cfg must match the parameters
// the exporting side used (typically the run's shared [ParamsConfig]); the
// result can encrypt and homomorphically evaluate under the peer's key but
// never decrypt, matching what [Context.PublicContext] returns for an
// in-process peer.
func LoadPublicContext(cfg ParamsConfig, data []byte) (*Context, error) {
	if cfg.LogN == 0 {
		cfg = DefaultParamsConfig()
	}

	params, err := hefloat.NewParametersFromLiteral(hefloat.ParametersLiteral{
		LogN:            cfg.LogN,
		LogQ:            cfg.LogQ,
		LogP:            cfg.LogP,
		LogDefaultScale: cfg.LogDefaultScale,
	})
	if err != nil {
		return nil, fmt.Errorf("henc: load public context: new parameters: %w", err)
	}

	var wire wireContext
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return nil, fmt.Errorf("henc: load public context: decode: %w", err)
	}

	pk := new(rlwe.PublicKey)
	if err := pk.UnmarshalBinary(wire.PublicKey); err != nil {
		return nil, fmt.Errorf("henc: load public context: unmarshal public key: %w", err)
	}

	rlk := new(rlwe.RelinearizationKey)
	if err := rlk.UnmarshalBinary(wire.RelinearizationKey); err != nil {
		return nil, fmt.Errorf("henc: load public context: unmarshal relinearization key: %w", err)
	}

	galKeys := make([]*rlwe.GaloisKey, len(wire.GaloisKeys))
	for i, gkData := range wire.GaloisKeys {
		gk := new(rlwe.GaloisKey)
		if err := gk.UnmarshalBinary(gkData); err != nil {
			return nil, fmt.Errorf("henc: load public context: unmarshal galois key %d: %w", i, err)
		}
		galKeys[i] = gk
	}

	evk := rlwe.NewMemEvaluationKeySet(rlk, galKeys...)
	encoder := hefloat.NewEncoder(params)
	encryptor := rlwe.NewEncryptor(params, pk)
	evaluator := hefloat.NewEvaluator(params, evk)

	return &Context{
		params:    params,
		encoder:   encoder,
		encryptor: encryptor,
		evaluator: evaluator,
		pk:        pk,
		rlk:       rlk,
		galKeys:   galKeys,
	}, nil
}
