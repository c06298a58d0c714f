package henc

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/hefloat"
)

// EncVector is an encrypted dense vector supporting the handful of
// operations h_v and h_p need: homomorphic dot product against another
// EncVector, scaling by a plaintext scalar (used for masking and for the
// path-length normalization in h_p), and decryption back to a single real
// number via the oracle.
type EncVector interface {
	// Dot returns the encrypted dot product of v and other as a new
	// single-slot EncVector.
	Dot(other EncVector) (EncVector, error)

	// ScaleScalar returns v scaled by the plaintext scalar s, evaluated
	// homomorphically so the scaling never touches plaintext values.
	ScaleScalar(s float64) (EncVector, error)

	// SubScalar returns v minus the plaintext scalar s.
	SubScalar(s float64) (EncVector, error)

	// Decrypt returns the first slot's plaintext value. Only callable
	// against a [Context] holding the secret key.
	Decrypt() (float64, error)

	// Serialize encodes v for transmission. The result carries no secret
	// material regardless of which Context produced v.
	Serialize() ([]byte, error)
}

// ckksVector is the lattigo-backed [EncVector] implementation.
type ckksVector struct {
	ctx *Context
	ct  *rlwe.Ciphertext
}

var _ EncVector = (*ckksVector)(nil)

// Encrypt packs vec into the first len(vec) slots and encrypts it under c.
func (c *Context) Encrypt(vec []float64) (EncVector, error) {
	pt := hefloat.NewPlaintext(c.params, c.params.MaxLevel())
	if err := c.encoder.Encode(vec, pt); err != nil {
		return nil, fmt.Errorf("henc: encode: %w", err)
	}
	ct, err := c.encryptor.EncryptNew(pt)
	if err != nil {
		return nil, fmt.Errorf("henc: encrypt: %w", err)
	}
	return &ckksVector{ctx: c, ct: ct}, nil
}

// Deserialize decodes a ciphertext previously produced by [EncVector.Serialize],
// associating it with c for subsequent homomorphic operations.
func (c *Context) Deserialize(data []byte) (EncVector, error) {
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("henc: deserialize: %w", err)
	}
	return &ckksVector{ctx: c, ct: ct}, nil
}

// Dot implements [EncVector].
func (v *ckksVector) Dot(other EncVector) (EncVector, error) {
	o, ok := other.(*ckksVector)
	if !ok {
		return nil, fmt.Errorf("henc: dot: incompatible vector implementation %T", other)
	}

	prod, err := v.ctx.evaluator.MulRelinNew(v.ct, o.ct)
	if err != nil {
		return nil, fmt.Errorf("henc: dot: multiply: %w", err)
	}
	if err := v.ctx.evaluator.Rescale(prod, prod); err != nil {
		return nil, fmt.Errorf("henc: dot: rescale: %w", err)
	}

	sum, err := v.ctx.evaluator.InnerSum(prod, 1, v.ctx.params.MaxSlots(), prod)
	if err != nil {
		return nil, fmt.Errorf("henc: dot: inner sum: %w", err)
	}
	return &ckksVector{ctx: v.ctx, ct: sum}, nil
}

// ScaleScalar implements [EncVector].
func (v *ckksVector) ScaleScalar(s float64) (EncVector, error) {
	out, err := v.ctx.evaluator.MulNew(v.ct, s)
	if err != nil {
		return nil, fmt.Errorf("henc: scale scalar: %w", err)
	}
	return &ckksVector{ctx: v.ctx, ct: out}, nil
}

// SubScalar implements [EncVector].
func (v *ckksVector) SubScalar(s float64) (EncVector, error) {
	out, err := v.ctx.evaluator.SubNew(v.ct, s)
	if err != nil {
		return nil, fmt.Errorf("henc: sub scalar: %w", err)
	}
	return &ckksVector{ctx: v.ctx, ct: out}, nil
}

// Decrypt implements [EncVector]. Requires v.ctx to hold the secret key.
func (v *ckksVector) Decrypt() (float64, error) {
	if v.ctx.decryptor == nil {
		return 0, fmt.Errorf("henc: decrypt: context has no secret key (public context)")
	}
	pt := v.ctx.decryptor.DecryptNew(v.ct)
	vals := make([]float64, v.ctx.params.MaxSlots())
	if err := v.ctx.encoder.Decode(pt, vals); err != nil {
		return 0, fmt.Errorf("henc: decrypt: decode: %w", err)
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("henc: decrypt: empty plaintext")
	}
	return vals[0], nil
}

// Serialize implements [EncVector].
func (v *ckksVector) Serialize() ([]byte, error) {
	data, err := v.ct.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("henc: serialize: %w", err)
	}
	return data, nil
}

// SerializeContext exports the public material (encryption key,
// relinearization key, and Galois keys) a peer needs to build its own
// [Context] via [LoadPublicContext] and encrypt vectors or evaluate
// homomorphic operations against them — never the secret key.
func (c *Context) SerializeContext() ([]byte, error) {
	pkData, err := c.pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("henc: serialize context: public key: %w", err)
	}
	rlkData, err := c.rlk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("henc: serialize context: relinearization key: %w", err)
	}
	galData := make([][]byte, len(c.galKeys))
	for i, gk := range c.galKeys {
		d, err := gk.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("henc: serialize context: galois key %d: %w", i, err)
		}
		galData[i] = d
	}

	var buf bytes.Buffer
	wire := wireContext{PublicKey: pkData, RelinearizationKey: rlkData, GaloisKeys: galData}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, fmt.Errorf("henc: serialize context: encode: %w", err)
	}
	return buf.Bytes(), nil
}
