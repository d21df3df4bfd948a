// Package hasher implements the streaming CRC-plus-sum checksum used to
// build prefix and full-file signatures.
package hasher

import "io"

// Signature is the 64-bit (crc, sum) pair produced by a Hasher.
type Signature struct {
	CRC uint32
	Sum uint32
}

// Less reports whether sig orders before other in the lexicographic
// ordering over (crc, sum) used by the size-bucket BST.
func (sig Signature) Less(other Signature) bool {
	if sig.CRC != other.CRC {
		return sig.CRC < other.CRC
	}
	return sig.Sum < other.Sum
}

// Equal reports whether sig and other carry the same (crc, sum) pair.
func (sig Signature) Equal(other Signature) bool {
	return sig.CRC == other.CRC && sig.Sum == other.Sum
}

// Hasher accumulates the streaming checksum over successive Write calls.
// The zero value is ready to use.
type Hasher struct {
	r uint32
	s uint32
}

// New returns a Hasher in its initial (0, 0) state.
func New() *Hasher {
	return &Hasher{}
}

// Write folds p into the running checksum. It never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	r, s := h.r, h.s
	for _, b := range p {
		r ^= uint32(b)
		r = (r >> 8) ^ ((r & 0xFF) << 24) ^ ((r & 0xFF) << 9)
		s += uint32(b)
		s = (s << 1) | (s >> 31)
	}
	h.r, h.s = r, s
	return len(p), nil
}

// Sum returns the signature accumulated so far.
func (h *Hasher) Sum() Signature {
	return Signature{CRC: h.r, Sum: h.s}
}

// AddSize folds size into the sum word, as required after hashing a
// file's prefix or whole content — it distinguishes files of differing
// size whose hashed bytes happen to collide.
func (h *Hasher) AddSize(size int64) {
	h.s += uint32(size)
}

// SumBytes hashes buf in one call and returns the resulting signature,
// for callers (such as path hashing) that don't need a streaming Writer.
func SumBytes(buf []byte) Signature {
	h := New()
	_, _ = h.Write(buf)
	return h.Sum()
}

// SumPrefix streams up to n bytes from r through a fresh Hasher, folds
// size into the result, and returns the prefix signature. It tolerates
// r yielding fewer than n bytes (e.g. n > size): io.EOF is not an error.
func SumPrefix(r io.Reader, n int64, size int64) (Signature, error) {
	h := New()
	lr := io.LimitReader(r, n)
	if _, err := io.Copy(h, lr); err != nil {
		return Signature{}, err
	}
	h.AddSize(size)
	return h.Sum(), nil
}

// SumAll streams the entirety of r (the whole file) through a fresh
// Hasher in fixed-size chunks, folds size into the result, and returns
// the full-file signature.
func SumAll(r io.Reader, size int64) (Signature, error) {
	h := New()
	buf := make([]byte, 64*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Signature{}, err
		}
	}
	h.AddSize(size)
	return h.Sum(), nil
}
