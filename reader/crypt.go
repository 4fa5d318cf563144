package reader

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"encoding/binary"
	"fmt"
)

// Standard PDF padding (section 7.6.3.3 of ISO 32000-1)
var pdfPadding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// EncryptedError describes the protection of a document that was refused.
// It matches ErrEncrypted with errors.Is.
type EncryptedError struct {
	Filter   string // security handler, usually "Standard"
	Version  int    // /V
	Revision int    // /R
	// PasswordRequired is true when the empty user password does not open
	// the document. It is also true when the handler cannot be checked.
	PasswordRequired bool
}

func (e *EncryptedError) Error() string {
	kind := "owner password only"
	if e.PasswordRequired {
		kind = "password required"
	}
	return fmt.Sprintf("reader: document is encrypted (%s V=%d R=%d, %s)", e.Filter, e.Version, e.Revision, kind)
}

func (e *EncryptedError) Is(target error) bool {
	return target == ErrEncrypted
}

// encryptInfo holds the encryption parameters parsed from the /Encrypt dictionary.
type encryptInfo struct {
	filter      string
	version     int    // /V: 1=RC4 40-bit, 2=RC4 >40-bit, 4=AES or RC4 128-bit
	revision    int    // /R: algorithm revision
	keyLength   int    // in bytes (default 5 for RC4 40-bit)
	ownerHash   []byte // /O value (32 bytes)
	userHash    []byte // /U value (32 bytes)
	permissions int32  // /P value
	fileID      []byte // first element of trailer /ID array
}

// isEncrypted returns true if the document has an /Encrypt entry.
func (d *Document) isEncrypted() bool {
	_, ok := d.trailer["Encrypt"]
	return ok
}

// encryptionError builds the error returned for an encrypted document.
func (d *Document) encryptionError() error {
	info, err := d.parseEncryptDict()
	if err != nil || info == nil {
		return &EncryptedError{Filter: "unknown", PasswordRequired: true}
	}
	e := &EncryptedError{
		Filter:           info.filter,
		Version:          info.version,
		Revision:         info.revision,
		PasswordRequired: true,
	}
	// The RC4 handlers can be checked with the empty user password
	if info.filter == "Standard" && info.version <= 2 && info.revision <= 3 {
		e.PasswordRequired = !validateUserPassword(computeEncryptionKey(nil, info), info)
	}
	return e
}

// parseEncryptDict parses the /Encrypt dictionary from the trailer.
func (d *Document) parseEncryptDict() (*encryptInfo, error) {
	encObj, ok := d.trailer["Encrypt"]
	if !ok {
		return nil, nil
	}

	resolved, err := d.resolveIfRef(encObj)
	if err != nil {
		return nil, fmt.Errorf("reader: resolving /Encrypt: %w", err)
	}
	encDict, ok := resolved.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: /Encrypt is not a dictionary")
	}

	info := &encryptInfo{
		filter:    string(encDict.GetName("Filter")),
		version:   1,
		revision:  2,
		keyLength: 5, // 40-bit default
	}

	if v, ok := encDict.GetInt("V"); ok {
		info.version = int(v)
	}
	if r, ok := encDict.GetInt("R"); ok {
		info.revision = int(r)
	}
	if length, ok := encDict.GetInt("Length"); ok && length >= 40 && length <= 128 {
		info.keyLength = int(length) / 8
	}
	if p, ok := encDict.GetInt("P"); ok {
		info.permissions = int32(p)
	}

	// /O and /U are string values (32 bytes each)
	if s, ok := encDict["O"].(String); ok {
		info.ownerHash = s.Value
	}
	if s, ok := encDict["U"].(String); ok {
		info.userHash = s.Value
	}

	// File ID from trailer /ID array
	if idArr, ok := d.trailer["ID"].(Array); ok && len(idArr) > 0 {
		if s, ok := idArr[0].(String); ok {
			info.fileID = s.Value
		}
	}

	return info, nil
}

// computeEncryptionKey implements Algorithm 2 from the PDF spec.
// Computes the encryption key from the user password.
func computeEncryptionKey(password []byte, info *encryptInfo) []byte {
	// Pad or truncate password to 32 bytes
	padded := make([]byte, 32)
	copy(padded, password)
	if len(password) < 32 {
		copy(padded[len(password):], pdfPadding[:32-len(password)])
	}

	h := md5.New()
	h.Write(padded)
	h.Write(info.ownerHash)

	// Permission bytes (little-endian)
	var pbuf [4]byte
	binary.LittleEndian.PutUint32(pbuf[:], uint32(info.permissions))
	h.Write(pbuf[:])

	h.Write(info.fileID)

	digest := h.Sum(nil)

	// For R >= 3, do 50 additional MD5 iterations
	if info.revision >= 3 {
		for i := 0; i < 50; i++ {
			tmp := md5.Sum(digest[:info.keyLength])
			digest = tmp[:]
		}
	}

	return digest[:info.keyLength]
}

// validateUserPassword checks if the computed key matches the /U value.
// Algorithm 6 (R=2) or Algorithm 7 (R=3+).
func validateUserPassword(key []byte, info *encryptInfo) bool {
	if info.revision == 2 {
		// Algorithm 4: encrypt padding with key
		c, err := rc4.NewCipher(key)
		if err != nil {
			return false
		}
		computed := make([]byte, 32)
		c.XORKeyStream(computed, pdfPadding)
		return len(info.userHash) >= 32 && bytes.Equal(computed, info.userHash[:32])
	}

	// R >= 3: Algorithm 5
	h := md5.New()
	h.Write(pdfPadding)
	h.Write(info.fileID)
	digest := h.Sum(nil)

	// RC4 encrypt with key
	c, err := rc4.NewCipher(key)
	if err != nil {
		return false
	}
	c.XORKeyStream(digest, digest)

	// 19 additional RC4 passes with modified keys
	for i := 1; i <= 19; i++ {
		newKey := make([]byte, len(key))
		for j := range key {
			newKey[j] = key[j] ^ byte(i)
		}
		c, err = rc4.NewCipher(newKey)
		if err != nil {
			return false
		}
		c.XORKeyStream(digest, digest)
	}

	// Compare first 16 bytes
	if len(info.userHash) < 16 {
		return false
	}
	return bytes.Equal(digest[:16], info.userHash[:16])
}
