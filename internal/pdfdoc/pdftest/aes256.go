// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftest

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// aesPermissions is the /P value written to AES-256 files.
const aesPermissions int32 = -3904

// aes256Dict returns a revision 6 Standard security handler dictionary for a
// fixed file key, following ISO 32000-2 algorithms 8, 9 and 10.
func aes256Dict(userPassword, ownerPassword string) string {
	fileKey := bytes.Repeat([]byte{0x5a}, 32)
	user := []byte(userPassword)
	owner := []byte(ownerPassword)

	userValidationSalt := []byte("uvsalt01")
	userKeySalt := []byte("uksalt01")
	u := append(hash2B(user, userValidationSalt, nil), userValidationSalt...)
	u = append(u, userKeySalt...)
	ue := cbcNoIV(hash2B(user, userKeySalt, nil), fileKey)

	ownerValidationSalt := []byte("ovsalt01")
	ownerKeySalt := []byte("oksalt01")
	o := append(hash2B(owner, ownerValidationSalt, u), ownerValidationSalt...)
	o = append(o, ownerKeySalt...)
	oe := cbcNoIV(hash2B(owner, ownerKeySalt, u), fileKey)

	perms := make([]byte, 16)
	p := aesPermissions
	binary.LittleEndian.PutUint32(perms[0:4], uint32(p))
	binary.LittleEndian.PutUint32(perms[4:8], 0xffffffff)
	copy(perms[8:], "Tadb0000")
	block, _ := aes.NewCipher(fileKey)
	block.Encrypt(perms, perms)

	return fmt.Sprintf("<< /Filter /Standard /V 5 /R 6 /Length 256"+
		" /CF << /StdCF << /AuthEvent /DocOpen /CFM /AESV3 /Length 32 >> >>"+
		" /StmF /StdCF /StrF /StdCF /P %d /O <%s> /U <%s> /OE <%s> /UE <%s> /Perms <%s> >>",
		aesPermissions, hex.EncodeToString(o), hex.EncodeToString(u),
		hex.EncodeToString(oe), hex.EncodeToString(ue), hex.EncodeToString(perms))
}

// hash2B is the revision 6 password hash (ISO 32000-2 algorithm 2.B).
func hash2B(password, salt, userKey []byte) []byte {
	h := sha256.New()
	h.Write(password)
	h.Write(salt)
	h.Write(userKey)
	k := h.Sum(nil)

	var e []byte
	for round := 0; round < 64 || int(e[len(e)-1]) > round-32; round++ {
		var seq []byte
		seq = append(seq, password...)
		seq = append(seq, k...)
		seq = append(seq, userKey...)
		k1 := bytes.Repeat(seq, 64)

		block, _ := aes.NewCipher(k[:16])
		e = make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)

		sum := 0
		for _, b := range e[:16] {
			sum += int(b)
		}
		switch sum % 3 {
		case 0:
			d := sha256.Sum256(e)
			k = d[:]
		case 1:
			d := sha512.Sum384(e)
			k = d[:]
		default:
			d := sha512.Sum512(e)
			k = d[:]
		}
	}
	return k[:32]
}

// cbcNoIV encrypts data, a multiple of the block size, with AES-256-CBC and a
// zero IV.
func cbcNoIV(key, data []byte) []byte {
	block, _ := aes.NewCipher(key)
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, data)
	return out
}
