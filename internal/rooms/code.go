package rooms

import (
	"crypto/rand"
	"math/big"
)

const (
	RoomCodeLength   = 20
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CodeGenerator produces candidate room codes.
type CodeGenerator func() (string, error)

// GenerateRoomCode draws RoomCodeLength symbols uniformly from RoomCodeAlphabet.
func GenerateRoomCode() (string, error) {
	limit := big.NewInt(int64(len(RoomCodeAlphabet)))
	code := make([]byte, RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = RoomCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
