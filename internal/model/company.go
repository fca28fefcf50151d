package model

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Company is a tenant. Users and items are scoped to exactly one company,
// and no operation may cross that boundary.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code"`
	CreatedAt time.Time `json:"created_at"`
}

// JoinCodeLength is the length of generated join codes.
const JoinCodeLength = 12

const joinCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateJoinCode creates a random join code for self-service enrollment.
// The code is fixed once the company is created; there is no rotation.
func GenerateJoinCode() (string, error) {
	code := make([]byte, JoinCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(joinCodeCharset))))
		if err != nil {
			return "", fmt.Errorf("generating join code: %w", err)
		}
		code[i] = joinCodeCharset[n.Int64()]
	}
	return string(code), nil
}
