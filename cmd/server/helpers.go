package main

import (
	"github.com/example/tokenprog/internal/program"
	sol "github.com/gagliardetto/solana-go"
)

// sanitizePort returns a sensible default when empty.
func sanitizePort(p string) string {
	if p == "" {
		return "8080"
	}
	return p
}

// chooseCommitment returns the provided commitment, or the default value when empty.
func chooseCommitment(s string) string {
	if s == "" {
		return "finalized"
	}
	return s
}

// loadAuthority decodes a base58 private key, or generates a throwaway one
// when s is empty.
func loadAuthority(s string) (sol.PrivateKey, error) {
	if s == "" {
		return sol.NewRandomPrivateKey()
	}
	return sol.PrivateKeyFromBase58(s)
}

func programIDFrom(s string) (sol.PublicKey, error) {
	if s == "" {
		return program.DefaultProgramID, nil
	}
	return sol.PublicKeyFromBase58(s)
}
