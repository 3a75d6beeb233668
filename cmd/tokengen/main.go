// Package main mints Scorer-style access tokens for local development. The
// keys it generates are throwaway and must never be configured in production.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"

	jwttoken "passport-iam/internal/jwt_token"
)

const defaultTokenTTL = 15 * time.Minute

type tokenOutput struct {
	Token     string            `json:"token"`
	Address   string            `json:"address"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	keysCmd := flag.NewFlagSet("keys", flag.ExitOnError)
	keysOut := keysCmd.String("out", "scorer-dev", "File prefix for the <prefix>.key and <prefix>.pub PEM files")
	keysBits := keysCmd.Int("bits", 2048, "RSA key size")

	accessCmd := flag.NewFlagSet("access", flag.ExitOnError)
	accessKey := accessCmd.String("key", "scorer-dev.key", "PEM file holding the RSA private key")
	accessAddress := accessCmd.String("address", "", "Wallet address the token is minted for (required)")
	accessIssuer := accessCmd.String("issuer", jwttoken.DefaultIssuer, "Issuer claim")
	accessTTL := accessCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	accessJSON := accessCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keys":
		keysCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateKeys(*keysOut, *keysBits)
	case "access":
		accessCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateAccessToken(*accessKey, *accessAddress, *accessIssuer, *accessTTL, *accessJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Mint Scorer access tokens for local passport-iam testing

WARNING: Generated keys are for local development only.

Usage:
  tokengen <command> [flags]

Commands:
  keys      Generate an RSA key pair (set SCORER_JWT_PUBLIC_KEY to the .pub file contents)
  access    Generate an access token for a wallet address

Examples:
  tokengen keys -out scorer-dev
  tokengen access -key scorer-dev.key -address 0x5B38Da6a701c568545dCfcB03FcB875f56beddC4
  tokengen access -key scorer-dev.key -address 0x5B38... -ttl 1h -json`)
}

func generateKeys(prefix string, bits int) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		fail("Error generating key: %v", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		fail("Error encoding public key: %v", err)
	}
	writePEM(prefix+".key", "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), 0o600)
	writePEM(prefix+".pub", "PUBLIC KEY", pub, 0o644)
	fmt.Printf("Wrote %s.key and %s.pub\n", prefix, prefix)
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, mode); err != nil {
		fail("Error writing %s: %v", path, err)
	}
}

func generateAccessToken(keyPath, address, issuer string, ttl time.Duration, jsonOutput bool) {
	if !common.IsHexAddress(address) {
		fail("Invalid or missing -address: %q", address)
	}
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		fail("Error reading key: %v", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		fail("Error parsing key: %v", err)
	}

	token, err := jwttoken.NewSigner(key, issuer, ttl).GenerateToken(context.Background(), address)
	if err != nil {
		fail("Error generating token: %v", err)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Address:   address,
			ExpiresIn: ttl.String(),
			Usage:     map[string]string{"header": "Authorization: Bearer <token>"},
		})
		return
	}
	fmt.Println("Scorer Access Token (RS256)")
	fmt.Println("===========================")
	fmt.Printf("Address:    %s\n", address)
	fmt.Printf("Issuer:     %s\n", issuer)
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8003/api/v0.0.0/verify")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("Error encoding JSON: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
