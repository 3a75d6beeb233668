// Package credential issues and verifies the service's verifiable credentials.
package credential

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"passport-iam/internal/platform/config"
)

// RecordVersion is stamped into every proof record.
const RecordVersion = "0.0.0"

// ProofRecord is the field set hashed into a credential's fingerprint.
type ProofRecord map[string]string

// BuildRecord assembles {type, version, ...providerRecord}. A provider "pii"
// field is appended to the type; provider fields win on conflict.
func BuildRecord(providerType string, providerRecord map[string]string) ProofRecord {
	record := ProofRecord{"type": providerType, "version": RecordVersion}
	if pii := providerRecord["pii"]; pii != "" {
		record["type"] = providerType + "#" + pii
	}
	for k, v := range providerRecord {
		record[k] = v
	}
	return record
}

// Canonicalize returns the record as [key, value] pairs sorted by key.
func Canonicalize(record ProofRecord) [][2]string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, [2]string{k, record[k]})
	}
	return out
}

// Hash is "v<version>:" + base64(sha256(secret || JSON(canonical pairs))).
// The JSON is written without HTML escaping so it matches JSON.stringify.
func Hash(key config.HashKey, record ProofRecord) (string, error) {
	canonical, err := json.MarshalNoEscape(Canonicalize(record))
	if err != nil {
		return "", fmt.Errorf("marshal canonical record: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(key.Secret))
	h.Write(canonical)
	version := key.Version
	if version == "" {
		version = RecordVersion
	}
	return "v" + version + ":" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
