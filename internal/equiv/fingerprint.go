package equiv

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sqlequiv/internal/schema"
)

// DomainPair separates fingerprints of query pairs from any other hash.
// The version suffix allows the canonical form to change later.
const DomainPair = "sqlequiv/pair/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

type pairForm struct {
	Schema []*schema.Table `json:"schema"`
	Query1 string          `json:"query1"`
	Query2 string          `json:"query2"`
}

// Fingerprint identifies a (schema, query1, query2) input by content.
// Queries are expected in normalised form; whitespace, keyword case and
// Unicode composition do not change the result. The loaded schema is
// hashed rather than its DDL text, so comments and formatting in the DDL
// do not matter either.
func Fingerprint(s *schema.Schema, query1, query2 string) (string, error) {
	form := pairForm{
		Schema: s.Tables(),
		Query1: norm.NFC.String(query1),
		Query2: norm.NFC.String(query2),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(form); err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPair, bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
