// Package artifact serializes and parses the self-describing encrypted
// PHP stub produced by phpseal.
//
// The on-disk form is a PHP class with four labeled fields:
//
//	private $fileKey = '<base64>';
//	private $salt = '<base64>';
//	private $integrityHash = '<base64>';
//	private $chunks = '<base64 of a JSON array of chunk records>';
//
// The field markers, their encoding, and the chunk record shape are a
// compatibility contract with existing artifacts and must not change.
// The PHP code surrounding the fields is opaque scaffolding; this package
// never interprets it.
package artifact

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrFormat indicates an artifact is missing required fields or carries
// malformed field values.
var ErrFormat = errors.New("malformed artifact")

// TypeMarker identifies a phpseal artifact. Its presence is required by
// Valid and checked before any field extraction.
const TypeMarker = "class PHPDecryptor"

// Chunk is one encrypted segment of the original file. All binary values
// are base64-encoded. IV is a vestigial per-file value shared by every
// chunk; decryption uses Nonce.
type Chunk struct {
	IV    string `json:"iv"`
	Nonce string `json:"nonce"`
	Data  string `json:"data"`
	Tag   string `json:"tag"`
	Index int    `json:"index"`
}

// Artifact is the decoded form of an encrypted file.
type Artifact struct {
	FileKey       string
	Salt          string
	IntegrityHash string
	Chunks        []Chunk
}

var fieldPatterns = map[string]*regexp.Regexp{
	"fileKey":       regexp.MustCompile(`private \$fileKey = '([^']+)';`),
	"salt":          regexp.MustCompile(`private \$salt = '([^']+)';`),
	"integrityHash": regexp.MustCompile(`private \$integrityHash = '([^']+)';`),
	"chunks":        regexp.MustCompile(`private \$chunks = '([^']+)';`),
}

// Parse extracts the four labeled fields from artifact text and decodes
// the chunk list. Any missing field or undecodable value returns ErrFormat.
func Parse(text []byte) (*Artifact, error) {
	fields := make(map[string]string, len(fieldPatterns))

	for name, pattern := range fieldPatterns {
		match := pattern.FindSubmatch(text)
		if match == nil {
			return nil, fmt.Errorf("%w: missing field %q", ErrFormat, name)
		}

		fields[name] = string(match[1])
	}

	chunksJSON, err := base64.StdEncoding.DecodeString(fields["chunks"])
	if err != nil {
		return nil, fmt.Errorf("%w: decoding chunk list: %w", ErrFormat, err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(chunksJSON, &chunks); err != nil {
		return nil, fmt.Errorf("%w: parsing chunk list: %w", ErrFormat, err)
	}

	return &Artifact{
		FileKey:       fields["fileKey"],
		Salt:          fields["salt"],
		IntegrityHash: fields["integrityHash"],
		Chunks:        chunks,
	}, nil
}

// Valid is a structural pre-check: the text carries the type marker and
// all four field markers. It does not decode or verify anything.
func Valid(text []byte) bool {
	if !bytes.Contains(text, []byte(TypeMarker)) {
		return false
	}

	markers := []string{
		"private $fileKey",
		"private $salt",
		"private $integrityHash",
		"private $chunks",
	}

	for _, marker := range markers {
		if !bytes.Contains(text, []byte(marker)) {
			return false
		}
	}

	return true
}

// Render serializes the artifact into its PHP stub form.
func (a *Artifact) Render() ([]byte, error) {
	chunksJSON, err := json.Marshal(a.Chunks)
	if err != nil {
		return nil, fmt.Errorf("encoding chunk list: %w", err)
	}

	var buf strings.Builder

	buf.WriteString("<?php\n")
	buf.WriteString(TypeMarker + " {\n")
	fmt.Fprintf(&buf, "    private $fileKey = '%s';\n", a.FileKey)
	fmt.Fprintf(&buf, "    private $salt = '%s';\n", a.Salt)
	fmt.Fprintf(&buf, "    private $integrityHash = '%s';\n", a.IntegrityHash)
	fmt.Fprintf(&buf, "    private $chunks = '%s';\n", base64.StdEncoding.EncodeToString(chunksJSON))
	buf.WriteString("}\n")

	return []byte(buf.String()), nil
}
