// Package claimio reads and writes claims in the JSON input format:
//
//	{
//	  "id": "optional, generated when absent",
//	  "timestamp": "optional RFC 3339, now when absent",
//	  "description": "Created the configuration file",
//	  "source": "setup-agent",
//	  "evidence": [
//	    { "type": "FileExists", "spec": { "path": "/etc/myapp/config.toml" } }
//	  ]
//	}
package claimio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/dyadt/internal/model"
)

// Document is the wire form of a claim
type Document struct {
	ID          string        `json:"id,omitempty" jsonschema:"description=Claim identifier; generated when absent"`
	Timestamp   *time.Time    `json:"timestamp,omitempty" jsonschema:"description=When the claim was made; defaults to now"`
	Description string        `json:"description" jsonschema:"required"`
	Source      string        `json:"source,omitempty" jsonschema:"description=Who or what made the claim"`
	Evidence    []EvidenceDoc `json:"evidence" jsonschema:"required"`
}

// EvidenceDoc is the tagged wire form of one piece of evidence
type EvidenceDoc struct {
	Type string          `json:"type" jsonschema:"required"`
	Spec json.RawMessage `json:"spec" jsonschema:"required"`
}

// ErrMissingDescription rejects claims that do not say what was done
var ErrMissingDescription = errors.New("claim description is required")

// Type names accepted for compatibility with older claim files
var kindAliases = map[string]model.EvidenceKind{
	"FileWithHash":    model.KindFileHash,
	"DirectoryExists": model.KindDirExists,
}

// clock is swapped in tests
var clock = time.Now

// Decode reads a single claim
func Decode(r io.Reader) (model.Claim, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return model.Claim{}, fmt.Errorf("parse claim JSON: %w", err)
	}
	if err := expectEOF(dec); err != nil {
		return model.Claim{}, fmt.Errorf("parse claim JSON: %w", err)
	}
	return doc.Claim()
}

// DecodeMany reads either a JSON array of claims or a single claim object
func DecodeMany(r io.Reader) ([]model.Claim, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("parse claims JSON: empty input")
	}
	if trimmed[0] != '[' {
		claim, err := Decode(bytes.NewReader(trimmed))
		if err != nil {
			return nil, err
		}
		return []model.Claim{claim}, nil
	}

	var docs []Document
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&docs); err != nil {
		return nil, fmt.Errorf("parse claims JSON: %w", err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, fmt.Errorf("parse claims JSON: %w", err)
	}

	claims := make([]model.Claim, 0, len(docs))
	for i, doc := range docs {
		claim, err := doc.Claim()
		if err != nil {
			return nil, fmt.Errorf("claim %d: %w", i, err)
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

// expectEOF fails when anything but whitespace follows the decoded value
func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the top-level value")
	}
	return nil
}

// LoadFile reads a single claim from path
func LoadFile(path string) (model.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Claim{}, fmt.Errorf("open claim file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// LoadManyFile reads claims from path
func LoadManyFile(path string) ([]model.Claim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open claims file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeMany(f)
}

// Claim converts the document, generating the id and timestamp when absent
func (d Document) Claim() (model.Claim, error) {
	if strings.TrimSpace(d.Description) == "" {
		return model.Claim{}, ErrMissingDescription
	}
	claim := model.Claim{
		ID:          d.ID,
		Description: d.Description,
		Source:      d.Source,
		Evidence:    make([]model.Evidence, 0, len(d.Evidence)),
	}
	if claim.ID == "" {
		claim.ID = model.NewClaimID()
	}
	if d.Timestamp != nil {
		claim.Timestamp = *d.Timestamp
	} else {
		claim.Timestamp = clock().UTC()
	}

	for i, ed := range d.Evidence {
		ev, err := ed.Evidence()
		if err != nil {
			return model.Claim{}, fmt.Errorf("evidence %d: %w", i, err)
		}
		claim.Evidence = append(claim.Evidence, ev)
	}
	return claim, nil
}

// Evidence decodes and validates the tagged evidence
func (d EvidenceDoc) Evidence() (model.Evidence, error) {
	kind, ok := resolveKind(d.Type)
	if !ok {
		return nil, &model.MalformedEvidenceError{Kind: model.EvidenceKind(d.Type), Reason: "unknown evidence type"}
	}

	spec := bytes.TrimSpace(d.Spec)
	if len(spec) == 0 || bytes.Equal(spec, []byte("null")) {
		return nil, &model.MalformedEvidenceError{Kind: kind, Field: "spec", Reason: "is required"}
	}

	var (
		ev  model.Evidence
		err error
	)
	switch kind {
	case model.KindFileExists:
		var s model.FileExists
		err = decodeSpec(spec, &s)
		ev = s
	case model.KindFileHash:
		var s model.FileHash
		err = decodeSpec(spec, &s)
		if s.Algorithm == "" {
			s.Algorithm = model.HashSHA256
		}
		s.Algorithm = model.NormalizeAlgorithm(string(s.Algorithm))
		s.SHA256 = strings.ToLower(strings.TrimSpace(s.SHA256))
		ev = s
	case model.KindFileContains:
		var s model.FileContains
		err = decodeSpec(spec, &s)
		ev = s
	case model.KindDirExists:
		var s model.DirExists
		err = decodeSpec(spec, &s)
		ev = s
	case model.KindCommandSucceeds:
		var s model.CommandSucceeds
		err = decodeSpec(spec, &s)
		ev = s
	case model.KindCustom:
		var s model.Custom
		err = decodeSpec(spec, &s)
		ev = s
	}
	if err != nil {
		return nil, &model.MalformedEvidenceError{Kind: kind, Field: "spec", Reason: err.Error()}
	}

	if err := model.ValidateEvidence(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func resolveKind(name string) (model.EvidenceKind, bool) {
	if kind, ok := kindAliases[name]; ok {
		return kind, true
	}
	for _, kind := range model.Kinds() {
		if string(kind) == name {
			return kind, true
		}
	}
	return "", false
}

func decodeSpec(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// FromClaim converts a claim to its wire form
func FromClaim(claim model.Claim) (Document, error) {
	ts := claim.Timestamp
	doc := Document{
		ID:          claim.ID,
		Description: claim.Description,
		Source:      claim.Source,
		Evidence:    make([]EvidenceDoc, 0, len(claim.Evidence)),
	}
	if !ts.IsZero() {
		doc.Timestamp = &ts
	}

	for i, ev := range claim.Evidence {
		ed, err := FromEvidence(ev)
		if err != nil {
			return Document{}, fmt.Errorf("evidence %d: %w", i, err)
		}
		doc.Evidence = append(doc.Evidence, ed)
	}
	return doc, nil
}

// FromEvidence converts evidence to its tagged wire form
func FromEvidence(ev model.Evidence) (EvidenceDoc, error) {
	if err := model.ValidateEvidence(ev); err != nil {
		return EvidenceDoc{}, err
	}
	spec, err := json.Marshal(ev)
	if err != nil {
		return EvidenceDoc{}, fmt.Errorf("marshal %s spec: %w", ev.Kind(), err)
	}
	return EvidenceDoc{Type: string(ev.Kind()), Spec: spec}, nil
}

// Encode writes a claim as indented JSON
func Encode(w io.Writer, claim model.Claim) error {
	doc, err := FromClaim(claim)
	if err != nil {
		return err
	}
	return writeJSON(w, doc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode claim JSON: %w", err)
	}
	return nil
}
