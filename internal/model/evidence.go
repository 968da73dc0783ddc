package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EvidenceKind is the discriminator of an evidence variant
type EvidenceKind string

const (
	KindFileExists      EvidenceKind = "FileExists"
	KindFileHash        EvidenceKind = "FileHash"
	KindFileContains    EvidenceKind = "FileContains"
	KindDirExists       EvidenceKind = "DirExists"
	KindCommandSucceeds EvidenceKind = "CommandSucceeds"
	KindCustom          EvidenceKind = "Custom"
)

// Kinds lists every evidence kind in declaration order
func Kinds() []EvidenceKind {
	return []EvidenceKind{
		KindFileExists,
		KindFileHash,
		KindFileContains,
		KindDirExists,
		KindCommandSucceeds,
		KindCustom,
	}
}

// HashAlgorithm identifies the digest used by FileHash evidence
type HashAlgorithm string

// HashSHA256 is the only supported algorithm
const HashSHA256 HashAlgorithm = "sha256"

// NormalizeAlgorithm maps spellings like "SHA-256" onto their canonical identifier.
// Unknown identifiers are returned lowercased so validation can reject them.
func NormalizeAlgorithm(s string) HashAlgorithm {
	a := strings.ToLower(strings.TrimSpace(s))
	if a == "sha-256" || a == "sha_256" {
		return HashSHA256
	}
	return HashAlgorithm(a)
}

// Evidence is an observable artifact that should exist if a claim is true.
//
// The variant set is closed: only the types in this file implement it.
type Evidence interface {
	Kind() EvidenceKind
	isEvidence()
}

// FileExists expects a filesystem entry at Path
type FileExists struct {
	Path string `json:"path" validate:"required" jsonschema:"required"`
}

// FileHash expects the file at Path to have the given digest
type FileHash struct {
	Path      string        `json:"path" validate:"required" jsonschema:"required"`
	SHA256    string        `json:"sha256" validate:"required,len=64,hexadecimal,excludesall=xX" jsonschema:"required,pattern=^[0-9a-fA-F]{64}$"`
	Algorithm HashAlgorithm `json:"algorithm" validate:"required,oneof=sha256" jsonschema:"enum=sha256,default=sha256"`
}

// FileContains expects the file at Path to contain Substring verbatim
type FileContains struct {
	Path      string `json:"path" validate:"required" jsonschema:"required"`
	Substring string `json:"substring" validate:"required" jsonschema:"required,minLength=1"`
}

// DirExists expects a directory at Path
type DirExists struct {
	Path string `json:"path" validate:"required" jsonschema:"required"`
}

// CommandSucceeds expects Command to exit with ExpectedExitCode
type CommandSucceeds struct {
	Command          string   `json:"command" validate:"required" jsonschema:"required"`
	Args             []string `json:"args"`
	ExpectedExitCode int      `json:"expected_exit_code" validate:"min=0,max=255" jsonschema:"minimum=0,maximum=255,default=0"`
}

// Custom delegates to a checker registered under Name
type Custom struct {
	Name   string            `json:"name" validate:"required" jsonschema:"required"`
	Params map[string]string `json:"params"`
}

func (FileExists) Kind() EvidenceKind      { return KindFileExists }
func (FileHash) Kind() EvidenceKind        { return KindFileHash }
func (FileContains) Kind() EvidenceKind    { return KindFileContains }
func (DirExists) Kind() EvidenceKind       { return KindDirExists }
func (CommandSucceeds) Kind() EvidenceKind { return KindCommandSucceeds }
func (Custom) Kind() EvidenceKind          { return KindCustom }

func (FileExists) isEvidence()      {}
func (FileHash) isEvidence()        {}
func (FileContains) isEvidence()    {}
func (DirExists) isEvidence()       {}
func (CommandSucceeds) isEvidence() {}
func (Custom) isEvidence()          {}

// NewFileExists builds FileExists evidence
func NewFileExists(path string) (FileExists, error) {
	e := FileExists{Path: path}
	return e, ValidateEvidence(e)
}

// NewFileHash builds FileHash evidence. The expected digest is stored lowercase.
func NewFileHash(path, expected string, algorithm HashAlgorithm) (FileHash, error) {
	e := FileHash{
		Path:      path,
		SHA256:    strings.ToLower(strings.TrimSpace(expected)),
		Algorithm: NormalizeAlgorithm(string(algorithm)),
	}
	return e, ValidateEvidence(e)
}

// NewFileContains builds FileContains evidence
func NewFileContains(path, substring string) (FileContains, error) {
	e := FileContains{Path: path, Substring: substring}
	return e, ValidateEvidence(e)
}

// NewDirExists builds DirExists evidence
func NewDirExists(path string) (DirExists, error) {
	e := DirExists{Path: path}
	return e, ValidateEvidence(e)
}

// NewCommandSucceeds builds CommandSucceeds evidence
func NewCommandSucceeds(command string, args []string, expectedExitCode int) (CommandSucceeds, error) {
	e := CommandSucceeds{
		Command:          command,
		Args:             append([]string(nil), args...),
		ExpectedExitCode: expectedExitCode,
	}
	return e, ValidateEvidence(e)
}

// NewCustom builds Custom evidence. Params are copied.
func NewCustom(name string, params map[string]string) (Custom, error) {
	e := Custom{Name: name, Params: CopyParams(params)}
	return e, ValidateEvidence(e)
}

// CopyParams returns a shallow copy of a parameter map (nil stays nil)
func CopyParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

// validate is shared; building a validator is expensive and it caches struct metadata
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so errors match the claim input format
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateEvidence checks that all parameters required by the variant are present.
// It returns a *MalformedEvidenceError on failure.
func ValidateEvidence(e Evidence) error {
	if e == nil {
		return &MalformedEvidenceError{Reason: "evidence is nil"}
	}

	switch e.(type) {
	case FileExists, FileHash, FileContains, DirExists, CommandSucceeds, Custom:
	default:
		return &MalformedEvidenceError{Reason: fmt.Sprintf("unsupported evidence type %T", e)}
	}

	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &MalformedEvidenceError{Kind: e.Kind(), Reason: err.Error()}
	}

	fe := verrs[0]
	return &MalformedEvidenceError{
		Kind:   e.Kind(),
		Field:  fe.Field(),
		Reason: describeFieldError(fe),
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be %s characters long", fe.Param())
	case "hexadecimal", "excludesall":
		return "must be hexadecimal"
	case "oneof":
		return fmt.Sprintf("unsupported value %q (want one of: %s)", fe.Value(), fe.Param())
	case "min", "max":
		return "must be between 0 and 255"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// Describe returns a one-line human description of a piece of evidence
func Describe(e Evidence) string {
	switch ev := e.(type) {
	case FileExists:
		return fmt.Sprintf("File exists: %s", ev.Path)
	case FileHash:
		return fmt.Sprintf("File hash: %s", ev.Path)
	case FileContains:
		return fmt.Sprintf("File contains %q: %s", ev.Substring, ev.Path)
	case DirExists:
		return fmt.Sprintf("Directory exists: %s", ev.Path)
	case CommandSucceeds:
		cmd := strings.TrimSpace(ev.Command + " " + strings.Join(ev.Args, " "))
		if ev.ExpectedExitCode != 0 {
			return fmt.Sprintf("Command exits %d: %s", ev.ExpectedExitCode, cmd)
		}
		return fmt.Sprintf("Command succeeds: %s", cmd)
	case Custom:
		return fmt.Sprintf("Custom check: %s", ev.Name)
	case nil:
		return "<nil evidence>"
	default:
		return fmt.Sprintf("%T evidence", e)
	}
}
