package claimio

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dyadt/internal/model"
)

const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func fixedClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := clock
	clock = func() time.Time { return at }
	t.Cleanup(func() { clock = prev })
}

func TestDecodeFullClaim(t *testing.T) {
	input := `{
		"id": "claim-42",
		"timestamp": "2026-01-02T03:04:05Z",
		"description": "Created the configuration file",
		"source": "setup-agent",
		"evidence": [
			{"type": "FileExists", "spec": {"path": "/etc/myapp/config.toml"}},
			{"type": "FileHash", "spec": {"path": "/etc/myapp/config.toml", "sha256": "` + strings.ToUpper(emptySHA256) + `", "algorithm": "sha256"}},
			{"type": "FileContains", "spec": {"path": "/etc/myapp/config.toml", "substring": "version = "}},
			{"type": "DirExists", "spec": {"path": "/etc/myapp"}},
			{"type": "CommandSucceeds", "spec": {"command": "myapp", "args": ["--check"], "expected_exit_code": 0}},
			{"type": "Custom", "spec": {"name": "db_migrated", "params": {"version": "3"}}}
		]
	}`

	claim, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "claim-42", claim.ID)
	assert.Equal(t, "setup-agent", claim.Source)
	assert.True(t, claim.Timestamp.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.Len(t, claim.Evidence, 6)

	assert.Equal(t, model.FileExists{Path: "/etc/myapp/config.toml"}, claim.Evidence[0])
	assert.Equal(t, model.FileHash{Path: "/etc/myapp/config.toml", SHA256: emptySHA256, Algorithm: model.HashSHA256}, claim.Evidence[1])
	assert.Equal(t, model.FileContains{Path: "/etc/myapp/config.toml", Substring: "version = "}, claim.Evidence[2])
	assert.Equal(t, model.DirExists{Path: "/etc/myapp"}, claim.Evidence[3])
	assert.Equal(t, model.CommandSucceeds{Command: "myapp", Args: []string{"--check"}}, claim.Evidence[4])
	assert.Equal(t, model.Custom{Name: "db_migrated", Params: map[string]string{"version": "3"}}, claim.Evidence[5])
}

func TestDecodeGeneratesIDAndTimestamp(t *testing.T) {
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	fixedClock(t, now)

	claim, err := Decode(strings.NewReader(`{"description": "no id", "evidence": []}`))
	require.NoError(t, err)

	assert.NotEmpty(t, claim.ID)
	assert.True(t, claim.Timestamp.Equal(now))
	assert.Empty(t, claim.Evidence)
}

func TestDecodeAliasesAndDefaults(t *testing.T) {
	input := `{
		"description": "legacy format",
		"evidence": [
			{"type": "FileWithHash", "spec": {"path": "/a", "sha256": "` + emptySHA256 + `"}},
			{"type": "DirectoryExists", "spec": {"path": "/d"}},
			{"type": "CommandSucceeds", "spec": {"command": "true"}}
		]
	}`

	claim, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, claim.Evidence, 3)

	hash, ok := claim.Evidence[0].(model.FileHash)
	require.True(t, ok)
	assert.Equal(t, model.HashSHA256, hash.Algorithm)
	assert.Equal(t, model.KindDirExists, claim.Evidence[1].Kind())
	assert.Equal(t, 0, claim.Evidence[2].(model.CommandSucceeds).ExpectedExitCode)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown type", `{"description": "x", "evidence": [{"type": "Teleported", "spec": {}}]}`},
		{"missing spec", `{"description": "x", "evidence": [{"type": "FileExists"}]}`},
		{"null spec", `{"description": "x", "evidence": [{"type": "FileExists", "spec": null}]}`},
		{"unknown spec field", `{"description": "x", "evidence": [{"type": "FileExists", "spec": {"path": "/a", "mode": "0644"}}]}`},
		{"missing path", `{"description": "x", "evidence": [{"type": "DirExists", "spec": {}}]}`},
		{"bad digest", `{"description": "x", "evidence": [{"type": "FileHash", "spec": {"path": "/a", "sha256": "abc"}}]}`},
		{"unsupported algorithm", `{"description": "x", "evidence": [{"type": "FileHash", "spec": {"path": "/a", "sha256": "` + emptySHA256 + `", "algorithm": "md5"}}]}`},
		{"wrong spec type", `{"description": "x", "evidence": [{"type": "CommandSucceeds", "spec": {"command": "true", "expected_exit_code": "zero"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrMalformedEvidence), "got %v", err)
		})
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"description": `))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"description": "x", "evidence": [], "extra": true}`))
	assert.Error(t, err)
}

func TestDecodeRequiresDescription(t *testing.T) {
	for _, input := range []string{
		`{"evidence": []}`,
		`{"description": "   ", "evidence": []}`,
	} {
		_, err := Decode(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrMissingDescription, input)
	}

	_, err := DecodeMany(strings.NewReader(`[{"description": "ok", "evidence": []}, {"evidence": []}]`))
	assert.ErrorIs(t, err, ErrMissingDescription)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"second object", `{"description": "a", "evidence": []} {"description": "b", "evidence": []}`},
		{"garbage", `{"description": "a", "evidence": []} trailing`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}

	_, err := DecodeMany(strings.NewReader(`[{"description": "a", "evidence": []}] []`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("{\"description\": \"a\", \"evidence\": []}\n\n"))
	assert.NoError(t, err, "trailing whitespace is fine")
}

func TestRoundTrip(t *testing.T) {
	hash, err := model.NewFileHash("/bin/app", emptySHA256, model.HashSHA256)
	require.NoError(t, err)
	cmd, err := model.NewCommandSucceeds("grep", []string{"-q", "x", "/f"}, 1)
	require.NoError(t, err)
	custom, err := model.NewCustom("row_count", map[string]string{"table": "users", "min": "1"})
	require.NoError(t, err)

	original := model.NewClaim("Deployed the app",
		model.FileExists{Path: "/bin/app"},
		hash,
		model.FileContains{Path: "/etc/app.conf", Substring: "port = 8080"},
		model.DirExists{Path: "/var/lib/app"},
		cmd,
		custom,
	).WithSource("deploy-bot")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, original))

	decoded, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Description, decoded.Description)
	assert.Equal(t, original.Source, decoded.Source)
	assert.True(t, original.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, original.Evidence, decoded.Evidence)
}

func TestRoundTripWithoutIDAndTimestamp(t *testing.T) {
	original := model.Claim{
		Description: "anonymous",
		Evidence:    []model.Evidence{model.DirExists{Path: "/tmp"}},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, original))
	assert.NotContains(t, buf.String(), `"id"`)
	assert.NotContains(t, buf.String(), `"timestamp"`)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.NotEmpty(t, decoded.ID)
	assert.False(t, decoded.Timestamp.IsZero())
	assert.Equal(t, original.Evidence, decoded.Evidence)
}

func TestEncodeRejectsMalformedEvidence(t *testing.T) {
	err := Encode(&bytes.Buffer{}, model.NewClaim("bad", model.FileExists{}))
	assert.ErrorIs(t, err, model.ErrMalformedEvidence)
}

func TestDecodeMany(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		claims, err := DecodeMany(strings.NewReader(`[
			{"description": "one", "evidence": []},
			{"description": "two", "evidence": [{"type": "DirExists", "spec": {"path": "/"}}]}
		]`))
		require.NoError(t, err)
		require.Len(t, claims, 2)
		assert.Equal(t, "two", claims[1].Description)
	})

	t.Run("single object", func(t *testing.T) {
		claims, err := DecodeMany(strings.NewReader(`{"description": "solo", "evidence": []}`))
		require.NoError(t, err)
		require.Len(t, claims, 1)
	})

	t.Run("empty array", func(t *testing.T) {
		claims, err := DecodeMany(strings.NewReader(`[]`))
		require.NoError(t, err)
		assert.Empty(t, claims)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := DecodeMany(strings.NewReader("  "))
		assert.Error(t, err)
	})

	t.Run("malformed item names its index", func(t *testing.T) {
		_, err := DecodeMany(strings.NewReader(`[
			{"description": "ok", "evidence": []},
			{"description": "bad", "evidence": [{"type": "Nope", "spec": {}}]}
		]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "claim 1")
		assert.ErrorIs(t, err, model.ErrMalformedEvidence)
	})
}

func TestLoadManyFile(t *testing.T) {
	claims := []model.Claim{
		model.NewClaim("a", model.DirExists{Path: "/"}),
		model.NewClaim("b", model.FileExists{Path: "/etc/hosts"}),
	}

	docs := make([]Document, 0, len(claims))
	for _, c := range claims {
		doc, err := FromClaim(c)
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	data, err := json.Marshal(docs)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "claims.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadManyFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, claims[0].ID, loaded[0].ID)
	assert.Equal(t, claims[1].Evidence, loaded[1].Evidence)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFromEvidenceTaggedForm(t *testing.T) {
	doc, err := FromEvidence(model.FileContains{Path: "/a", Substring: "<x & y>"})
	require.NoError(t, err)
	assert.Equal(t, "FileContains", doc.Type)

	ev, err := doc.Evidence()
	require.NoError(t, err)
	assert.Equal(t, model.FileContains{Path: "/a", Substring: "<x & y>"}, ev)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	evidence, ok := props["evidence"].(map[string]any)
	require.True(t, ok)
	items, ok := evidence["items"].(map[string]any)
	require.True(t, ok)
	variants, ok := items["oneOf"].([]any)
	require.True(t, ok)
	assert.Len(t, variants, len(model.Kinds()))

	for _, kind := range model.Kinds() {
		assert.Contains(t, string(data), `"const": "`+string(kind)+`"`)
	}
	assert.Contains(t, string(data), "expected_exit_code")
}
