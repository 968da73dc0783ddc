package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/dyadt/internal/model"
)

func TestVerifyMissingFileIsRefuted(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "x")
	claim := model.NewClaim("Created x", model.FileExists{Path: missing})

	report, err := NewVerifier(nil).Verify(context.Background(), claim)
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.Equal(t, model.OutcomeRefuted, report.Results[0].Outcome)
	assert.Equal(t, model.OutcomeRefuted, report.Verdict.Outcome)
	assert.False(t, report.Verdict.Trustworthy())
}

func TestVerifyEmptyFileHashIsConfirmed(t *testing.T) {
	path := writeTemp(t, "empty", "")
	claim := model.NewClaim("Created an empty file",
		model.FileExists{Path: path},
		model.FileHash{Path: path, SHA256: emptySHA256, Algorithm: model.HashSHA256},
	)

	report, err := NewVerifier(nil).Verify(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeConfirmed, report.Verdict.Outcome)
	assert.True(t, report.Verdict.Trustworthy())
}

func TestVerifyUnregisteredCustomIsInconclusive(t *testing.T) {
	claim := model.NewClaim("Migrated the database", model.Custom{Name: "db_migrated", Params: map[string]string{}})

	report, err := NewVerifier(NewEvaluator(NewRegistry())).Verify(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUnverifiable, report.Results[0].Outcome)
	assert.Equal(t, model.OutcomeInconclusive, report.Verdict.Outcome)
}

func TestVerifyMissingBinaryIsInconclusive(t *testing.T) {
	path := writeTemp(t, "present", "x")
	claim := model.NewClaim("Ran the tool",
		model.FileExists{Path: path},
		model.CommandSucceeds{Command: "dyadt-definitely-not-installed"},
	)

	report, err := NewVerifier(nil).Verify(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeConfirmed, report.Results[0].Outcome)
	assert.Equal(t, model.OutcomeUnverifiable, report.Results[1].Outcome)
	assert.Equal(t, model.OutcomeInconclusive, report.Verdict.Outcome)
}

func TestVerifyEmptyEvidenceIsInconclusive(t *testing.T) {
	report, err := NewVerifier(nil).Verify(context.Background(), model.NewClaim("Did nothing"))
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, model.OutcomeInconclusive, report.Verdict.Outcome)
}

func TestVerifyRefutedItemWinsOverConfirmed(t *testing.T) {
	dir := t.TempDir()
	claim := model.NewClaim("Set up the project",
		model.DirExists{Path: dir},
		model.FileExists{Path: filepath.Join(dir, "README.md")},
	)

	report, err := NewVerifier(nil).Verify(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRefuted, report.Verdict.Outcome)
}

func TestVerifyRejectsMalformedEvidence(t *testing.T) {
	claim := model.NewClaim("Bad claim",
		model.FileExists{Path: ""},
	)

	_, err := NewVerifier(nil).Verify(context.Background(), claim)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformedEvidence)
}

func TestVerifyPreservesClaimAndStampsTime(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := NewVerifier(nil)
	v.now = func() time.Time { return fixed }

	claim := model.NewClaim("Made a dir", model.DirExists{Path: t.TempDir()}).WithSource("setup-agent")
	report, err := v.Verify(context.Background(), claim)
	require.NoError(t, err)

	assert.Equal(t, claim.ID, report.Claim.ID)
	assert.Equal(t, "setup-agent", report.Claim.Source)
	assert.Equal(t, fixed, report.VerifiedAt)
}

func TestDigestDeterministicAndSensitive(t *testing.T) {
	path := writeTemp(t, "data.bin", "the quick brown fox")

	first, err := DigestFile(path)
	require.NoError(t, err)
	second, err := DigestFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	require.NoError(t, os.WriteFile(path, []byte("the quick brown fix"), 0o644))
	mutated, err := DigestFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, mutated)

	empty := writeTemp(t, "empty", "")
	got, err := DigestFile(empty)
	require.NoError(t, err)
	assert.Equal(t, emptySHA256, got)
}

func TestFileHashRefutedAfterSingleByteChange(t *testing.T) {
	path := writeTemp(t, "artifact", "release-1.0")
	digest, err := DigestFile(path)
	require.NoError(t, err)

	claim := model.NewClaim("Built artifact", model.FileHash{Path: path, SHA256: digest, Algorithm: model.HashSHA256})
	v := NewVerifier(nil)

	report, err := v.Verify(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeConfirmed, report.Verdict.Outcome)

	require.NoError(t, os.WriteFile(path, []byte("release-1.1"), 0o644))
	report, err = v.Verify(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRefuted, report.Verdict.Outcome)
}
