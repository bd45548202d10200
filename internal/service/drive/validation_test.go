package drive

import (
	"strings"
	"testing"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/domain/models/drive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "  Reports ", want: "Reports"},
		{in: "naïve.txt", want: "naïve.txt"},
		{in: strings.Repeat("é", 255), want: strings.Repeat("é", 255)},
		{in: strings.Repeat("a", 256), wantErr: true},
		{in: "   ", wantErr: true},
		{in: "a/b", wantErr: true},
		{in: ".", wantErr: true},
		{in: "..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got, err := normalizeTags([]string{" b", "a", "", "b", "a "})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)

	got, err = normalizeTags(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	_, err = normalizeTags([]string{strings.Repeat("t", 65)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	many := make([]string, 51)
	for i := range many {
		many[i] = strings.Repeat("x", i+1)
	}
	_, err = normalizeTags(many)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateGrants(t *testing.T) {
	assert.NoError(t, validateGrants([]drive.Grant{
		{UserID: "bob", Permission: drive.PermissionRead},
		{UserID: "carol", Permission: drive.PermissionAdmin},
	}))
	assert.ErrorIs(t, validateGrants([]drive.Grant{{UserID: "", Permission: drive.PermissionRead}}), domain.ErrValidation)
	assert.ErrorIs(t, validateGrants([]drive.Grant{{UserID: "bob", Permission: "owner"}}), domain.ErrValidation)
	assert.ErrorIs(t, validateGrants([]drive.Grant{
		{UserID: "bob", Permission: drive.PermissionRead},
		{UserID: "bob", Permission: drive.PermissionWrite},
	}), domain.ErrValidation)
}

func TestValidateListOptions(t *testing.T) {
	opts := &drive.ListOptions{Search: "  q "}
	require.NoError(t, validateListOptions(opts))
	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, drive.DefaultListLimit, opts.Limit)
	assert.Equal(t, drive.SortByName, opts.SortBy)
	assert.Equal(t, drive.SortAsc, opts.SortOrder)
	assert.Equal(t, "q", opts.Search)

	assert.ErrorIs(t, validateListOptions(&drive.ListOptions{Limit: 101}), domain.ErrValidation)
	assert.ErrorIs(t, validateListOptions(&drive.ListOptions{SortBy: "owner"}), domain.ErrValidation)
	assert.ErrorIs(t, validateListOptions(&drive.ListOptions{SortOrder: "up"}), domain.ErrValidation)
}

func TestCopyName(t *testing.T) {
	assert.Equal(t, "report (copy).pdf", copyName("report.pdf"))
	assert.Equal(t, "archive.tar (copy).gz", copyName("archive.tar.gz"))
	assert.Equal(t, "README (copy)", copyName("README"))
	assert.Equal(t, ".env (copy)", copyName(".env"))
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  quarterly numbers ", "quarterly numbers"},
		{"<b>bold</b> claim", "bold claim"},
		{`<script>alert(1)</script>notes`, "notes"},
		{"fish & chips", "fish & chips"},
		{`<img src=x onerror="alert(1)">`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeDescription(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := normalizeDescription(strings.Repeat("x", config.MaxDescriptionLength+1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
