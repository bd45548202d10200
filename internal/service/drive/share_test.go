package drive

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinkRoundTrip(t *testing.T) {
	h := newHarness(t)
	a := h.mkdir("alice", nil, "A")

	ttl := time.Hour
	info, err := h.shares.GenerateShareLink(h.ctx, "alice", driveSvc.NodeKindFolder, a.ID, &driveSvc.ShareRequest{ExpiresIn: &ttl})
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(info.Token)
	require.NoError(t, err)
	assert.Len(t, raw, shareTokenBytes)
	assert.Equal(t, "https://folio.test/s/"+info.Token, info.URL)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, h.clock.Add(time.Hour).Equal(*info.ExpiresAt))

	shared, err := h.shares.ResolveShareLink(h.ctx, info.Token, "")
	require.NoError(t, err)
	assert.Equal(t, driveSvc.NodeKindFolder, shared.Kind)
	require.NotNil(t, shared.Folder)
	assert.Equal(t, a.ID, shared.Folder.ID)
	assert.Nil(t, shared.File)

	h.clock = h.clock.Add(2 * time.Hour)
	_, err = h.shares.ResolveShareLink(h.ctx, info.Token, "")
	assert.ErrorIs(t, err, domain.ErrForbidden, "expired")
}

func TestShareLinkPassword(t *testing.T) {
	h := newHarness(t)
	f := h.upload("alice", nil, "secret.txt", "shh")

	info, err := h.shares.GenerateShareLink(h.ctx, "alice", driveSvc.NodeKindFile, f.ID, &driveSvc.ShareRequest{Password: "hunter2"})
	require.NoError(t, err)
	assert.True(t, info.HasPassword)
	assert.Nil(t, info.ExpiresAt)

	stored := h.file(f.ID).Permissions.ShareLink
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter2", stored.PasswordHash)

	_, err = h.shares.ResolveShareLink(h.ctx, info.Token, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.shares.ResolveShareLink(h.ctx, info.Token, "wrong")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	shared, err := h.shares.ResolveShareLink(h.ctx, info.Token, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, f.ID, shared.File.ID)
	assert.Empty(t, shared.DownloadURL)
	assert.Equal(t, 0, h.file(f.ID).DownloadCount)
}

func TestShareLinkDownload(t *testing.T) {
	h := newHarness(t)
	f := h.upload("alice", nil, "photo.jpg", "jpeg")

	info, err := h.shares.GenerateShareLink(h.ctx, "alice", driveSvc.NodeKindFile, f.ID, &driveSvc.ShareRequest{AllowDownload: true})
	require.NoError(t, err)

	shared, err := h.shares.ResolveShareLink(h.ctx, info.Token, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(shared.DownloadURL, "http://blobs.test/"))
	assert.Equal(t, 1, h.file(f.ID).DownloadCount)
}

func TestShareLinkReplaceAndRevoke(t *testing.T) {
	h := newHarness(t)
	a := h.mkdir("alice", nil, "A")

	first, err := h.shares.GenerateShareLink(h.ctx, "alice", driveSvc.NodeKindFolder, a.ID, &driveSvc.ShareRequest{})
	require.NoError(t, err)
	second, err := h.shares.GenerateShareLink(h.ctx, "alice", driveSvc.NodeKindFolder, a.ID, &driveSvc.ShareRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = h.shares.ResolveShareLink(h.ctx, first.Token, "")
	assert.ErrorIs(t, err, domain.ErrNotFound, "replaced token no longer resolves")

	require.NoError(t, h.shares.RevokeShareLink(h.ctx, "alice", driveSvc.NodeKindFolder, a.ID))
	_, err = h.shares.ResolveShareLink(h.ctx, second.Token, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, h.folder(a.ID).Permissions.ShareLink)
}

func TestShareLinkRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	a := h.mkdir("alice", nil, "A")
	h.grant("alice", a.ID, "bob", drive.PermissionWrite)

	_, err := h.shares.GenerateShareLink(h.ctx, "bob", driveSvc.NodeKindFolder, a.ID, &driveSvc.ShareRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	h.grant("alice", a.ID, "bob", drive.PermissionAdmin)
	_, err = h.shares.GenerateShareLink(h.ctx, "bob", driveSvc.NodeKindFolder, a.ID, &driveSvc.ShareRequest{})
	assert.NoError(t, err)
}

func TestShareLinkValidation(t *testing.T) {
	h := newHarness(t)
	a := h.mkdir("alice", nil, "A")

	_, err := h.shares.GenerateShareLink(h.ctx, "alice", driveSvc.NodeKindFolder, a.ID, &driveSvc.ShareRequest{AllowDownload: true})
	assert.ErrorIs(t, err, domain.ErrValidation)

	zero := time.Duration(0)
	_, err = h.shares.GenerateShareLink(h.ctx, "alice", driveSvc.NodeKindFolder, a.ID, &driveSvc.ShareRequest{ExpiresIn: &zero})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.shares.GenerateShareLink(h.ctx, "alice", "volume", a.ID, &driveSvc.ShareRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.shares.ResolveShareLink(h.ctx, "  ", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
