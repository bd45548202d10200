package drive

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	"folio/internal/domain/services"
	driveSvc "folio/internal/domain/services/drive"

	"golang.org/x/crypto/bcrypt"
)

// shareTokenBytes is the entropy of a share token (256 bits)
const shareTokenBytes = 32

type shareService struct {
	*tree
	authorizer services.NodeAuthorizer
	blobs      services.ObjectStore
	opts       Options
}

// NewShareService creates a new share link service
func NewShareService(deps Dependencies, opts Options) driveSvc.ShareService {
	return &shareService{
		tree:       newTree(deps),
		authorizer: deps.Authorizer,
		blobs:      deps.Blobs,
		opts:       opts.withDefaults(),
	}
}

// GenerateShareLink mints a fresh token for the node, replacing any previous link
func (s *shareService) GenerateShareLink(ctx context.Context, userID string, kind driveSvc.NodeKind, nodeID string, req *driveSvc.ShareRequest) (_ *driveSvc.ShareLinkInfo, err error) {
	defer s.observe("generate_share_link", time.Now(), &err)

	if req.ExpiresIn != nil && *req.ExpiresIn <= 0 {
		return nil, domain.NewValidationError("expires_in must be positive")
	}
	if kind == driveSvc.NodeKindFolder && req.AllowDownload {
		return nil, domain.NewValidationError("allow_download applies to files only")
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	now := s.opts.now()
	link := &drive.ShareLink{
		Token:         token,
		AllowDownload: req.AllowDownload,
		AllowUpload:   req.AllowUpload,
		CreatedAt:     now,
		CreatedBy:     userID,
	}
	if req.ExpiresIn != nil {
		expires := now.Add(*req.ExpiresIn)
		link.ExpiresAt = &expires
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash share password: %w", err)
		}
		link.PasswordHash = string(hash)
		link.HasPassword = true
	}

	if err := s.setLink(ctx, userID, kind, nodeID, link); err != nil {
		return nil, err
	}

	s.logger.Info("share link generated",
		"kind", kind,
		"node_id", nodeID,
		"created_by", userID,
		"expires_at", link.ExpiresAt,
		"has_password", link.HasPassword,
	)
	return &driveSvc.ShareLinkInfo{
		Token:         link.Token,
		URL:           shareURL(s.opts.PublicBaseURL, link.Token),
		ExpiresAt:     link.ExpiresAt,
		HasPassword:   link.HasPassword,
		AllowDownload: link.AllowDownload,
		AllowUpload:   link.AllowUpload,
	}, nil
}

// RevokeShareLink removes the node's link
func (s *shareService) RevokeShareLink(ctx context.Context, userID string, kind driveSvc.NodeKind, nodeID string) (err error) {
	defer s.observe("revoke_share_link", time.Now(), &err)

	if err := s.setLink(ctx, userID, kind, nodeID, nil); err != nil {
		return err
	}
	s.logger.Info("share link revoked", "kind", kind, "node_id", nodeID, "revoked_by", userID)
	return nil
}

// setLink stores link (nil clears it) on the node; requires admin access
func (s *shareService) setLink(ctx context.Context, userID string, kind driveSvc.NodeKind, nodeID string, link *drive.ShareLink) error {
	switch kind {
	case driveSvc.NodeKindFolder:
		current, err := s.authorizer.AuthorizeFolder(ctx, userID, nodeID, drive.PermissionAdmin)
		if err != nil {
			return err
		}
		return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
			if err := s.lock(ctx, current.OwnerID); err != nil {
				return err
			}
			folder, err := s.loadFolder(ctx, userID, nodeID, drive.PermissionAdmin)
			if err != nil {
				return err
			}
			folder.Permissions.ShareLink = link
			folder.UpdatedAt = s.opts.now()
			if err := s.folderRepo.Update(ctx, folder); err != nil {
				return fmt.Errorf("update folder share link: %w", err)
			}
			return nil
		})

	case driveSvc.NodeKindFile:
		current, err := s.authorizer.AuthorizeFile(ctx, userID, nodeID, drive.PermissionAdmin)
		if err != nil {
			return err
		}
		return s.txManager.ExecTx(ctx, func(ctx context.Context) error {
			if err := s.lock(ctx, current.OwnerID); err != nil {
				return err
			}
			file, err := s.loadFile(ctx, userID, nodeID, drive.PermissionAdmin)
			if err != nil {
				return err
			}
			file.Permissions.ShareLink = link
			file.UpdatedAt = s.opts.now()
			if err := s.fileRepo.Update(ctx, file); err != nil {
				return fmt.Errorf("update file share link: %w", err)
			}
			return nil
		})

	default:
		return domain.NewValidationError("unknown node kind %q", kind)
	}
}

// ResolveShareLink validates a presented token. No principal is involved.
func (s *shareService) ResolveShareLink(ctx context.Context, token, password string) (_ *driveSvc.SharedNode, err error) {
	defer s.observe("resolve_share_link", time.Now(), &err)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &domain.NotFoundError{ResourceType: "share link", ResourceID: token}
	}

	folder, err := s.folderRepo.GetByShareToken(ctx, token)
	switch {
	case err == nil:
		if err := s.checkLink(folder.Permissions.ShareLink, "folder", folder.ID, password); err != nil {
			return nil, err
		}
		link := folder.Permissions.ShareLink
		return &driveSvc.SharedNode{
			Kind:          driveSvc.NodeKindFolder,
			Folder:        driveSvc.NewSharedFolder(folder),
			AllowDownload: link.AllowDownload,
			AllowUpload:   link.AllowUpload,
		}, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	file, err := s.fileRepo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkLink(file.Permissions.ShareLink, "file", file.ID, password); err != nil {
		return nil, err
	}

	shared := &driveSvc.SharedNode{
		Kind:          driveSvc.NodeKindFile,
		File:          driveSvc.NewSharedFile(file),
		AllowDownload: file.Permissions.ShareLink.AllowDownload,
		AllowUpload:   file.Permissions.ShareLink.AllowUpload,
	}
	if shared.AllowDownload {
		link, err := signedDownload(ctx, s.blobs, s.fileRepo.IncrementDownloads, file, s.opts)
		if err != nil {
			return nil, err
		}
		shared.DownloadURL = link.URL
	}
	return shared, nil
}

func (s *shareService) checkLink(link *drive.ShareLink, kind, id, password string) error {
	denied := &domain.AccessDeniedError{ResourceType: kind, ResourceID: id, Action: "share"}
	if link == nil {
		return denied
	}
	if link.Expired(s.opts.now()) {
		return denied
	}
	if link.HasPassword {
		if password == "" {
			return denied
		}
		if err := bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte(password)); err != nil {
			return denied
		}
	}
	return nil
}

func newShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func shareURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/s/" + token
}
