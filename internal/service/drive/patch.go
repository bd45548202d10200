package drive

import (
	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"
)

// nodePatch is a validated PATCH body. Nil fields are left unchanged.
type nodePatch struct {
	name         *string
	description  *string
	color        *string
	icon         *string
	tags         []string
	setTags      bool
	isPublic     *bool
	allowedUsers []drive.Grant
	setGrants    bool
}

func (p *nodePatch) changesPermissions() bool {
	return p.isPublic != nil || p.setGrants
}

func normalizeFolderPatch(req *driveSvc.UpdateFolderRequest) (*nodePatch, error) {
	p, err := normalizeCommonPatch(req.Name, req.Description, req.Tags, req.IsPublic, req.AllowedUsers)
	if err != nil {
		return nil, err
	}
	p.color = req.Color
	p.icon = req.Icon
	return p, nil
}

func normalizeFilePatch(req *driveSvc.UpdateFileRequest) (*nodePatch, error) {
	return normalizeCommonPatch(req.Name, req.Description, req.Tags, req.IsPublic, req.AllowedUsers)
}

func normalizeCommonPatch(name, description *string, tags *[]string, isPublic *bool, grants *[]drive.Grant) (*nodePatch, error) {
	p := &nodePatch{description: description, isPublic: isPublic}
	if name != nil {
		n, err := normalizeName(*name)
		if err != nil {
			return nil, err
		}
		p.name = &n
	}
	if description != nil {
		d, err := normalizeDescription(*description)
		if err != nil {
			return nil, err
		}
		p.description = &d
	}
	if tags != nil {
		t, err := normalizeTags(*tags)
		if err != nil {
			return nil, err
		}
		p.tags, p.setTags = t, true
	}
	if grants != nil {
		if err := validateGrants(*grants); err != nil {
			return nil, err
		}
		p.allowedUsers = append([]drive.Grant{}, *grants...)
		p.setGrants = true
	}
	return p, nil
}

// applyTo copies metadata and permission fields; name and placement are handled by the caller
func (p *nodePatch) applyTo(f *drive.Folder) {
	if p.description != nil {
		f.Description = *p.description
	}
	if p.color != nil {
		f.Color = *p.color
	}
	if p.icon != nil {
		f.Icon = *p.icon
	}
	if p.setTags {
		f.Tags = p.tags
	}
	p.applyPermissions(&f.Permissions)
}

func (p *nodePatch) applyToFile(f *drive.File) {
	if p.description != nil {
		f.Description = *p.description
	}
	if p.setTags {
		f.Tags = p.tags
	}
	p.applyPermissions(&f.Permissions)
}

func (p *nodePatch) applyPermissions(perms *drive.Permissions) {
	if p.isPublic != nil {
		perms.IsPublic = *p.isPublic
	}
	if p.setGrants {
		perms.AllowedUsers = p.allowedUsers
	}
}
