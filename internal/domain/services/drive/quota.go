package drive

import "context"

// QuotaService exposes an owner's storage usage
type QuotaService interface {
	// Usage returns the owner's ledger, provisioning it if needed
	Usage(ctx context.Context, ownerID string) (*Usage, error)
}

// Usage is the quota view returned to callers
type Usage struct {
	OwnerID   string `json:"owner_id"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Available int64  `json:"available"`
}
