package drive

// Owner is the quota ledger row of a user
type Owner struct {
	ID           string `json:"id"`
	StorageUsed  int64  `json:"storage_used"`
	StorageLimit int64  `json:"storage_limit"`
}

// Available returns the remaining headroom, never negative
func (o *Owner) Available() int64 {
	if o.StorageUsed >= o.StorageLimit {
		return 0
	}
	return o.StorageLimit - o.StorageUsed
}

// CanUpload reports whether size more bytes fit under the limit
func CanUpload(used, limit, size int64) bool {
	return used+size <= limit
}

// ReleasedUsage returns used reduced by freed, clamped at zero
func ReleasedUsage(used, freed int64) int64 {
	if freed >= used {
		return 0
	}
	return used - freed
}
