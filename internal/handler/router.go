package handler

import "net/http"

// Handlers groups everything the router mounts
type Handlers struct {
	Folders *FolderHandler
	Files   *FileHandler
	Shares  *ShareHandler
	Quota   *QuotaHandler
	Health  *HealthHandler
	Metrics http.Handler // nil leaves /metrics unmounted
}

// NewRouter registers every route (Go 1.22+ enhanced patterns)
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Health)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	// Folder routes
	mux.HandleFunc("POST /api/folders", h.Folders.CreateFolder)
	mux.HandleFunc("GET /api/folders", h.Folders.ListFolders)
	mux.HandleFunc("GET /api/folders/{id}", h.Folders.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", h.Folders.UpdateFolder)
	mux.HandleFunc("POST /api/folders/{id}/move", h.Folders.MoveFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", h.Folders.DeleteFolder)
	mux.HandleFunc("POST /api/folders/{id}/share", h.Shares.ShareFolder)
	mux.HandleFunc("DELETE /api/folders/{id}/share", h.Shares.RevokeFolderShare)

	// File routes
	mux.HandleFunc("POST /api/files", h.Files.UploadFile)
	mux.HandleFunc("GET /api/files", h.Files.ListFiles)
	mux.HandleFunc("GET /api/files/{id}", h.Files.GetFile)
	mux.HandleFunc("PATCH /api/files/{id}", h.Files.UpdateFile)
	mux.HandleFunc("POST /api/files/{id}/move", h.Files.MoveFile)
	mux.HandleFunc("POST /api/files/{id}/copy", h.Files.CopyFile)
	mux.HandleFunc("PUT /api/files/{id}/content", h.Files.UploadVersion)
	mux.HandleFunc("GET /api/files/{id}/download", h.Files.DownloadFile)
	mux.HandleFunc("PATCH /api/files/{id}/status", h.Files.UpdateStatus)
	mux.HandleFunc("DELETE /api/files/{id}", h.Files.DeleteFile)
	mux.HandleFunc("POST /api/files/{id}/share", h.Shares.ShareFile)
	mux.HandleFunc("DELETE /api/files/{id}/share", h.Shares.RevokeFileShare)

	// Quota
	mux.HandleFunc("GET /api/quota", h.Quota.GetQuota)

	// Share links (public)
	mux.HandleFunc("GET /api/shares/{token}", h.Shares.ResolveShare)
	mux.HandleFunc("GET /s/{token}", h.Shares.ResolveShare)

	return mux
}
