package drive

// FileStatus tracks a file through upload and processing
type FileStatus string

const (
	FileStatusUploading  FileStatus = "uploading"
	FileStatusProcessing FileStatus = "processing"
	FileStatusReady      FileStatus = "ready"
	FileStatusError      FileStatus = "error"
)

var fileTransitions = map[FileStatus][]FileStatus{
	FileStatusUploading:  {FileStatusProcessing, FileStatusError},
	FileStatusProcessing: {FileStatusReady, FileStatusError},
}

// Valid reports whether s is a known status
func (s FileStatus) Valid() bool {
	switch s {
	case FileStatusUploading, FileStatusProcessing, FileStatusReady, FileStatusError:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s FileStatus) Terminal() bool {
	return s == FileStatusReady || s == FileStatusError
}

// CanTransition reports whether from -> to is a legal step
func CanTransition(from, to FileStatus) bool {
	for _, next := range fileTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
