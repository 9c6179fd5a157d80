package minecraft

type UpdateKind string

const (
	LibraryUpdate   UpdateKind = "library"
	AssetUpdate     UpdateKind = "asset"
	LogConfigUpdate UpdateKind = "log_config"
	ClientUpdate    UpdateKind = "client"
	CancelUpdate    UpdateKind = "cancel"
	SuccessUpdate   UpdateKind = "success"
	ErrorUpdate     UpdateKind = "error"
)

// Progress is 1-indexed: CurrentFile equals TotalFiles on the last file of a stage.
type Progress struct {
	TotalFiles      int
	CurrentFile     int
	CurrentFileUrl  string
	CurrentFileSize *int64
}

type InstallationUpdate struct {
	Kind     UpdateKind
	Progress Progress
	Err      error
}

func (u InstallationUpdate) Done() bool {
	return u.Kind == CancelUpdate || u.Kind == SuccessUpdate || u.Kind == ErrorUpdate
}
