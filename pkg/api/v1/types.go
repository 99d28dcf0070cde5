// Package v1 holds the catalog's wire/storage-shaped types: the entities
// described by the catalog schema plus the in-memory descriptor and event
// types the preview pipeline passes between its components.
package v1

import "fmt"

// PreviewState tracks the farthest stage a file's preview has reached.
type PreviewState int

const (
	PreviewStateIdle PreviewState = iota
	PreviewStateCached
	PreviewStateGpuResident
)

func (s PreviewState) String() string {
	switch s {
	case PreviewStateCached:
		return "cached"
	case PreviewStateGpuResident:
		return "gpu_resident"
	default:
		return "idle"
	}
}

// StackType classifies a materialized Stack.
type StackType string

const (
	StackTypePair     StackType = "pair"
	StackTypeSequence StackType = "sequence"
	StackTypeSingle   StackType = "single"
)

// Tier identifies one of the two independent preview cache layers.
type Tier string

const (
	TierRam     Tier = "ram"
	TierPreload Tier = "preload"
)

// Backend identifies a GPU bridge implementation.
type Backend string

const (
	BackendMetal  Backend = "Metal"
	BackendVulkan Backend = "Vulkan"
	BackendStub   Backend = "Stub"
)

// Root is a registered filesystem root.
type Root struct {
	ID           int64
	AbsolutePath string
	CreatedAt    int64
}

// File is a single ingested catalog record.
type File struct {
	ID            int64
	RootID        int64
	RelativePath  string
	Filename      string
	Extension     string
	CaptureTs     int64
	FileSize      int64
	StackGroupID  *int64
	PreviewState  PreviewState
	Rating        int
	Color         int
	IngestSeq     int64
	MetadataRev   int64
}

// Stack groups ingested files sharing a filename base.
type Stack struct {
	StackGroupID int64
	Type         StackType
	AnchorFileID int64
}

// SyncEvent is a single append-only sync-queue row.
type SyncEvent struct {
	ID           int64
	RootID       int64
	RelativePath string
	EventType    string
	Payload      string
	Processed    bool
	CreatedAt    int64
}

// MetadataBlob is the catalog-side row the (out-of-scope) metadata template
// service would populate; the core only stores and returns it.
type MetadataBlob struct {
	FileID         int64
	IptcJSON       string
	XmpJSON        string
	UpdatedAt      int64
	TemplateSource string
}

// PreviewDescriptor identifies a file for the preview pipeline. It is
// in-memory only and distinct from the catalog's File.
type PreviewDescriptor struct {
	RootID       int64
	FileID       *int64
	AbsolutePath string
	RelativePath string
	FileSize     int64
	CaptureTs    int64
}

// CacheKey returns "<relative_path>#<root_id>".
func (d PreviewDescriptor) CacheKey() string {
	return fmt.Sprintf("%s#%d", d.RelativePath, d.RootID)
}

// PreviewImage is an in-memory preview surrogate, color-managed or not.
type PreviewImage struct {
	CacheKey     string
	SourcePath   string
	Pixels       []byte
	Width        int
	Height       int
	ColorManaged bool
	ColorProfile string
}

// CacheEvent is the sole external observable of the preview pipeline.
type CacheEvent struct {
	RootID           int64
	RelativePath     string
	Tier             Tier
	Hit              bool
	Error            bool
	ErrorMessage     string
	Backend          string
	GpuUploadMs      float64
	ColorTransformMs float64
}

// RawExtensions are the recognized camera RAW formats.
var RawExtensions = map[string]bool{
	".cr2": true, ".cr3": true, ".nef": true, ".arw": true,
	".raf": true, ".orf": true, ".rw2": true, ".dng": true,
}

// JpegExtensions are the recognized JPEG formats.
var JpegExtensions = map[string]bool{
	".jpg": true, ".jpeg": true,
}
