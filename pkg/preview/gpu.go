package preview

import (
	"github.com/google/uuid"

	v1 "github.com/ChrisCarter22/Cataloger/pkg/api/v1"
)

// GpuBridge is the platform-pluggable texture uploader capability. The
// rendering front-end that consumes the uploaded texture is out of scope;
// this package only owns the interface and a non-functional Stub.
type GpuBridge interface {
	Upload(image v1.PreviewImage) (ok bool, errMsg string)
	Backend() v1.Backend
}

// DebugLabeler is an optional capability a GpuBridge may additionally
// implement to surface a human-readable label for its last upload.
type DebugLabeler interface {
	TextureDebugLabel() string
}

// StubBridge is the bridge shipped for platforms with no native uploader.
// It always fails; callers must tolerate this and record it as an event,
// never abort the pipeline because of it.
type StubBridge struct {
	lastLabel string
}

// NewStubBridge builds the always-failing stub bridge.
func NewStubBridge() *StubBridge {
	return &StubBridge{}
}

func (s *StubBridge) Upload(image v1.PreviewImage) (bool, string) {
	s.lastLabel = "stub-" + uuid.NewString()
	return false, "GPU backend unavailable on this platform."
}

func (s *StubBridge) Backend() v1.Backend { return v1.BackendStub }

func (s *StubBridge) TextureDebugLabel() string { return s.lastLabel }

// NewDefaultBridge is the factory that picks a platform-appropriate
// implementation at construction time. The core ships no native Metal or
// Vulkan bridge (those live behind the out-of-scope viewer/render
// contract); every platform therefore resolves to the Stub today, leaving
// the seam for a real implementation to be injected via
// PreviewService.SetGpuBridgeForTesting or an equivalent production
// setter.
// nolint: ireturn
func NewDefaultBridge() GpuBridge {
	return NewStubBridge()
}

// BackendLabel maps a bridge's backend to the string a CacheEvent records:
// every backend, known or not, uses its own name; no bridge at all uses
// "none".
func BackendLabel(b GpuBridge) string {
	if b == nil {
		return "none"
	}
	switch b.Backend() {
	case v1.BackendMetal:
		return "Metal"
	case v1.BackendVulkan:
		return "Vulkan"
	case v1.BackendStub:
		return "Stub"
	default:
		return string(b.Backend())
	}
}
