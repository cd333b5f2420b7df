package rpsgraph

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/rpsgraph/hal"
	"github.com/gogpu/rpsgraph/internal/diagfeed"
)

// DeviceCreateInfo configures deviceCreate (spec §6): which backend hook to
// install, and the ambient printer/logger the graph routes diagnostics
// through.
type DeviceCreateInfo struct {
	// Backend names a hal.Factory registered via hal.Register (e.g. "null"
	// for hal/nullhook, or a real backend package's init-time registration).
	Backend string

	// Printer receives free-form diagnostic text (spec §4.10, §6: "routed
	// to the printer; not a stable interface"). Nil disables dumps.
	Printer diagfeed.Printer

	// Logger installs the process-wide structured logger (spec §5's "one
	// process-wide global, last-writer-wins"). Nil leaves the current
	// logger (silent by default) in place.
	Logger *slog.Logger
}

// Device owns one backend hook table and is the handle every RenderGraph
// created against it shares (spec §6 "deviceCreate(createInfo) → device").
type Device struct {
	hook     hal.Hook
	printer  diagfeed.Printer
	released bool
}

// DeviceCreate installs the named backend hook table and the printer, and
// sets the process-wide logger when info.Logger is non-nil. It installs no
// allocator: a Device holds only the hook table and the printer.
func DeviceCreate(info DeviceCreateInfo) (*Device, error) {
	hook, err := hal.Create(info.Backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNoBackend, info.Backend, err)
	}
	if err := hook.Validate(); err != nil {
		return nil, err
	}
	if info.Logger != nil {
		diagfeed.SetLogger(info.Logger)
	}
	return &Device{hook: hook, printer: info.Printer}, nil
}

// Hook returns the device's backend vtable.
func (d *Device) Hook() hal.Hook { return d.hook }

// Release marks the device as no longer usable. RenderGraphs created
// against it are not automatically released; the caller is expected to
// release them first.
func (d *Device) Release() {
	d.released = true
}
