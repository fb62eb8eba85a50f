package wgpu_backend

// deviceConfig collects builder options before the device is requested.
type deviceConfig struct {
	forceFallbackAdapter bool
	verbose              bool
}

// DeviceBuilderOption is a functional option applied by NewDevice.
type DeviceBuilderOption func(*deviceConfig)

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - DeviceBuilderOption: a function that applies the option
func WithForceSoftwareRenderer(force bool) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithVerbose logs every resource creation.
//
// Parameters:
//   - verbose: true to log resource creation
//
// Returns:
//   - DeviceBuilderOption: a function that applies the option
func WithVerbose(verbose bool) DeviceBuilderOption {
	return func(c *deviceConfig) {
		c.verbose = verbose
	}
}
