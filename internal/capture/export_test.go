package capture

// Export internal functions for testing.

var (
	ParseAVFoundationDevices = parseAVFoundationDevices
	ParseDShowDevices        = parseDShowDevices
	ParsePulseDevices        = parsePulseDevices
	ListDevicesArgs          = listDevicesArgs
	IsVirtualAudioDevice     = isVirtualAudioDevice
)
