package params

const (
	// ParamsKeyPauses stores the module pause configuration.
	ParamsKeyPauses = "system/pauses"
	// ParamsKeyProtocol stores the protocol parameters fixed at first boot.
	ParamsKeyProtocol = "system/protocol"
)
