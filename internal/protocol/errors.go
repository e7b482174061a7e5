package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrWorldBusy       = "E_WORLD_BUSY"

	// Action refusals. Refusal is not an error: state is unchanged and the
	// ACK carries the reason.
	ErrCooldown  = "E_COOLDOWN"
	ErrNoTarget  = "E_NO_TARGET"
	ErrRunActive = "E_RUN_ACTIVE"
	ErrDestroyed = "E_DESTROYED"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrCooldown:        {},
	ErrNoTarget:        {},
	ErrRunActive:       {},
	ErrDestroyed:       {},
}

// KnownCode reports whether code is part of the protocol contract.
func KnownCode(code string) bool {
	_, ok := knownCodes[code]
	return ok
}
