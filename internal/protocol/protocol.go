package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeInput   = "INPUT"
	TypeObs     = "OBS"
	TypeAck     = "ACK"
	TypeEvent   = "EVENT"
)

type BaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

func DecodeBase(raw []byte) (BaseMsg, error) {
	var b BaseMsg
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("decode base: %w", err)
	}
	if b.Type == "" {
		return b, fmt.Errorf("missing type")
	}
	return b, nil
}
