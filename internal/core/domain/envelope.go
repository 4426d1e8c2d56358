package domain

import (
	"encoding/json"
	"fmt"
)

// Envelope is the payload carried by the messaging transport between the
// two roles. The transport authenticates the source chain; everything the
// receiving role needs beyond that travels in the envelope.
type Envelope struct {
	AssetID   AssetID `json:"asset_id"`
	Recipient Address `json:"recipient"`
}

func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEnvelope(buf []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(buf, &e); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return e, nil
}
