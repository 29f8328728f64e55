package commsutil

import (
	"encoding/json"
	"fmt"
)

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("commsutil:codec - empty payload")
	}
	return json.Unmarshal(data, v)
}
