package messages

import (
	"strings"

	"deusvent/internal/encoding"
	"deusvent/internal/encryption"
	"deusvent/internal/wire"
)

const (
	jsonPrefixStart = `{"k":"`
	jsonPrefixEnd   = `","v":"`
	jsonSuffix      = `"}`

	// MinPlayerPayload is the shortest decoded player message: public key
	// and signature.
	MinPlayerPayload = encryption.PublicKeySize + encryption.SignatureSize
)

func jsonPrefix(tag uint16) string {
	return jsonPrefixStart + encoding.EncodeMessageTag(tag) + jsonPrefixEnd
}

func encodeClientString(data []byte, tag uint16) string {
	var b strings.Builder
	prefix := jsonPrefix(tag)
	b.Grow(len(prefix) + len(data)*123/100 + 2 + len(jsonSuffix))
	b.WriteString(prefix)
	b.WriteString(encoding.EncodeBase94(data))
	b.WriteString(jsonSuffix)
	return b.String()
}

func decodeClientString(data string, tag uint16) ([]byte, error) {
	prefix := jsonPrefix(tag)
	if !strings.HasPrefix(data, prefix) || !strings.HasSuffix(data, jsonSuffix) || len(data) < len(prefix)+len(jsonSuffix) {
		return nil, badData("No json_prefix and json_suffix found")
	}
	decoded, err := encoding.DecodeBase94(data[len(prefix) : len(data)-len(jsonSuffix)])
	if err != nil {
		return nil, wrapBadData(err)
	}
	return decoded, nil
}

// encodeWithRequestID encodes msg and appends the request id as last byte.
func encodeWithRequestID(msg wire.Marshaler, requestID uint8) []byte {
	var e wire.Encoder
	msg.MarshalWire(&e)
	return append(e.Bytes(), requestID)
}

func decodeWithRequestID(data []byte, msg wire.Unmarshaler) (uint8, error) {
	if len(data) == 0 {
		return 0, badData("Data too short")
	}
	requestID := data[len(data)-1]
	if err := wire.Unmarshal(data[:len(data)-1], msg); err != nil {
		return 0, wrapBadData(err)
	}
	return requestID, nil
}

// SerializeClientPublic encodes a public client message into its JSON form.
func SerializeClientPublic(msg ClientMessage, requestID uint8) string {
	return encodeClientString(encodeWithRequestID(msg, requestID), msg.ClientTag())
}

// DeserializeClientPublic decodes data into msg and returns the request id.
func DeserializeClientPublic(data string, msg ClientDecoder) (uint8, error) {
	decoded, err := decodeClientString(data, msg.ClientTag())
	if err != nil {
		return 0, err
	}
	return decodeWithRequestID(decoded, msg)
}

// SerializeClientPlayer encodes a player message. The payload is followed by
// the public key and a signature over everything before it.
func SerializeClientPlayer(msg ClientMessage, requestID uint8, keys encryption.Keys) (string, error) {
	encoded := encodeWithRequestID(msg, requestID)
	data := make([]byte, 0, len(encoded)+MinPlayerPayload)
	data = append(data, encoded...)
	data = append(data, keys.Public.Bytes()...)
	sig, err := encryption.Sign(data, keys.Private)
	if err != nil {
		return "", err
	}
	data = append(data, sig...)
	return encodeClientString(data, msg.ClientTag()), nil
}

// DeserializeClientPlayer decodes and verifies a player message. It returns
// the verified public key of the sender and the request id.
func DeserializeClientPlayer(data string, msg ClientDecoder) (*encryption.PublicKey, uint8, error) {
	decoded, err := decodeClientString(data, msg.ClientTag())
	if err != nil {
		return nil, 0, err
	}
	if len(decoded) < MinPlayerPayload {
		return nil, 0, badData("Too short message")
	}
	sigStart := len(decoded) - encryption.SignatureSize
	keyStart := sigStart - encryption.PublicKeySize
	pub, err := encryption.ParsePublicKey(decoded[keyStart:sigStart])
	if err != nil {
		return nil, 0, wrapBadData(err)
	}
	if !encryption.Verify(decoded[:sigStart], pub, decoded[sigStart:]) {
		return nil, 0, badData("Cannot verify the data")
	}
	requestID, err := decodeWithRequestID(decoded[:keyStart], msg)
	if err != nil {
		return nil, 0, err
	}
	return pub, requestID, nil
}

// SerializeServer encodes a server message.
func SerializeServer(msg ServerMessage, requestID uint8) string {
	return encoding.EncodeMessageTag(msg.ServerTag()) +
		encoding.EncodeRequestID(requestID) +
		encoding.EncodeBase94(wire.Marshal(msg))
}

// DeserializeServer decodes a server message into msg and returns the
// request id.
func DeserializeServer(data string, msg ServerDecoder) (uint8, error) {
	tag := encoding.EncodeMessageTag(msg.ServerTag())
	if len(data) < encoding.TagLen+encoding.RequestIDLen {
		return 0, badData("Data too short")
	}
	if !strings.HasPrefix(data, tag) {
		return 0, badData("Bad message tag")
	}
	requestID, err := encoding.DecodeRequestID([]byte(data[encoding.TagLen : encoding.TagLen+encoding.RequestIDLen]))
	if err != nil {
		return 0, wrapBadData(err)
	}
	decoded, err := encoding.DecodeBase94(data[encoding.TagLen+encoding.RequestIDLen:])
	if err != nil {
		return 0, wrapBadData(err)
	}
	if err := wire.Unmarshal(decoded, msg); err != nil {
		return 0, wrapBadData(err)
	}
	return requestID, nil
}

// ParseRequestID decodes a two character request id, falling back to 0
// when it's malformed.
func ParseRequestID(s string) uint8 {
	id, err := encoding.DecodeRequestID([]byte(s))
	if err != nil {
		return 0
	}
	return id
}

// PeekServerTag reads the tag of a server message.
func PeekServerTag(data string) (uint16, error) {
	if len(data) < encoding.TagLen+encoding.RequestIDLen {
		return 0, badData("Data too short")
	}
	tag, err := encoding.DecodeMessageTag([]byte(data[:encoding.TagLen]))
	if err != nil {
		return 0, wrapBadData(err)
	}
	return tag, nil
}

// PeekServerRequestID reads the request id of a server message.
func PeekServerRequestID(data string) (uint8, error) {
	if len(data) < encoding.TagLen+encoding.RequestIDLen {
		return 0, badData("Data too short")
	}
	id, err := encoding.DecodeRequestID([]byte(data[encoding.TagLen : encoding.TagLen+encoding.RequestIDLen]))
	if err != nil {
		return 0, wrapBadData(err)
	}
	return id, nil
}

// PeekClientTag reads the routing tag of a client message without decoding
// its payload.
func PeekClientTag(data string) (uint16, error) {
	end := len(jsonPrefixStart) + encoding.TagLen
	if len(data) < end+len(jsonPrefixEnd) || !strings.HasPrefix(data, jsonPrefixStart) ||
		data[end:end+len(jsonPrefixEnd)] != jsonPrefixEnd {
		return 0, badData("No json_prefix found")
	}
	tag, err := encoding.DecodeMessageTag([]byte(data[len(jsonPrefixStart):end]))
	if err != nil {
		return 0, wrapBadData(err)
	}
	return tag, nil
}

// PeekClientRequestID reads the request id of a client message. Public
// messages keep it as the last payload byte, player messages right before
// the key and signature.
func PeekClientRequestID(data string, access Access) (uint8, error) {
	tag, err := PeekClientTag(data)
	if err != nil {
		return 0, err
	}
	decoded, err := decodeClientString(data, tag)
	if err != nil {
		return 0, err
	}
	end := len(decoded)
	if access == Player {
		end -= MinPlayerPayload
	}
	if end < 1 {
		return 0, badData("Data too short")
	}
	return decoded[end-1], nil
}
