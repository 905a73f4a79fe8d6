package revocation

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const entryFormatVersionCurrent = 1

func Encode(e *Entry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(entryFormatVersionCurrent)
	buf.WriteByte(byte(e.Kind))
	buf.WriteByte(byte(e.Reason))

	if len(e.SubjectID) > 255 {
		return nil, errors.New("subjectID too long")
	}
	buf.WriteByte(byte(len(e.SubjectID)))
	buf.WriteString(e.SubjectID)

	// Token values are full serialized JWTs and routinely exceed 255
	// bytes, so they get a 16-bit length.
	if len(e.TokenValue) > 65535 {
		return nil, errors.New("token value too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(e.TokenValue))); err != nil {
		return nil, err
	}
	buf.WriteString(e.TokenValue)

	if err := binary.Write(&buf, binary.BigEndian, e.RevokedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, e.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Entry, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != entryFormatVersionCurrent {
		return nil, errors.New("invalid entry version")
	}

	e := &Entry{}

	kind, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind > uint8(KindRefresh) {
		return nil, errors.New("invalid entry kind")
	}
	e.Kind = TokenKind(kind)

	reason, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if reason > uint8(ReasonManual) {
		return nil, errors.New("invalid entry reason")
	}
	e.Reason = Reason(reason)

	subjectLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	subjectID := make([]byte, subjectLen)
	if _, err := io.ReadFull(reader, subjectID); err != nil {
		return nil, err
	}
	e.SubjectID = string(subjectID)

	var tokenLen uint16
	if err := binary.Read(reader, binary.BigEndian, &tokenLen); err != nil {
		return nil, err
	}
	tokenValue := make([]byte, tokenLen)
	if _, err := io.ReadFull(reader, tokenValue); err != nil {
		return nil, err
	}
	e.TokenValue = string(tokenValue)

	if err := binary.Read(reader, binary.BigEndian, &e.RevokedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &e.ExpiresAt); err != nil {
		return nil, err
	}

	return e, nil
}
