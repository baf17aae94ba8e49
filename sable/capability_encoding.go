package sable

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	textencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// EncodingError reports malformed input to a conversion operation.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding.%s: invalid input: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Encoding exposes text/byte conversions to guest code. Synchronous,
// CPU-only, never suspends; always available. Malformed input fails with
// *EncodingError; an unknown charset fails with *UnsupportedOperationError
// (no codec table for it on this host).
//
// Charset notes: "utf-8" (and "") is validated strictly in both directions.
// Other charsets resolve through the IANA index; undecodable bytes map to
// U+FFFD per the codec's convention, while encoding a rune the charset
// cannot represent is an InvalidInput failure.
type Encoding interface {
	Module
	EncodeBase64(data []byte) string
	DecodeBase64(text string) ([]byte, error)
	EncodeHex(data []byte) string
	DecodeHex(text string) ([]byte, error)
	BytesToText(data []byte, charset string) (string, error)
	TextToBytes(text string, charset string) ([]byte, error)
}

// NewEncodingCapability constructs the encoding capability.
func NewEncodingCapability() Encoding {
	return &encodingModule{}
}

type encodingModule struct{}

func (e *encodingModule) ModuleName() string { return "encoding" }

func (e *encodingModule) EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func (e *encodingModule) DecodeBase64(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, &EncodingError{Op: "decode_base64", Err: err}
	}
	return data, nil
}

func (e *encodingModule) EncodeHex(data []byte) string {
	return hex.EncodeToString(data)
}

func (e *encodingModule) DecodeHex(text string) ([]byte, error) {
	data, err := hex.DecodeString(text)
	if err != nil {
		return nil, &EncodingError{Op: "decode_hex", Err: err}
	}
	return data, nil
}

func (e *encodingModule) BytesToText(data []byte, charset string) (string, error) {
	if isUTF8Charset(charset) {
		if !utf8.Valid(data) {
			return "", &EncodingError{Op: "bytes_to_text", Err: fmt.Errorf("not valid UTF-8")}
		}
		return string(data), nil
	}
	enc, err := lookupCharset("bytes_to_text", charset)
	if err != nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", &EncodingError{Op: "bytes_to_text", Err: err}
	}
	return string(decoded), nil
}

func (e *encodingModule) TextToBytes(text string, charset string) ([]byte, error) {
	if isUTF8Charset(charset) {
		if !utf8.ValidString(text) {
			return nil, &EncodingError{Op: "text_to_bytes", Err: fmt.Errorf("not valid UTF-8")}
		}
		return []byte(text), nil
	}
	enc, err := lookupCharset("text_to_bytes", charset)
	if err != nil {
		return nil, err
	}
	encoded, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, &EncodingError{Op: "text_to_bytes", Err: err}
	}
	return encoded, nil
}

func isUTF8Charset(charset string) bool {
	switch strings.ToLower(charset) {
	case "", "utf8", "utf-8":
		return true
	}
	return false
}

func lookupCharset(op, charset string) (textencoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil, unsupportedOp("encoding", op, fmt.Sprintf("unknown charset %q", charset))
	}
	return enc, nil
}
