package crypto

import (
	"bytes"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
)

// Sign calculates the base64 HMAC-SHA256 of plaintext keyed by secret.
func Sign(plaintext, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(plaintext))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify compares a received signature with the one computed over plaintext in constant time.
func Verify(signature, plaintext, secret string) bool {
	expected := Sign(plaintext, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ContentDigest returns the Content-MD5 value for a serialized payload: the literal "{}"
// for GET or an empty payload, otherwise base64 of the lowercase hex MD5 sum (not of the
// raw 16-byte digest).
func ContentDigest(method models.Method, payload []byte) string {
	if !method.HasBody() || len(payload) == 0 {
		return constants.EmptyContentMD5
	}
	sum := md5.Sum(payload)
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
}

// Digest serializes body the way the pipeline sends it and returns its Content-MD5.
// GET never serializes the body.
func Digest(method models.Method, body interface{}) (string, error) {
	if !method.HasBody() {
		return constants.EmptyContentMD5, nil
	}
	payload, err := EncodeBody(body)
	if err != nil {
		return "", err
	}
	return ContentDigest(method, payload), nil
}

// CanonicalString assembles the plaintext both sides sign. Date and Headers are always
// empty; the URL follows the Headers segment directly because Headers is empty.
func CanonicalString(method models.Method, contentMD5, url string) string {
	var b strings.Builder
	b.WriteString(string(method))
	b.WriteByte('\n')
	b.WriteString(constants.AcceptJSON)
	b.WriteByte('\n')
	b.WriteString(contentMD5)
	b.WriteByte('\n')
	b.WriteString(constants.ContentTypeJSONUTF8)
	b.WriteByte('\n')
	b.WriteString(constants.SignedDate)
	b.WriteByte('\n')
	b.WriteString(constants.SignedHeaders)
	if constants.SignedHeaders != "" {
		b.WriteByte('\n')
	}
	b.WriteString(url)
	return b.String()
}

// EncodeBody serializes a request body as a JSON object. A nil body or one that encodes
// to null, {} or [] yields a nil payload. A top-level array is re-keyed by index into an
// object. Scalars cannot be sent and are rejected.
func EncodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	var raw []byte
	switch v := body.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(body); err != nil {
			return nil, errors.ErrEncoding("body is not serializable", err)
		}
		raw = buf.Bytes()
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, errors.ErrEncoding("body is not valid JSON", nil)
	}

	switch {
	case bytes.Equal(raw, []byte("null")):
		return nil, nil
	case raw[0] == '{':
		if isEmptyComposite(raw) {
			return nil, nil
		}
		return raw, nil
	case raw[0] == '[':
		if isEmptyComposite(raw) {
			return nil, nil
		}
		return forceObject(raw)
	default:
		return nil, errors.ErrEncoding("body must encode to a JSON object", nil).
			WithMetadata("kind", string(raw[0]))
	}
}

func isEmptyComposite(raw []byte) bool {
	inner := bytes.TrimSpace(raw[1 : len(raw)-1])
	return len(inner) == 0
}

// forceObject turns [a,b] into {"0":a,"1":b}, preserving element bytes.
func forceObject(raw []byte) ([]byte, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.ErrEncoding("array body could not be re-keyed", err)
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strconv.Itoa(i))
		b.WriteString(`":`)
		b.Write(item)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// SignRequest sets every authentication header on req, overwriting prior values.
// req.Payload must already hold the encoded body.
func SignRequest(req *models.SignableRequest, appID, secret string, now time.Time) {
	contentMD5 := ContentDigest(req.Method, req.Payload)
	plaintext := CanonicalString(req.Method, contentMD5, req.URL)

	req.Header.Set(constants.HeaderAppID, appID)
	req.Header.Set(constants.HeaderAuthMode, constants.AuthModeSignature)
	req.Header.Set(constants.HeaderTimestamp, strconv.FormatInt(now.UnixMilli(), 10))
	req.Header.Set(constants.HeaderAccept, constants.AcceptJSON)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSONUTF8)
	req.Header.Set(constants.HeaderSignature, Sign(plaintext, secret))
	req.Header.Set(constants.HeaderContentMD5, contentMD5)
}
