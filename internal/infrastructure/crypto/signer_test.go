package crypto

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
)

type createByTemplateBody struct {
	Name             string                   `json:"name"`
	TemplateID       string                   `json:"templateId"`
	SimpleFormFields []map[string]interface{} `json:"simpleFormFields"`
}

func TestSign_KnownVector(t *testing.T) {
	// RFC 4231 test case 2, base64 encoded.
	assert.Equal(t, "W9zBRr9gdU5qBCQmCJV1x1oAPwidJzmDnexYuWTsOEM=", Sign("what do ya want for nothing?", "Jefe"))
}

func TestSign_Deterministic(t *testing.T) {
	plaintext := CanonicalString(models.MethodPost, "Zjc3YzVlYmRkYmUxNjg5MmNjYzM4NmQ3YWZmNGQ1YTg=", "/v1/files/createByTemplate")
	first := Sign(plaintext, "s3cr3t")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Sign(plaintext, "s3cr3t"))
	}
	assert.True(t, Verify(first, plaintext, "s3cr3t"))
	assert.False(t, Verify(first, plaintext, "other"))
}

func TestSign_ChangesWithEveryField(t *testing.T) {
	base := Sign(CanonicalString(models.MethodPost, "OTAwMTUwOTgzY2QyNGZiMGQ2OTYzZjdkMjhlMTdmNzI=", "/v1/files"), "secret")

	tests := []struct {
		name      string
		plaintext string
		secret    string
	}{
		{"method", CanonicalString(models.MethodPut, "OTAwMTUwOTgzY2QyNGZiMGQ2OTYzZjdkMjhlMTdmNzI=", "/v1/files"), "secret"},
		{"digest", CanonicalString(models.MethodPost, "{}", "/v1/files"), "secret"},
		{"url", CanonicalString(models.MethodPost, "OTAwMTUwOTgzY2QyNGZiMGQ2OTYzZjdkMjhlMTdmNzI=", "/v1/files?x=1"), "secret"},
		{"secret", CanonicalString(models.MethodPost, "OTAwMTUwOTgzY2QyNGZiMGQ2OTYzZjdkMjhlMTdmNzI=", "/v1/files"), "secret2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Sign(tt.plaintext, tt.secret))
		})
	}
}

func TestCanonicalString_Layout(t *testing.T) {
	got := CanonicalString(models.MethodPost, "{}", "/v1/files/createByTemplate")
	assert.Equal(t, "POST\napplication/json\n{}\napplication/json; charset=UTF-8\n\n/v1/files/createByTemplate", got)

	got = CanonicalString(models.MethodGet, "{}", "/v1/signflows/f1/signers?page=1")
	assert.Equal(t, "GET\napplication/json\n{}\napplication/json; charset=UTF-8\n\n/v1/signflows/f1/signers?page=1", got)
}

func TestContentDigest(t *testing.T) {
	assert.Equal(t, "OTAwMTUwOTgzY2QyNGZiMGQ2OTYzZjdkMjhlMTdmNzI=", ContentDigest(models.MethodPost, []byte("abc")))
	assert.Equal(t, "YmI2Y2I1YzY4ZGY0NjUyOTQxY2FmNjUyYTM2NmYyZDg=", ContentDigest(models.MethodPut, []byte(`{"a":1}`)))

	decoded, err := base64.StdEncoding.DecodeString(ContentDigest(models.MethodPost, []byte(`{"a":1}`)))
	require.NoError(t, err)
	assert.Equal(t, "bb6cb5c68df4652941caf652a366f2d8", string(decoded))

	assert.Equal(t, constants.EmptyContentMD5, ContentDigest(models.MethodPost, nil))
	assert.Equal(t, constants.EmptyContentMD5, ContentDigest(models.MethodGet, []byte("abc")))
}

func TestDigest_GetIgnoresBody(t *testing.T) {
	bodies := []interface{}{nil, map[string]interface{}{"a": 1}, "not even json", []int{1, 2}, func() {}}
	for _, body := range bodies {
		d, err := Digest(models.MethodGet, body)
		require.NoError(t, err)
		assert.Equal(t, "{}", d)
	}
}

func TestDigest_DeterministicForBody(t *testing.T) {
	body := createByTemplateBody{
		Name:             "doc",
		TemplateID:       "tpl1",
		SimpleFormFields: []map[string]interface{}{{"a": 1}},
	}
	for i := 0; i < 3; i++ {
		d, err := Digest(models.MethodPost, body)
		require.NoError(t, err)
		assert.Equal(t, "Zjc3YzVlYmRkYmUxNjg5MmNjYzM4NmQ3YWZmNGQ1YTg=", d)
	}
}

func TestDigest_EmptyBodies(t *testing.T) {
	for _, body := range []interface{}{nil, map[string]interface{}{}, map[string]string(nil), []interface{}{}, json.RawMessage(" "), []byte("null")} {
		d, err := Digest(models.MethodPost, body)
		require.NoError(t, err)
		assert.Equal(t, "{}", d)
	}
}

func TestEncodeBody(t *testing.T) {
	t.Run("object passes through", func(t *testing.T) {
		payload, err := EncodeBody(map[string]interface{}{"b": "x/y", "a": 1})
		require.NoError(t, err)
		assert.Equal(t, `{"a":1,"b":"x/y"}`, string(payload))
	})

	t.Run("raw json is kept byte for byte", func(t *testing.T) {
		payload, err := EncodeBody(json.RawMessage(`{"z":1, "a":2}`))
		require.NoError(t, err)
		assert.Equal(t, `{"z":1, "a":2}`, string(payload))
	})

	t.Run("top level array is forced to an object", func(t *testing.T) {
		payload, err := EncodeBody([]interface{}{"x", map[string]int{"k": 1}})
		require.NoError(t, err)
		assert.Equal(t, `{"0":"x","1":{"k":1}}`, string(payload))
	})

	t.Run("scalar is rejected", func(t *testing.T) {
		_, err := EncodeBody(42)
		require.Error(t, err)
		assert.True(t, errors.IsEncodingError(err))
	})

	t.Run("unserializable value is rejected", func(t *testing.T) {
		_, err := EncodeBody(map[string]interface{}{"ch": make(chan int)})
		require.Error(t, err)
		assert.True(t, errors.IsEncodingError(err))
	})

	t.Run("invalid raw json is rejected", func(t *testing.T) {
		_, err := EncodeBody([]byte(`{"a":`))
		require.Error(t, err)
		assert.True(t, errors.IsEncodingError(err))
	})
}

func TestSignRequest_SetsHeaders(t *testing.T) {
	payload, err := EncodeBody(createByTemplateBody{Name: "doc", TemplateID: "tpl1", SimpleFormFields: []map[string]interface{}{{"a": 1}}})
	require.NoError(t, err)

	req := models.NewSignableRequest(models.MethodPost, "/v1/files/createByTemplate", nil)
	req.Payload = payload
	req.Header.Set(constants.HeaderContentType, "text/plain")

	now := time.UnixMilli(1700000000123)
	SignRequest(req, "app-1", "secret", now)

	assert.Equal(t, "app-1", req.Header.Get(constants.HeaderAppID))
	assert.Equal(t, "Signature", req.Header.Get(constants.HeaderAuthMode))
	assert.Equal(t, "1700000000123", req.Header.Get(constants.HeaderTimestamp))
	assert.Equal(t, "application/json", req.Header.Get(constants.HeaderAccept))
	assert.Equal(t, "application/json; charset=UTF-8", req.Header.Get(constants.HeaderContentType))
	assert.Equal(t, "Zjc3YzVlYmRkYmUxNjg5MmNjYzM4NmQ3YWZmNGQ1YTg=", req.Header.Get(constants.HeaderContentMD5))

	plaintext := CanonicalString(models.MethodPost, "Zjc3YzVlYmRkYmUxNjg5MmNjYzM4NmQ3YWZmNGQ1YTg=", "/v1/files/createByTemplate")
	assert.Equal(t, Sign(plaintext, "secret"), req.Header.Get(constants.HeaderSignature))
}
