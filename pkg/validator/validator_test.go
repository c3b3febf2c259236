package validator

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	ProductID string `validate:"required"`
	Quantity  int    `validate:"gte=1"`
}

func TestValidate_Success(t *testing.T) {
	s := testStruct{ProductID: "prod-1", Quantity: 2}
	assert.NoError(t, Validate(s))
}

func TestValidate_MissingRequired(t *testing.T) {
	s := testStruct{Quantity: 1}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "ProductID")
	assert.Equal(t, "is required", fields["ProductID"])
}

func TestValidate_QuantityBelowBound(t *testing.T) {
	s := testStruct{ProductID: "prod-1", Quantity: 0}
	err := Validate(s)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "Quantity")
	assert.Contains(t, valErr.Error(), "Quantity")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := bytes.NewBufferString(`{"ProductID":"prod-1","Quantity":3}`)
	r := httptest.NewRequest("POST", "/", body)

	var s testStruct
	require.NoError(t, DecodeAndValidate(r, &s))
	assert.Equal(t, "prod-1", s.ProductID)
	assert.Equal(t, 3, s.Quantity)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	body := bytes.NewBufferString(`{"ProductID":`)
	r := httptest.NewRequest("POST", "/", body)

	var s testStruct
	err := DecodeAndValidate(r, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
