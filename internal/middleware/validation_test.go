package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testAddress struct {
	Street string `json:"street" validate:"required"`
	City   string `json:"city" validate:"required"`
}

type testAddRequest struct {
	ProductID string      `json:"productId" validate:"required,uuid"`
	Size      string      `json:"size" validate:"required,oneof=S M L XL"`
	Quantity  int         `json:"quantity" validate:"gte=0"`
	Address   testAddress `json:"shippingAddress"`
	Sizes     []string    `json:"sizes" validate:"dive,oneof=S M L XL"`
	Note      string      `json:"note" validate:"max=5"`
}

func validAddRequest() map[string]interface{} {
	return map[string]interface{}{
		"productId":       "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		"size":            "M",
		"quantity":        1,
		"shippingAddress": map[string]string{"street": "1 Main St", "city": "Springfield"},
	}
}

func jsonRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest("POST", "/test", bytes.NewReader(raw))
}

// Feature: clothing-storefront, Property 48: Required field validation works
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a request passes exactly when every required field is present", prop.ForAll(
		func(dropProduct, dropSize, dropCity bool) bool {
			body := validAddRequest()
			if dropProduct {
				delete(body, "productId")
			}
			if dropSize {
				delete(body, "size")
			}
			if dropCity {
				body["shippingAddress"] = map[string]string{"street": "1 Main St"}
			}

			var req testAddRequest
			err := DecodeAndValidate(jsonRequest(t, body), &req)

			if !dropProduct && !dropSize && !dropCity {
				return err == nil
			}

			fields := map[string]bool{}
			for _, fe := range FormatValidationErrors(err) {
				fields[fe.Field] = true
			}
			return fields["productId"] == dropProduct &&
				fields["size"] == dropSize &&
				fields["shippingAddress.city"] == dropCity
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: clothing-storefront, Property 49: Enumerated fields reject unknown values
func TestProperty_OneOfRejectsUnknownSizes(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("sizes outside S, M, L, XL fail with a oneof message", prop.ForAll(
		func(size string) bool {
			body := validAddRequest()
			body["size"] = size

			var req testAddRequest
			errs := FormatValidationErrors(DecodeAndValidate(jsonRequest(t, body), &req))
			return len(errs) == 1 && errs[0].Field == "size" && errs[0].Message == "Must be one of: S, M, L, XL"
		},
		gen.RegexMatch(`[a-z]{1,3}|XXL|XS`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_Messages(t *testing.T) {
	body := validAddRequest()
	body["productId"] = "not-a-uuid"
	body["quantity"] = -1
	body["sizes"] = []string{"M", "XXL"}
	body["note"] = "far too long"

	var req testAddRequest
	errs := FormatValidationErrors(DecodeAndValidate(jsonRequest(t, body), &req))

	got := map[string]string{}
	for _, e := range errs {
		got[e.Field] = e.Message
	}
	assert.Equal(t, map[string]string{
		"productId": "Must be a valid ID",
		"quantity":  "Value must be greater than or equal to 0",
		"sizes[1]":  "Must be one of: S, M, L, XL",
		"note":      "Must be at most 5 characters",
	}, got)
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(assert.AnError))
}

func TestBindJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		var req testAddRequest
		w := httptest.NewRecorder()
		ok := BindJSON(w, jsonRequest(t, validAddRequest()), &req, zap.NewNop())
		assert.True(t, ok)
		assert.Equal(t, "M", req.Size)
	})

	t.Run("malformed body", func(t *testing.T) {
		var req testAddRequest
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/test", strings.NewReader(`{"size":`))
		assert.False(t, BindJSON(w, r, &req, zap.NewNop()))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request body", errorMessage(t, w))
	})

	t.Run("wrong types", func(t *testing.T) {
		var req testAddRequest
		w := httptest.NewRecorder()
		body := validAddRequest()
		body["quantity"] = "two"
		assert.False(t, BindJSON(w, jsonRequest(t, body), &req, zap.NewNop()))
		assert.Equal(t, "invalid request body", errorMessage(t, w))
	})

	t.Run("invalid fields", func(t *testing.T) {
		var req testAddRequest
		w := httptest.NewRecorder()
		body := validAddRequest()
		delete(body, "size")
		assert.False(t, BindJSON(w, jsonRequest(t, body), &req, zap.NewNop()))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "validation failed", response.Error.Message)
		assert.Contains(t, response.Error.Details, "validation_errors")
	})
}
