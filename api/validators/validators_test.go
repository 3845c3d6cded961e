package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type addItemBody struct {
	Size     string `json:"size" validate:"required,notblank"`
	Quantity int    `json:"quantity" validate:"min=1,max=10"`
}

func TestDecodeJSONBodyValidatesByJSONName(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/cart", strings.NewReader(`{"size":"   ","quantity":0}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "is required", details["size"])
	require.Equal(t, "must be at least 1", details["quantity"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"unknown":  `{"size":"M","quantity":1,"price":"0.01"}`,
		"trailing": `{"size":"M","quantity":1}{"size":"L"}`,
		"oversize": `{"size":"` + strings.Repeat("x", maxBodyBytes) + `","quantity":1}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/cart", strings.NewReader(raw))
			var body addItemBody
			require.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
		})
	}

	req := httptest.NewRequest("POST", "/api/v1/cart", strings.NewReader(`{"size":"M","quantity":2}`))
	var body addItemBody
	require.NoError(t, DecodeJSONBody(req, &body))
	require.Equal(t, addItemBody{Size: "M", Quantity: 2}, body)
}

func TestQueryParsing(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/orders/my-orders?page=3&limit=500&dry_run=yes", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 1000)
	require.NoError(t, err)
	require.Equal(t, 3, page)

	_, err = ParseQueryInt(req, "limit", 10, 1, 100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing, err := ParseQueryInt(req, "offset", 7, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 7, missing)

	_, err = ParseQueryBool(req, "dry_run", false)
	require.Error(t, err)
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(httptest.NewRequest("GET", "/api/v1/products", nil), 10, 100)
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 10, page.Limit)

	page, err = ParsePage(httptest.NewRequest("GET", "/api/v1/products?page=3&limit=25", nil), 10, 100)
	require.NoError(t, err)
	require.Equal(t, 3, page.Page)
	require.Equal(t, 25, page.Limit)

	_, err = ParsePage(httptest.NewRequest("GET", "/api/v1/products?limit=101", nil), 10, 100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParsePage(httptest.NewRequest("GET", "/api/v1/products?page=0", nil), 10, 100)
	require.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "red tee", SanitizeString("  red \t tee ", 0))
	require.Equal(t, "camiseta ñandú", SanitizeString(" camiseta   ñandú ", 0))
	require.Equal(t, "ñan", SanitizeString("ñandú", 3))
	require.Equal(t, "ab", SanitizeString("ab c", 3))
}
