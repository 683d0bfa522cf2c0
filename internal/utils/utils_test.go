package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("utils-test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "ann@example.com", true, 2)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.NotEmpty(t, claims.TokenID())
	assert.InDelta(t, (2 * time.Hour).Seconds(), claims.TTL().Seconds(), 5)

	other, err := GenerateJWT(userID, "ann@example.com", true, 2)
	require.NoError(t, err)
	otherClaims, err := ValidateJWT(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.TokenID(), otherClaims.TokenID())
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	SetJWTSecret("first-secret")
	token, err := GenerateJWT(uuid.New(), "ann@example.com", false, 1)
	require.NoError(t, err)

	SetJWTSecret("second-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)

	expired, err := GenerateJWT(uuid.New(), "ann@example.com", false, -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.Error(t, err)
}

func TestNormalizePagination(t *testing.T) {
	tests := []struct {
		name string
		in   PaginationParams
		want PaginationParams
	}{
		{"defaults", PaginationParams{}, PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}},
		{"too large", PaginationParams{Page: 3, Limit: 500, Order: "asc"}, PaginationParams{Page: 3, Limit: 20, Sort: "created_at", Order: "asc"}},
		{"bad order", PaginationParams{Page: -2, Limit: 5, Sort: "name", Order: "sideways"}, PaginationParams{Page: 1, Limit: 5, Sort: "name", Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePagination(tt.in))
		})
	}
}

func TestPaginationResultAndHeaders(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2}, 45, PaginationParams{Page: 2, Limit: 20})
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 20, PaginationParams{Page: 2, Limit: 20}.Offset())

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=2&limit=20", nil)

	params := GetPaginationParams(c)
	assert.Equal(t, 2, params.Page)

	PaginatedResponse(c, result)
	assert.Equal(t, "45", w.Header().Get("X-Total-Count"))
	assert.Equal(t, "3", w.Header().Get("X-Total-Pages"))
	assert.Contains(t, w.Body.String(), `"total_pages":3`)
}

func TestSortField(t *testing.T) {
	allowed := []string{"created_at", "name"}
	assert.Equal(t, "name", SortField(PaginationParams{Sort: "name"}, allowed))
	assert.Equal(t, "created_at", SortField(PaginationParams{Sort: "password_hash"}, allowed))
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	type request struct {
		DisplayName string   `json:"display_name" validate:"required,notblank"`
		Score       *float64 `json:"score" validate:"required,gte=0,lte=5"`
		Color       string   `json:"color" validate:"omitempty,hexcolor"`
		Phone       string   `json:"phone" validate:"omitempty,phone"`
	}

	score := 9.0
	errs := GetValidationErrors(ValidateStruct(&request{DisplayName: "   ", Score: &score, Color: "blue", Phone: "12"}))

	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, map[string]string{
		"display_name": "notblank",
		"score":        "lte",
		"color":        "hexcolor",
		"phone":        "phone",
	}, fields)

	zero := 0.0
	assert.NoError(t, ValidateStruct(&request{DisplayName: "ok", Score: &zero}))
}

func TestContextHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserIDFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, "en", GetLangFromContext(c))

	id := uuid.New()
	c.Set(ContextUserID, id.String())
	c.Set(ContextIsAdmin, true)
	c.Set(ContextLang, "zh_TW")

	got, ok := GetUserIDFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.True(t, IsAdminFromContext(c))
	assert.Equal(t, "zh_TW", GetLangFromContext(c))
}
