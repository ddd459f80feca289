package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

func TestRegistry_CheckAll(t *testing.T) {
	ctx := context.Background()

	t.Run("should be up without checkers", func(t *testing.T) {
		assert.Equal(t, StatusUp, NewRegistry().CheckAll(ctx).Status)
	})

	t.Run("should be down when one check fails", func(t *testing.T) {
		registry := NewRegistry(
			NewPostgresChecker(pingerStub{}),
			NewCheckFunc("broken", func(context.Context) error { return errors.New("nope") }),
		)

		res := registry.CheckAll(ctx)

		assert.Equal(t, StatusDown, res.Status)
		require.Len(t, res.Checks, 2)
		assert.Equal(t, "postgres", res.Checks[0].Name)
		assert.Equal(t, StatusUp, res.Checks[0].Status)
		assert.Equal(t, "broken", res.Checks[1].Name)
		assert.Equal(t, StatusDown, res.Checks[1].Status)
		assert.Equal(t, "nope", res.Checks[1].Message)
	})

	t.Run("should include checkers registered later", func(t *testing.T) {
		registry := NewRegistry()
		registry.Register(NewCheckFunc("kafka", func(context.Context) error { return nil }))

		res := registry.CheckAll(ctx)

		assert.Equal(t, StatusUp, res.Status)
		require.Len(t, res.Checks, 1)
		assert.Equal(t, "kafka", res.Checks[0].Name)
	})
}

func TestReadinessHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := NewRegistry(NewPostgresChecker(pingerStub{err: errors.New("connection refused")}))
	engine := gin.New()
	engine.GET("/health/ready", ReadinessHandler(registry, time.Second))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusDown, body.Status)
	assert.Equal(t, "connection refused", body.Checks[0].Message)
}
