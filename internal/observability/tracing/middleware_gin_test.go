package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/civicdash/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingEngine(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := gin.New()
	r.Use(GinMiddleware())
	return r, recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestGinMiddlewareNamesSpanByRoute(t *testing.T) {
	r, recorder := newRecordingEngine(t)
	r.GET("/api/people/:id", func(c *gin.Context) {
		ctx := obscontext.WithActor(c.Request.Context(), "dashboard", "abcd1234")
		c.Request = c.Request.WithContext(ctx)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/people/p1", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "HTTP GET /api/people/:id", span.Name())
	route, ok := spanAttr(span, "http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/people/:id", route.AsString())
	actor, ok := spanAttr(span, "actor.type")
	require.True(t, ok)
	assert.Equal(t, "dashboard", actor.AsString())
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestGinMiddlewareMarksServerErrors(t *testing.T) {
	r, recorder := newRecordingEngine(t)
	r.GET("/api/dashboard/membership-metrics", func(c *gin.Context) {
		_ = c.Error(errors.New("stripe unavailable\nraw body"))
		c.Status(http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard/membership-metrics", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "Bad Gateway", span.Status().Description)
	require.Len(t, span.Events(), 1)
	msg, ok := func() (string, bool) {
		for _, kv := range span.Events()[0].Attributes {
			if kv.Key == "exception.message" {
				return kv.Value.AsString(), true
			}
		}
		return "", false
	}()
	require.True(t, ok)
	assert.Equal(t, "stripe unavailable", msg)
}

func TestGinMiddlewareUnknownRoute(t *testing.T) {
	r, recorder := newRecordingEngine(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET unknown", spans[0].Name())
}
