package llmprovider

import (
	"context"
	"net"
	"net/http"
	"time"

	"resty.dev/v3"

	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/logger"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

type httpClientStartsAt struct{}

// NewRestyClient returns a resty client that logs every call at debug level.
// headerTimeout bounds the wait for response headers only, so long streams are not cut off.
func NewRestyClient(clientName string, headerTimeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
	})

	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), httpClientStartsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		startTime, _ := r.Request.Context().Value(httpClientStartsAt{}).(time.Time)

		event := log.Debug().
			Str("request_id", platformerrors.RequestIDFromContext(r.Request.Context())).
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Dur("latency", time.Since(startTime))
		if r.Request.RawRequest != nil {
			event = event.
				Str("method", r.Request.RawRequest.Method).
				Str("path", r.Request.RawRequest.URL.Path)
		}
		event.Msg("HTTP client request")
		return nil
	})
	return client
}
