package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/transport"
)

// RequestValidator checks requests against an OpenAPI document before they
// reach a handler. Paths unknown to the document pass through untouched.
type RequestValidator struct {
	*transport.BaseHandler
	router   routers.Router
	basePath string
}

// NewRequestValidator loads the document at specPath. Paths in the document
// are relative to basePath.
func NewRequestValidator(specPath, basePath string, logger *slog.Logger) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	return newRequestValidator(doc, basePath, logger)
}

func NewRequestValidatorFromData(data []byte, basePath string, logger *slog.Logger) (*RequestValidator, error) {
	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	return newRequestValidator(doc, basePath, logger)
}

func newRequestValidator(doc *openapi3.T, basePath string, logger *slog.Logger) (*RequestValidator, error) {
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	// matching is done on the path below basePath
	doc.Servers = nil

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, err
	}
	return &RequestValidator{
		BaseHandler: transport.NewBaseHandler(logger),
		router:      router,
		basePath:    strings.TrimSuffix(basePath, "/"),
	}, nil
}

func (v *RequestValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probe := r.Clone(r.Context())
		probe.URL.Path = strings.TrimPrefix(r.URL.Path, v.basePath)
		probe.URL.RawPath = ""

		route, pathParams, err := v.router.FindRoute(probe)
		if err != nil {
			var routeErr *routers.RouteError
			if !errors.As(err, &routeErr) {
				v.Logger.Warn("openapi route lookup failed", "path", r.URL.Path, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    probe,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		err = openapi3filter.ValidateRequest(r.Context(), input)
		// the validator drained and restored the probe's body
		r.Body = probe.Body
		if err != nil {
			v.WriteAppError(w, internal.NewValidationError(validationMessage(err), internal.ErrCodeValidationFailed))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("parameter %s: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		return reqErr.Error()
	}
	return "request does not match the API schema"
}
