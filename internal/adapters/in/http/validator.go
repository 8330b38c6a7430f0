package http

import (
	"context"
	"fmt"
	"strings"

	"freight/internal/pkg/errs"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
)

const bodyField = "body"

// OpenAPIValidator checks requests against the API document before they
// reach a handler.
type OpenAPIValidator struct {
	doc    *openapi3.T
	router routers.Router
}

func NewOpenAPIValidator(spec []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err = doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAPI router: %w", err)
	}
	return &OpenAPIValidator{doc: doc, router: router}, nil
}

// Document returns the parsed API document.
func (v *OpenAPIValidator) Document() *openapi3.T {
	return v.doc
}

// Middleware rejects requests that do not match an operation with
// UNKNOWN_ACTION and requests that break the schema with INPUT_INVALID.
// Paths outside /api pass through untouched.
func (v *OpenAPIValidator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, apiPrefix) {
				return next(c)
			}

			route, pathParams, err := v.router.FindRoute(req)
			if err != nil {
				return respondError(c, unknownAction(req.Method, req.URL.Path))
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					MultiError:         true,
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			}
			if err = openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return respondError(c, errs.NewInputError(
					errs.CodeInputInvalid,
					"The request does not match the API contract.",
					validationFields(err),
				))
			}
			return next(c)
		}
	}
}

func unknownAction(method, path string) *errs.AppError {
	return errs.NewInputError(
		errs.CodeUnknownAction,
		fmt.Sprintf("%s %s is not a known action.", method, path),
		nil,
	)
}

// validationFields flattens kin-openapi errors into field -> message pairs.
// Body fields are named by their JSON pointer joined with dots, e.g.
// parcels.0.weight_g.
func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	collectFields(err, fields)
	return fields
}

func collectFields(err error, fields map[string]string) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectFields(inner, fields)
		}
	case *openapi3filter.RequestError:
		if e.Parameter != nil {
			fields[e.Parameter.Name] = requestErrorReason(e)
			return
		}
		if e.Err == nil {
			addField(fields, bodyField, e.Reason)
			return
		}
		collectFields(e.Err, fields)
	case *openapi3.SchemaError:
		field := strings.Join(e.JSONPointer(), ".")
		if field == "" {
			field = bodyField
		}
		addField(fields, field, e.Reason)
	default:
		addField(fields, bodyField, err.Error())
	}
}

func requestErrorReason(e *openapi3filter.RequestError) string {
	if schemaErr, ok := e.Err.(*openapi3.SchemaError); ok {
		return schemaErr.Reason
	}
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "is invalid"
}

// addField keeps the first message reported for a field.
func addField(fields map[string]string, field, message string) {
	if _, ok := fields[field]; ok {
		return
	}
	if message == "" {
		message = "is invalid"
	}
	fields[field] = message
}
