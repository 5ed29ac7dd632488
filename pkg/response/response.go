// Package response defines the JSON envelope every API endpoint returns.
// Transport status is always 200; the outcome is carried by Code.
package response

type APIResponseCode int

const (
	APIResponseCodeOK           APIResponseCode = 0
	APIResponseCodeBadRequest   APIResponseCode = 40000
	APIResponseCodeUnauthorized APIResponseCode = 40100
	APIResponseCodeForbidden    APIResponseCode = 40300
	APIResponseCodeNotFound     APIResponseCode = 40400
	APIResponseCodeConflict     APIResponseCode = 40900
	APIResponseCodeError        APIResponseCode = 50000
)

func (c APIResponseCode) String() string {
	switch c {
	case APIResponseCodeOK:
		return "ok"
	case APIResponseCodeBadRequest:
		return "bad request"
	case APIResponseCodeUnauthorized:
		return "unauthorized"
	case APIResponseCodeForbidden:
		return "forbidden"
	case APIResponseCodeNotFound:
		return "not found"
	case APIResponseCodeConflict:
		return "conflict"
	}
	return "unexpected error"
}

type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: APIResponseCodeOK.String(), Data: data}
}

// ErrorT returns an error envelope whose Message is the code's text.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: code.String(), Data: data}
}

// Fail is ErrorT carrying a human-readable detail, e.g. the error text.
func Fail(code APIResponseCode, detail string) *APIResponse[any] {
	return ErrorT[any](code, detail)
}
