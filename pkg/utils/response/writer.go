package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/reviewer-x/pkg/utils/errors"
	"github.com/kart-io/reviewer-x/pkg/utils/validator"
)

// Writer provides convenient methods to write pooled responses to a gin context.
type Writer struct {
	ctx       *gin.Context
	withTime  bool
	requestID string
	lang      string
}

// NewWriter creates a response writer for the given context.
func NewWriter(ctx *gin.Context) *Writer {
	return &Writer{ctx: ctx}
}

// WithTimestamp enables automatic timestamp in responses.
func (w *Writer) WithTimestamp() *Writer {
	w.withTime = true
	return w
}

// WithRequestID sets the request ID for responses.
func (w *Writer) WithRequestID(requestID string) *Writer {
	w.requestID = requestID
	return w
}

// WithLang sets the language for error messages.
func (w *Writer) WithLang(lang string) *Writer {
	w.lang = lang
	return w
}

func (w *Writer) prepare(r *Response) *Response {
	if w.withTime {
		r.Timestamp = time.Now().UnixMilli()
	}
	if w.requestID != "" {
		r.RequestID = w.requestID
	}
	return r
}

// write serializes the response and returns it to the pool.
func (w *Writer) write(status int, r *Response) {
	w.ctx.JSON(status, r)
	Release(r)
}

// OK sends a successful response with data.
func (w *Writer) OK(data interface{}) {
	resp := w.prepare(Success(data))
	w.write(resp.HTTPStatus(), resp)
}

// OKWithMessage sends a successful response with custom message.
func (w *Writer) OKWithMessage(message string, data interface{}) {
	resp := w.prepare(SuccessWithMessage(message, data))
	w.write(resp.HTTPStatus(), resp)
}

// Fail sends an error response using Errno.
func (w *Writer) Fail(e *errors.Errno) {
	var resp *Response
	if w.lang != "" {
		resp = w.prepare(ErrWithLang(e, w.lang))
	} else {
		resp = w.prepare(Err(e))
	}
	w.write(e.HTTPStatus(), resp)
}

// FailWithLang sends an error response with language-specific message.
func (w *Writer) FailWithLang(e *errors.Errno, lang string) {
	resp := w.prepare(ErrWithLang(e, lang))
	w.write(e.HTTPStatus(), resp)
}

// FailWithCode sends an error response with code and message.
func (w *Writer) FailWithCode(code int, message string) {
	resp := w.prepare(ErrorWithCode(code, message))
	w.write(resp.HTTPStatus(), resp)
}

// FailWithError converts any error and sends it.
// Errno values pass through unchanged; everything else becomes ErrInternal.
func (w *Writer) FailWithError(err error) {
	w.Fail(errors.FromError(err))
}

// FailWithValidation sends a validation error response with per-field details.
func (w *Writer) FailWithValidation(verr *validator.ValidationErrors) {
	resp := w.prepare(ErrorWithData(errors.ErrValidationFailed.Code, verr.First(), verr.ToMap()))
	resp.HTTPCode = http.StatusBadRequest
	w.write(http.StatusBadRequest, resp)
}

// FailWithBindOrValidation handles binding or validation errors.
// ValidationErrors get the detailed treatment, anything else a generic
// invalid parameter error.
func (w *Writer) FailWithBindOrValidation(err error) {
	if verr, ok := err.(*validator.ValidationErrors); ok {
		w.FailWithValidation(verr)
		return
	}
	w.Fail(errors.ErrInvalidParam.WithMessage("invalid request body: " + err.Error()))
}

// PageOK sends a paginated response.
func (w *Writer) PageOK(list interface{}, total int64, page, pageSize int) {
	resp := w.prepare(Page(list, total, page, pageSize))
	w.write(resp.HTTPStatus(), resp)
}

// Send sends a custom response. The response is returned to the pool.
func (w *Writer) Send(r *Response) {
	resp := w.prepare(r)
	w.write(resp.HTTPStatus(), resp)
}

// 下面是直接作用在 *gin.Context 上的便捷函数。

// OK sends a successful response.
func OK(ctx *gin.Context, data interface{}) {
	NewWriter(ctx).OK(data)
}

// OKWithMessage sends a successful response with message.
func OKWithMessage(ctx *gin.Context, message string, data interface{}) {
	NewWriter(ctx).OKWithMessage(message, data)
}

// Fail sends an error response using Errno.
func Fail(ctx *gin.Context, e *errors.Errno) {
	NewWriter(ctx).Fail(e)
}

// FailWithLang sends an error response with language-specific message.
func FailWithLang(ctx *gin.Context, e *errors.Errno, lang string) {
	NewWriter(ctx).FailWithLang(e, lang)
}

// FailWithCode sends an error response with code and message.
func FailWithCode(ctx *gin.Context, code int, message string) {
	NewWriter(ctx).FailWithCode(code, message)
}

// FailWithError sends an error response from a standard error.
func FailWithError(ctx *gin.Context, err error) {
	NewWriter(ctx).FailWithError(err)
}

// FailWithValidation sends a validation error response.
func FailWithValidation(ctx *gin.Context, verr *validator.ValidationErrors) {
	NewWriter(ctx).FailWithValidation(verr)
}

// FailWithBindOrValidation handles binding or validation errors.
func FailWithBindOrValidation(ctx *gin.Context, err error) {
	NewWriter(ctx).FailWithBindOrValidation(err)
}

// PageOK sends a paginated response.
func PageOK(ctx *gin.Context, list interface{}, total int64, page, pageSize int) {
	NewWriter(ctx).PageOK(list, total, page, pageSize)
}
