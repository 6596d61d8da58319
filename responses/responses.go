package responses

import (
	"errors"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/logger"

	"github.com/gin-gonic/gin"
)

// Error writes the JSON error body {"error", "code"} for err and aborts the
// chain. Internal errors are logged and their messages withheld. Map details
// are merged into the body so callers see e.g. the allowed status values.
func Error(c *gin.Context, log *logger.Logger, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := apperrors.As(err)
	if typed == nil {
		typed = apperrors.Internal(err, "unexpected error")
	}
	meta := apperrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if meta.ExposeMessage && typed.Message() != "" {
		msg = typed.Message()
	}

	body := gin.H{}
	if details, ok := typed.Details().(map[string]any); ok {
		for k, v := range details {
			body[k] = v
		}
	}
	body["error"] = msg
	body["code"] = string(typed.Code())

	if log != nil && typed.Code() == apperrors.CodeInternal {
		ctx := log.WithField(c.Request.Context(), "path", c.Request.URL.Path)
		log.Error(ctx, "request.error", err)
	}

	c.AbortWithStatusJSON(meta.HTTPStatus, body)
}
