package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

const (
	MsgInvalidOTP   = "Invalid or expired OTP"
	MsgUserNotFound = "User not found"
	MsgUnavailable  = "Service temporarily unavailable"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "numeric", "len":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be a 6 digit code", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMsgs, ", "),
	}
}

// Fail writes status and an error envelope with msg.
func Fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// Invalid writes a 400 describing a failed validator.Struct call.
func Invalid(w http.ResponseWriter, r *http.Request, err error) {
	var validateErr validator.ValidationErrors
	if !errors.As(err, &validateErr) {
		Fail(w, r, http.StatusBadRequest, "Invalid request")
		return
	}

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ValidationError(validateErr))
}
