package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/authz"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/config"
	"github.com/mynaparrot/plugnmeet-meetings/pkg/helpers"
)

var validate = newValidator()

// tagMessages maps custom validation tags to the message reported for them.
var tagMessages = map[string]string{
	"meetingid":   config.InvalidMeetingId,
	"principalid": config.InvalidMemberId,
	"role":        config.InvalidMemberRole,
	"rolechange":  config.InvalidMemberRole,
	"visibility":  config.InvalidVisibility,
}

// fieldMessages maps "<json field>.<tag>" to the message reported for it.
var fieldMessages = map[string]string{
	"displayName.required": config.DisplayNameRequired,
	"displayName.max":      config.DisplayNameTooLong,
	"description.required": config.DescriptionRequired,
	"description.max":      config.DescriptionTooLong,
	"body.required":        config.MessageBodyRequired,
	"body.max":             config.MessageBodyTooLong,
	"replyTo.gte":          config.InvalidReplyTo,
	"members.min":          config.NoMembersProvided,
	"members.required":     config.NoMembersProvided,
	"changes.min":          config.NoPermissionsProvided,
	"changes.required":     config.NoPermissionsProvided,
	"limit.gte":            config.InvalidLimit,
	"userId.required":      config.UserIdRequired,
	"userId.principalid":   config.UserIdRequired,
	"id.principalid":       config.InvalidPrincipalId,
	"groupId.principalid":  config.InvalidPrincipalId,
	"email.email":          config.InvalidEmail,
	"signature.required":   config.SignatureRequired,
	"visibility.required":  config.InvalidVisibility,
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("meetingid", func(fl validator.FieldLevel) bool {
		return helpers.IsValidMeetingId(fl.Field().String())
	})
	_ = v.RegisterValidation("principalid", func(fl validator.FieldLevel) bool {
		return helpers.IsValidPrincipalId(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return authz.IsValidRole(fl.Field().String())
	})
	_ = v.RegisterValidation("rolechange", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == string(RoleRemove) || authz.IsValidRole(s)
	})
	_ = v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		return authz.IsValidVisibility(fl.Field().String())
	})

	return v
}

// validateReq checks r and turns the first failure into a validation error.
func validateReq(r interface{}) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return helpers.NewValidationError(config.InvalidRequestBody)
	}
	return helpers.NewValidationError(messageFor(ve[0]))
}

// validateVar checks a single value against tag.
func validateVar(value interface{}, tag, msg string) error {
	if err := validate.Var(value, tag); err != nil {
		return helpers.NewValidationError(msg)
	}
	return nil
}

func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	if i := strings.Index(field, "["); i >= 0 {
		field = field[:i]
	}
	if msg, ok := fieldMessages[field+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	return config.InvalidRequestBody
}
