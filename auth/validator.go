package auth

import (
	"strings"
	"unicode"

	"talkify/domain"
	"talkify/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

func ValidateCredentials(req CredentialsRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

// ValidateSendMessage enforces the structural rules of an outgoing message:
// one addressing mode at most, and a content for CHAT messages. JOIN and
// LEAVE are synthetic and carry no content.
func ValidateSendMessage(cmd domain.SendMessageCommand) error {
	if err := validate.Struct(cmd); err != nil {
		return err
	}
	if cmd.ChatRoomID != nil && cmd.Recipient != "" {
		return errors.ErrAmbiguousTarget
	}
	if cmd.Type == domain.ChatMessage && strings.TrimSpace(cmd.Content) == "" {
		return errors.ErrEmptyContent
	}
	return nil
}

func ValidateAddUser(cmd domain.AddUserCommand) error {
	return validate.Struct(cmd)
}

func ValidateReadMessages(cmd domain.ReadMessagesCommand) error {
	return validate.Struct(cmd)
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
