package api

import (
	"regexp"
	"strconv"

	"vidshare/internal/models"
	"vidshare/internal/storage"
)

// ValidationError pairs an envelope code with the human readable reasons
// returned in the failure body.
type ValidationError struct {
	Code    int
	Reasons []string
}

var (
	usernameDisallowed = regexp.MustCompile(`[^A-Za-z0-9_-]`)
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

type registrationRequest struct {
	Username string  `json:"username"`
	Pseudo   *string `json:"pseudo"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

// validateRegistration checks fields in a fixed order and reports only the
// first violation, mirroring the account creation contract.
func validateRegistration(req registrationRequest) *ValidationError {
	if req.Username == "" {
		return &ValidationError{Code: codeUsernameRequired, Reasons: []string{"username is required"}}
	}
	if usernameDisallowed.MatchString(req.Username) {
		return &ValidationError{Code: codeUsernameFormat, Reasons: []string{"username must contain only letters, numbers, underscores and hyphens"}}
	}
	if req.Email == "" {
		return &ValidationError{Code: codeEmailRequired, Reasons: []string{"email is required"}}
	}
	if !emailPattern.MatchString(req.Email) {
		return &ValidationError{Code: codeEmailFormat, Reasons: []string{"email is invalid"}}
	}
	if req.Password == "" {
		return &ValidationError{Code: codePasswordRequired, Reasons: []string{"password is required"}}
	}
	return nil
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func validateLogin(req loginRequest) *ValidationError {
	if req.Login == "" {
		return &ValidationError{Code: codeLoginRequired, Reasons: []string{"login is required"}}
	}
	if req.Password == "" {
		return &ValidationError{Code: codeLoginPasswordRequired, Reasons: []string{"password is required"}}
	}
	return nil
}

type userUpdateRequest struct {
	Username *string `json:"username"`
	Pseudo   *string `json:"pseudo"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// validateUserUpdate converts the partial-update body into storage terms.
// Every field is optional but a present username or email must still be
// well formed, and at least one field has to carry a value.
func validateUserUpdate(req userUpdateRequest) (storage.UserUpdate, *ValidationError) {
	var update storage.UserUpdate
	if req.Username != nil && *req.Username != "" {
		if usernameDisallowed.MatchString(*req.Username) {
			return update, &ValidationError{Code: codeUpdateUsernameFormat, Reasons: []string{"Username must contain only letters, numbers, underscores and dashes"}}
		}
		update.Username = req.Username
	}
	if req.Pseudo != nil && *req.Pseudo != "" {
		update.Pseudo = req.Pseudo
	}
	if req.Email != nil && *req.Email != "" {
		if !emailPattern.MatchString(*req.Email) {
			return update, &ValidationError{Code: codeUpdateEmailFormat, Reasons: []string{"Email must be a valid email"}}
		}
		update.Email = req.Email
	}
	if req.Password != nil && *req.Password != "" {
		update.Password = req.Password
	}
	if update.Username == nil && update.Pseudo == nil && update.Email == nil && update.Password == nil {
		return update, &ValidationError{Code: codeNothingToUpdate, Reasons: []string{"No data to update"}}
	}
	return update, nil
}

type videoUpdateRequest struct {
	Name *string `json:"name"`
	User *string `json:"user"`
}

// validateVideoUpdate resolves the optional name and owner fields. The owner
// travels as a string and must parse as an integer id.
func validateVideoUpdate(req videoUpdateRequest) (storage.VideoUpdate, *ValidationError) {
	var update storage.VideoUpdate
	if req.Name != nil && *req.Name != "" {
		update.Name = req.Name
	}
	if req.User != nil && *req.User != "" {
		ownerID, err := strconv.ParseInt(*req.User, 10, 64)
		if err != nil {
			return update, &ValidationError{Code: codeVideoBadRequest, Reasons: []string{"Invalid user parameter, must be a number, got " + *req.User}}
		}
		update.OwnerID = &ownerID
	}
	if update.Name == nil && update.OwnerID == nil {
		return update, &ValidationError{Code: codeVideoBadRequest, Reasons: []string{"Missing name or user parameter"}}
	}
	return update, nil
}

type encodingRequest struct {
	Format string `json:"format"`
	File   string `json:"file"`
}

func validateEncoding(req encodingRequest) *ValidationError {
	valid := false
	for _, label := range models.FormatLabels {
		if req.Format == label {
			valid = true
			break
		}
	}
	if !valid {
		return &ValidationError{Code: codeVideoBadRequest, Reasons: []string{"Missing or wrong format parameter"}}
	}
	if req.File == "" {
		return &ValidationError{Code: codeVideoBadRequest, Reasons: []string{"Missing file parameter"}}
	}
	return nil
}
