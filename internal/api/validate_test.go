package api

import "testing"

func strp(v string) *string {
	return &v
}

func TestValidateRegistrationOrder(t *testing.T) {
	cases := []struct {
		name string
		req  registrationRequest
		code int
	}{
		{"missing username", registrationRequest{Email: "a@b.co", Password: "x"}, codeUsernameRequired},
		{"bad username", registrationRequest{Username: "bad name!", Email: "a@b.co", Password: "x"}, codeUsernameFormat},
		{"missing email", registrationRequest{Username: "alice", Password: "x"}, codeEmailRequired},
		{"bad email", registrationRequest{Username: "alice", Email: "nope", Password: "x"}, codeEmailFormat},
		{"missing password", registrationRequest{Username: "alice", Email: "a@b.co"}, codePasswordRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verr := validateRegistration(tc.req)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Code != tc.code {
				t.Fatalf("code: got %d, want %d", verr.Code, tc.code)
			}
		})
	}

	if verr := validateRegistration(registrationRequest{Username: "al-ice_1", Email: "a@b.co", Password: "x"}); verr != nil {
		t.Fatalf("valid registration rejected: %+v", verr)
	}
}

func TestValidateLogin(t *testing.T) {
	if verr := validateLogin(loginRequest{Password: "x"}); verr == nil || verr.Code != codeLoginRequired {
		t.Fatalf("missing login: %+v", verr)
	}
	if verr := validateLogin(loginRequest{Login: "alice"}); verr == nil || verr.Code != codeLoginPasswordRequired {
		t.Fatalf("missing password: %+v", verr)
	}
	if verr := validateLogin(loginRequest{Login: "alice", Password: "x"}); verr != nil {
		t.Fatalf("valid login rejected: %+v", verr)
	}
}

func TestValidateUserUpdate(t *testing.T) {
	if _, verr := validateUserUpdate(userUpdateRequest{}); verr == nil || verr.Code != codeNothingToUpdate {
		t.Fatalf("empty update: %+v", verr)
	}
	if _, verr := validateUserUpdate(userUpdateRequest{Username: strp("no spaces")}); verr == nil || verr.Code != codeUpdateUsernameFormat {
		t.Fatalf("bad username: %+v", verr)
	}
	if _, verr := validateUserUpdate(userUpdateRequest{Email: strp("nope")}); verr == nil || verr.Code != codeUpdateEmailFormat {
		t.Fatalf("bad email: %+v", verr)
	}

	update, verr := validateUserUpdate(userUpdateRequest{Pseudo: strp("Ally"), Password: strp("next")})
	if verr != nil {
		t.Fatalf("valid update rejected: %+v", verr)
	}
	if update.Pseudo == nil || update.Password == nil || update.Username != nil || update.Email != nil {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestValidateVideoUpdate(t *testing.T) {
	if _, verr := validateVideoUpdate(videoUpdateRequest{}); verr == nil || verr.Code != codeVideoBadRequest {
		t.Fatalf("empty update: %+v", verr)
	}
	if _, verr := validateVideoUpdate(videoUpdateRequest{User: strp("bob")}); verr == nil || verr.Code != codeVideoBadRequest {
		t.Fatalf("non-numeric owner: %+v", verr)
	}

	update, verr := validateVideoUpdate(videoUpdateRequest{Name: strp("clip"), User: strp("7")})
	if verr != nil {
		t.Fatalf("valid update rejected: %+v", verr)
	}
	if update.Name == nil || update.OwnerID == nil || *update.OwnerID != 7 {
		t.Fatalf("unexpected update: %+v", update)
	}
}

func TestValidateEncoding(t *testing.T) {
	if verr := validateEncoding(encodingRequest{Format: "999", File: "x"}); verr == nil || verr.Code != codeVideoBadRequest {
		t.Fatalf("unknown format: %+v", verr)
	}
	if verr := validateEncoding(encodingRequest{Format: "720"}); verr == nil || verr.Code != codeVideoBadRequest {
		t.Fatalf("missing file: %+v", verr)
	}
	if verr := validateEncoding(encodingRequest{Format: "144", File: "encoded/clip-144.mp4"}); verr != nil {
		t.Fatalf("valid encoding rejected: %+v", verr)
	}
}
