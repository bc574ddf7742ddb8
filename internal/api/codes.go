package api

// Numeric failure codes carried in the response envelope. The values are part
// of the wire contract consumed by existing clients and must not be renumbered.
const (
	codeInternalError = 0

	codeUsernameRequired = 1
	codeUsernameFormat   = 2
	codeEmailRequired    = 3
	codeEmailFormat      = 4
	codePasswordRequired = 5
	codeRegisterConflict = 6

	codeLoginRequired         = 7
	codeLoginPasswordRequired = 8
	codeInvalidPassword       = 9

	codeInvalidResourceID = 10

	codeDeleteOtherUser      = 11
	codeUpdateOtherUser      = 12
	codeUpdateUsernameFormat = 13
	codeUpdateEmailFormat    = 14
	codeNothingToUpdate      = 15
	codeUpdateConflict       = 16

	codePerPageNotNumber = 17
	codePerPageNegative  = 18
	codePageNotNumber    = 19
	codePageTooSmall     = 20
	codeNonExistingPage  = 21

	codeVideoForOtherUser = 22
	codeMissingSource     = 23
	codeSourceNotVideo    = 24
	codeMissingVideoName  = 25

	codeVideoOwnerConflict = 5005
	codeVideoUpdateDenied  = 5006
	codeVideoDeleteDenied  = 5007

	codeCommentBodyRequired = 10001
	codeCommentVideoGone    = 10002

	codeDurationNotNumber = 40004
	codeVideoBadRequest   = 40005
)
