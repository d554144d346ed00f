package paymentrepo

type CreateSessionReq struct {
	ExternalID  string
	Amount      float64
	PayerEmail  string
	Description string
	ExpirySec   int
}

type Session struct {
	Ref         string
	RedirectURL string
	ExpiresAt   string
}

type Repo interface {
	CreateSession(req CreateSessionReq) (*Session, error)
	// CancelSession voids an unsettled session; safe to call more than once.
	CancelSession(ref string) error
	VerifyCallbackSignature(sigHeader string, rawBody []byte) error
}
