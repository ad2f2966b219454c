package mail

// Template data. Values are preformatted for German readers.

type closingWonData struct {
	AppName       string
	RecipientName string
	StarterName   string
	LeadName      string
	Units         string
	Date          string
}

type registrationData struct {
	AppName       string
	RecipientName string
	UserName      string
	UserEmail     string
}

type approvedData struct {
	AppName       string
	RecipientName string
	Role          string
}

type EmailSender struct {
	AppName string
	From    string
	dialer  Dialer
}
