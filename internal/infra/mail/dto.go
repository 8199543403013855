package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string

	// NotifyTo é a caixa do time comercial que recebe os relatórios.
	NotifyTo string
}

type CallReportEmailData struct {
	LeadID          string
	CallID          string
	Status          string
	DurationSeconds int
	Summary         string
	ErrorMessage    string
	AnsweredBy      string
	RecordingURL    string
	HasAnalysis     bool
}
