package types

// Action names the remote operation carried by an Envelope.
type Action string

const (
	ActionGetCompanyData   Action = "getCompanyData"
	ActionLogin            Action = "login"
	ActionSubmitSurveyData Action = "submitSurveyData"
	ActionGetHistory       Action = "getHistory"
	ActionTestChat         Action = "testChat"
)

// Known reports whether a is one of the actions the remote endpoint implements.
func (a Action) Known() bool {
	switch a {
	case ActionGetCompanyData, ActionLogin, ActionSubmitSurveyData, ActionGetHistory, ActionTestChat:
		return true
	}
	return false
}

// Envelope is the request body sent to the remote endpoint.
type Envelope struct {
	Action  Action `json:"action"`
	Payload any    `json:"payload,omitempty"`
}

type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// SurveyPayload is the submitted intake form.
type SurveyPayload struct {
	CompanyName    string       `json:"companyName"`
	PropertyName   string       `json:"propertyName"`
	ContactName    string       `json:"contactName"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone,omitempty"`
	Services       []string     `json:"services"`
	OtherService   string       `json:"otherService,omitempty"`
	ContactMethods []string     `json:"contactMethods"`
	UnitInfo       string       `json:"unitInfo"`
	Timeline       string       `json:"timeline"`
	Notes          string       `json:"notes,omitempty"`
	Attachments    []Attachment `json:"attachments"`
}

type Property struct {
	Name    string   `json:"name" yaml:"name"`
	Address string   `json:"address,omitempty" yaml:"address"`
	Units   []string `json:"units,omitempty" yaml:"units"`
}

type Company struct {
	Name       string     `json:"name" yaml:"name"`
	Properties []Property `json:"properties" yaml:"properties"`
}

// Directory is the selection data returned by getCompanyData.
type Directory struct {
	Companies []Company `json:"companies" yaml:"companies"`
	Services  []string  `json:"services" yaml:"services"`
	Timelines []string  `json:"timelines" yaml:"timelines"`
}

// Session is what a successful login returns.
type Session struct {
	CompanyName string   `json:"companyName" yaml:"companyName"`
	ContactName string   `json:"contactName" yaml:"contactName"`
	Email       string   `json:"email,omitempty" yaml:"email"`
	Phone       string   `json:"phone,omitempty" yaml:"phone"`
	Properties  []string `json:"properties" yaml:"properties"`
}

type HistoryRecord struct {
	Date     string `json:"date" yaml:"date"`
	Service  string `json:"service" yaml:"service"`
	Unit     string `json:"unit,omitempty" yaml:"unit"`
	Status   string `json:"status" yaml:"status"`
	Notes    string `json:"notes,omitempty" yaml:"notes"`
	Property string `json:"propertyName,omitempty" yaml:"propertyName"`
}

type History struct {
	PropertyName string          `json:"propertyName" yaml:"propertyName"`
	Records      []HistoryRecord `json:"records" yaml:"records"`
}

// SubmitReceipt is the success body of submitSurveyData.
type SubmitReceipt struct {
	Message     string `json:"message,omitempty"`
	ReferenceID string `json:"referenceId,omitempty"`
	// Dropped lists attachments left out for exceeding the size limit. It is
	// filled locally, never by the backend.
	Dropped []string `json:"droppedAttachments,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FallbackResponse wraps a result for the UI so it can show a demo-mode indicator.
type FallbackResponse struct {
	Data     any  `json:"data"`
	Fallback bool `json:"fallback"`
}

type LoginRequest struct {
	AccessCode string `json:"accessCode"`
}

type ChatRequest struct {
	Message string `json:"message"`
	Subject string `json:"subject,omitempty"`
}

type SubjectRequest struct {
	Subject string `json:"subject"`
}

type DraftResponse struct {
	Text string `json:"text"`
}
