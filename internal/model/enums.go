package model

// Status is the stage an application has reached. The stages are totally
// ordered: applied < vao < ri < tahsildar < disbursed.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusVAO       Status = "vao"
	StatusRI        Status = "ri"
	StatusTahsildar Status = "tahsildar"
	StatusDisbursed Status = "disbursed"
)

// Statuses lists every stage in roadmap order.
var Statuses = []Status{StatusApplied, StatusVAO, StatusRI, StatusTahsildar, StatusDisbursed}

// Valid reports whether s is one of the known stages.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// DocumentType keys the documents map of a profile.
type DocumentType string

const (
	DocAadhar    DocumentType = "aadharCard"
	DocRation    DocumentType = "rationCard"
	DocIncome    DocumentType = "incomeCert"
	DocCommunity DocumentType = "communityCert"
	DocEducation DocumentType = "eduCert"
)

// DocumentTypes lists the mandatory certificates in display order.
var DocumentTypes = []DocumentType{DocAadhar, DocRation, DocIncome, DocCommunity, DocEducation}

var documentLabels = map[DocumentType]string{
	DocAadhar:    "Aadhaar Card",
	DocRation:    "Smart Card (Ration)",
	DocIncome:    "Income Certificate",
	DocCommunity: "Community Certificate",
	DocEducation: "Education Certificate",
}

// Label is the human name of the document type.
func (t DocumentType) Label() string {
	if l, ok := documentLabels[t]; ok {
		return l
	}
	return string(t)
}

// DefaultDocumentsNeeded is attached to every reminder saved from search.
var DefaultDocumentsNeeded = []string{"Aadhar Card", "Smart Card", "Income Certificate"}
