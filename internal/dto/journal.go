package dto

// JournalForm carries the text fields of a generation submission exactly as
// posted; parsing and range checks happen in the service layer.
type JournalForm struct {
	FullName        string `form:"fullName" validate:"min=2"`
	RollNumber      string `form:"rollNumber" validate:"required"`
	ClassAndSection string `form:"classAndSection" validate:"required"`
	StudyLevel      string `form:"studyLevel" validate:"oneof=UG PG"`
	YearAndTerm     string `form:"yearAndTerm" validate:"required,max=200"`
	SubjectName     string `form:"subjectName" validate:"min=3,max=200"`
	AssessmentName  string `form:"assessmentName" validate:"min=3,max=200"`
	SubmissionDate  string `form:"submissionDate" validate:"required,isodate"`
	Creativity      string `form:"creativity" validate:"required,unitfloat"`
	Humanize        string `form:"humanize" validate:"omitempty,boolean"`
}

// GeneratedJournalResponse is the JSON result of a generation: the file name
// and the base64-encoded .docx.
type GeneratedJournalResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}
