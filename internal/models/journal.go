package models

import "time"

type StudyLevel string

const (
	StudyLevelUG StudyLevel = "UG"
	StudyLevelPG StudyLevel = "PG"
)

// DocxMIMEType is the declared content type of uploaded and generated journals.
const DocxMIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// JournalRequest is one validated generation submission. It is never persisted.
type JournalRequest struct {
	FullName        string
	RollNumber      string
	ClassAndSection string
	StudyLevel      StudyLevel
	YearAndTerm     string
	SubjectName     string
	AssessmentName  string
	SubmissionDate  time.Time
	Creativity      float64
	Humanize        bool

	Document     []byte
	DocumentName string
	DocumentType string
	DocumentSize int64
}

// RephrasedContent is the structured output of the rephrasing call. Learning
// mixes prose lines with "*"-prefixed bullet lines.
type RephrasedContent struct {
	Topic       string   `json:"topic" validate:"required"`
	Experience  string   `json:"experience" validate:"required"`
	Feelings    string   `json:"feelings" validate:"required"`
	Learning    string   `json:"learning" validate:"required"`
	Application []string `json:"application" validate:"required,min=1,dive,required"`
	Conclusion  string   `json:"conclusion" validate:"required"`
}

// GeneratedDocument is returned to the caller and never stored.
type GeneratedDocument struct {
	Filename string
	Content  []byte
}
