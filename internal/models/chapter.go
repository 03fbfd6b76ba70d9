package models

import (
	"strings"
	"time"
)

// ChapterCount is the number of curriculum chapters every group must submit.
const ChapterCount = 5

// ChapterStatus enumerates the review lifecycle of a chapter version.
type ChapterStatus string

const (
	// ChapterStatusUploaded indicates the version was submitted and not yet opened by an advisor.
	ChapterStatusUploaded ChapterStatus = "uploaded"
	// ChapterStatusPending exists on legacy rows only; new rows are never written with it.
	ChapterStatusPending ChapterStatus = "pending"
	// ChapterStatusUnderReview indicates the owning advisor has opened the version.
	ChapterStatusUnderReview ChapterStatus = "under_review"
	// ChapterStatusNeedsRevision indicates the advisor requested changes.
	ChapterStatusNeedsRevision ChapterStatus = "needs_revision"
	// ChapterStatusApproved indicates the advisor accepted the version.
	ChapterStatusApproved ChapterStatus = "approved"
)

// PendingReview reports whether the status counts as awaiting advisor action.
// uploaded, pending and under_review are equivalent for read queries.
func (s ChapterStatus) PendingReview() bool {
	switch s {
	case ChapterStatusUploaded, ChapterStatusPending, ChapterStatusUnderReview:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is one of the known lifecycle values.
func (s ChapterStatus) Valid() bool {
	switch s {
	case ChapterStatusUploaded, ChapterStatusPending, ChapterStatusUnderReview,
		ChapterStatusNeedsRevision, ChapterStatusApproved:
		return true
	default:
		return false
	}
}

// Display formats the status for user-facing surfaces.
func (s ChapterStatus) Display() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// PendingReviewStatuses lists every status treated as awaiting review.
func PendingReviewStatuses() []ChapterStatus {
	return []ChapterStatus{ChapterStatusUploaded, ChapterStatusPending, ChapterStatusUnderReview}
}

// AnalysisDimension identifies one independently computed analysis report.
type AnalysisDimension string

const (
	DimensionCompleteness AnalysisDimension = "completeness"
	DimensionAI           AnalysisDimension = "ai"
	DimensionCitation     AnalysisDimension = "citation"
	DimensionGrammar      AnalysisDimension = "grammar"
	DimensionSpelling     AnalysisDimension = "spelling"
	DimensionFormatting   AnalysisDimension = "formatting"
	DimensionRelevance    AnalysisDimension = "relevance"
)

// AnalysisDimensions lists every dimension in presentation order.
func AnalysisDimensions() []AnalysisDimension {
	return []AnalysisDimension{
		DimensionCompleteness,
		DimensionAI,
		DimensionCitation,
		DimensionGrammar,
		DimensionSpelling,
		DimensionFormatting,
		DimensionRelevance,
	}
}

// ChapterVersion represents one uploaded artifact for a chapter slot of a group.
// The analysis columns are populated by the external analysis pipeline and are
// read-only from this service's perspective.
type ChapterVersion struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	GroupID       uint          `gorm:"not null;index:idx_group_chapter;uniqueIndex:uq_chapter_slot_version" json:"group_id"`
	ChapterNumber int           `gorm:"not null;index:idx_group_chapter;uniqueIndex:uq_chapter_slot_version" json:"chapter_number"`
	Version       int           `gorm:"not null;uniqueIndex:uq_chapter_slot_version" json:"version"`
	Status        ChapterStatus `gorm:"size:32;not null;default:uploaded" json:"status"`

	FilePath         string `gorm:"size:512" json:"file_path"`
	OriginalFilename string `gorm:"size:255" json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `gorm:"size:128" json:"mime_type"`

	IsCurrent    bool  `gorm:"not null;default:false;index" json:"is_current"`
	ReplacedByID *uint `json:"replaced_by_id"`

	ReviewerID     *uint    `json:"reviewer_id"`
	ReviewerType   string   `gorm:"size:32" json:"reviewer_type"`
	ReviewScore    *float64 `json:"review_score"`
	ReviewFeedback string   `gorm:"type:text" json:"review_feedback"`

	CompletenessReport   string   `gorm:"type:text" json:"-"`
	CompletenessScore    *float64 `json:"completeness_score"`
	CompletenessFeedback string   `gorm:"type:text" json:"-"`
	AIReport             string   `gorm:"type:text" json:"-"`
	AIScore              *float64 `json:"ai_score"`
	AIFeedback           string   `gorm:"type:text" json:"-"`
	CitationReport       string   `gorm:"type:text" json:"-"`
	CitationScore        *float64 `json:"citation_score"`
	CitationFeedback     string   `gorm:"type:text" json:"-"`
	GrammarReport        string   `gorm:"type:text" json:"-"`
	GrammarScore         *float64 `json:"grammar_score"`
	GrammarFeedback      string   `gorm:"type:text" json:"-"`
	SpellingReport       string   `gorm:"type:text" json:"-"`
	SpellingScore        *float64 `json:"spelling_score"`
	SpellingFeedback     string   `gorm:"type:text" json:"-"`
	FormattingReport     string   `gorm:"type:text" json:"-"`
	FormattingScore      *float64 `json:"formatting_score"`
	FormattingFeedback   string   `gorm:"type:text" json:"-"`
	RelevanceReport      string   `gorm:"type:text" json:"-"`
	RelevanceScore       *float64 `json:"relevance_score"`
	RelevanceFeedback    string   `gorm:"type:text" json:"-"`

	UploadedAt     time.Time  `json:"uploaded_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AnalysisRaw returns the stored JSON text plus the derived scalar columns for
// one analysis dimension.
func (c ChapterVersion) AnalysisRaw(dimension AnalysisDimension) (raw string, score *float64, feedback string) {
	switch dimension {
	case DimensionCompleteness:
		return c.CompletenessReport, c.CompletenessScore, c.CompletenessFeedback
	case DimensionAI:
		return c.AIReport, c.AIScore, c.AIFeedback
	case DimensionCitation:
		return c.CitationReport, c.CitationScore, c.CitationFeedback
	case DimensionGrammar:
		return c.GrammarReport, c.GrammarScore, c.GrammarFeedback
	case DimensionSpelling:
		return c.SpellingReport, c.SpellingScore, c.SpellingFeedback
	case DimensionFormatting:
		return c.FormattingReport, c.FormattingScore, c.FormattingFeedback
	case DimensionRelevance:
		return c.RelevanceReport, c.RelevanceScore, c.RelevanceFeedback
	default:
		return "", nil, ""
	}
}

// Reviewed reports whether an advisor has recorded a final decision.
func (c ChapterVersion) Reviewed() bool {
	return c.Status == ChapterStatusApproved || c.Status == ChapterStatusNeedsRevision
}
