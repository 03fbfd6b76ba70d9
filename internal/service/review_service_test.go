package service

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/thesistrack/thesistrack-api/internal/dto"
	"github.com/thesistrack/thesistrack-api/internal/models"
	"github.com/thesistrack/thesistrack-api/internal/repository"
)

type fakeNotifier struct {
	mu      sync.Mutex
	calls   int
	groupID uint
	title   string
	message string
	created int
	err     error
}

func (f *fakeNotifier) NotifyGroup(_ context.Context, groupID uint, title, message, _ string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.groupID = groupID
	f.title = title
	f.message = message
	return f.created, f.err
}

func newReviewService(t *testing.T, chapters repository.ChapterRepository, groups repository.GroupRepository, comments repository.CommentRepository, notifier ReviewNotifier, audit AuditService) ReviewService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewReviewService(chapters, groups, comments, notifier, audit, validate, zerolog.Nop())
}

func TestSubmitReviewApprovesAndNotifies(t *testing.T) {
	db := setupServiceDB(t)
	group := seedGroup(t, db, 42, 7, 8)

	chapters := repository.NewChapterRepository(db)
	comments := repository.NewCommentRepository(db)
	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 2, FilePath: "v1.pdf"}
	require.NoError(t, chapters.InsertVersion(context.Background(), &chapter))

	notifier := &fakeNotifier{created: 2}
	svc := newReviewService(t, chapters,
		repository.NewGroupRepository(db),
		comments,
		notifier,
		NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop()),
	)

	advisor := Caller{UserID: 42, Role: RoleAdvisor}
	review, err := svc.SubmitReview(context.Background(), advisor, chapter.ID, dto.ReviewRequest{
		Status:   "approved",
		Score:    floatPointer(91),
		Feedback: "well argued",
	})
	require.NoError(t, err)
	require.Equal(t, "approved", review.Status)
	require.NotNil(t, review.Score)
	require.Equal(t, 91.0, *review.Score)
	require.Equal(t, 2, review.NotifiedCount)

	require.Equal(t, 1, notifier.calls)
	require.Equal(t, group.ID, notifier.groupID)
	require.Equal(t, "Chapter Reviewed", notifier.title)
	require.Contains(t, notifier.message, "Chapter 2")

	stored, err := comments.ListByChapter(context.Background(), chapter.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "well argued", stored[0].Text)
	require.Equal(t, models.CommenterTypeAdvisor, stored[0].AuthorType)
}

func TestSubmitReviewRejectsNonAdvisor(t *testing.T) {
	db := setupServiceDB(t)
	group := seedGroup(t, db, 42, 7)

	chapters := repository.NewChapterRepository(db)
	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, chapters.InsertVersion(context.Background(), &chapter))

	svc := newReviewService(t, chapters,
		repository.NewGroupRepository(db),
		repository.NewCommentRepository(db),
		&fakeNotifier{},
		NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop()),
	)

	student := Caller{UserID: 7, Role: RoleStudent, GroupIDs: []uint{group.ID}}
	_, err := svc.SubmitReview(context.Background(), student, chapter.ID, dto.ReviewRequest{Status: "approved"})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSubmitReviewRejectsForeignAdvisor(t *testing.T) {
	db := setupServiceDB(t)
	group := seedGroup(t, db, 42, 7)

	chapters := repository.NewChapterRepository(db)
	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, chapters.InsertVersion(context.Background(), &chapter))

	notifier := &fakeNotifier{}
	svc := newReviewService(t, chapters,
		repository.NewGroupRepository(db),
		repository.NewCommentRepository(db),
		notifier,
		NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop()),
	)

	foreign := Caller{UserID: 99, Role: RoleAdvisor}
	_, err := svc.SubmitReview(context.Background(), foreign, chapter.ID, dto.ReviewRequest{Status: "needs_revision"})
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Zero(t, notifier.calls)
}

func TestSubmitReviewValidatesDecision(t *testing.T) {
	db := setupServiceDB(t)
	seedGroup(t, db, 42, 7)

	svc := newReviewService(t,
		repository.NewChapterRepository(db),
		repository.NewGroupRepository(db),
		repository.NewCommentRepository(db),
		&fakeNotifier{},
		NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop()),
	)

	advisor := Caller{UserID: 42, Role: RoleAdvisor}

	_, err := svc.SubmitReview(context.Background(), advisor, 1, dto.ReviewRequest{Status: "maybe"})
	require.Error(t, err)

	_, err = svc.SubmitReview(context.Background(), advisor, 1, dto.ReviewRequest{Status: "approved", Score: floatPointer(150)})
	require.Error(t, err)
}

func TestSubmitReviewSanitizesFeedback(t *testing.T) {
	db := setupServiceDB(t)
	group := seedGroup(t, db, 42, 7)

	chapters := repository.NewChapterRepository(db)
	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, chapters.InsertVersion(context.Background(), &chapter))

	svc := newReviewService(t, chapters,
		repository.NewGroupRepository(db),
		repository.NewCommentRepository(db),
		&fakeNotifier{},
		NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop()),
	)

	advisor := Caller{UserID: 42, Role: RoleAdvisor}
	review, err := svc.SubmitReview(context.Background(), advisor, chapter.ID, dto.ReviewRequest{
		Status:   "needs_revision",
		Feedback: "<b>tighten</b> the introduction",
	})
	require.NoError(t, err)
	require.Equal(t, "tighten the introduction", review.Feedback)
}

func TestUpdateCommentOnlyByAuthor(t *testing.T) {
	db := setupServiceDB(t)
	group := seedGroup(t, db, 42, 7)

	chapters := repository.NewChapterRepository(db)
	comments := repository.NewCommentRepository(db)
	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, chapters.InsertVersion(context.Background(), &chapter))

	comment := models.Comment{ChapterVersionID: chapter.ID, AuthorID: 42, AuthorType: models.CommenterTypeAdvisor, Text: "original"}
	require.NoError(t, comments.Create(context.Background(), &comment))

	svc := newReviewService(t, chapters,
		repository.NewGroupRepository(db),
		comments,
		&fakeNotifier{},
		NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop()),
	)

	text := "revised remark"
	stranger := Caller{UserID: 7, Role: RoleStudent, GroupIDs: []uint{group.ID}}
	_, err := svc.UpdateComment(context.Background(), stranger, comment.ID, dto.CommentUpdateRequest{Text: &text})
	require.ErrorIs(t, err, ErrPermissionDenied)

	author := Caller{UserID: 42, Role: RoleAdvisor}
	updated, err := svc.UpdateComment(context.Background(), author, comment.ID, dto.CommentUpdateRequest{Text: &text})
	require.NoError(t, err)
	require.Equal(t, "revised remark", updated.Text)
}

func TestListCommentsRequiresAccess(t *testing.T) {
	db := setupServiceDB(t)
	group := seedGroup(t, db, 42, 7)

	chapters := repository.NewChapterRepository(db)
	chapter := models.ChapterVersion{GroupID: group.ID, ChapterNumber: 1, FilePath: "v1.pdf"}
	require.NoError(t, chapters.InsertVersion(context.Background(), &chapter))

	svc := newReviewService(t, chapters,
		repository.NewGroupRepository(db),
		repository.NewCommentRepository(db),
		&fakeNotifier{},
		NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop()),
	)

	outsider := Caller{UserID: 99, Role: RoleStudent}
	_, err := svc.ListComments(context.Background(), outsider, chapter.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	advisor := Caller{UserID: 42, Role: RoleAdvisor}
	comments, err := svc.ListComments(context.Background(), advisor, chapter.ID)
	require.NoError(t, err)
	require.Empty(t, comments)
}
