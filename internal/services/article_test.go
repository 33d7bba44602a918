package services

import (
	"testing"

	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/permissions"
	"github.com/openguild/guildpress/internal/workflow"
	"github.com/openguild/guildpress/pkg/response"
)

func newArticleFixture(t *testing.T) (*ArticleService, *models.User, *models.User, *models.User) {
	t.Helper()

	db := setupTestDB(t)
	installRecorder(t)
	svc := NewArticleService(db, permissions.Default())

	author := createTestUser(t, db, "author", "member")
	editor := createTestUser(t, db, "editor", "member,editor")
	admin := createTestUser(t, db, "admin", "member,editor,admin")
	return svc, author, editor, admin
}

func mustCreateArticle(t *testing.T, svc *ArticleService, author *models.User) *models.Article {
	t.Helper()

	article, err := svc.Create(actorFor(author), &ArticleCreateRequest{
		Title: "Measuring Reviewer Load",
		Type:  "research",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return article
}

func appStatus(t *testing.T, err error) int {
	t.Helper()

	appErr, ok := err.(*response.AppError)
	if !ok {
		t.Fatalf("expected *response.AppError, got %T: %v", err, err)
	}
	return appErr.HTTPStatus
}

func TestArticleCreate_StartsInDraft(t *testing.T) {
	svc, author, _, _ := newArticleFixture(t)

	article := mustCreateArticle(t, svc, author)
	if article.Status != workflow.ArticleDraft {
		t.Errorf("Status = %q, expected %q", article.Status, workflow.ArticleDraft)
	}
	if article.Slug == "" {
		t.Error("Slug should be derived from the title")
	}
	if article.AuthorID != author.ID {
		t.Errorf("AuthorID = %d, expected %d", article.AuthorID, author.ID)
	}
}

func TestArticleCreate_RejectsInvalidType(t *testing.T) {
	svc, author, _, _ := newArticleFixture(t)

	_, err := svc.Create(actorFor(author), &ArticleCreateRequest{
		Title: "Bad Type",
		Type:  "poetry",
	})
	if err == nil {
		t.Fatal("expected error for invalid article type")
	}
	if got := appStatus(t, err); got != 400 {
		t.Errorf("HTTPStatus = %d, expected 400", got)
	}
}

func TestArticleTransition_SubmitThenReview(t *testing.T) {
	svc, author, editor, _ := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	article, err := svc.Transition(actorFor(author), article.ID, &ArticleTransitionRequest{To: "submitted"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if article.Status != workflow.ArticleSubmitted {
		t.Fatalf("Status = %q, expected %q", article.Status, workflow.ArticleSubmitted)
	}

	article, err = svc.Transition(actorFor(editor), article.ID, &ArticleTransitionRequest{To: "in_review"})
	if err != nil {
		t.Fatalf("in_review: %v", err)
	}
	if article.Status != workflow.ArticleInReview {
		t.Errorf("Status = %q, expected %q", article.Status, workflow.ArticleInReview)
	}
}

func TestArticleTransition_IllegalSkipRejected(t *testing.T) {
	svc, author, editor, _ := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	// draft -> published skips the whole pipeline
	_, err := svc.Transition(actorFor(editor), article.ID, &ArticleTransitionRequest{To: "published"})
	if err == nil {
		t.Fatal("expected illegal transition error")
	}
	if got := appStatus(t, err); got != 422 {
		t.Errorf("HTTPStatus = %d, expected 422", got)
	}
}

func TestArticleTransition_AuthCheckedBeforeLegality(t *testing.T) {
	svc, author, _, _ := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	// The author lacks article:publish, and draft -> published is also
	// illegal. The authorization failure must win.
	_, err := svc.Transition(actorFor(author), article.ID, &ArticleTransitionRequest{To: "published"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := appStatus(t, err); got != 403 {
		t.Errorf("HTTPStatus = %d, expected 403 (authorization checked first)", got)
	}
}

func TestArticleTransition_EditAnyDoesNotImplyPublish(t *testing.T) {
	db := setupTestDB(t)
	installRecorder(t)

	// Custom mapping: a curator role holding article:edit:any but not
	// article:publish.
	gate := permissions.NewGate(map[permissions.Role][]permissions.Permission{
		"curator": {permissions.ArticleEditAny, permissions.ArticleReview},
	})
	svc := NewArticleService(db, gate)

	author := createTestUser(t, db, "author", "member")
	curator := createTestUser(t, db, "curator", "curator")

	article := &models.Article{
		Slug:     "accepted-piece",
		Title:    "Accepted Piece",
		Type:     workflow.TypeResearch,
		Status:   workflow.ArticleAccepted,
		AuthorID: author.ID,
	}
	if err := db.Create(article).Error; err != nil {
		t.Fatalf("seed article: %v", err)
	}

	curatorActor := Actor{ID: curator.ID, Roles: []permissions.Role{"curator"}}
	_, err := svc.Transition(curatorActor, article.ID, &ArticleTransitionRequest{To: "published"})
	if err == nil {
		t.Fatal("expected authorization error")
	}
	if got := appStatus(t, err); got != 403 {
		t.Errorf("HTTPStatus = %d, expected 403", got)
	}
}

func TestArticleTransition_PublishAcceptedArticle(t *testing.T) {
	svc, author, editor, _ := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	steps := []string{"submitted", "in_review", "accepted", "published"}
	actors := []Actor{actorFor(author), actorFor(editor), actorFor(editor), actorFor(editor)}
	var err error
	for i, to := range steps {
		article, err = svc.Transition(actors[i], article.ID, &ArticleTransitionRequest{To: to})
		if err != nil {
			t.Fatalf("transition to %q: %v", to, err)
		}
	}

	if article.Status != workflow.ArticlePublished {
		t.Fatalf("Status = %q, expected %q", article.Status, workflow.ArticlePublished)
	}
	if article.PublishedAt == nil {
		t.Error("PublishedAt should be set on publication")
	}

	// A second publish attempt must fail: published -> published is illegal.
	_, err = svc.Transition(actorFor(editor), article.ID, &ArticleTransitionRequest{To: "published"})
	if err == nil {
		t.Fatal("expected error on re-publish")
	}
	if got := appStatus(t, err); got != 422 {
		t.Errorf("HTTPStatus = %d, expected 422", got)
	}
}

func TestArticleTransition_RetractRequiresAdmin(t *testing.T) {
	svc, author, editor, admin := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	steps := []string{"submitted", "in_review", "accepted", "published"}
	actors := []Actor{actorFor(author), actorFor(editor), actorFor(editor), actorFor(editor)}
	var err error
	for i, to := range steps {
		article, err = svc.Transition(actors[i], article.ID, &ArticleTransitionRequest{To: to})
		if err != nil {
			t.Fatalf("transition to %q: %v", to, err)
		}
	}

	_, err = svc.Transition(actorFor(editor), article.ID, &ArticleTransitionRequest{To: "retracted"})
	if err == nil {
		t.Fatal("editor should not be able to retract")
	}
	if got := appStatus(t, err); got != 403 {
		t.Errorf("HTTPStatus = %d, expected 403", got)
	}

	article, err = svc.Transition(actorFor(admin), article.ID, &ArticleTransitionRequest{To: "retracted"})
	if err != nil {
		t.Fatalf("admin retract: %v", err)
	}
	if article.Status != workflow.ArticleRetracted {
		t.Errorf("Status = %q, expected %q", article.Status, workflow.ArticleRetracted)
	}
}

func TestArticleTransition_ScheduleRequiresPublishAt(t *testing.T) {
	svc, author, editor, _ := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	steps := []string{"submitted", "in_review", "accepted"}
	actors := []Actor{actorFor(author), actorFor(editor), actorFor(editor)}
	var err error
	for i, to := range steps {
		article, err = svc.Transition(actors[i], article.ID, &ArticleTransitionRequest{To: to})
		if err != nil {
			t.Fatalf("transition to %q: %v", to, err)
		}
	}

	_, err = svc.Transition(actorFor(editor), article.ID, &ArticleTransitionRequest{To: "scheduled"})
	if err == nil {
		t.Fatal("expected error without publish_at")
	}
	if got := appStatus(t, err); got != 400 {
		t.Errorf("HTTPStatus = %d, expected 400", got)
	}
}

func TestArticleUpdate_OnlyWhileEditable(t *testing.T) {
	svc, author, _, _ := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	newTitle := "Revised Title"
	updated, err := svc.Update(actorFor(author), article.ID, &ArticleUpdateRequest{Title: &newTitle})
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("Title = %q, expected %q", updated.Title, newTitle)
	}

	if _, err := svc.Transition(actorFor(author), article.ID, &ArticleTransitionRequest{To: "submitted"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.Update(actorFor(author), article.ID, &ArticleUpdateRequest{Title: &newTitle})
	if err == nil {
		t.Fatal("expected error editing a submitted article")
	}
	if got := appStatus(t, err); got != 400 {
		t.Errorf("HTTPStatus = %d, expected 400", got)
	}
}

func TestArticleUpdate_OtherMemberForbidden(t *testing.T) {
	svc, author, _, _ := newArticleFixture(t)
	article := mustCreateArticle(t, svc, author)

	other := Actor{ID: author.ID + 100, Roles: []permissions.Role{permissions.RoleMember}}
	title := "Hijacked"
	_, err := svc.Update(other, article.ID, &ArticleUpdateRequest{Title: &title})
	if err == nil {
		t.Fatal("expected forbidden")
	}
	if got := appStatus(t, err); got != 403 {
		t.Errorf("HTTPStatus = %d, expected 403", got)
	}
}

func TestArticleTransition_EmitsInvalidationKeys(t *testing.T) {
	db := setupTestDB(t)
	rec := installRecorder(t)
	svc := NewArticleService(db, permissions.Default())

	author := createTestUser(t, db, "author", "member")
	article := mustCreateArticle(t, svc, author)

	if _, err := svc.Transition(actorFor(author), article.ID, &ArticleTransitionRequest{To: "submitted"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := ArticleViewKey(article.Slug)
	found := false
	for _, k := range rec.keys {
		if k == want {
			found = true
		}
	}
	if !found {
		t.Errorf("invalidation keys %v missing %q", rec.keys, want)
	}
}

func TestArticleCreate_DuplicateTitleGetsDistinctSlug(t *testing.T) {
	svc, author, _, _ := newArticleFixture(t)

	first := mustCreateArticle(t, svc, author)
	second := mustCreateArticle(t, svc, author)

	if second.Slug == "" {
		t.Fatal("second article slug should not be empty")
	}
	if second.Slug == first.Slug {
		t.Errorf("second article slug %q should differ from the first", second.Slug)
	}
}
