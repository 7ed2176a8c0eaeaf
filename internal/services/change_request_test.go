package services

import (
	"errors"
	"testing"

	"github.com/cospace/backend/internal/models"
)

func TestSubmit_EditorQueuesChangeRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	editor := createTestUser(t, db, "editor")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, editor.ID, "editor")

	result, err := svc.Submit(project, editor.ID, &SubmitChangeRequest{
		FieldName: models.FieldTitle,
		NewValue:  "Renamed Project",
		Reason:    "better name",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if result.Applied {
		t.Error("editor submission should queue, not apply")
	}
	if result.ChangeRequestID == nil {
		t.Fatal("queued submission should return a change request ID")
	}

	// Project stays untouched until review
	var fresh models.Project
	db.First(&fresh, project.ID)
	if fresh.Title != "Test Project" {
		t.Errorf("project title changed before approval: %q", fresh.Title)
	}

	var request models.ProjectChangeRequest
	if err := db.First(&request, *result.ChangeRequestID).Error; err != nil {
		t.Fatalf("change request row missing: %v", err)
	}
	if request.Status != models.ChangeStatusPending {
		t.Errorf("status = %q, expected pending", request.Status)
	}
	if request.OldValue != "Test Project" {
		t.Errorf("old value = %q, expected snapshot of current title", request.OldValue)
	}
	if request.NewValue != "Renamed Project" {
		t.Errorf("new value = %q", request.NewValue)
	}
	if request.RequestedBy != editor.ID {
		t.Errorf("requested_by = %d, expected %d", request.RequestedBy, editor.ID)
	}

	if n := countAuditEntries(t, db, project.ID, models.AuditActionChangeRequested); n != 1 {
		t.Errorf("expected 1 change_requested audit entry, got %d", n)
	}
}

func TestSubmit_OwnerAppliesImmediately(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID, false)

	result, err := svc.Submit(project, owner.ID, &SubmitChangeRequest{
		FieldName: models.FieldTitle,
		NewValue:  "Owner Edit",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !result.Applied {
		t.Error("owner submission should apply immediately")
	}
	if result.ChangeRequestID != nil {
		t.Error("applied submission should not create a change request")
	}

	var fresh models.Project
	db.First(&fresh, project.ID)
	if fresh.Title != "Owner Edit" {
		t.Errorf("title = %q, expected applied edit", fresh.Title)
	}

	var pending int64
	db.Model(&models.ProjectChangeRequest{}).Where("project_id = ?", project.ID).Count(&pending)
	if pending != 0 {
		t.Errorf("expected no change request rows, got %d", pending)
	}

	entry := lastAuditEntry(t, db, project.ID)
	if entry.Action != models.AuditActionUpdated {
		t.Errorf("audit action = %q, expected updated", entry.Action)
	}
	if entry.OldValues[models.FieldTitle] != "Test Project" {
		t.Errorf("audit old value = %v", entry.OldValues[models.FieldTitle])
	}
	if entry.NewValues[models.FieldTitle] != "Owner Edit" {
		t.Errorf("audit new value = %v", entry.NewValues[models.FieldTitle])
	}
}

func TestSubmit_ApproverMemberAppliesImmediately(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	admin := createTestUser(t, db, "padmin")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, admin.ID, "admin")

	result, err := svc.Submit(project, admin.ID, &SubmitChangeRequest{
		FieldName: models.FieldDescription,
		NewValue:  "updated description",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !result.Applied {
		t.Error("approver submission should apply immediately")
	}

	var fresh models.Project
	db.First(&fresh, project.ID)
	if fresh.Description != "updated description" {
		t.Errorf("description = %q", fresh.Description)
	}
}

func TestSubmit_InvalidField(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID, false)

	for _, field := range []string{"user_id", "id", "created_at", "bogus"} {
		_, err := svc.Submit(project, owner.ID, &SubmitChangeRequest{
			FieldName: field,
			NewValue:  "1",
		}, RequestMeta{})
		if !errors.Is(err, ErrInvalidField) {
			t.Errorf("Submit(%q) error = %v, expected ErrInvalidField", field, err)
		}
	}
}

func TestSubmit_VisibilityIsOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	admin := createTestUser(t, db, "padmin")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, admin.ID, "admin")

	// Even a member with full approval rights may not flip visibility
	_, err := svc.Submit(project, admin.ID, &SubmitChangeRequest{
		FieldName: models.FieldIsPublic,
		NewValue:  "true",
	}, RequestMeta{})
	if !errors.Is(err, ErrOwnerOnlyField) {
		t.Errorf("admin member changing visibility: error = %v, expected ErrOwnerOnlyField", err)
	}

	result, err := svc.Submit(project, owner.ID, &SubmitChangeRequest{
		FieldName: models.FieldIsPublic,
		NewValue:  "true",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("owner changing visibility: error = %v", err)
	}
	if !result.Applied {
		t.Error("owner visibility change should apply immediately")
	}

	var fresh models.Project
	db.First(&fresh, project.ID)
	if !fresh.IsPublic {
		t.Error("project should now be public")
	}
}

func TestSubmit_NonViewerOnPrivateProject(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	stranger := createTestUser(t, db, "stranger")
	project := createTestProject(t, db, owner.ID, false)

	_, err := svc.Submit(project, stranger.ID, &SubmitChangeRequest{
		FieldName: models.FieldTitle,
		NewValue:  "hijack",
	}, RequestMeta{})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v, expected ErrForbidden", err)
	}
}

func TestApprove_AppliesChangeAndRecordsReviewer(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	editor := createTestUser(t, db, "editor")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, editor.ID, "editor")

	result, err := svc.Submit(project, editor.ID, &SubmitChangeRequest{
		FieldName: models.FieldTitle,
		NewValue:  "Approved Title",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := svc.Approve(*result.ChangeRequestID, owner.ID, "looks good", RequestMeta{}); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	var fresh models.Project
	db.First(&fresh, project.ID)
	if fresh.Title != "Approved Title" {
		t.Errorf("title = %q, expected the approved value", fresh.Title)
	}

	var request models.ProjectChangeRequest
	db.First(&request, *result.ChangeRequestID)
	if request.Status != models.ChangeStatusApproved {
		t.Errorf("status = %q, expected approved", request.Status)
	}
	if request.ReviewedBy == nil || *request.ReviewedBy != owner.ID {
		t.Error("reviewer identity should be recorded")
	}
	if request.ReviewedAt == nil {
		t.Error("review time should be recorded")
	}
	if request.ReviewNotes != "looks good" {
		t.Errorf("review notes = %q", request.ReviewNotes)
	}

	if n := countAuditEntries(t, db, project.ID, models.AuditActionChangeApproved); n != 1 {
		t.Errorf("expected 1 change_approved audit entry, got %d", n)
	}
}

func TestApprove_RequiresApprovalCapability(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	editor := createTestUser(t, db, "editor")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, editor.ID, "editor")

	result, _ := svc.Submit(project, editor.ID, &SubmitChangeRequest{
		FieldName: models.FieldTitle,
		NewValue:  "self approved?",
	}, RequestMeta{})

	// The requester holds edit but not approval, even on their own request
	err := svc.Approve(*result.ChangeRequestID, editor.ID, "", RequestMeta{})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v, expected ErrForbidden", err)
	}

	var request models.ProjectChangeRequest
	db.First(&request, *result.ChangeRequestID)
	if request.Status != models.ChangeStatusPending {
		t.Errorf("status = %q, request should remain pending", request.Status)
	}
}

func TestReject_LeavesProjectUntouched(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	editor := createTestUser(t, db, "editor")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, editor.ID, "editor")

	result, _ := svc.Submit(project, editor.ID, &SubmitChangeRequest{
		FieldName: models.FieldTitle,
		NewValue:  "Rejected Title",
	}, RequestMeta{})

	if err := svc.Reject(*result.ChangeRequestID, owner.ID, "not now", RequestMeta{}); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	var fresh models.Project
	db.First(&fresh, project.ID)
	if fresh.Title != "Test Project" {
		t.Errorf("title = %q, rejection must not modify the project", fresh.Title)
	}

	var request models.ProjectChangeRequest
	db.First(&request, *result.ChangeRequestID)
	if request.Status != models.ChangeStatusRejected {
		t.Errorf("status = %q, expected rejected", request.Status)
	}
	if request.ReviewedBy == nil || *request.ReviewedBy != owner.ID {
		t.Error("reviewer identity should be recorded")
	}

	if n := countAuditEntries(t, db, project.ID, models.AuditActionChangeRejected); n != 1 {
		t.Errorf("expected 1 change_rejected audit entry, got %d", n)
	}
}

func TestReview_SecondReviewConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	editor := createTestUser(t, db, "editor")
	admin := createTestUser(t, db, "padmin")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, editor.ID, "editor")
	addTestMember(t, db, project.ID, admin.ID, "admin")

	result, _ := svc.Submit(project, editor.ID, &SubmitChangeRequest{
		FieldName: models.FieldTitle,
		NewValue:  "Contested Title",
	}, RequestMeta{})

	if err := svc.Approve(*result.ChangeRequestID, owner.ID, "", RequestMeta{}); err != nil {
		t.Fatalf("first review failed: %v", err)
	}

	if err := svc.Reject(*result.ChangeRequestID, admin.ID, "", RequestMeta{}); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("second review error = %v, expected ErrAlreadyReviewed", err)
	}
	if err := svc.Approve(*result.ChangeRequestID, admin.ID, "", RequestMeta{}); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("repeat approval error = %v, expected ErrAlreadyReviewed", err)
	}

	// The applied value survives the losing review attempts
	var fresh models.Project
	db.First(&fresh, project.ID)
	if fresh.Title != "Contested Title" {
		t.Errorf("title = %q, expected the approved value to stand", fresh.Title)
	}
}

func TestApprove_FailedApplyRollsBackStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	project := createTestProject(t, db, owner.ID, false)

	// A visibility value that cannot be parsed makes the field write fail
	// after the status flip; both must roll back together.
	request := models.ProjectChangeRequest{
		ProjectID:   project.ID,
		RequestedBy: owner.ID,
		FieldName:   models.FieldIsPublic,
		OldValue:    "false",
		NewValue:    "notabool",
		Status:      models.ChangeStatusPending,
	}
	if err := db.Create(&request).Error; err != nil {
		t.Fatalf("failed to create change request: %v", err)
	}

	if err := svc.Approve(request.ID, owner.ID, "", RequestMeta{}); err == nil {
		t.Fatal("Approve() should fail on an unparseable value")
	}

	var fresh models.ProjectChangeRequest
	db.First(&fresh, request.ID)
	if fresh.Status != models.ChangeStatusPending {
		t.Errorf("status = %q, a failed apply must leave the request pending", fresh.Status)
	}
	if fresh.ReviewedBy != nil {
		t.Error("reviewer must not be recorded for a rolled-back approval")
	}

	var freshProject models.Project
	db.First(&freshProject, project.ID)
	if freshProject.IsPublic {
		t.Error("project visibility must be untouched")
	}
}

func TestListByProject_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewChangeRequestService(db)

	owner := createTestUser(t, db, "owner")
	editor := createTestUser(t, db, "editor")
	project := createTestProject(t, db, owner.ID, false)
	addTestMember(t, db, project.ID, editor.ID, "editor")

	svc.Submit(project, editor.ID, &SubmitChangeRequest{FieldName: models.FieldTitle, NewValue: "first"}, RequestMeta{})
	svc.Submit(project, editor.ID, &SubmitChangeRequest{FieldName: models.FieldDescription, NewValue: "second"}, RequestMeta{})

	requests, err := svc.ListByProject(project.ID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 change requests, got %d", len(requests))
	}
	if requests[0].Requester == nil || requests[0].Requester.Username != "editor" {
		t.Error("requester should be preloaded")
	}
}
