package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepai-labs/compliance-monitor/internal/models"
	"github.com/prepai-labs/compliance-monitor/pkg/mailer"
)

type fakeStaffReader struct {
	staff []models.Staff
	err   error
}

func (f *fakeStaffReader) ListStaffByRoles(context.Context, []models.UserRole) ([]models.Staff, error) {
	return f.staff, f.err
}

type fakeMailSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailSender) Send(msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestDispatchSendsOneMessageWithBothReports(t *testing.T) {
	staff := &fakeStaffReader{staff: []models.Staff{
		{ID: "u1", FullName: "CSA One", Email: "csa@example.com", Role: models.RoleCSA},
		{ID: "u2", FullName: "HOD One", Email: "hod@example.com", Role: models.RoleHOD},
	}}
	mail := &fakeMailSender{}
	svc := NewDispatchService(staff, mail, nil, nil)

	result, err := svc.Dispatch(context.Background(), []byte("%PDF-a"), []byte("%PDF-b"), 3, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Recipients)
	require.Len(t, mail.sent, 1)

	msg := mail.sent[0]
	assert.Equal(t, []string{"csa@example.com", "hod@example.com"}, msg.To)
	assert.Equal(t, "PrepAI Daily Alert: 3 Inactive, 2 Tasks Missed", msg.Subject)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "inactive_students.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "missed_tasks.pdf", msg.Attachments[1].Filename)
}

func TestDispatchSkipsStaffWithoutEmail(t *testing.T) {
	staff := &fakeStaffReader{staff: []models.Staff{
		{ID: "u1", Email: "csa@example.com", Role: models.RoleCSA},
		{ID: "u2", Email: "", Role: models.RoleHOD},
		{ID: "u3", Email: "   ", Role: models.RoleHOD},
	}}
	mail := &fakeMailSender{}
	svc := NewDispatchService(staff, mail, nil, nil)

	result, err := svc.Dispatch(context.Background(), nil, nil, 1, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Recipients)
	assert.Equal(t, 2, result.SkippedNoEmail)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, []string{"csa@example.com"}, mail.sent[0].To)
}

func TestDispatchNoRecipientsSendsNothing(t *testing.T) {
	staff := &fakeStaffReader{staff: []models.Staff{
		{ID: "u1", Email: "", Role: models.RoleCSA},
	}}
	mail := &fakeMailSender{}
	svc := NewDispatchService(staff, mail, nil, nil)

	result, err := svc.Dispatch(context.Background(), nil, nil, 1, 1)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Recipients)
	assert.Equal(t, 1, result.SkippedNoEmail)
	assert.Empty(t, mail.sent)
}

func TestDispatchTransportFailureSurfaces(t *testing.T) {
	staff := &fakeStaffReader{staff: []models.Staff{
		{ID: "u1", Email: "csa@example.com", Role: models.RoleCSA},
	}}
	mail := &fakeMailSender{err: errors.New("connection refused")}
	svc := NewDispatchService(staff, mail, nil, nil)

	result, err := svc.Dispatch(context.Background(), nil, nil, 1, 1)

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestDispatchStaffLookupFailureSurfaces(t *testing.T) {
	staff := &fakeStaffReader{err: errors.New("store down")}
	svc := NewDispatchService(staff, &fakeMailSender{}, nil, nil)

	result, err := svc.Dispatch(context.Background(), nil, nil, 0, 0)

	require.Error(t, err)
	assert.Nil(t, result)
}
