package services

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/kendall-kelly/tutoring-orders-api/testutil"
	"github.com/kendall-kelly/tutoring-orders-api/utils"
)

func fileHeader(filename string, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content)) + 1024)
	if err != nil || len(form.File["file"]) == 0 {
		return nil
	}
	return form.File["file"][0]
}

func (s *OrderServiceSuite) attachments() (*S3AttachmentService, *MockS3Service) {
	store := NewMockS3Service()
	svc := NewAttachmentService(store, s.svc)
	svc.newID = func() string { return "fixed-id" }
	return svc, store
}

func (s *OrderServiceSuite) TestUploadAttachment_StoresUnderOrderPrefix() {
	order := s.createOrder()
	svc, store := s.attachments()

	att, err := svc.UploadAttachment(s.ctx, order.ID, s.teacher.UserID, fileHeader("My Worksheet.pdf", []byte("%PDF-1.4")))
	s.Require().NoError(err)

	s.Equal(AttachmentKeyPrefix(order.ID)+"fixed-id_My_Worksheet.pdf", att.Key)
	s.Equal("My_Worksheet.pdf", att.Filename)
	s.Equal("application/pdf", att.ContentType)
	s.Equal(int64(8), att.Size)
	s.True(store.FileExists(att.Key))
	s.Equal("application/pdf", store.ContentType(att.Key))

	// the stored key can be referenced from a message on the same order
	_, err = s.svc.AddOrderMessage(s.ctx, order.ID, s.teacher.UserID, MessageRequest{
		Message:     "Attached",
		Attachments: []string{att.Key},
	})
	s.NoError(err)
}

func (s *OrderServiceSuite) TestUploadAttachment_Rejections() {
	order := s.createOrder()
	svc, store := s.attachments()
	stranger := testutil.CreateStudent(s.T(), s.db, "Other Student", true)

	_, err := svc.UploadAttachment(s.ctx, order.ID, stranger.UserID, fileHeader("notes.txt", []byte("hi")))
	s.requireCode(err, CodeForbidden)

	_, err = svc.UploadAttachment(s.ctx, order.ID+99, s.student.UserID, fileHeader("notes.txt", []byte("hi")))
	s.requireCode(err, CodeNotFound)

	_, err = svc.UploadAttachment(s.ctx, order.ID, s.student.UserID, fileHeader("virus.exe", []byte("MZ")))
	var uploadErr *utils.FileUploadError
	s.Require().ErrorAs(err, &uploadErr)
	s.Equal("INVALID_FILE_FORMAT", uploadErr.Code)

	s.Empty(store.Keys())
}

func (s *OrderServiceSuite) TestUploadAttachment_StorageFailure() {
	order := s.createOrder()
	svc, store := s.attachments()
	store.UploadErr = errors.New("bucket unavailable")

	_, err := svc.UploadAttachment(s.ctx, order.ID, s.student.UserID, fileHeader("notes.txt", []byte("hi")))
	s.Require().Error(err)
	s.False(IsCode(err, CodeValidation))
	s.Contains(err.Error(), "bucket unavailable")
}

func (s *OrderServiceSuite) TestGetAttachmentURL() {
	order := s.createOrder()
	other := s.createOrder()
	svc, _ := s.attachments()

	att, err := svc.UploadAttachment(s.ctx, order.ID, s.student.UserID, fileHeader("plan.txt", []byte("week 1")))
	s.Require().NoError(err)

	url, err := svc.GetAttachmentURL(s.ctx, order.ID, s.admin.ID, att.Key)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(url, "https://test-bucket.s3.us-east-1.amazonaws.com/orders/"))

	_, err = svc.GetAttachmentURL(s.ctx, other.ID, s.student.UserID, att.Key)
	s.requireCode(err, CodeValidation)

	stranger := testutil.CreateTeacher(s.T(), s.db, "Other Teacher", true)
	_, err = svc.GetAttachmentURL(s.ctx, order.ID, stranger.UserID, att.Key)
	s.requireCode(err, CodeForbidden)

	_, err = svc.GetAttachmentURL(s.ctx, order.ID, s.student.UserID, AttachmentKeyPrefix(order.ID)+"missing.txt")
	s.Require().Error(err)
}

func (s *OrderServiceSuite) TestAttachmentServiceSingleton() {
	store := NewMockS3Service()
	svc := InitAttachmentService(store, s.svc)
	s.Same(svc, GetAttachmentService())

	SetAttachmentService(nil)
	s.Nil(GetAttachmentService())
}
