package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	dbpkg "github.com/pemba1s1/Expenso-sub000/internal/db"
	"github.com/pemba1s1/Expenso-sub000/internal/llm"
	"github.com/pemba1s1/Expenso-sub000/internal/models"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func createTestUser(t *testing.T, conn *gorm.DB, email string, role models.Role) models.User {
	t.Helper()
	user := models.User{Email: email, Name: "Test User", Verified: true, Role: role}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user %s: %v", email, errCreate)
	}
	return user
}

func createTestGroup(t *testing.T, conn *gorm.DB, name string, groupType models.GroupType, admin models.User) models.Group {
	t.Helper()
	group := models.Group{Name: name, Type: groupType}
	if errCreate := conn.Create(&group).Error; errCreate != nil {
		t.Fatalf("create group %s: %v", name, errCreate)
	}
	membership := models.Membership{UserID: admin.ID, GroupID: group.ID, Role: models.MembershipAdmin}
	if errCreate := conn.Create(&membership).Error; errCreate != nil {
		t.Fatalf("create admin membership: %v", errCreate)
	}
	return group
}

func addMember(t *testing.T, conn *gorm.DB, user models.User, group models.Group) {
	t.Helper()
	membership := models.Membership{UserID: user.ID, GroupID: group.ID, Role: models.MembershipMember}
	if errCreate := conn.Create(&membership).Error; errCreate != nil {
		t.Fatalf("add member: %v", errCreate)
	}
}

// authAs is the test stand-in for the auth middleware.
func authAs(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Set("userRole", user.Role)
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if errDecode := json.Unmarshal(w.Body.Bytes(), &payload); errDecode != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), errDecode)
	}
	return payload
}

// multipartBody builds a form with string fields and an optional file part.
func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		if errField := writer.WriteField(key, value); errField != nil {
			t.Fatalf("write field %s: %v", key, errField)
		}
	}
	if fileField != "" {
		part, errPart := writer.CreateFormFile(fileField, filename)
		if errPart != nil {
			t.Fatalf("create file part: %v", errPart)
		}
		if _, errWrite := part.Write(fileData); errWrite != nil {
			t.Fatalf("write file part: %v", errWrite)
		}
	}
	if errClose := writer.Close(); errClose != nil {
		t.Fatalf("close writer: %v", errClose)
	}
	return buf, writer.FormDataContentType()
}

func groupIDString(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// stubMailer records outbound mail instead of sending it.
type stubMailer struct {
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// stubLLM returns canned extraction and insight payloads and counts calls.
type stubLLM struct {
	extraction   llm.ReceiptExtraction
	insight      llm.InsightResponse
	extractCalls int
	insightCalls int
	err          error
}

func (s *stubLLM) ExtractReceipt(_ context.Context, _ []byte, _ string, _ []string) (llm.ReceiptExtraction, error) {
	s.extractCalls++
	if s.err != nil {
		return llm.ReceiptExtraction{}, s.err
	}
	return s.extraction, nil
}

func (s *stubLLM) GenerateInsight(_ context.Context, _ llm.InsightRequest) (llm.InsightResponse, error) {
	s.insightCalls++
	if s.err != nil {
		return llm.InsightResponse{}, s.err
	}
	return s.insight, nil
}

// stubStore returns deterministic URLs without touching the filesystem.
type stubStore struct {
	puts int
}

func (s *stubStore) Put(_ context.Context, filename string, data []byte, _ string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty object")
	}
	s.puts++
	return "http://localhost:8080/uploads/" + strings.ToLower(filename), nil
}
