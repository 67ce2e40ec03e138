package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/auth"
	"github.com/campus-gigs/marketplace-service/internal/mail"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories/memory"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

// recordingMailer keeps the last text body sent to each address.
type recordingMailer struct {
	mu   sync.Mutex
	sent map[string]string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = make(map[string]string)
	}
	m.sent[to] = textBody
	return nil
}

func newAuthService(t *testing.T, mailer mail.Mailer, opts AuthOptions) (AuthService, *memory.Repository, *MemoryCodeStore) {
	t.Helper()

	repo := memory.New()
	codes := NewMemoryCodeStore()
	tokens := auth.NewJWTService([]byte("test-secret-test-secret-test-secret"), time.Hour)
	svc := NewAuthService(repo, codes, mailer, tokens, testLogger(), validator.NewBusinessValidator(), opts)
	return svc, repo, codes
}

func studentRegistration(email, code string) *RegisterRequest {
	studentID := "S-1001"
	price := 200
	return &RegisterRequest{
		Email:     email,
		Code:      code,
		Name:      "Sam",
		Role:      models.RoleStudent,
		StudentID: &studentID,
		Skills:    []string{"go", "sql"},
		Price:     &price,
	}
}

func TestAuthService_RequestCodeWithoutMail(t *testing.T) {
	svc, _, _ := newAuthService(t, mail.DisabledMailer{}, AuthOptions{})
	ctx := context.Background()

	resp, err := svc.RequestCode(ctx, &RequestCodeRequest{Email: "Sam@Campus.test"})
	if err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}
	if len(resp.Code) != 6 {
		t.Fatalf("Code = %q, want the code returned when mail is down", resp.Code)
	}
	if resp.ExpiresIn != int(CodeTTL.Seconds()) {
		t.Errorf("ExpiresIn = %d", resp.ExpiresIn)
	}

	got, err := svc.Register(ctx, studentRegistration("sam@campus.test", resp.Code))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got.Token == "" || got.User.Email != "sam@campus.test" {
		t.Errorf("Register() = %+v", got)
	}
	if got.User.Student == nil || got.User.Student.Price != 200 || !got.User.Student.OpenForWork {
		t.Errorf("Student = %+v", got.User.Student)
	}
}

func TestAuthService_RequestCodeMailFailureInProduction(t *testing.T) {
	svc, _, codes := newAuthService(t, mail.DisabledMailer{}, AuthOptions{Production: true})
	ctx := context.Background()

	resp, err := svc.RequestCode(ctx, &RequestCodeRequest{Email: "sam@campus.test"})
	if !errors.Is(err, ErrMailUnavailable) {
		t.Fatalf("RequestCode() error = %v, want ErrMailUnavailable", err)
	}
	if resp != nil {
		t.Errorf("RequestCode() = %+v, want no response", resp)
	}
	if len(codes.entries) != 0 {
		t.Errorf("pending codes = %d, want the unsent code dropped", len(codes.entries))
	}
}

func TestAuthService_RequestCodeMailed(t *testing.T) {
	mailer := &recordingMailer{}
	svc, _, codes := newAuthService(t, mailer, AuthOptions{})
	ctx := context.Background()

	resp, err := svc.RequestCode(ctx, &RequestCodeRequest{Email: "kim@campus.test"})
	if err != nil {
		t.Fatalf("RequestCode() error = %v", err)
	}
	if resp.Code != "" {
		t.Errorf("Code = %q, want it kept out of the response", resp.Code)
	}
	if mailer.sent["kim@campus.test"] == "" {
		t.Error("no mail sent")
	}
	if len(codes.entries) != 1 {
		t.Errorf("stored codes = %d, want 1", len(codes.entries))
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func(code string) *RegisterRequest
		check func(t *testing.T, resp *AuthResponse, err error)
	}{
		{
			name: "student without student id",
			build: func(code string) *RegisterRequest {
				req := studentRegistration("a@campus.test", code)
				req.StudentID = nil
				return req
			},
			check: func(t *testing.T, resp *AuthResponse, err error) {
				var verrs ValidationErrors
				if !errors.As(err, &verrs) || !verrs.HasField("student_id") {
					t.Errorf("error = %v, want student_id ValidationErrors", err)
				}
			},
		},
		{
			name: "student price below minimum",
			build: func(code string) *RegisterRequest {
				req := studentRegistration("a@campus.test", code)
				low := 50
				req.Price = &low
				return req
			},
			check: func(t *testing.T, resp *AuthResponse, err error) {
				var verrs ValidationErrors
				if !errors.As(err, &verrs) || !verrs.HasField("price") {
					t.Errorf("error = %v, want price ValidationErrors", err)
				}
			},
		},
		{
			name: "teacher drops student fields",
			build: func(code string) *RegisterRequest {
				req := studentRegistration("a@campus.test", code)
				req.Role = models.RoleTeacher
				return req
			},
			check: func(t *testing.T, resp *AuthResponse, err error) {
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				if resp.User.Student != nil {
					t.Errorf("Student = %+v, want nil for teacher", resp.User.Student)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, codes := newAuthService(t, mail.DisabledMailer{}, AuthOptions{})
			ctx := context.Background()
			if err := codes.Save(ctx, "a@campus.test", "123456", CodeTTL); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			resp, err := svc.Register(ctx, tt.build("123456"))
			tt.check(t, resp, err)

			if err != nil {
				if exists, _ := repo.User().ExistsByEmail(ctx, "a@campus.test"); exists {
					t.Error("user created despite rejection")
				}
			}
		})
	}
}

func TestAuthService_CodeChecks(t *testing.T) {
	svc, _, codes := newAuthService(t, mail.DisabledMailer{}, AuthOptions{})
	ctx := context.Background()

	if err := codes.Save(ctx, "sam@campus.test", "123456", CodeTTL); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := svc.Register(ctx, studentRegistration("sam@campus.test", "654321")); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Register() with wrong code error = %v, want ErrInvalidCode", err)
	}
	if _, err := svc.Register(ctx, studentRegistration("sam@campus.test", "123456")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// The code was consumed by registration.
	if _, err := svc.Login(ctx, &LoginRequest{Email: "sam@campus.test", Code: "123456"}); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Login() with used code error = %v, want ErrInvalidCode", err)
	}

	if err := codes.Save(ctx, "sam@campus.test", "222222", CodeTTL); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	resp, err := svc.Login(ctx, &LoginRequest{Email: "SAM@campus.test", Code: "222222"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token == "" || resp.ExpiresIn != int(time.Hour.Seconds()) {
		t.Errorf("Login() = %+v", resp)
	}

	if _, err := svc.Login(ctx, &LoginRequest{Email: "nobody@campus.test", Code: "222222"}); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Login() unknown email error = %v, want ErrAccountNotFound", err)
	}
}

func TestAuthService_ExpiredCode(t *testing.T) {
	svc, _, codes := newAuthService(t, mail.DisabledMailer{}, AuthOptions{})
	ctx := context.Background()

	now := time.Now()
	codes.now = func() time.Time { return now }
	if err := codes.Save(ctx, "sam@campus.test", "123456", CodeTTL); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	codes.now = func() time.Time { return now.Add(CodeTTL) }

	if _, err := svc.Register(ctx, studentRegistration("sam@campus.test", "123456")); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("Register() with expired code error = %v, want ErrInvalidCode", err)
	}
}

func TestAuthService_Duplicates(t *testing.T) {
	svc, _, codes := newAuthService(t, mail.DisabledMailer{}, AuthOptions{})
	ctx := context.Background()

	save := func(email, code string) {
		t.Helper()
		if err := codes.Save(ctx, email, code, CodeTTL); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	save("sam@campus.test", "111111")
	if _, err := svc.Register(ctx, studentRegistration("sam@campus.test", "111111")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	save("sam@campus.test", "222222")
	if _, err := svc.Register(ctx, studentRegistration("sam@campus.test", "222222")); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() same email error = %v, want ErrEmailTaken", err)
	}

	save("kim@campus.test", "333333")
	if _, err := svc.Register(ctx, studentRegistration("kim@campus.test", "333333")); !errors.Is(err, ErrStudentIDTaken) {
		t.Errorf("Register() same student id error = %v, want ErrStudentIDTaken", err)
	}
}

func TestAuthService_BypassCode(t *testing.T) {
	if auth.BypassCode == "" {
		t.Skip("bypass code compiled out")
	}

	tests := []struct {
		name        string
		testingMode bool
		wantErr     error
	}{
		{name: "testing mode accepts bypass", testingMode: true},
		{name: "bypass rejected outside testing mode", testingMode: false, wantErr: ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthService(t, mail.DisabledMailer{}, AuthOptions{TestingMode: tt.testingMode})

			_, err := svc.Register(context.Background(), studentRegistration("sam@campus.test", auth.BypassCode))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
