package main

import (
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
	identitysvc "github.com/trezcool/darasa/services/identity"
	"github.com/trezcool/darasa/services/learnsvc/learnsvctest"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) (*commandLine, *learnsvctest.Fake) {
	conf := &core.Config{
		AppName:   "Darasa",
		TestMode:  true,
		SecretKey: "secret",
		Server:    core.ServerConfig{JWTExpirationDelta: 10 * time.Minute},
	}

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	fake := learnsvctest.NewFake()

	token, err := identitysvc.GenerateToken(conf, identitysvc.NewClaims(conf, "admin", "admin", "admin@test.cd", true))
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}
	if err := os.Setenv(tokenEnvVar, token); err != nil {
		t.Fatalf("os.Setenv(): %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv(tokenEnvVar) })

	return &commandLine{
		conf:     conf,
		svc:      catalog.NewService(fake, nopLogger{}),
		validate: validate,
	}, fake
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
}

func Test_commandLine_run(t *testing.T) {
	cli, fake := setup(t)
	fake.AddCourseEntry(7, catalog.Course{Name: "Blockchain Basics", Slug: "blockchain-basics", Category: catalog.CategoryTechnology})

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "courses", args: []string{"courses"}},
		{name: "addcourse: no args", args: []string{"addcourse"}, wantErr: errHelp},
		{name: "addcourse: missing category", args: []string{"addcourse", "-name", "Design 101", "-slug", "design-101"}, wantErr: errHelp},
		{name: "addcourse", args: []string{"addcourse", "-name", "Design 101", "-slug", "design-101", "-category", "Design", "-topics", "color, layout"}},
		{name: "removecourse: no args", args: []string{"removecourse"}, wantErr: errHelp},
		{name: "removecourse: bad id", args: []string{"removecourse", "-id", "0"}, wantErr: errHelp},
		{name: "removecourse", args: []string{"removecourse", "-id", "7"}},
		{name: "removecourse: already gone", args: []string{"removecourse", "-id", "7"}, wantErr: catalog.ErrNotFound},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// the new course was published under the admin's identity
	for _, entry := range fake.Courses {
		if entry.Course.Slug == "design-101" {
			if entry.Course.Creator != "admin" {
				t.Errorf("creator = %q; want %q", entry.Course.Creator, "admin")
			}
			if len(entry.Course.Topics) != 2 {
				t.Errorf("topics = %v; want 2 entries", entry.Course.Topics)
			}
			return
		}
	}
	t.Error("added course not found in backend")
}

func Test_adminToken_prompt(t *testing.T) {
	_ = os.Unsetenv(tokenEnvVar)

	orig := readPasswordFunc
	defer func() { readPasswordFunc = orig }()
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("tok-123"), nil }

	token, err := adminToken()
	if err != nil {
		t.Fatalf("adminToken(): %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q; want %q", token, "tok-123")
	}

	readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
	if _, err := adminToken(); err != errHelp {
		t.Errorf("adminToken() error = %v, wantErr %v", err, errHelp)
	}
}
