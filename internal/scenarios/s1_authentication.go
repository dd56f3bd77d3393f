package scenarios

import (
	"context"
	"fmt"
	"time"

	"sea-e2e/internal/config"
	"sea-e2e/internal/executor"
)

// S1File is the identity of the authentication and authorization suite.
const S1File = "s1-authentication-and-authorization.spec"

// isoMillis matches the timestamps the application stores in free-text
// fields.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func init() {
	register(executor.File{
		Name: S1File,
		Tests: []executor.Test{{
			Title: "should perform login and user role verifications",
			Tags:  []string{"auth", "users", "profile"},
			Run:   LoginAndRoles,
		}},
	})
}

// Accounts returns the two users the suite creates for a unique context.
func Accounts(uniqueContext string) (allReports, physician User) {
	allReports = User{
		Email:     fmt.Sprintf("e2e+allreports+%s@sample.com", uniqueContext),
		FirstName: "e2e",
		LastName:  "allreports",
		Role:      "REPORT_READ_ALL",
	}
	physician = User{
		Email:     fmt.Sprintf("e2e+physician_all_fields+%s@sample.com", uniqueContext),
		FirstName: "e2e",
		LastName:  "physician_all_fields",
		Role:      "REPORT_READ_PHYSICIAN-ALL-FIELDS",
	}
	return allReports, physician
}

// LoginAndRoles logs in as the administrator, provisions two users, then
// signs in as the physician user to check its menus, reports and profile.
func LoginAndRoles(ctx context.Context, t *executor.T) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	f := NewFlow(ctx, t)

	if err := f.Open(cfg.AppURL); err != nil {
		return err
	}
	if err := f.CheckLoginValidation(); err != nil {
		return err
	}
	if err := f.Login(cfg.User, cfg.Password); err != nil {
		return err
	}
	if err := f.OpenUsers(); err != nil {
		return err
	}

	allReports, physician := Accounts(cfg.UniqueContext)
	f.log.Step("Creating first user")
	if err := f.CreateUser(allReports, cfg.Password); err != nil {
		return err
	}
	f.log.Step("Creating second user")
	if err := f.CreateUser(physician, cfg.Password); err != nil {
		return err
	}
	if err := f.Logoff(); err != nil {
		return err
	}

	f.log.Step("Logging in as the second user")
	if err := f.Login(physician.Email, cfg.Password); err != nil {
		return err
	}
	if err := f.ExpectRestrictedMenu(); err != nil {
		return err
	}
	if err := f.OpenReports("physician_all_fields"); err != nil {
		return err
	}

	savedAt := time.Now().UTC().Format(isoMillis)
	if err := f.UpdateProfile("e2e physician_all_fields", savedAt, UploadFile); err != nil {
		return err
	}
	if err := f.ExpectPersistedLastName(savedAt); err != nil {
		return err
	}

	f.log.Step("Logging off to end the test")
	return f.p.Click(MenuItem("Logoff"))
}
