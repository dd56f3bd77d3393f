package scenarios_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/browser/browsertest"
	"sea-e2e/internal/config"
	"sea-e2e/internal/executor"
	"sea-e2e/internal/scenarios"
	"sea-e2e/internal/steplog"
)

const (
	adminEmail = "u@x.com"
	adminPass  = "p"
	uniqueCtx  = "ctx1"
)

func setConfig(t *testing.T) {
	t.Helper()
	t.Setenv(config.KeyAppURL, "https://app.test")
	t.Setenv(config.KeyUser, adminEmail)
	t.Setenv(config.KeyPassword, adminPass)
	t.Setenv(config.KeyUniqueContext, uniqueCtx)
}

func newT(page browser.Page, log *bytes.Buffer) *executor.T {
	return &executor.T{
		Page:   page,
		Expect: browser.Expect{Timeout: 200 * time.Millisecond, Interval: 10 * time.Millisecond},
		Log:    steplog.New(log, nil),
	}
}

func TestLoginAndRoles_EndToEnd(t *testing.T) {
	setConfig(t)
	app := newFakeApp(adminEmail, adminPass)
	var log bytes.Buffer

	require.NoError(t, scenarios.LoginAndRoles(context.Background(), newT(app.p, &log)))

	allReports, physician := scenarios.Accounts(uniqueCtx)
	require.Contains(t, app.accounts, allReports.Email)
	require.Contains(t, app.accounts, physician.Email)
	assert.Equal(t, "REPORT_READ_ALL", app.accounts[allReports.Email].Role)
	assert.Equal(t, "REPORT_READ_PHYSICIAN-ALL-FIELDS", app.accounts[physician.Email].Role)
	assert.Equal(t, "e2e physician_all_fields", app.accounts[physician.Email].FirstName)
	assert.Equal(t, []string{scenarios.UploadFile}, app.p.Uploads(scenarios.SelFileInput))

	acts := app.p.Actions()
	assert.Equal(t, "goto https://app.test", acts[0])
	assert.Equal(t, "click "+scenarios.MenuItem("Logoff"), acts[len(acts)-1])

	out := log.String()
	for _, want := range []string{
		" - Starting test - navigating to app URL\n",
		" - Creating user: e2e+allreports+ctx1@sample.com\n",
		" - User not found, clicking Add button\n",
		"\nPage content before roles dropdown:\n<html><body>app</body></html>\n",
		"\nPage content after roles dropdown expansion:\n",
		" - Logging off to end the test\n",
	} {
		assert.Contains(t, out, want)
	}
}

func TestLoginAndRoles_ViaRunner(t *testing.T) {
	setConfig(t)
	app := newFakeApp(adminEmail, adminPass)
	f, ok := scenarios.Lookup("s1-authentication-and-authorization")
	require.True(t, ok)

	res := executor.New(&browsertest.Source{New: func() *browsertest.Page { return app.p }}).
		WithExpect(browser.Expect{Timeout: 200 * time.Millisecond, Interval: 10 * time.Millisecond}).
		Run(context.Background(), f)

	require.Len(t, res, 1)
	require.Len(t, res[0].Tests, 1)
	assert.Equal(t, executor.StatusPassed, res[0].Tests[0].Status, res[0].Tests[0].Error)
	assert.Equal(t, "should perform login and user role verifications", res[0].Tests[0].Title)
}

func TestLoginAndRoles_MissingConfigFailsBeforeBrowsing(t *testing.T) {
	setConfig(t)
	t.Setenv(config.KeyUniqueContext, "")
	t.Setenv(config.KeyPassword, "")
	page := browsertest.NewPage()

	err := scenarios.LoginAndRoles(context.Background(), newT(page, &bytes.Buffer{}))
	require.ErrorIs(t, err, config.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), config.KeyPassword)
	assert.Contains(t, err.Error(), config.KeyUniqueContext)
	assert.Empty(t, page.Actions())
}

func TestFlow_LoginValidationAndAccess(t *testing.T) {
	app := newFakeApp(adminEmail, adminPass)
	f := scenarios.NewFlow(context.Background(), newT(app.p, &bytes.Buffer{}))

	require.NoError(t, f.Open("https://app.test"))
	require.NoError(t, f.CheckLoginValidation())
	assert.True(t, app.p.Visible(scenarios.ErrorText(scenarios.MsgPasswordRequired)))
	assert.False(t, app.p.Visible(scenarios.SelPassword))
	assert.True(t, app.p.Visible(scenarios.ErrorText(scenarios.MsgInvalidCredentials)))

	require.NoError(t, f.Login(adminEmail, adminPass))
	assert.True(t, app.p.Visible(scenarios.MenuItem("Users")))
}

func TestFlow_MissingPasswordMessageFails(t *testing.T) {
	app := newFakeApp(adminEmail, adminPass)
	app.noPasswordCheck = true
	f := scenarios.NewFlow(context.Background(), newT(app.p, &bytes.Buffer{}))

	require.NoError(t, f.Open("https://app.test"))
	err := f.CheckLoginValidation()
	require.ErrorIs(t, err, browser.ErrAssertionFailed)
	assert.Contains(t, err.Error(), scenarios.MsgPasswordRequired)
}

func TestFlow_CreatedUserSeesRestrictedMenu(t *testing.T) {
	app := newFakeApp(adminEmail, adminPass)
	f := scenarios.NewFlow(context.Background(), newT(app.p, &bytes.Buffer{}))
	u := scenarios.User{Email: "e2e+role1+ctx1@sample.com", FirstName: "e2e", LastName: "role1", Role: "REPORT_READ_ALL"}

	require.NoError(t, f.Open("https://app.test"))
	require.NoError(t, f.Login(adminEmail, adminPass))
	require.NoError(t, f.OpenUsers())
	require.NoError(t, f.CreateUser(u, "secret"))
	require.NoError(t, f.Logoff())
	require.NoError(t, f.Login(u.Email, "secret"))
	require.NoError(t, f.ExpectRestrictedMenu())
	require.NoError(t, f.OpenReports("role1"))
}

func TestFlow_AdminStillSeesUsersMenu(t *testing.T) {
	app := newFakeApp(adminEmail, adminPass)
	f := scenarios.NewFlow(context.Background(), newT(app.p, &bytes.Buffer{}))

	require.NoError(t, f.Open("https://app.test"))
	require.NoError(t, f.Login(adminEmail, adminPass))
	err := f.ExpectRestrictedMenu()
	require.ErrorIs(t, err, browser.ErrAssertionFailed)
}

func TestFlow_ExistingUserIsEdited(t *testing.T) {
	app := newFakeApp(adminEmail, adminPass)
	u := scenarios.User{Email: "e2e+allreports+ctx1@sample.com", FirstName: "e2e", LastName: "allreports", Role: "REPORT_READ_ALL"}
	app.accounts[u.Email] = &account{User: scenarios.User{Email: u.Email, Role: "REPORT_READ_PHYSICIAN-ALL-FIELDS"}, Password: "old"}
	var log bytes.Buffer
	f := scenarios.NewFlow(context.Background(), newT(app.p, &log))

	require.NoError(t, f.Open("https://app.test"))
	require.NoError(t, f.Login(adminEmail, adminPass))
	require.NoError(t, f.OpenUsers())
	require.NoError(t, f.CreateUser(u, "new"))

	assert.Contains(t, log.String(), "User found, clicking Edit button")
	assert.Contains(t, app.p.Actions(), `click tr:has-text("`+u.Email+`") >> `+scenarios.SelEdit)
	assert.Equal(t, "new", app.accounts[u.Email].Password)
}

func TestFlow_ProfileRoundTrip(t *testing.T) {
	app := newFakeApp(adminEmail, adminPass)
	f := scenarios.NewFlow(context.Background(), newT(app.p, &bytes.Buffer{}))
	stamp := "2026-10-18T09:30:00.000Z"

	require.NoError(t, f.Open("https://app.test"))
	require.NoError(t, f.Login(adminEmail, adminPass))
	require.NoError(t, f.UpdateProfile("first", stamp, ""))
	require.NoError(t, f.ExpectPersistedLastName(stamp))
	assert.Equal(t, stamp, app.accounts[adminEmail].LastName)
}

func TestFlow_ProfileLostOnReloadFails(t *testing.T) {
	app := newFakeApp(adminEmail, adminPass)
	app.forgetOnReload = true
	f := scenarios.NewFlow(context.Background(), newT(app.p, &bytes.Buffer{}))
	stamp := "2026-10-18T09:30:00.000Z"

	require.NoError(t, f.Open("https://app.test"))
	require.NoError(t, f.Login(adminEmail, adminPass))
	require.NoError(t, f.UpdateProfile("first", stamp, ""))
	err := f.ExpectPersistedLastName(stamp)
	require.ErrorIs(t, err, browser.ErrAssertionFailed)
	assert.Contains(t, err.Error(), stamp)
}

func TestRegistry(t *testing.T) {
	files := scenarios.Files()
	require.NotEmpty(t, files)
	assert.Equal(t, scenarios.S1File, files[0].Name)

	_, ok := scenarios.Lookup(scenarios.S1File)
	assert.True(t, ok)
	_, ok = scenarios.Lookup("nope")
	assert.False(t, ok)
}

func TestAccounts(t *testing.T) {
	a, p := scenarios.Accounts("ctx9")
	assert.Equal(t, "e2e+allreports+ctx9@sample.com", a.Email)
	assert.Equal(t, "e2e+physician_all_fields+ctx9@sample.com", p.Email)
	assert.Equal(t, "REPORT_READ_PHYSICIAN-ALL-FIELDS", p.Role)
}
