package scenarios

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sea-e2e/internal/browser"
	"sea-e2e/internal/executor"
	"sea-e2e/internal/steplog"
)

// Selectors of the application under test.
const (
	SelEmail       = `input[aria-label="Email"]`
	SelPassword    = `input[aria-label="Password"]`
	SelFirstName   = `input[aria-label="First Name"]`
	SelLastName    = `input[aria-label="Last Name"]`
	SelSSO         = `.q-checkbox`
	SelRoles       = `.q-select`
	SelRolesInput  = `input[role="combobox"][aria-label="Roles"]`
	SelRolesValue  = `div.q-field__native span`
	SelLogin       = `button:has-text("Login")`
	SelAdd         = `button:has-text("Add")`
	SelEdit        = `button:has-text("Edit")`
	SelSave        = `button span.block:has-text("Save")`
	SelProfileSave = `button:has-text("Save")`
	SelSearch      = `input.q-field__native[placeholder="Search"]`
	SelSpinner     = `.blurred-form`
	SelFileInput   = `input[type="file"]`
	SelBody        = `body`

	MsgPasswordRequired   = "Password is required"
	MsgInvalidCredentials = "Invalid credentials or unsupported provider"

	checkedClass = "q-checkbox--checked"
)

// UploadFile is the avatar uploaded on the profile page.
const UploadFile = "resources/e2e.png"

// roleWait bounds how long a picked role may take to show up in the field.
const roleWait = 5 * time.Second

// MenuItem selects a navigation entry by its label.
func MenuItem(label string) string {
	return fmt.Sprintf(`div.q-item__section:has-text(%q)`, label)
}

// ErrorText selects a validation message.
func ErrorText(msg string) string {
	return fmt.Sprintf(`.text-negative:has-text(%q)`, msg)
}

func userRow(email string) string   { return fmt.Sprintf(`tr:has-text(%q)`, email) }
func roleOption(role string) string { return fmt.Sprintf(`div[role="option"]:has-text(%q)`, role) }
func cell(text string) string       { return fmt.Sprintf(`td:has-text(%q)`, text) }

// User is an account created through the Users page.
type User struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// Flow drives the application one user-visible step at a time. Every step
// writes a line to the step log before acting.
type Flow struct {
	ctx context.Context
	p   browser.Page
	x   browser.Expect
	log *steplog.Log
}

func NewFlow(ctx context.Context, t *executor.T) *Flow {
	log := t.Log
	if log == nil {
		log = steplog.Nop()
	}
	return &Flow{ctx: ctx, p: t.Page, x: t.Expect, log: log}
}

func (f *Flow) visible(sels ...string) error {
	for _, s := range sels {
		if err := f.x.Visible(f.ctx, f.p.Locator(s)); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flow) waitSpinner() error {
	return f.p.WaitForSelector(SelSpinner, browser.StateHidden, 0)
}

// Open navigates to the application.
func (f *Flow) Open(url string) error {
	f.log.Step("Starting test - navigating to app URL")
	return f.p.Goto(url)
}

// CheckLoginValidation walks the login form's validation paths and leaves
// the SSO checkbox checked.
func (f *Flow) CheckLoginValidation() error {
	f.log.Step("Checking visibility of Email and Password fields")
	if err := f.visible(SelEmail, SelPassword); err != nil {
		return err
	}
	if err := f.x.NoClass(f.ctx, f.p.Locator(SelSSO), checkedClass); err != nil {
		return err
	}

	f.log.Step("Clicking on Login button without filling fields")
	if err := f.p.Click(SelLogin); err != nil {
		return err
	}
	if err := f.visible(ErrorText(MsgPasswordRequired)); err != nil {
		return err
	}

	f.log.Step("Checking Use SSO checkbox and verifying Password field hides")
	if err := f.p.Click(SelSSO); err != nil {
		return err
	}
	if err := f.x.Hidden(f.ctx, f.p.Locator(SelPassword)); err != nil {
		return err
	}

	f.log.Step("Clicking on Login button with SSO checked")
	if err := f.p.Click(SelLogin); err != nil {
		return err
	}
	if err := f.visible(ErrorText(MsgInvalidCredentials)); err != nil {
		return err
	}

	f.log.Step("Entering invalid email and clicking Login")
	if err := f.p.Fill(SelEmail, "anything@sample.com"); err != nil {
		return err
	}
	if err := f.p.Click(SelLogin); err != nil {
		return err
	}
	return f.visible(ErrorText(MsgInvalidCredentials))
}

// Login signs in with a password, unchecking SSO first when needed.
func (f *Flow) Login(email, password string) error {
	f.log.Step("Logging in as %s", email)
	if err := f.p.Fill(SelEmail, email); err != nil {
		return err
	}
	if err := f.uncheckSSO(); err != nil {
		return err
	}
	if err := f.p.Fill(SelPassword, password); err != nil {
		return err
	}
	return f.p.Click(SelLogin)
}

func (f *Flow) uncheckSSO() error {
	l := f.p.Locator(SelSSO)
	if v, _, err := l.GetAttribute("aria-checked"); err == nil && v == "true" {
		return l.Click()
	}
	return nil
}

// OpenUsers waits for the Users menu entry and opens it.
func (f *Flow) OpenUsers() error {
	f.log.Step("Waiting for Users menu item and clicking it")
	if err := f.p.WaitForSelector(MenuItem("Users"), browser.StateVisible, 0); err != nil {
		return err
	}
	return f.p.Click(MenuItem("Users"))
}

// CreateUser adds u, or edits it when a row with its email already exists,
// and saves it with password and role.
func (f *Flow) CreateUser(u User, password string) error {
	f.log.Step("Creating user: %s", u.Email)

	f.log.Step("Waiting for search bar to be visible")
	if err := f.p.WaitForSelector(SelSearch, browser.StateVisible, 0); err != nil {
		return err
	}
	if err := f.p.Fill(SelSearch, u.Email); err != nil {
		return err
	}
	f.log.Step("Waiting for loading spinner to disappear")
	if err := f.waitSpinner(); err != nil {
		return err
	}

	row := f.p.Locator(userRow(u.Email))
	n, err := row.Count()
	if err != nil {
		return err
	}
	if n == 0 {
		f.log.Step("User not found, clicking Add button")
		err = f.p.Click(SelAdd)
	} else {
		f.log.Step("User found, clicking Edit button")
		err = row.Locator(SelEdit).Click()
	}
	if err != nil {
		return err
	}

	f.log.Step("Verifying user form fields are visible")
	if err := f.visible(SelEmail, SelFirstName, SelLastName, SelPassword, SelSSO, SelRoles); err != nil {
		return err
	}
	f.snapshot("Page content before roles dropdown")

	f.log.Step("Filling user form fields")
	for _, kv := range [][2]string{{SelEmail, u.Email}, {SelFirstName, u.FirstName}, {SelLastName, u.LastName}} {
		if err := f.p.Fill(kv[0], kv[1]); err != nil {
			return err
		}
	}
	if err := f.uncheckSSO(); err != nil {
		return err
	}
	if err := f.p.Fill(SelPassword, password); err != nil {
		return err
	}

	f.log.Step("Pressing Tab from Password field to navigate to roles dropdown")
	if err := f.p.Press(SelPassword, "Tab"); err != nil {
		return err
	}
	f.log.Step("Pressing Enter to expand roles dropdown")
	if err := f.p.Press(SelRolesInput, "Enter"); err != nil {
		return err
	}
	f.snapshot("Page content after roles dropdown expansion")

	f.log.Step("Selecting role")
	if err := f.selectRole(u.Role); err != nil {
		return err
	}

	f.log.Step("Ensuring dropdown is closed")
	if err := f.p.ForceClick(SelBody); err != nil {
		return err
	}

	f.log.Step("Clicking Save button")
	save := f.p.Locator(SelSave)
	if err := save.WaitFor(browser.StateVisible, 0); err != nil {
		return err
	}
	return save.Click()
}

func (f *Flow) selectRole(role string) error {
	value := f.p.Locator(SelRolesValue)
	if cur, err := value.InnerText(); err == nil && strings.Contains(cur, role) {
		return nil
	}
	if err := f.p.Click(roleOption(role)); err != nil {
		return err
	}
	return f.x.WithTimeout(roleWait).TextContains(f.ctx, value, role)
}

func (f *Flow) snapshot(label string) {
	html, err := f.p.Content()
	if err != nil {
		f.log.Step("%s: unavailable: %v", label, err)
		return
	}
	f.log.Snapshot(label, html)
}

// Logoff waits for the Logoff entry and clicks it.
func (f *Flow) Logoff() error {
	f.log.Step("Logging off")
	if err := f.p.WaitForSelector(MenuItem("Logoff"), browser.StateVisible, 0); err != nil {
		return err
	}
	return f.p.Click(MenuItem("Logoff"))
}

// ExpectRestrictedMenu asserts the menu of a user without user management.
func (f *Flow) ExpectRestrictedMenu() error {
	if err := f.visible(MenuItem("Reports"), MenuItem("Profile")); err != nil {
		return err
	}
	return f.x.Hidden(f.ctx, f.p.Locator(MenuItem("Users")))
}

// OpenReports opens the report list and expects a row containing text.
func (f *Flow) OpenReports(text string) error {
	f.log.Step("Navigating to Reports")
	if err := f.p.Click(MenuItem("Reports")); err != nil {
		return err
	}
	if err := f.waitSpinner(); err != nil {
		return err
	}
	return f.visible(cell(text))
}

// UpdateProfile opens the profile page, checks the email is read-only, and
// saves new names and an uploaded file.
func (f *Flow) UpdateProfile(firstName, lastName, upload string) error {
	f.log.Step("Navigating to Profile")
	if err := f.p.Click(MenuItem("Profile")); err != nil {
		return err
	}
	f.log.Step("Waiting for profile loading spinner to disappear")
	if err := f.waitSpinner(); err != nil {
		return err
	}
	if err := f.x.Attribute(f.ctx, f.p.Locator(SelEmail), "readonly", ""); err != nil {
		return err
	}

	f.log.Step("Updating Profile information")
	if err := f.p.Fill(SelFirstName, firstName); err != nil {
		return err
	}
	if err := f.p.Fill(SelLastName, lastName); err != nil {
		return err
	}
	if upload != "" {
		f.log.Step("Uploading file")
		if err := f.p.SetInputFiles(SelFileInput, upload); err != nil {
			return err
		}
	}
	if err := f.p.Click(SelProfileSave); err != nil {
		return err
	}
	return f.waitSpinner()
}

// ExpectPersistedLastName reloads the page and expects lastName to survive.
func (f *Flow) ExpectPersistedLastName(lastName string) error {
	f.log.Step("Refreshing page")
	if err := f.p.Reload(); err != nil {
		return err
	}
	if err := f.waitSpinner(); err != nil {
		return err
	}
	return f.x.Value(f.ctx, f.p.Locator(SelLastName), lastName)
}
