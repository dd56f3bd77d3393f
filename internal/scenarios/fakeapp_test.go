package scenarios_test

import (
	"strings"

	"sea-e2e/internal/browser/browsertest"
	"sea-e2e/internal/scenarios"
)

var roles = []string{"REPORT_READ_ALL", "REPORT_READ_PHYSICIAN-ALL-FIELDS"}

type account struct {
	scenarios.User
	Password string
}

// fakeApp plays the application under test on top of a browsertest.Page.
type fakeApp struct {
	p        *browsertest.Page
	admin    string
	accounts map[string]*account
	current  *account
	screen   string
	editing  string

	// forgetOnReload drops unsaved and saved profile edits on reload.
	forgetOnReload bool
	// noPasswordCheck suppresses the "Password is required" message.
	noPasswordCheck bool
}

func newFakeApp(adminEmail, adminPassword string) *fakeApp {
	a := &fakeApp{
		p:        browsertest.NewPage(),
		admin:    adminEmail,
		accounts: map[string]*account{},
	}
	a.accounts[adminEmail] = &account{User: scenarios.User{Email: adminEmail, FirstName: "admin", LastName: "admin"}, Password: adminPassword}
	a.p.HTML = "<html><body>app</body></html>"
	a.wire()
	return a
}

func (a *fakeApp) wire() {
	p := a.p
	p.OnGoto = func(p *browsertest.Page, _ string) { a.showLogin() }
	p.OnClick[scenarios.SelSSO] = func(p *browsertest.Page) { a.toggleSSO() }
	p.OnClick[scenarios.SelLogin] = func(p *browsertest.Page) { a.submitLogin() }
	p.OnClick[scenarios.MenuItem("Users")] = func(p *browsertest.Page) { a.showUsers() }
	p.OnClick[scenarios.SelAdd] = func(p *browsertest.Page) { a.showForm(nil) }
	p.OnPress[scenarios.SelRolesInput] = func(p *browsertest.Page, key string) {
		if key == "Enter" {
			for _, r := range roles {
				p.Show(`div[role="option"]:has-text("` + r + `")`)
			}
		}
	}
	for _, r := range roles {
		r := r
		p.OnClick[`div[role="option"]:has-text("`+r+`")`] = func(p *browsertest.Page) {
			p.SetText(scenarios.SelRolesValue, r)
		}
	}
	p.OnClick[scenarios.SelSave] = func(p *browsertest.Page) { a.saveUser() }
	p.OnClick[scenarios.MenuItem("Logoff")] = func(p *browsertest.Page) { a.showLogin() }
	p.OnClick[scenarios.MenuItem("Reports")] = func(p *browsertest.Page) { a.showReports() }
	p.OnClick[scenarios.MenuItem("Profile")] = func(p *browsertest.Page) { a.showProfile() }
	p.OnClick[scenarios.SelProfileSave] = func(p *browsertest.Page) { a.saveProfile() }
	p.OnReload = func(p *browsertest.Page) {
		if a.screen == "profile" {
			if a.forgetOnReload {
				p.SetValue(scenarios.SelLastName, "")
				return
			}
			a.showProfile()
		}
	}
}

func (a *fakeApp) clear() {
	for _, s := range a.p.Selectors() {
		a.p.Remove(s)
	}
}

func (a *fakeApp) showLogin() {
	a.clear()
	a.current = nil
	a.screen = "login"
	a.p.Show(scenarios.SelEmail, scenarios.SelPassword, scenarios.SelSSO, scenarios.SelLogin)
	a.p.SetAttr(scenarios.SelSSO, "class", "q-checkbox")
	a.p.SetAttr(scenarios.SelSSO, "aria-checked", "false")
}

func (a *fakeApp) ssoChecked() bool {
	v, _, _ := a.p.Locator(scenarios.SelSSO).GetAttribute("aria-checked")
	return v == "true"
}

func (a *fakeApp) toggleSSO() {
	if a.ssoChecked() {
		a.p.SetAttr(scenarios.SelSSO, "aria-checked", "false")
		a.p.SetAttr(scenarios.SelSSO, "class", "q-checkbox")
		a.p.Show(scenarios.SelPassword)
		return
	}
	a.p.SetAttr(scenarios.SelSSO, "aria-checked", "true")
	a.p.SetAttr(scenarios.SelSSO, "class", "q-checkbox q-checkbox--checked")
	if a.screen == "login" {
		a.p.Hide(scenarios.SelPassword)
	}
}

func (a *fakeApp) submitLogin() {
	email := a.p.Value(scenarios.SelEmail)
	pw := a.p.Value(scenarios.SelPassword)
	switch {
	case a.ssoChecked():
		a.p.Show(scenarios.ErrorText(scenarios.MsgInvalidCredentials))
	case pw == "":
		if !a.noPasswordCheck {
			a.p.Show(scenarios.ErrorText(scenarios.MsgPasswordRequired))
		}
	default:
		acc, ok := a.accounts[email]
		if !ok || acc.Password != pw {
			a.p.Show(scenarios.ErrorText(scenarios.MsgInvalidCredentials))
			return
		}
		a.clear()
		a.current = acc
		a.screen = "home"
		a.menu()
	}
}

func (a *fakeApp) menu() {
	a.p.Show(scenarios.MenuItem("Reports"), scenarios.MenuItem("Profile"), scenarios.MenuItem("Logoff"))
	if a.current.Email == a.admin {
		a.p.Show(scenarios.MenuItem("Users"))
	}
}

func (a *fakeApp) showUsers() {
	a.clear()
	a.screen = "users"
	a.menu()
	a.p.Show(scenarios.SelSearch, scenarios.SelAdd)
	for email := range a.accounts {
		email := email
		row := `tr:has-text("` + email + `")`
		a.p.Show(row, row+" >> "+scenarios.SelEdit)
		a.p.OnClick[row+" >> "+scenarios.SelEdit] = func(*browsertest.Page) { a.showForm(a.accounts[email]) }
	}
}

func (a *fakeApp) showForm(acc *account) {
	a.screen = "form"
	a.p.Show(scenarios.SelEmail, scenarios.SelFirstName, scenarios.SelLastName, scenarios.SelPassword,
		scenarios.SelSSO, scenarios.SelRoles, scenarios.SelRolesInput, scenarios.SelRolesValue, scenarios.SelSave)
	a.p.SetAttr(scenarios.SelSSO, "aria-checked", "true")
	a.p.SetText(scenarios.SelRolesValue, "")
	a.editing = ""
	if acc != nil {
		a.editing = acc.Email
		a.p.SetValue(scenarios.SelEmail, acc.Email)
		a.p.SetText(scenarios.SelRolesValue, acc.Role)
	}
}

func (a *fakeApp) saveUser() {
	role, _ := a.p.Locator(scenarios.SelRolesValue).InnerText()
	acc := &account{
		User: scenarios.User{
			Email:     a.p.Value(scenarios.SelEmail),
			FirstName: a.p.Value(scenarios.SelFirstName),
			LastName:  a.p.Value(scenarios.SelLastName),
			Role:      strings.TrimSpace(role),
		},
		Password: a.p.Value(scenarios.SelPassword),
	}
	if a.editing != "" && a.editing != acc.Email {
		delete(a.accounts, a.editing)
	}
	a.accounts[acc.Email] = acc
	a.showUsers()
}

func (a *fakeApp) showReports() {
	a.clear()
	a.screen = "reports"
	a.menu()
	a.p.Show(`td:has-text("` + a.current.LastName + `")`)
}

func (a *fakeApp) showProfile() {
	a.clear()
	a.screen = "profile"
	a.menu()
	a.p.Show(scenarios.SelEmail, scenarios.SelFirstName, scenarios.SelLastName, scenarios.SelFileInput, scenarios.SelProfileSave)
	a.p.SetAttr(scenarios.SelEmail, "readonly", "")
	a.p.SetValue(scenarios.SelEmail, a.current.Email)
	a.p.SetValue(scenarios.SelFirstName, a.current.FirstName)
	a.p.SetValue(scenarios.SelLastName, a.current.LastName)
}

func (a *fakeApp) saveProfile() {
	a.current.FirstName = a.p.Value(scenarios.SelFirstName)
	a.current.LastName = a.p.Value(scenarios.SelLastName)
}
