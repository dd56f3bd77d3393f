// Command appmock serves a local stand-in for the application's login
// screen so scripted scenarios can be tried without the real deployment.
package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"sync"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"sea-e2e/internal/config"
	"sea-e2e/internal/logging"
)

type account struct {
	Password string
	Admin    bool
}

type server struct {
	mu       sync.Mutex
	accounts map[string]account
	log      *zap.Logger
}

func newServer(user, password string, log *zap.Logger) *server {
	return &server{
		accounts: map[string]account{user: {Password: password, Admin: true}},
		log:      log,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.index)
	mux.HandleFunc("POST /api/login", s.login)
	return mux
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	SSO      bool   `json:"sso"`
}

type loginResponse struct {
	Menu  []string `json:"menu,omitempty"`
	Error string   `json:"error,omitempty"`
}

const (
	msgPasswordRequired   = "Password is required"
	msgInvalidCredentials = "Invalid credentials or unsupported provider"
)

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, loginResponse{Error: "bad request"})
		return
	}
	switch {
	case in.SSO:
		// No SSO provider is configured.
		writeJSON(w, http.StatusUnauthorized, loginResponse{Error: msgInvalidCredentials})
		return
	case in.Password == "":
		writeJSON(w, http.StatusBadRequest, loginResponse{Error: msgPasswordRequired})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[in.Email]
	s.mu.Unlock()
	if !ok || acc.Password != in.Password {
		s.log.Info("login rejected", zap.String("email", in.Email))
		writeJSON(w, http.StatusUnauthorized, loginResponse{Error: msgInvalidCredentials})
		return
	}
	menu := []string{"Reports", "Profile", "Logoff"}
	if acc.Admin {
		menu = append([]string{"Users"}, menu...)
	}
	s.log.Info("login accepted", zap.String("email", in.Email))
	writeJSON(w, http.StatusOK, loginResponse{Menu: menu})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/login" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = page.Execute(w, nil)
}

var page = template.Must(template.New("login").Parse(`<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>appmock</title>
<style>.hidden{display:none}.text-negative{color:#c10015}</style></head>
<body>
<form id="login" onsubmit="return false">
  <input class="q-field__native" aria-label="Email" type="email">
  <input class="q-field__native" aria-label="Password" type="password">
  <div class="q-checkbox" role="checkbox" aria-checked="false" tabindex="0">Use SSO</div>
  <button type="button" id="submit">Login</button>
  <div class="text-negative" id="error"></div>
</form>
<nav id="menu" class="hidden"></nav>
<script>
const $ = s => document.querySelector(s);
const sso = $('.q-checkbox'), pw = $('input[aria-label="Password"]');
sso.addEventListener('click', () => {
  const on = sso.getAttribute('aria-checked') !== 'true';
  sso.setAttribute('aria-checked', String(on));
  sso.classList.toggle('q-checkbox--checked', on);
  pw.classList.toggle('hidden', on);
});
$('#submit').addEventListener('click', async () => {
  const body = {
    email: $('input[aria-label="Email"]').value,
    password: pw.value,
    sso: sso.getAttribute('aria-checked') === 'true',
  };
  const res = await fetch('/api/login', {method: 'POST', body: JSON.stringify(body)});
  const out = await res.json();
  if (out.error) { $('#error').textContent = out.error; return; }
  $('#login').classList.add('hidden');
  const menu = $('#menu');
  menu.innerHTML = '';
  for (const item of out.menu) {
    const d = document.createElement('div');
    d.className = 'q-item__section';
    d.textContent = item;
    if (item === 'Logoff') d.addEventListener('click', () => location.reload());
    menu.appendChild(d);
  }
  menu.classList.remove('hidden');
});
</script>
</body></html>`))

func main() {
	app := &cli.App{
		Name:  "appmock",
		Usage: "Serve a local stand-in for the login screen",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8081", EnvVars: []string{"APPMOCK_ADDR"}},
			&cli.StringFlag{Name: "user", Value: "admin@sample.com", EnvVars: []string{config.KeyUser}},
			&cli.StringFlag{Name: "password", Value: "admin", EnvVars: []string{config.KeyPassword}},
		},
		Action: func(c *cli.Context) error {
			log, err := logging.New("console", "info")
			if err != nil {
				return err
			}
			defer log.Sync()
			s := newServer(c.String("user"), c.String("password"), log)
			addr := c.String("addr")
			log.Info("appmock listening", zap.String("addr", addr))
			return http.ListenAndServe(addr, s.routes())
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "appmock:", err)
		os.Exit(1)
	}
}
