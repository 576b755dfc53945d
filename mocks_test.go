package console_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	console "github.com/resqlink/go-console"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

var testSigningKey = []byte("test-signing-key")

type apiAccount struct {
	user         console.User
	passwordHash []byte
}

// fakeAPI is an in-process stand-in for the ResQLink backend. It checks
// credentials the way the real API does and serves the same JSON shapes,
// including the {error, errors} envelope on failure.
type fakeAPI struct {
	mu          sync.Mutex
	accounts    map[string]*apiAccount // by email
	tokens      map[string]string      // token -> email
	nominations map[string]string      // email -> pending code
	resets      map[string]string      // reset token -> email
	requests    map[string]int         // "METHOD path" -> count
	devMode     bool

	srv *httptest.Server
}

func newFakeAPI(t interface{ Cleanup(func()) }) *fakeAPI {
	api := &fakeAPI{
		accounts:    map[string]*apiAccount{},
		tokens:      map[string]string{},
		nominations: map[string]string{},
		resets:      map[string]string{},
		requests:    map[string]int{},
		devMode:     true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", api.login)
	mux.HandleFunc("POST /auth/register", api.register)
	mux.HandleFunc("POST /auth/forgot-password", api.forgotPassword)
	mux.HandleFunc("POST /auth/reset-password", api.resetPassword)
	mux.HandleFunc("GET /profile", api.profileGet)
	mux.HandleFunc("POST /admin/verify-superadmin", api.verifySuperadmin)
	mux.HandleFunc("GET /reports/stats/data", api.reportStats)

	api.srv = httptest.NewServer(api.counting(mux))
	t.Cleanup(api.srv.Close)

	return api
}

func (f *fakeAPI) URL() string { return f.srv.URL }

func (f *fakeAPI) counting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests[r.Method+" "+r.URL.Path]++
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// RequestCount returns how many requests hit "METHOD /path".
func (f *fakeAPI) RequestCount(methodAndPath string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[methodAndPath]
}

// TotalRequests counts every request the server has seen.
func (f *fakeAPI) TotalRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.requests {
		total += n
	}
	return total
}

// AddUser seeds an account with a bcrypt-hashed password and returns it.
func (f *fakeAPI) AddUser(name, email, password string, role console.UserRole) console.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	user := console.User{
		ID:       fmt.Sprintf("64b%09x", len(f.accounts)+1),
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: true,
	}

	f.mu.Lock()
	f.accounts[email] = &apiAccount{user: user, passwordHash: hash}
	f.mu.Unlock()

	return user
}

// IssueToken mints a signed token for the account and registers it as live.
func (f *fakeAPI) IssueToken(email string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		panic(err)
	}

	f.mu.Lock()
	f.tokens[token] = email
	f.mu.Unlock()

	return token
}

// RevokeToken makes a previously issued token invalid server-side.
func (f *fakeAPI) RevokeToken(token string) {
	f.mu.Lock()
	delete(f.tokens, token)
	f.mu.Unlock()
}

// Nominate stages a pending superadmin nomination code for an account.
func (f *fakeAPI) Nominate(email, code string) {
	f.mu.Lock()
	f.nominations[email] = code
	f.mu.Unlock()
}

func (f *fakeAPI) authenticate(r *http.Request) (*apiAccount, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.tokens[token]
	if !ok {
		return nil, false
	}
	account, ok := f.accounts[email]
	return account, ok
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	account, ok := f.accounts[payload.Email]
	f.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(account.passwordHash, []byte(payload.Password)) != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if !account.user.IsActive {
		writeAPIError(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	token := f.IssueToken(payload.Email, time.Hour)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  account.user,
	})
}

func (f *fakeAPI) register(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Name     string           `json:"name"`
		Email    string           `json:"email"`
		Phone    string           `json:"phone"`
		Password string           `json:"password"`
		Role     console.UserRole `json:"role"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	_, exists := f.accounts[payload.Email]
	f.mu.Unlock()
	if exists {
		writeAPIError(w, http.StatusConflict, "User already exists")
		return
	}

	user := f.AddUser(payload.Name, payload.Email, payload.Password, payload.Role)
	token := f.IssueToken(payload.Email, time.Hour)

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  user,
	})
}

func (f *fakeAPI) forgotPassword(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Email string `json:"email"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	_, ok := f.accounts[payload.Email]
	f.mu.Unlock()
	if !ok {
		writeAPIError(w, http.StatusNotFound, "User not found")
		return
	}

	reset := fmt.Sprintf("reset-%d", time.Now().UnixNano())
	f.mu.Lock()
	f.resets[reset] = payload.Email
	f.mu.Unlock()

	body := map[string]any{"message": "Reset link sent"}
	if f.devMode {
		body["resetToken"] = reset
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *fakeAPI) resetPassword(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		ResetToken  string `json:"resetToken"`
		NewPassword string `json:"newPassword"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	email, ok := f.resets[payload.ResetToken]
	delete(f.resets, payload.ResetToken)
	account := f.accounts[email]
	f.mu.Unlock()

	if !ok || account == nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.MinCost)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "Server error")
		return
	}

	f.mu.Lock()
	account.passwordHash = hash
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated"})
}

func (f *fakeAPI) profileGet(w http.ResponseWriter, r *http.Request) {
	account, ok := f.authenticate(r)
	if !ok {
		writeAPIError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": account.user})
}

func (f *fakeAPI) verifySuperadmin(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	code, pending := f.nominations[payload.Email]
	account := f.accounts[payload.Email]
	f.mu.Unlock()

	if !pending || account == nil || code != payload.Code {
		writeAPIError(w, http.StatusBadRequest, "Invalid or expired verification code")
		return
	}

	f.mu.Lock()
	delete(f.nominations, payload.Email)
	account.user.Role = console.RoleSuperAdmin
	user := account.user
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (f *fakeAPI) reportStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.authenticate(r); !ok {
		writeAPIError(w, http.StatusUnauthorized, "Not authorized, token failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalReports":    12,
		"pendingReports":  3,
		"resolvedReports": 8,
		"recentReports":   2,
	})
}

// MockContext implements router.Context over testify mocks.
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []console.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event console.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []console.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]console.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) Types() []console.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]console.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// failingStore simulates unreadable persistent storage.
type failingStore struct {
	loadErr  error
	saveErr  error
	clearErr error
}

func (s failingStore) Load(context.Context) (*console.Session, error) { return nil, s.loadErr }
func (s failingStore) Save(context.Context, console.Session) error    { return s.saveErr }
func (s failingStore) Clear(context.Context) error                    { return s.clearErr }

// newTestStack wires a controller and gateway against the fake API over a
// memory store, mirroring production wiring.
func newTestStack(t interface{ Cleanup(func()) }, store console.SessionStore) (*fakeAPI, *console.SessionController, *console.Gateway) {
	api := newFakeAPI(t)

	if store == nil {
		store = console.NewMemoryStore()
	}

	ctrl := console.NewSessionController(store)
	gw := console.NewGateway(console.NewConfig(api.URL()), ctrl.Token)
	ctrl.Connect(gw)

	return api, ctrl, gw
}
