// Package fakeapi is an in-memory stand-in for the feedback REST service.
// It speaks the same routes and payload shapes, and lets tests inject
// failures or hold a request in flight.
package fakeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
)

// Route names, usable with Fail, Hold and Calls.
const (
	RouteRegister        = "register"
	RouteLogin           = "login"
	RouteProfile         = "profile"
	RouteBoardList       = "boards.list"
	RouteBoardCreate     = "boards.create"
	RouteBoardGet        = "boards.get"
	RouteBoardUpdate     = "boards.update"
	RouteBoardDelete     = "boards.delete"
	RouteBoardStats      = "boards.stats"
	RouteFeedbackList    = "feedbacks.list"
	RouteFeedbackCreate  = "feedbacks.create"
	RouteFeedbackGet     = "feedbacks.get"
	RouteFeedbackReplace = "feedbacks.replace"
	RouteFeedbackPatch   = "feedbacks.patch"
	RouteFeedbackDelete  = "feedbacks.delete"
	RouteToggleUpvote    = "feedbacks.toggle_upvote"
	RouteCommentList     = "comments.list"
	RouteCommentCreate   = "comments.create"
	RouteCommentUpdate   = "comments.update"
	RouteCommentDelete   = "comments.delete"
	RouteUsers           = "users.list"
)

type userRecord struct {
	id        int64
	username  string
	password  string
	email     string
	firstName string
	lastName  string
	role      entities.Role
	token     string
	joined    time.Time
}

type boardRecord struct {
	id       int64
	name     string
	isPublic bool
}

type feedbackRecord struct {
	id          int64
	board       int64
	owner       int64
	title       string
	description string
	status      entities.FeedbackStatus
	upvoters    []int64
	createdAt   time.Time
}

type commentRecord struct {
	id        int64
	feedback  int64
	owner     int64
	text      string
	createdAt time.Time
}

type failure struct {
	status    int
	remaining int // <= 0 means every request
}

// Gate holds one request on a route until released.
type Gate struct {
	arrived chan struct{}
	release chan struct{}
	once    sync.Once
}

// Arrived is closed once the held request reaches the server.
func (g *Gate) Arrived() <-chan struct{} { return g.arrived }

// Release lets the held request proceed.
func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

// Server is a running fake backend.
type Server struct {
	srv    *httptest.Server
	router *mux.Router

	// BareOwnerIDs serves feedback and comment owners as bare ids instead
	// of nested user objects.
	BareOwnerIDs bool

	mu       sync.Mutex
	nextID   int64
	users    []*userRecord
	boards   []*boardRecord
	feedback []*feedbackRecord
	comments []*commentRecord
	failures map[string]*failure
	gates    map[string]*Gate
	calls    map[string]int
	now      func() time.Time
}

// New starts a fake backend. Close it when done.
func New() *Server {
	s := &Server{
		failures: make(map[string]*failure),
		gates:    make(map[string]*Gate),
		calls:    make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.router = s.routes()
	s.srv = httptest.NewServer(s.router)
	return s
}

// URL is the API base, ending in a slash.
func (s *Server) URL() string { return s.srv.URL + "/api/" }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// SetClock overrides the time used to stamp new records.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Fail makes the next `times` requests on route answer with status.
// times <= 0 fails every request until ClearFailures.
func (s *Server) Fail(route string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = &failure{status: status, remaining: times}
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]*failure)
}

// Hold parks the next request on route until the returned gate is released.
func (s *Server) Hold(route string) *Gate {
	g := &Gate{arrived: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.gates[route] = g
	s.mu.Unlock()
	return g
}

// Calls reports how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// AddUser seeds an account and returns its id and token.
func (s *Server) AddUser(username, password, email string, role entities.Role) (int64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addUserLocked(username, password, email, role)
	return u.id, u.token
}

// AddBoard seeds a board.
func (s *Server) AddBoard(name string, public bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &boardRecord{id: s.id(), name: name, isPublic: public}
	s.boards = append(s.boards, b)
	return b.id
}

// AddFeedback seeds a feedback item.
func (s *Server) AddFeedback(owner, board int64, title string, status entities.FeedbackStatus) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &feedbackRecord{
		id:        s.id(),
		board:     board,
		owner:     owner,
		title:     title,
		status:    status,
		createdAt: s.now(),
	}
	s.feedback = append(s.feedback, f)
	return f.id
}

// AddUpvote seeds an upvote.
func (s *Server) AddUpvote(feedbackID, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.findFeedback(feedbackID); f != nil {
		f.upvoters = append(f.upvoters, userID)
	}
}

// AddComment seeds a comment.
func (s *Server) AddComment(owner, feedbackID int64, text string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &commentRecord{id: s.id(), feedback: feedbackID, owner: owner, text: text, createdAt: s.now()}
	s.comments = append(s.comments, c)
	return c.id
}

// FeedbackStatus returns the server-side status of a feedback item.
func (s *Server) FeedbackStatus(id int64) (entities.FeedbackStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.findFeedback(id)
	if f == nil {
		return "", false
	}
	return f.status, true
}

// CommentCount returns how many comments the server holds for a feedback item.
func (s *Server) CommentCount(feedbackID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commentCount(feedbackID)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.intercept)

	api.HandleFunc("/register/", s.handleRegister).Methods(http.MethodPost).Name(RouteRegister)
	api.HandleFunc("/login/", s.handleLogin).Methods(http.MethodPost).Name(RouteLogin)
	api.HandleFunc("/profile/", s.authed(s.handleProfile)).Methods(http.MethodGet).Name(RouteProfile)

	api.HandleFunc("/boards/", s.authed(s.handleBoardList)).Methods(http.MethodGet).Name(RouteBoardList)
	api.HandleFunc("/boards/", s.authed(s.handleBoardCreate)).Methods(http.MethodPost).Name(RouteBoardCreate)
	api.HandleFunc("/boards/{id:[0-9]+}/", s.authed(s.handleBoardGet)).Methods(http.MethodGet).Name(RouteBoardGet)
	api.HandleFunc("/boards/{id:[0-9]+}/", s.authed(s.handleBoardUpdate)).Methods(http.MethodPut).Name(RouteBoardUpdate)
	api.HandleFunc("/boards/{id:[0-9]+}/", s.authed(s.handleBoardDelete)).Methods(http.MethodDelete).Name(RouteBoardDelete)
	api.HandleFunc("/boards/{id:[0-9]+}/get_stats/", s.authed(s.handleBoardStats)).Methods(http.MethodGet).Name(RouteBoardStats)

	api.HandleFunc("/feedbacks/", s.authed(s.handleFeedbackList)).Methods(http.MethodGet).Name(RouteFeedbackList)
	api.HandleFunc("/feedbacks/", s.authed(s.handleFeedbackCreate)).Methods(http.MethodPost).Name(RouteFeedbackCreate)
	api.HandleFunc("/feedbacks/{id:[0-9]+}/", s.authed(s.handleFeedbackGet)).Methods(http.MethodGet).Name(RouteFeedbackGet)
	api.HandleFunc("/feedbacks/{id:[0-9]+}/", s.authed(s.handleFeedbackWrite(false))).Methods(http.MethodPut).Name(RouteFeedbackReplace)
	api.HandleFunc("/feedbacks/{id:[0-9]+}/", s.authed(s.handleFeedbackWrite(true))).Methods(http.MethodPatch).Name(RouteFeedbackPatch)
	api.HandleFunc("/feedbacks/{id:[0-9]+}/", s.authed(s.handleFeedbackDelete)).Methods(http.MethodDelete).Name(RouteFeedbackDelete)
	api.HandleFunc("/feedbacks/{id:[0-9]+}/toggle_upvote/", s.authed(s.handleToggleUpvote)).Methods(http.MethodPost).Name(RouteToggleUpvote)

	api.HandleFunc("/comments/", s.authed(s.handleCommentList)).Methods(http.MethodGet).Name(RouteCommentList)
	api.HandleFunc("/comments/", s.authed(s.handleCommentCreate)).Methods(http.MethodPost).Name(RouteCommentCreate)
	api.HandleFunc("/comments/{id:[0-9]+}/", s.authed(s.handleCommentUpdate)).Methods(http.MethodPut).Name(RouteCommentUpdate)
	api.HandleFunc("/comments/{id:[0-9]+}/", s.authed(s.handleCommentDelete)).Methods(http.MethodDelete).Name(RouteCommentDelete)

	api.HandleFunc("/users/", s.authed(s.handleUsers)).Methods(http.MethodGet).Name(RouteUsers)
	return r
}

// intercept counts calls, applies injected failures and parks held requests.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := ""
		if current := mux.CurrentRoute(r); current != nil {
			route = current.GetName()
		}

		s.mu.Lock()
		s.calls[route]++
		gate := s.gates[route]
		delete(s.gates, route)
		s.mu.Unlock()

		if gate != nil {
			close(gate.arrived)
			select {
			case <-gate.release:
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		f := s.failures[route]
		status := 0
		if f != nil {
			status = f.status
			if f.remaining > 0 {
				f.remaining--
				if f.remaining == 0 {
					delete(s.failures, route)
				}
			}
		}
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]interface{}{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Token ")

		s.mu.Lock()
		var user *userRecord
		if token != header && token != "" {
			for _, u := range s.users {
				if u.token == token {
					user = u
					break
				}
			}
		}
		s.mu.Unlock()

		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"detail": "Invalid token."})
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	}
}

func currentUser(r *http.Request) *userRecord {
	u, _ := r.Context().Value(ctxKey{}).(*userRecord)
	return u
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Username == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Username and password are required"})
		return
	}
	role := entities.ParseRole(body.Role)
	if role == "" {
		role = entities.RoleContributor
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findUserByName(body.Username) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Username already exists"})
		return
	}
	u := s.addUserLocked(body.Username, body.Password, body.Email, role)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Registration successful",
		"token":    u.token,
		"role":     string(u.role),
		"username": u.username,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.findUserByName(body.Username)
	if u == nil || u.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"error": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Login successful",
		"token":    u.token,
		"role":     string(u.role),
		"username": u.username,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": map[string]interface{}{
			"id":         u.id,
			"username":   u.username,
			"email":      u.email,
			"first_name": u.firstName,
			"last_name":  u.lastName,
		},
		"role": string(u.role),
	})
}

func (s *Server) handleBoardList(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, 0, len(s.boards))
	for _, b := range s.boards {
		if b.isPublic || privileged(u) {
			out = append(out, boardJSON(b))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBoardCreate(w http.ResponseWriter, r *http.Request) {
	var body entities.BoardInput
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"name": []string{"This field may not be blank."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &boardRecord{id: s.id(), name: body.Name, isPublic: body.IsPublic}
	s.boards = append(s.boards, b)
	writeJSON(w, http.StatusCreated, boardJSON(b))
}

func (s *Server) handleBoardGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.findBoard(pathID(r))
	if b == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, boardJSON(b))
}

func (s *Server) handleBoardUpdate(w http.ResponseWriter, r *http.Request) {
	var body entities.BoardInput
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.findBoard(pathID(r))
	if b == nil {
		notFound(w)
		return
	}
	b.name, b.isPublic = body.Name, body.IsPublic
	writeJSON(w, http.StatusOK, boardJSON(b))
}

func (s *Server) handleBoardDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.boards {
		if b.id == id {
			s.boards = append(s.boards[:i], s.boards[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w)
}

func (s *Server) handleBoardStats(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findBoard(id) == nil {
		notFound(w)
		return
	}

	var onBoard []*feedbackRecord
	byStatus := map[string]int{}
	for _, st := range entities.Statuses {
		byStatus[string(st)] = 0
	}
	active := 0
	for _, f := range s.feedback {
		if f.board != id {
			continue
		}
		onBoard = append(onBoard, f)
		byStatus[string(f.status)]++
		if f.status != entities.StatusCompleted {
			active++
		}
	}
	sort.SliceStable(onBoard, func(i, j int) bool { return len(onBoard[i].upvoters) > len(onBoard[j].upvoters) })
	trending := make([]interface{}, 0, 5)
	for i := 0; i < len(onBoard) && i < 5; i++ {
		trending = append(trending, s.feedbackJSON(onBoard[i]))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_feedbacks":    active,
		"total_feedbacks":     len(onBoard),
		"trending_feedbacks":  trending,
		"feedbacks_by_status": byStatus,
	})
}

func (s *Server) handleFeedbackList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, 0, len(s.feedback))
	for _, f := range s.feedback {
		out = append(out, s.feedbackJSON(f))
	}
	writeJSON(w, http.StatusOK, out)
}

type feedbackBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Board       *int64  `json:"board"`
}

func (s *Server) validateFeedback(body feedbackBody, partial bool) map[string]interface{} {
	errs := map[string]interface{}{}
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		errs["title"] = []string{"This field may not be blank."}
	} else if body.Title == nil && !partial {
		errs["title"] = []string{"This field is required."}
	}
	if body.Board != nil && s.findBoard(*body.Board) == nil {
		errs["board"] = []string{fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *body.Board)}
	} else if body.Board == nil && !partial {
		errs["board"] = []string{"This field is required."}
	}
	if body.Status != nil && !entities.FeedbackStatus(*body.Status).Valid() {
		errs["status"] = []string{fmt.Sprintf("\"%s\" is not a valid choice.", *body.Status)}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (s *Server) handleFeedbackCreate(w http.ResponseWriter, r *http.Request) {
	var body feedbackBody
	if !decode(w, r, &body) {
		return
	}
	u := currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	if errs := s.validateFeedback(body, false); errs != nil {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}
	f := &feedbackRecord{
		id:        s.id(),
		board:     *body.Board,
		owner:     u.id,
		title:     *body.Title,
		status:    entities.StatusOpen,
		createdAt: s.now(),
	}
	if body.Description != nil {
		f.description = *body.Description
	}
	if body.Status != nil {
		f.status = entities.FeedbackStatus(*body.Status)
	}
	s.feedback = append(s.feedback, f)
	writeJSON(w, http.StatusCreated, s.feedbackJSON(f))
}

func (s *Server) handleFeedbackGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.findFeedback(pathID(r))
	if f == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, s.feedbackJSON(f))
}

func (s *Server) handleFeedbackWrite(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body feedbackBody
		if !decode(w, r, &body) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		f := s.findFeedback(pathID(r))
		if f == nil {
			notFound(w)
			return
		}
		if errs := s.validateFeedback(body, partial); errs != nil {
			writeJSON(w, http.StatusBadRequest, errs)
			return
		}
		if body.Title != nil {
			f.title = *body.Title
		}
		if body.Description != nil {
			f.description = *body.Description
		}
		if body.Status != nil {
			f.status = entities.FeedbackStatus(*body.Status)
		}
		if body.Board != nil {
			f.board = *body.Board
		}
		writeJSON(w, http.StatusOK, s.feedbackJSON(f))
	}
}

func (s *Server) handleFeedbackDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.feedback {
		if f.id == id {
			s.feedback = append(s.feedback[:i], s.feedback[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w)
}

func (s *Server) handleToggleUpvote(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.findFeedback(pathID(r))
	if f == nil {
		notFound(w)
		return
	}
	removed := false
	for i, id := range f.upvoters {
		if id == u.id {
			f.upvoters = append(f.upvoters[:i], f.upvoters[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		f.upvoters = append(f.upvoters, u.id)
	}
	writeJSON(w, http.StatusOK, s.feedbackJSON(f))
}

func (s *Server) handleCommentList(w http.ResponseWriter, r *http.Request) {
	var filter int64
	if raw := r.URL.Query().Get("feedback"); raw != "" {
		filter, _ = strconv.ParseInt(raw, 10, 64)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, 0)
	for _, c := range s.comments {
		if filter == 0 || c.feedback == filter {
			out = append(out, s.commentJSON(c))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	var body entities.CommentInput
	if !decode(w, r, &body) {
		return
	}
	u := currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findFeedback(body.Feedback) == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"feedback": []string{"Invalid pk - object does not exist."}})
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"text": []string{"This field may not be blank."}})
		return
	}
	c := &commentRecord{id: s.id(), feedback: body.Feedback, owner: u.id, text: body.Text, createdAt: s.now()}
	s.comments = append(s.comments, c)
	writeJSON(w, http.StatusCreated, s.commentJSON(c))
}

func (s *Server) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	var body entities.CommentInput
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findComment(pathID(r))
	if c == nil {
		notFound(w)
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"text": []string{"This field may not be blank."}})
		return
	}
	c.text = body.Text
	writeJSON(w, http.StatusOK, s.commentJSON(c))
}

func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.id == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	notFound(w)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if !privileged(currentUser(r)) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"detail": "You do not have permission to perform this action."})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, map[string]interface{}{
			"id":          u.id,
			"username":    u.username,
			"email":       u.email,
			"name":        strings.TrimSpace(u.firstName + " " + u.lastName),
			"role":        string(u.role),
			"date_joined": u.joined.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addUserLocked(username, password, email string, role entities.Role) *userRecord {
	u := &userRecord{
		id:       s.id(),
		username: username,
		password: password,
		email:    email,
		role:     role,
		token:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		joined:   s.now(),
	}
	s.users = append(s.users, u)
	return u
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) findUser(id int64) *userRecord {
	for _, u := range s.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func (s *Server) findUserByName(name string) *userRecord {
	for _, u := range s.users {
		if u.username == name {
			return u
		}
	}
	return nil
}

func (s *Server) findBoard(id int64) *boardRecord {
	for _, b := range s.boards {
		if b.id == id {
			return b
		}
	}
	return nil
}

func (s *Server) findFeedback(id int64) *feedbackRecord {
	for _, f := range s.feedback {
		if f.id == id {
			return f
		}
	}
	return nil
}

func (s *Server) findComment(id int64) *commentRecord {
	for _, c := range s.comments {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (s *Server) commentCount(feedbackID int64) int {
	n := 0
	for _, c := range s.comments {
		if c.feedback == feedbackID {
			n++
		}
	}
	return n
}

func (s *Server) ownerJSON(id int64) interface{} {
	if s.BareOwnerIDs {
		return id
	}
	u := s.findUser(id)
	if u == nil {
		return map[string]interface{}{"id": id}
	}
	return map[string]interface{}{
		"id":         u.id,
		"username":   u.username,
		"email":      u.email,
		"first_name": u.firstName,
		"last_name":  u.lastName,
	}
}

func (s *Server) feedbackJSON(f *feedbackRecord) map[string]interface{} {
	upvoters := append([]int64{}, f.upvoters...)
	return map[string]interface{}{
		"id":            f.id,
		"board":         f.board,
		"title":         f.title,
		"description":   f.description,
		"status":        string(f.status),
		"upvote_count":  len(upvoters),
		"upvoted_by":    upvoters,
		"comment_count": s.commentCount(f.id),
		"created_at":    f.createdAt.Format(time.RFC3339Nano),
		"user":          s.ownerJSON(f.owner),
	}
}

func (s *Server) commentJSON(c *commentRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":         c.id,
		"feedback":   c.feedback,
		"text":       c.text,
		"created_at": c.createdAt.Format(time.RFC3339Nano),
		"user":       s.ownerJSON(c.owner),
	}
}

func boardJSON(b *boardRecord) map[string]interface{} {
	return map[string]interface{}{"id": b.id, "name": b.name, "is_public": b.isPublic}
}

func privileged(u *userRecord) bool {
	return u != nil && (u.role == entities.RoleAdmin || u.role == entities.RoleModerator)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func decode(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"detail": "Not found."})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
