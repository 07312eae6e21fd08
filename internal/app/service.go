package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"mapcreator/api/internal/archive"
	"mapcreator/api/internal/artifacts"
	"mapcreator/api/internal/auth"
	"mapcreator/api/internal/authpw"
	"mapcreator/api/internal/config"
	"mapcreator/api/internal/export"
	"mapcreator/api/internal/mapengine"
	"mapcreator/api/internal/project"
	"mapcreator/api/internal/search"
	"mapcreator/api/internal/store"
	"mapcreator/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	ExpiresAt    time.Time
}

// dataStore is the Postgres surface the service needs.
type dataStore interface {
	Ping(ctx context.Context) error
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	GetProject(ctx context.Context, userID string) (json.RawMessage, error)
	UpsertProject(ctx context.Context, userID string, data json.RawMessage) error
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// refreshStore holds refresh tokens; Redis in production, Postgres fallback.
type refreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// documentSession is one user's live editing state: the authoritative
// document, the retained map surface over it, and the pending-save flag.
type documentSession struct {
	userID string
	email  string
	doc    *project.Document
	engine *mapengine.Engine
	dirty  bool
	timer  *time.Timer
	// placed holds the last placement-mode click until the client reads it.
	placed *[2]float64
}

type Service struct {
	cfg       config.Config
	store     dataStore
	refresh   refreshStore
	auth      *authpw.Service
	search    *search.Service
	archive   *archive.Service
	artifacts *artifacts.Store

	saveDelay   time.Duration
	surfaceSize mapengine.Point

	mu       sync.Mutex
	sessions map[string]*documentSession
}

// Default container size for server-held surfaces. Clients report their real
// viewport through moveend events; only initial pixel math uses this.
var defaultSurfaceSize = mapengine.Point{X: 1024, Y: 768}

func NewService(
	cfg config.Config,
	st dataStore,
	refresh refreshStore,
	authSvc *authpw.Service,
	searchSvc *search.Service,
	archiveSvc *archive.Service,
	artifactsStore *artifacts.Store,
) *Service {
	if refresh == nil {
		refresh = st
	}
	saveDelay := cfg.SaveDelay
	if saveDelay <= 0 {
		saveDelay = time.Second
	}
	return &Service{
		cfg:         cfg,
		store:       st,
		refresh:     refresh,
		auth:        authSvc,
		search:      searchSvc,
		archive:     archiveSvc,
		artifacts:   artifactsStore,
		saveDelay:   saveDelay,
		surfaceSize: defaultSurfaceSize,
		sessions:    map[string]*documentSession{},
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	user, err := s.auth.SignUp(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.refresh.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.refresh.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The Redis backend only stores the user id; complete the record.
	if user.Email == "" {
		user, err = s.store.GetUserByID(ctx, user.ID)
		if err != nil {
			return Session{}, err
		}
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return s.auth.RequestPasswordReset(ctx, email)
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	return s.auth.ResetPassword(ctx, token, newPassword)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		JTI:   util.NewID(),
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refreshToken := util.NewToken(32)
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		ExpiresAt:    expiresAt,
	}, nil
}

// Document returns a snapshot of the user's project, loading (or creating)
// it on first access.
func (s *Service) Document(ctx context.Context, sess Session) (*project.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, err := s.sessionLocked(ctx, sess)
	if err != nil {
		return nil, err
	}
	return ds.doc.Clone(), nil
}

// Apply runs a mutation against the live document, reconciles the map
// surface, and schedules the debounced save. The returned snapshot reflects
// the post-mutation state.
func (s *Service) Apply(ctx context.Context, sess Session, mutate func(*project.Document) error) (*project.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, err := s.sessionLocked(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := mutate(ds.doc); err != nil {
		return nil, err
	}
	ds.engine.Reconcile(ds.doc)
	s.markDirtyLocked(ds)
	return ds.doc.Clone(), nil
}

// SetTheme goes through its own path because the engine must swap the tile
// source in place rather than rebuild the surface.
func (s *Service) SetTheme(ctx context.Context, sess Session, theme project.MapTheme) (*project.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, err := s.sessionLocked(ctx, sess)
	if err != nil {
		return nil, err
	}
	if err := ds.doc.SetTheme(theme); err != nil {
		return nil, err
	}
	ds.engine.SetTheme(theme)
	ds.engine.Reconcile(ds.doc)
	s.markDirtyLocked(ds)
	return ds.doc.Clone(), nil
}

// sessionLocked loads or creates the user's document session. A user with no
// saved project gets the default document, persisted immediately so a crash
// before the first edit still leaves a row behind.
func (s *Service) sessionLocked(ctx context.Context, sess Session) (*documentSession, error) {
	if ds, ok := s.sessions[sess.UserID]; ok {
		return ds, nil
	}

	var doc *project.Document
	raw, err := s.store.GetProject(ctx, sess.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		doc = project.Default()
		data, encErr := doc.Encode()
		if encErr != nil {
			return nil, encErr
		}
		if err := s.store.UpsertProject(ctx, sess.UserID, data); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		doc, err = project.Decode(raw)
		if err != nil {
			return nil, err
		}
	}

	ds := &documentSession{userID: sess.UserID, email: sess.Email, doc: doc}
	setter := func(mutate func(*project.Document)) {
		mutate(ds.doc)
		s.markDirtyLocked(ds)
	}
	hooks := mapengine.Hooks{
		PlaceCoordinate: func(lat, lng float64) {
			ds.placed = &[2]float64{lat, lng}
		},
		SelectLocation: func(locationID string) {
			ds.engine.Select(ds.doc, locationID)
		},
	}
	ds.engine = mapengine.New(doc, s.surfaceSize, setter, hooks)
	ds.engine.Reconcile(doc)
	s.sessions[sess.UserID] = ds

	if s.search != nil {
		s.search.IndexProject(sess.UserID, doc.Clone())
	}
	return ds, nil
}

// markDirtyLocked arms the trailing-edge save timer. Every mutation resets
// the window; only the final state of a burst is written.
func (s *Service) markDirtyLocked(ds *documentSession) {
	ds.dirty = true
	if ds.timer != nil {
		ds.timer.Stop()
	}
	userID := ds.userID
	ds.timer = time.AfterFunc(s.saveDelay, func() { s.flush(userID) })
}

func (s *Service) flush(userID string) {
	s.mu.Lock()
	ds := s.sessions[userID]
	if ds == nil || !ds.dirty {
		s.mu.Unlock()
		return
	}
	ds.dirty = false
	ds.timer = nil
	snapshot := ds.doc.Clone()
	email := ds.email
	s.mu.Unlock()

	s.persist(userID, email, snapshot)
}

func (s *Service) persist(userID, email string, snapshot *project.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data, err := snapshot.Encode()
	if err != nil {
		log.Printf("persist: encode project for user %s: %v", userID, err)
		return
	}
	if err := s.store.UpsertProject(ctx, userID, data); err != nil {
		log.Printf("persist: save project for user %s: %v", userID, err)
		return
	}
	if s.archive != nil {
		if _, err := s.archive.CommitProject(userID, snapshot, email); err != nil {
			log.Printf("persist: archive project for user %s: %v", userID, err)
		}
	}
	if s.search != nil {
		s.search.IndexProject(userID, snapshot)
	}
}

// Close cancels every pending save timer and flushes dirty documents
// synchronously. Called on shutdown so debounced edits are not lost.
func (s *Service) Close() {
	type pendingFlush struct {
		userID   string
		email    string
		snapshot *project.Document
	}

	s.mu.Lock()
	var pending []pendingFlush
	for _, ds := range s.sessions {
		if ds.timer != nil {
			ds.timer.Stop()
			ds.timer = nil
		}
		if ds.dirty {
			ds.dirty = false
			pending = append(pending, pendingFlush{ds.userID, ds.email, ds.doc.Clone()})
		}
	}
	s.mu.Unlock()

	for _, item := range pending {
		s.persist(item.userID, item.email, item.snapshot)
	}
	if s.search != nil {
		s.search.Close()
	}
}

// MapEvent is a gesture reported by the client surface.
type MapEvent struct {
	Type       string  `json:"type"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Zoom       float64 `json:"zoom"`
	LocationID string  `json:"locationId"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Active     bool    `json:"active"`
}

// MapState is the surface summary returned after each event.
type MapState struct {
	Center      [2]float64  `json:"center"`
	Zoom        float64     `json:"zoom"`
	Scale       float64     `json:"scale"`
	Cursor      string      `json:"cursor"`
	Placing     bool        `json:"placing"`
	Selected    string      `json:"selected,omitempty"`
	Markers     int         `json:"markers"`
	Connectors  int         `json:"connectors"`
	Connections int         `json:"connections"`
	Placed      *[2]float64 `json:"placedCoordinate,omitempty"`
}

// HandleMapEvent feeds one gesture into the user's engine and returns the
// resulting surface state. Placement clicks are reported once and cleared.
func (s *Service) HandleMapEvent(ctx context.Context, sess Session, ev MapEvent) (MapState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, err := s.sessionLocked(ctx, sess)
	if err != nil {
		return MapState{}, err
	}

	switch ev.Type {
	case "moveend":
		ds.engine.HandleMoveEnd(mapengine.LatLng{Lat: ev.Lat, Lng: ev.Lng}, ev.Zoom)
	case "zoomend":
		ds.engine.HandleZoomEnd(ev.Zoom)
	case "placemode":
		ds.engine.SetPlacing(ev.Active)
	case "click":
		ds.engine.HandleClick(ev.Lat, ev.Lng)
	case "markerclick":
		ds.engine.HandleMarkerClick(ev.LocationID)
	case "select":
		ds.engine.Select(ds.doc, ev.LocationID)
	case "labeldragend":
		ds.engine.HandleLabelDragEnd(ev.LocationID, ev.X, ev.Y)
	default:
		return MapState{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown map event type", nil)
	}
	ds.engine.Reconcile(ds.doc)

	return s.mapStateLocked(ds), nil
}

// MapStateSnapshot returns the current surface state without an event.
func (s *Service) MapStateSnapshot(ctx context.Context, sess Session) (MapState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, err := s.sessionLocked(ctx, sess)
	if err != nil {
		return MapState{}, err
	}
	return s.mapStateLocked(ds), nil
}

func (s *Service) mapStateLocked(ds *documentSession) MapState {
	surface := ds.engine.Surface()
	view := surface.View()
	state := MapState{
		Center:      [2]float64{view.Center.Lat, view.Center.Lng},
		Zoom:        view.Zoom,
		Scale:       surface.Scale(),
		Cursor:      surface.Cursor(),
		Placing:     ds.engine.Placing(),
		Selected:    ds.engine.Selected(),
		Markers:     surface.MarkerCount(),
		Connectors:  len(surface.Connectors()),
		Connections: len(surface.Connections()),
		Placed:      ds.placed,
	}
	ds.placed = nil
	return state
}

func (s *Service) SearchLocations(ctx context.Context, sess Session, text string, limit int) (search.Response, error) {
	// Warm the session so the fallback index has this user's records.
	s.mu.Lock()
	_, err := s.sessionLocked(ctx, sess)
	s.mu.Unlock()
	if err != nil {
		return search.Response{}, err
	}
	return s.search.Search(ctx, search.Query{UserID: sess.UserID, Text: text, Limit: limit}), nil
}

func (s *Service) ExportHTML(ctx context.Context, sess Session) (*export.Result, error) {
	doc, err := s.Document(ctx, sess)
	if err != nil {
		return nil, err
	}
	result, err := export.GenerateHTML(doc)
	if err != nil {
		return nil, err
	}
	s.storeArtifact(ctx, sess.UserID, result)
	return result, nil
}

func (s *Service) ExportImage(ctx context.Context, sess Session) (*export.Result, error) {
	doc, err := s.Document(ctx, sess)
	if err != nil {
		return nil, err
	}
	result, err := export.GenerateImage(ctx, doc)
	if err != nil {
		return nil, err
	}
	s.storeArtifact(ctx, sess.UserID, result)
	return result, nil
}

func (s *Service) storeArtifact(ctx context.Context, userID string, result *export.Result) {
	if s.artifacts == nil {
		return
	}
	key, err := s.artifacts.PutExport(ctx, userID, result.Filename, result.Data, result.MimeType)
	if err != nil {
		log.Printf("artifacts: store export for user %s: %v", userID, err)
		return
	}
	log.Printf("artifacts: stored export %s", key)
}

func (s *Service) History(ctx context.Context, sess Session, limit int) ([]archive.CommitInfo, error) {
	if s.archive == nil {
		return []archive.CommitInfo{}, nil
	}
	return s.archive.History(sess.UserID, limit)
}
