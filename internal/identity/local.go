// Copyright (c) 2026 Keymaster Team
// Studentdir - student directory client
// This source code is licensed under the MIT license found in the LICENSE file.

package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/toeirei/studentdir/internal/clock"
	"github.com/toeirei/studentdir/internal/db"
	"github.com/toeirei/studentdir/internal/logging"
	"github.com/toeirei/studentdir/internal/security"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// DefaultTokenTTL is the refresh token lifetime when none is configured.
const DefaultTokenTTL = 30 * 24 * time.Hour

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at"`
}

type refreshTokenRow struct {
	bun.BaseModel `bun:"table:refresh_tokens"`

	JTI       string    `bun:"jti,pk"`
	UserID    string    `bun:"user_id,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	Revoked   bool      `bun:"revoked,notnull"`
	CreatedAt time.Time `bun:"created_at"`
}

// sessionFile is the on-disk form of the provider's own persisted session.
type sessionFile struct {
	Email        string `yaml:"email"`
	RefreshToken string `yaml:"refresh_token"`
}

// LocalOptions configures a LocalProvider.
type LocalOptions struct {
	SigningKey []byte
	TokenTTL   time.Duration
	// SessionFile is where the provider keeps its own session across
	// restarts. Empty disables provider-side persistence.
	SessionFile string
	Clock       clock.Clock
	Logger      *log.Logger
}

// LocalProvider is a Provider backed by the users and refresh_tokens tables.
type LocalProvider struct {
	bun         *bun.DB
	tokens      *TokenIssuer
	sessionPath string
	clock       clock.Clock
	log         *log.Logger

	mu         sync.Mutex
	current    *Identity
	currentJTI string

	subs        fanout
	restored    chan struct{}
	restoreOnce sync.Once
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider returns a provider over a migrated database. Call Restore
// once to load the persisted session; until then AwaitSessionRestored blocks.
func NewLocalProvider(bdb *bun.DB, opts LocalOptions) (*LocalProvider, error) {
	if bdb == nil {
		return nil, errors.New("identity: nil database")
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer, err := NewTokenIssuer(opts.SigningKey, ttl, clk.Now)
	if err != nil {
		return nil, err
	}
	return &LocalProvider{
		bun:         bdb,
		tokens:      issuer,
		sessionPath: opts.SessionFile,
		clock:       clk,
		log:         logging.Or(opts.Logger),
		restored:    make(chan struct{}),
	}, nil
}

// Restore tries once to resume the session recorded in the session file and
// then releases AwaitSessionRestored. A missing, unreadable or rejected
// session leaves the provider signed out.
func (p *LocalProvider) Restore(ctx context.Context) {
	p.restoreOnce.Do(func() {
		defer close(p.restored)
		sf, err := p.readSessionFile()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				p.log.Warn("session file unreadable", "path", p.sessionPath, "err", err)
			}
			return
		}
		if _, err := p.resume(ctx, sf.Email, security.FromString(sf.RefreshToken), false); err != nil {
			p.log.Warn("stored session rejected", "email", sf.Email, "err", err)
			p.removeSessionFile()
			return
		}
		p.log.Debug("session restored", "email", sf.Email)
	})
}

// Subscribe implements Provider. The first notification carries the
// identity current at subscription time, which is nil while Restore is
// still running.
func (p *LocalProvider) Subscribe(fn Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subs.add(fn, p.current)
}

// AwaitSessionRestored implements Provider.
func (p *LocalProvider) AwaitSessionRestored(ctx context.Context) error {
	select {
	case <-p.restored:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentIdentity implements Provider.
func (p *LocalProvider) CurrentIdentity() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// SignIn implements Provider.
func (p *LocalProvider) SignIn(ctx context.Context, email string, password security.Secret) (Session, error) {
	const op = "sign in"
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, authErr(op, err)
	}
	u, err := p.userByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Session{}, authErr(op, ErrInvalidCredentials)
		}
		return Session{}, authErr(op, err)
	}
	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return Session{}, authErr(op, ErrInvalidCredentials)
		}
		return Session{}, authErr(op, err)
	}

	token, jti, expiresAt, err := p.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return Session{}, authErr(op, fmt.Errorf("issue token: %w", err))
	}
	row := &refreshTokenRow{JTI: jti, UserID: u.ID, ExpiresAt: expiresAt, CreatedAt: p.clock.Now().UTC()}
	if _, err := p.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return Session{}, authErr(op, db.MapDBError(err))
	}

	ident := Identity{ID: u.ID, Email: u.Email, Confirmed: true}
	p.writeSessionFile(sessionFile{Email: u.Email, RefreshToken: token})
	p.setCurrent(&ident, jti)
	p.log.Debug("signed in", "id", u.ID)
	return Session{Identity: ident, RefreshToken: security.FromString(token)}, nil
}

// SignUp implements Provider. The new account is not signed in.
func (p *LocalProvider) SignUp(ctx context.Context, email string, password security.Secret) (Identity, error) {
	const op = "sign up"
	email, err := normalizeEmail(email)
	if err != nil {
		return Identity{}, authErr(op, err)
	}
	if len(password) < MinPasswordLength {
		return Identity{}, authErr(op, ErrWeakPassword)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return Identity{}, authErr(op, err)
	}
	u := &userRow{ID: uuid.NewString(), Email: email, PasswordHash: hash, CreatedAt: p.clock.Now().UTC()}
	if _, err := p.bun.NewInsert().Model(u).Exec(ctx); err != nil {
		if errors.Is(db.MapDBError(err), db.ErrDuplicate) {
			return Identity{}, authErr(op, ErrEmailInUse)
		}
		return Identity{}, authErr(op, err)
	}
	p.log.Debug("account created", "id", u.ID)
	return Identity{ID: u.ID, Email: u.Email, Confirmed: true}, nil
}

// SignOut implements Provider. It revokes the current refresh token and
// notifies subscribers with nil. Signing out while signed out is a no-op.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	signedIn := p.current != nil
	jti := p.currentJTI
	p.mu.Unlock()
	if !signedIn {
		return nil
	}
	if jti != "" {
		_, err := p.bun.NewUpdate().Model((*refreshTokenRow)(nil)).
			Set("revoked = ?", true).
			Where("jti = ?", jti).
			Exec(ctx)
		if err != nil {
			return authErr("sign out", err)
		}
	}
	p.removeSessionFile()
	p.setCurrent(nil, "")
	p.log.Debug("signed out")
	return nil
}

// Resume implements Provider. The token is not rotated, so the caller's
// cached copy stays valid.
func (p *LocalProvider) Resume(ctx context.Context, email string, token security.Secret) (Identity, error) {
	return p.resume(ctx, email, token, true)
}

func (p *LocalProvider) resume(ctx context.Context, email string, token security.Secret, persist bool) (Identity, error) {
	const op = "resume"
	email, err := normalizeEmail(email)
	if err != nil {
		return Identity{}, authErr(op, err)
	}
	claims, err := p.tokens.Validate(token.Reveal())
	if err != nil {
		return Identity{}, authErr(op, err)
	}
	if !strings.EqualFold(claims.Email, email) {
		return Identity{}, authErr(op, ErrInvalidToken)
	}

	var row refreshTokenRow
	if err := p.bun.NewSelect().Model(&row).Where("jti = ?", claims.ID).Limit(1).Scan(ctx); err != nil {
		if errors.Is(db.MapDBError(err), db.ErrNotFound) {
			return Identity{}, authErr(op, ErrInvalidToken)
		}
		return Identity{}, authErr(op, err)
	}
	if row.Revoked || row.UserID != claims.Subject || !row.ExpiresAt.After(p.clock.Now()) {
		return Identity{}, authErr(op, ErrInvalidToken)
	}

	u, err := p.userByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return Identity{}, authErr(op, ErrInvalidToken)
		}
		return Identity{}, authErr(op, err)
	}
	if u.ID != claims.Subject {
		return Identity{}, authErr(op, ErrInvalidToken)
	}

	ident := Identity{ID: u.ID, Email: u.Email, Confirmed: true}
	if persist {
		p.writeSessionFile(sessionFile{Email: u.Email, RefreshToken: token.Reveal()})
	}
	p.setCurrent(&ident, row.JTI)
	return ident, nil
}

// Close drops every subscriber.
func (p *LocalProvider) Close() {
	p.subs.closeAll()
}

func (p *LocalProvider) setCurrent(ident *Identity, jti string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = ident.Clone()
	p.currentJTI = jti
	p.subs.publish(ident)
}

func (p *LocalProvider) userByEmail(ctx context.Context, email string) (*userRow, error) {
	var u userRow
	if err := p.bun.NewSelect().Model(&u).Where("email = ?", email).Limit(1).Scan(ctx); err != nil {
		return nil, db.MapDBError(err)
	}
	return &u, nil
}

func (p *LocalProvider) readSessionFile() (sessionFile, error) {
	var sf sessionFile
	if p.sessionPath == "" {
		return sf, os.ErrNotExist
	}
	data, err := os.ReadFile(p.sessionPath)
	if err != nil {
		return sf, err
	}
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("parse %s: %w", p.sessionPath, err)
	}
	if sf.Email == "" || sf.RefreshToken == "" {
		return sf, fmt.Errorf("parse %s: incomplete session", p.sessionPath)
	}
	return sf, nil
}

// writeSessionFile is best effort. A failed write only means the next
// start will not restore on its own.
func (p *LocalProvider) writeSessionFile(sf sessionFile) {
	if p.sessionPath == "" {
		return
	}
	data, err := yaml.Marshal(sf)
	if err == nil {
		if err = os.MkdirAll(filepath.Dir(p.sessionPath), 0o700); err == nil {
			err = os.WriteFile(p.sessionPath, data, 0o600)
		}
	}
	if err != nil {
		p.log.Warn("could not persist session", "path", p.sessionPath, "err", err)
	}
}

func (p *LocalProvider) removeSessionFile() {
	if p.sessionPath == "" {
		return
	}
	if err := os.Remove(p.sessionPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.log.Warn("could not remove session file", "path", p.sessionPath, "err", err)
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
