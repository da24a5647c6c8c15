// Package auth resolves the calling account of a marketplace request, either
// from a trusted gateway header or from a server-side session.
//
// Session keys should be 32 or 64 bytes for HMAC authentication and 16, 24 or
// 32 bytes for AES encryption. Generate production keys with:
//
//	openssl rand -base64 32
package auth

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "market:session:"

// errSessionMissing means the cookie decoded but Redis no longer holds the session.
var errSessionMissing = errors.New("session expired")

// RedisStore is a sessions.Store that keeps session values in Redis under
// "market:session:<id>". Only the encrypted id travels in the cookie.
//
// Expiry slides: every successful load pushes the Redis TTL out to the
// configured lifetime again, so an account that keeps trading stays signed in.
type RedisStore struct {
	client  *redis.Client
	codecs  []securecookie.Codec
	options *sessions.Options
	ttl     time.Duration
}

// NewSessionStore returns a RedisStore whose sessions live for ttl after their
// last use. secureCookie should be set whenever the API is served over HTTPS.
func NewSessionStore(client *redis.Client, authKey, encryptionKey []byte, ttl time.Duration, secureCookie bool) *RedisStore {
	return &RedisStore{
		client: client,
		codecs: securecookie.CodecsFromPairs(authKey, encryptionKey),
		ttl:    ttl,
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(ttl / time.Second),
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Get returns the named session, cached per request.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie. A missing, tampered
// or expired cookie yields a fresh session and no error.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	session.ID = id
	switch err := s.load(r.Context(), session); {
	case err == nil:
		session.IsNew = false
	case errors.Is(err, errSessionMissing):
		session.ID = ""
	default:
		return session, err
	}
	return session, nil
}

// Save persists the session and writes its cookie. A negative MaxAge deletes it.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(r.Context(), sessionKeyPrefix+session.ID).Err(); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}
	if err := s.save(r.Context(), session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func newSessionID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

func (s *RedisStore) save(ctx context.Context, session *sessions.Session) error {
	data, err := encodeValues(session.Values)
	if err != nil {
		return err
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.client.Set(ctx, sessionKeyPrefix+session.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("set session in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, session *sessions.Session) error {
	data, err := s.client.GetEx(ctx, sessionKeyPrefix+session.ID, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return errSessionMissing
	}
	if err != nil {
		return fmt.Errorf("get session from redis: %w", err)
	}
	return decodeValues(data, &session.Values)
}

// Values are gob-encoded; custom value types need gob.Register.
func encodeValues(values map[any]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return nil, fmt.Errorf("encode session values: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeValues(data []byte, values *map[any]any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(values); err != nil {
		return fmt.Errorf("decode session values: %w", err)
	}
	return nil
}
