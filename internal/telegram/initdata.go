// Package telegram implements the server side of the Telegram WebApp
// contract: verification of signed init data and outbound bot messages.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultInitDataMaxAge bounds how long signed init data stays
	// replayable when no explicit age is configured.
	DefaultInitDataMaxAge = 24 * time.Hour

	minInitDataMaxAge = time.Minute
)

var (
	ErrMissingHash      = errors.New("missing hash")
	ErrMissingAuthDate  = errors.New("missing auth_date")
	ErrStaleInitData    = errors.New("init data is too old")
	ErrMissingUser      = errors.New("missing user")
	ErrInvalidUser      = errors.New("invalid user payload")
	ErrInvalidSignature = errors.New("invalid signature")
)

// WebAppUser is the identity extracted from verified init data. ID is the
// stringified Telegram user id.
type WebAppUser struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
}

// InitData is the trusted result of a successful verification.
type InitData struct {
	User     WebAppUser
	AuthDate int64
}

// VerifyInitData checks that raw init data was signed by Telegram for the
// bot identified by botToken and is no older than maxAge. It is pure apart
// from reading the clock; every rejection path returns a distinct error.
func VerifyInitData(raw, botToken string, maxAge time.Duration) (*InitData, error) {
	return verifyInitDataAt(raw, botToken, maxAge, time.Now())
}

func verifyInitDataAt(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, errors.New("malformed init data")
	}

	receivedHash := strings.TrimSpace(values.Get("hash"))
	if receivedHash == "" {
		return nil, ErrMissingHash
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil || authDate <= 0 {
		return nil, ErrMissingAuthDate
	}

	if maxAge <= 0 {
		maxAge = DefaultInitDataMaxAge
	}
	if maxAge < minInitDataMaxAge {
		maxAge = minInitDataMaxAge
	}
	if authDate < now.Unix()-int64(maxAge/time.Second) {
		return nil, ErrStaleInitData
	}

	userRaw := strings.TrimSpace(values.Get("user"))
	if userRaw == "" {
		return nil, ErrMissingUser
	}
	var payload struct {
		ID           *int64 `json:"id"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		FirstNameAlt string `json:"firstName"`
		LastName     string `json:"last_name"`
		LastNameAlt  string `json:"lastName"`
	}
	if err := json.Unmarshal([]byte(userRaw), &payload); err != nil {
		return nil, errors.New("invalid user JSON")
	}
	if payload.ID == nil {
		return nil, ErrInvalidUser
	}

	expected := computeInitDataHash(values, botToken)
	got, err := hex.DecodeString(receivedHash)
	if err != nil || !hmac.Equal(got, expected) {
		return nil, ErrInvalidSignature
	}

	return &InitData{
		User: WebAppUser{
			ID:        strconv.FormatInt(*payload.ID, 10),
			Username:  payload.Username,
			FirstName: firstNonEmpty(payload.FirstName, payload.FirstNameAlt),
			LastName:  firstNonEmpty(payload.LastName, payload.LastNameAlt),
		},
		AuthDate: authDate,
	}, nil
}

// computeInitDataHash builds the canonical data-check string (all fields
// except hash, byte-sorted by key, joined as key=value lines) and signs it:
//
//	secret = HMAC_SHA256(key="WebAppData", message=botToken)
//	hash   = HMAC_SHA256(key=secret, message=dataCheckString)
func computeInitDataHash(values url.Values, botToken string) []byte {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	dataCheckString := strings.Join(lines, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString))
	return mac.Sum(nil)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
