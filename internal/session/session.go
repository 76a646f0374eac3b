package session

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"procdeck/internal/domain"
)

// State keys. selectedCountry holds a JSON-encoded domain.Country, matching
// how the web dashboard stored it.
const (
	keyAccessToken     = "access_token"
	keyRefreshToken    = "refresh_token"
	keySelectedCountry = "selectedCountry"
	keySprintNumber    = "sprint_number"
	keyStageIndex      = "stage_index"
)

// Store is the durable per-workspace session state: auth tokens, the globally
// selected country, and the sprint stage pointer.
type Store struct {
	DB *sql.DB
}

// Open opens (and migrates) the session database for a workspace.
func Open(workspace string) (*Store, error) {
	db, err := openDB(workspace)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) get(key string) (string, bool, error) {
	var v string
	err := s.DB.QueryRow(`SELECT value FROM state WHERE key=?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.DB.Exec(`INSERT INTO state(key,value) VALUES (?,?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func (s *Store) delete(key string) error {
	_, err := s.DB.Exec(`DELETE FROM state WHERE key=?`, key)
	return err
}

// Tokens returns the stored access/refresh pair; empty strings when logged out.
func (s *Store) Tokens() (access, refresh string, err error) {
	access, _, err = s.get(keyAccessToken)
	if err != nil {
		return "", "", err
	}
	refresh, _, err = s.get(keyRefreshToken)
	return access, refresh, err
}

// SetTokens persists a token pair.
func (s *Store) SetTokens(access, refresh string) error {
	if err := s.set(keyAccessToken, access); err != nil {
		return err
	}
	return s.set(keyRefreshToken, refresh)
}

// ClearTokens logs the workspace out.
func (s *Store) ClearTokens() error {
	if err := s.delete(keyAccessToken); err != nil {
		return err
	}
	return s.delete(keyRefreshToken)
}

// SelectedCountry returns the persisted country selection, nil when none.
func (s *Store) SelectedCountry() (*domain.Country, error) {
	raw, ok, err := s.get(keySelectedCountry)
	if err != nil || !ok {
		return nil, err
	}
	var c domain.Country
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode selected country: %w", err)
	}
	return &c, nil
}

// SetSelectedCountry persists the selection; nil clears it.
func (s *Store) SetSelectedCountry(c *domain.Country) error {
	if c == nil {
		return s.delete(keySelectedCountry)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.set(keySelectedCountry, string(raw))
}

// Sprint returns the persisted sprint number and stage pointer, defaulting to
// sprint 1 at stage 0.
func (s *Store) Sprint() (number, stage int, err error) {
	number, stage = 1, 0
	if raw, ok, e := s.get(keySprintNumber); e != nil {
		return 0, 0, e
	} else if ok {
		fmt.Sscanf(raw, "%d", &number)
	}
	if raw, ok, e := s.get(keyStageIndex); e != nil {
		return 0, 0, e
	} else if ok {
		fmt.Sscanf(raw, "%d", &stage)
	}
	return number, stage, nil
}

// SetSprint persists the sprint number and stage pointer.
func (s *Store) SetSprint(number, stage int) error {
	if err := s.set(keySprintNumber, fmt.Sprintf("%d", number)); err != nil {
		return err
	}
	return s.set(keyStageIndex, fmt.Sprintf("%d", stage))
}
