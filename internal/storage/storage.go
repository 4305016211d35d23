// Package storage archives finished games in a Badger database and
// derives summary statistics over the archive.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/xid"

	"github.com/yourusername/goengine/pkg/engine"
	"github.com/yourusername/goengine/pkg/game"
)

const gamePrefix = "game:"

// ErrNotFound reports a game id with no archive entry.
var ErrNotFound = errors.New("storage: game not found")

// ArchivedGame is one finished game as stored: the record flattened to
// SGF plus the summary fields the list and stats endpoints read.
type ArchivedGame struct {
	ID             string    `json:"id"`
	BlackPlayer    string    `json:"black_player"`
	WhitePlayer    string    `json:"white_player"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Komi           float64   `json:"komi"`
	Handicap       int       `json:"handicap,omitempty"`
	Result         string    `json:"result,omitempty"`
	Moves          int       `json:"moves"`
	PrisonersBlack int       `json:"prisoners_black"`
	PrisonersWhite int       `json:"prisoners_white"`
	SGF            string    `json:"sgf"`
	SavedAt        time.Time `json:"saved_at"`
}

// Record rebuilds the full game record from the stored SGF.
func (ag *ArchivedGame) Record() (*game.Record, error) {
	return game.ImportSGF(strings.NewReader(ag.SGF))
}

// Store wraps BadgerDB for the game archive.
type Store struct {
	db *badger.DB
}

// Open opens the archive at dir. An empty dir keeps the whole archive
// in memory, which is what the tests and the server's no-persistence
// mode use.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveGame archives a game record. The record is replayed through the
// rules engine so the stored summary carries the final prisoner counts,
// and a result is scored from the final position when the record does
// not name one. Returns the stored entry with its assigned id.
func (s *Store) SaveGame(rec *game.Record) (*ArchivedGame, error) {
	g, err := rec.Replay()
	if err != nil {
		return nil, fmt.Errorf("replaying record: %w", err)
	}

	var sgf bytes.Buffer
	if err := game.ExportSGF(&sgf, rec); err != nil {
		return nil, err
	}

	result := rec.Result
	if result == "" {
		result = game.ResultString(g.Board(), rec.Komi)
	}

	ag := &ArchivedGame{
		ID:             xid.New().String(),
		BlackPlayer:    rec.BlackPlayer,
		WhitePlayer:    rec.WhitePlayer,
		Width:          rec.Width,
		Height:         rec.Height,
		Komi:           rec.Komi,
		Handicap:       rec.Handicap,
		Result:         result,
		Moves:          len(rec.Moves),
		PrisonersBlack: g.Captures(engine.Black),
		PrisonersWhite: g.Captures(engine.White),
		SGF:            sgf.String(),
		SavedAt:        time.Now().UTC(),
	}

	data, err := json.Marshal(ag)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gameKey(ag.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return ag, nil
}

// LoadGame fetches one archived game by id.
func (s *Store) LoadGame(id string) (*ArchivedGame, error) {
	var ag ArchivedGame

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ag)
		})
	})
	if err != nil {
		return nil, err
	}
	return &ag, nil
}

// ListGames returns every archived game, newest first. Ids are xids,
// which sort by creation time, so the order is stable without a
// secondary index.
func (s *Store) ListGames() ([]*ArchivedGame, error) {
	var games []*ArchivedGame

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(gamePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var ag ArchivedGame
				if err := json.Unmarshal(val, &ag); err != nil {
					return err
				}
				games = append(games, &ag)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(games, func(i, j int) bool { return games[i].ID > games[j].ID })
	return games, nil
}

// DeleteGame removes one archived game.
func (s *Store) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(gameKey(id)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(gameKey(id))
	})
}

func gameKey(id string) []byte {
	return []byte(gamePrefix + id)
}
