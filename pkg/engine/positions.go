package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// PositionCategory buckets catalog positions by the idea they show.
type PositionCategory int

const (
	CategoryUnknown PositionCategory = iota
	CategoryOpening
	CategoryMiddlegame
	CategoryEndgame
	CategoryCapture
	CategoryKo
	CategorySuicide
	CategoryScoring
	CategoryHandicap
)

// String returns the human-readable name of the category.
func (c PositionCategory) String() string {
	return [...]string{
		"Unknown", "Opening", "Middlegame", "Endgame", "Capture",
		"Ko", "Suicide", "Scoring", "Handicap",
	}[c]
}

// PositionEntry is one named reference position.
type PositionEntry struct {
	Name        string           `json:"name"`
	Category    PositionCategory `json:"category"`
	Description string           `json:"description"`
	Diagram     string           `json:"diagram"` // bare diagram, highest row first
	ToMove      Content          `json:"toMove"`
	Tags        []string         `json:"tags"`
}

// Board parses the entry's diagram into a fresh board.
func (e *PositionEntry) Board() (*Board, error) {
	return ParseBoard(e.Diagram)
}

// PositionDB is an in-memory catalog of reference positions, indexed by
// name, category and tag.
type PositionDB struct {
	mu         sync.RWMutex
	byName     map[string]*PositionEntry
	byCategory map[PositionCategory][]*PositionEntry
	byTag      map[string][]*PositionEntry
}

// NewPositionDB creates an empty catalog.
func NewPositionDB() *PositionDB {
	return &PositionDB{
		byName:     make(map[string]*PositionEntry),
		byCategory: make(map[PositionCategory][]*PositionEntry),
		byTag:      make(map[string][]*PositionEntry),
	}
}

// Add puts an entry into the catalog, replacing any entry with the same
// name in the name index.
func (db *PositionDB) Add(entry *PositionEntry) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.byName[entry.Name] = entry
	db.byCategory[entry.Category] = append(db.byCategory[entry.Category], entry)
	for _, tag := range entry.Tags {
		db.byTag[tag] = append(db.byTag[tag], entry)
	}
}

// Get retrieves an entry by name, or nil.
func (db *PositionDB) Get(name string) *PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.byName[name]
}

// GetByCategory returns all entries in a category.
func (db *PositionDB) GetByCategory(cat PositionCategory) []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.byCategory[cat]
}

// GetByTag returns all entries carrying a tag.
func (db *PositionDB) GetByTag(tag string) []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.byTag[tag]
}

// Search finds entries whose name, description or tags contain the query,
// case-insensitively.
func (db *PositionDB) Search(query string) []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	q := strings.ToLower(query)
	var results []*PositionEntry
	for _, e := range db.byName {
		if matchesQuery(e, q) {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

// Count returns the number of entries.
func (db *PositionDB) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.byName)
}

// All returns every entry, sorted by name.
func (db *PositionDB) All() []*PositionEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	results := make([]*PositionEntry, 0, len(db.byName))
	for _, e := range db.byName {
		results = append(results, e)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

func matchesQuery(e *PositionEntry, q string) bool {
	if strings.Contains(strings.ToLower(e.Name), q) ||
		strings.Contains(strings.ToLower(e.Description), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// ClassifyPosition buckets a live position by how far the game has
// progressed. Scoring mode wins outright; otherwise the stone density
// decides.
func ClassifyPosition(b *Board) PositionCategory {
	if b.Scoring() {
		return CategoryScoring
	}
	stones := b.black.Or(b.white).PopCount()
	switch {
	case stones*5 < b.geo.cells: // under 20% full
		return CategoryOpening
	case stones*10 < b.geo.cells*7: // under 70% full
		return CategoryMiddlegame
	default:
		return CategoryEndgame
	}
}

// BoardSimilarity returns the fraction of cells with identical content,
// or 0 for boards of different sizes.
func BoardSimilarity(a, b *Board) float64 {
	if a.width != b.width || a.height != b.height {
		return 0
	}
	diff := a.black.Xor(b.black).Or(a.white.Xor(b.white))
	return float64(a.geo.cells-diff.PopCount()) / float64(a.geo.cells)
}

// PositionSimilarity pairs a catalog entry with its similarity score.
type PositionSimilarity struct {
	Entry      *PositionEntry
	Similarity float64 // 0.0 to 1.0
}

// FindSimilar returns the catalog entries closest to the given board,
// best first, keeping scores above 0.5 only.
func (db *PositionDB) FindSimilar(b *Board, maxResults int) []PositionSimilarity {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var results []PositionSimilarity
	for _, e := range db.byName {
		eb, err := e.Board()
		if err != nil {
			continue
		}
		if sim := BoardSimilarity(b, eb); sim > 0.5 {
			results = append(results, PositionSimilarity{Entry: e, Similarity: sim})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Entry.Name < results[j].Entry.Name
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// ParseBoard reads a bare board diagram: one whitespace-separated token
// per cell, one line per row, highest row first. X or x is Black, O or o
// is White, . is empty. Blank lines are skipped.
func ParseBoard(diagram string) (*Board, error) {
	var rows [][]string
	for _, line := range strings.Split(diagram, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		rows = append(rows, fields)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("engine: empty board diagram")
	}
	width := len(rows[0])
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("engine: diagram row %d has %d cells, want %d", i+1, len(row), width)
		}
	}
	b, err := NewBoard(width, len(rows))
	if err != nil {
		return nil, err
	}
	for ry, row := range rows {
		y := len(rows) - 1 - ry
		for x, tok := range row {
			switch tok {
			case "X", "x":
				b.Set(x, y, Black)
			case "O", "o":
				b.Set(x, y, White)
			case ".":
			default:
				return nil, fmt.Errorf("engine: unknown diagram token %q", tok)
			}
		}
	}
	return b, nil
}

// DefaultPositionDB builds the catalog of stock reference positions.
func DefaultPositionDB() *PositionDB {
	db := NewPositionDB()

	db.Add(&PositionEntry{
		Name:        "empty-9",
		Category:    CategoryOpening,
		Description: "Empty 9x9 board, Black to open",
		Diagram:     strings.Repeat(". . . . . . . . .\n", 9),
		ToMove:      Black,
		Tags:        []string{"empty", "9x9", "opening"},
	})

	db.Add(&PositionEntry{
		Name:        "ko-basic",
		Category:    CategoryKo,
		Description: "Mid-fight ko shape, Black to take at (3,2)",
		Diagram: `
. . . . .
. . X O .
. X O . O
. . X O .
. . . . .`,
		ToMove: Black,
		Tags:   []string{"ko", "superko", "5x5"},
	})

	db.Add(&PositionEntry{
		Name:        "corner-suicide",
		Category:    CategorySuicide,
		Description: "White (0,0) would be a suicide: both neighbors are Black",
		Diagram: `
. . .
X . .
. X .`,
		ToMove: White,
		Tags:   []string{"suicide", "corner", "3x3"},
	})

	db.Add(&PositionEntry{
		Name:        "atari-center",
		Category:    CategoryCapture,
		Description: "White center stone in atari, Black (1,2) captures",
		Diagram: `
. . .
X O X
. X .`,
		ToMove: Black,
		Tags:   []string{"atari", "capture", "3x3"},
	})

	db.Add(&PositionEntry{
		Name:        "walls-5x5",
		Category:    CategoryScoring,
		Description: "Two walls, settled territory: 5 points Black, 10 points White",
		Diagram:     strings.Repeat(". X O . .\n", 5),
		ToMove:      Black,
		Tags:        []string{"territory", "scoring", "5x5"},
	})

	if pts, err := handicapPoints(9, 9, 4); err == nil {
		b, _ := NewBoard(9, 9)
		for _, p := range pts {
			b.Set(p.X, p.Y, Black)
		}
		db.Add(&PositionEntry{
			Name:        "handicap-9x9-4",
			Category:    CategoryHandicap,
			Description: "Four handicap stones on the 9x9 star points, White to move",
			Diagram:     diagramOf(b),
			ToMove:      White,
			Tags:        []string{"handicap", "9x9"},
		})
	}

	return db
}

// diagramOf renders a bare diagram (no labels) that ParseBoard accepts.
func diagramOf(b *Board) string {
	var sb strings.Builder
	for y := b.height - 1; y >= 0; y-- {
		for x := 0; x < b.width; x++ {
			switch b.Get(x, y) {
			case Black:
				sb.WriteByte('X')
			case White:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
			if x < b.width-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
