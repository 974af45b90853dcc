package naming

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"unicode/utf8"
)

// MaxIdentifierLength is the most restrictive identifier length among the
// supported databases.
const MaxIdentifierLength = 30

// ConstraintName builds a constraint name of at most MaxIdentifierLength
// characters: the table name (truncated when needed), the role tag and the
// sequence number joined by underscores.
//
// Truncation is lossy. Two table names sharing their first maxBody characters
// produce the same name; use a Registry to detect that.
func ConstraintName(tableName, roleTag string, seq int) string {
	num := strconv.Itoa(seq)
	maxBody := MaxIdentifierLength - utf8.RuneCountInString(roleTag) - len(num) - 2
	body := tableName
	if maxBody < 0 {
		maxBody = 0
	}
	if runes := []rune(body); len(runes) > maxBody {
		body = string(runes[:maxBody])
	}
	return body + Separator + roleTag + Separator + num
}

// Collision describes two different sources that produced the same
// generated name.
type Collision struct {
	Name   string
	First  string
	Second string
}

func (c Collision) String() string {
	return fmt.Sprintf("%s generated for both %s and %s", c.Name, c.First, c.Second)
}

// Registry records generated names within one generation run and reports
// names produced by more than one source. It never alters a name.
type Registry struct {
	mu         sync.Mutex
	sources    map[string]string
	collisions []Collision
	logger     *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger means slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sources: make(map[string]string),
		logger:  logger,
	}
}

// Generate builds a constraint name for source and records it.
func (r *Registry) Generate(source, tableName, roleTag string, seq int) string {
	name := ConstraintName(tableName, roleTag, seq)
	r.Record(source, name)
	return name
}

// Record registers name as produced by source. It reports whether the name
// was free.
func (r *Registry) Record(source, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.sources[name]
	if !ok {
		r.sources[name] = source
		return true
	}
	if prev == source {
		return true
	}
	c := Collision{Name: name, First: prev, Second: source}
	r.collisions = append(r.collisions, c)
	r.logger.Warn("generated constraint name collision", "name", name, "first", prev, "second", source)
	return false
}

// Collisions returns the collisions recorded so far, in detection order.
func (r *Registry) Collisions() []Collision {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Collision(nil), r.collisions...)
}
