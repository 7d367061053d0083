package repository

import (
	"errors"
	"strings"

	"showcase/internal/database"
	"showcase/internal/models"

	"gorm.io/gorm"
)

// likeEscape is appended to every LIKE built from user input.
const likeEscape = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// EscapeLike neutralizes LIKE wildcards in user input.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern matches s anywhere in a column.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(strings.TrimSpace(s)) + "%"
}

// FuzzyPattern is ContainsPattern with every run of whitespace widened to
// a wildcard, so "photo shop" matches "Photoshop".
func FuzzyPattern(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = EscapeLike(w)
	}
	return "%" + strings.Join(words, "%") + "%"
}

// ilike is a case-insensitive LIKE condition on column that works on both
// Postgres and SQLite.
func ilike(column string) string {
	return "LOWER(" + column + ") LIKE LOWER(?)" + likeEscape
}

// anyElementLike matches when some element of a JSON string-array text
// column is case-insensitively LIKE the bound pattern. Elements are
// compared one at a time, decoded, so a pattern never spans two elements.
func anyElementLike(db *gorm.DB, column string) string {
	list := "CASE WHEN " + column + " IS NULL OR " + column + " = '' THEN '[]' ELSE " + column + " END"
	if db.Dialector.Name() == "postgres" {
		return "EXISTS (SELECT 1 FROM jsonb_array_elements_text((" + list + ")::jsonb) AS el(v) WHERE " +
			ilike("el.v") + ")"
	}
	return "EXISTS (SELECT 1 FROM json_each(" + list + ") AS el WHERE " + ilike("el.value") + ")"
}

func notFound(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 10
	}
	return offset, limit
}
