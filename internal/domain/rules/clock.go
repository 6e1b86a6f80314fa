package rules

import "time"

// Clock fuente de tiempo inyectable en los stores.
type Clock func() time.Time

// Stamp normaliza un instante a UTC con precisión de microsegundos (la de PostgreSQL),
// de modo que lo devuelto por Save coincide con lo leído después.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// UpdatedAt calcula el nuevo updated_at garantizando updated_at >= created_at.
func UpdatedAt(now, createdAt time.Time) time.Time {
	now = Stamp(now)
	if now.Before(createdAt) {
		return createdAt
	}
	return now
}
