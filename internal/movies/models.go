package movies

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Movie is cached catalog metadata. The ID is the catalog provider's
// external id; records are created lazily the first time a show references
// them and never re-fetched after that.
type Movie struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	Title            string    `json:"title" gorm:"not null;size:255"`
	Overview         string    `json:"overview" gorm:"type:text"`
	PosterPath       string    `json:"poster_path" gorm:"size:255"`
	BackdropPath     string    `json:"backdrop_path" gorm:"size:255"`
	Genres           GenreList `json:"genres" gorm:"type:jsonb"`
	Casts            CastList  `json:"casts" gorm:"type:jsonb"`
	ReleaseDate      string    `json:"release_date" gorm:"size:10"`
	OriginalLanguage string    `json:"original_language" gorm:"size:10"`
	Tagline          string    `json:"tagline" gorm:"size:500"`
	VoteAverage      float64   `json:"vote_average"`
	Runtime          int       `json:"runtime"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Movie) TableName() string {
	return "movies"
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	Name        string `json:"name"`
	ProfilePath string `json:"profile_path"`
}

type GenreList []Genre

func (g GenreList) Value() (driver.Value, error) {
	if g == nil {
		g = GenreList{}
	}
	return json.Marshal(g)
}

func (g *GenreList) Scan(value interface{}) error {
	return scanJSON(value, g)
}

type CastList []CastMember

func (c CastList) Value() (driver.Value, error) {
	if c == nil {
		c = CastList{}
	}
	return json.Marshal(c)
}

func (c *CastList) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func scanJSON(value, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
