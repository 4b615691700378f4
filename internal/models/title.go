package models

type Title struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null;index" json:"name"`
	Year        int       `gorm:"index" json:"year"`
	Description string    `gorm:"type:text" json:"description"`
	CategoryID  *uint     `gorm:"index" json:"-"`
	Category    *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category"`

	// Filled by the store on every read.
	Genres []Genre  `gorm:"-" json:"genre"`
	Rating *float64 `gorm:"->;-:migration" json:"rating"`
}

// GenreTitle links a title to one of its genres.
type GenreTitle struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	TitleID uint  `gorm:"not null;uniqueIndex:idx_genre_title" json:"title_id"`
	Title   Title `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	GenreID uint  `gorm:"not null;uniqueIndex:idx_genre_title;index" json:"genre_id"`
	Genre   Genre `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
