package models

import (
	"time"
)

const (
	MinScore = 0
	MaxScore = 10
)

type Review struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TitleID  uint      `gorm:"not null;uniqueIndex:idx_review_title_author" json:"-"`
	Title    Title     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID uint      `gorm:"not null;uniqueIndex:idx_review_title_author;index" json:"-"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Text     string    `gorm:"type:text" json:"text"`
	Score    int       `gorm:"not null;check:score >= 0 AND score <= 10" json:"score"`
	PubDate  time.Time `gorm:"autoCreateTime;index" json:"pub_date"`
}
