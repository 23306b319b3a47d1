package models

// GroupChallenge is a challenge assigned to a competition group: the image to
// provision, the challenge type forwarded to the orchestration backend, and
// the points awarded on completion.
type GroupChallenge struct {
	ID         string            `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	GroupID    string            `gorm:"type:uuid;not null;column:group_id" json:"group_id"`
	Name       string            `gorm:"type:varchar(100);not null" json:"name"`
	Image      string            `gorm:"type:varchar(255);not null" json:"image"`
	ChalType   string            `gorm:"type:varchar(50);not null;column:chal_type" json:"chal_type"`
	AppsConfig string            `gorm:"type:text;column:apps_config" json:"apps_config"`
	Points     int               `gorm:"not null;default:0" json:"points"`
	Group      *CompetitionGroup `gorm:"foreignKey:GroupID" json:"-"`
}
