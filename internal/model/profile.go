package model

// ProfileID is the id of the only gamification profile row.
const ProfileID = 1

const (
	DefaultRankTitle = "Cadet"
	XPPerLevel       = 100
)

// Profile is the single global XP aggregate.
type Profile struct {
	ID        uint   `gorm:"primaryKey;autoIncrement:false;check:id = 1"`
	XP        int    `gorm:"column:xp;default:0"`
	Level     int    `gorm:"default:1"`
	RankTitle string `gorm:"default:Cadet"`
}

func (Profile) TableName() string {
	return "user_profile"
}

// DefaultProfile is reported before the first credit creates the row.
func DefaultProfile() Profile {
	return Profile{ID: ProfileID, XP: 0, Level: LevelFor(0), RankTitle: DefaultRankTitle}
}

// LevelFor derives the level from accumulated XP.
func LevelFor(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// Prefs holds UI preferences. The engine only migrates the table.
type Prefs struct {
	ID           uint   `gorm:"primaryKey;autoIncrement:false;check:id = 1"`
	Theme        string `gorm:"default:cyber"`
	SoundEnabled bool   `gorm:"default:true"`
}

func (Prefs) TableName() string {
	return "user_prefs"
}
